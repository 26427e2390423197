package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Sandapan/Yishimo-Kawazaki/internal/game"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeGameError maps the engine error taxonomy onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	var validation *game.ValidationError
	var capacity *game.CapacityError
	var composition *game.CompositionError
	switch {
	case errors.Is(err, errSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &capacity):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &composition):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
