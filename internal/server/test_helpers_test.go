package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sandapan/Yishimo-Kawazaki/internal/config"
	"github.com/Sandapan/Yishimo-Kawazaki/internal/game"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// testConfig offers every power on each draw so websocket tests can steer
// the killer toward a known power.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.Rules.PowerOptions = len(game.PowerCatalog())
	return cfg
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

// createGame creates a session hosted by Ada the medic and returns the join
// code and host id.
func createGame(t *testing.T, ts *httptest.Server) (string, string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games", map[string]any{
		"host_name":  "Ada",
		"host_class": "medic",
		"role":       "survivor",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create game: status %d", resp.StatusCode)
	}
	payload := decodeBody(t, resp)
	code, _ := payload["session_id"].(string)
	hostID, _ := payload["player_id"].(string)
	if code == "" || hostID == "" {
		t.Fatalf("create game response missing ids: %v", payload)
	}
	return code, hostID
}

func joinPlayer(t *testing.T, ts *httptest.Server, code, name, class, role string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/join", map[string]any{
		"player_name":  name,
		"player_class": class,
		"role":         role,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join %s: status %d", name, resp.StatusCode)
	}
	payload := decodeBody(t, resp)
	playerID, _ := payload["player_id"].(string)
	if playerID == "" {
		t.Fatalf("join response missing player_id: %v", payload)
	}
	return playerID
}

func startGame(t *testing.T, ts *httptest.Server, code, hostID string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/start", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start game: status %d", resp.StatusCode)
	}
}

func fetchView(t *testing.T, ts *httptest.Server, code, playerID string) map[string]any {
	t.Helper()
	path := "/api/games/" + code
	if playerID != "" {
		path += "?player_id=" + playerID
	}
	resp := doRequest(t, ts, http.MethodGet, path, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fetch game: status %d", resp.StatusCode)
	}
	return decodeBody(t, resp)
}
