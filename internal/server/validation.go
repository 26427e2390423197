package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength  = 20
	maxClassLength = 24
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// requestValidator carries the struct-tag rules for inbound JSON bodies.
// Custom tags reuse the text helpers below so HTTP and websocket inputs are
// held to the same rules.
func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("playername", func(fl validator.FieldLevel) bool {
			_, err := validateName(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("playerclass", func(fl validator.FieldLevel) bool {
			_, err := validateClass(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

func validateRequest(req any) error {
	if err := requestValidator().Struct(req); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return errors.New("invalid request")
		}
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return fmt.Errorf("invalid field %s", strings.ToLower(fields[0].Field()))
		}
		return err
	}
	return nil
}

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateClass(class string) (string, error) {
	return validateText("class", class, maxClassLength)
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed) {
		return "", fmt.Errorf("%s contains unsupported characters", label)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '.':
			continue
		default:
			return false
		}
	}
	return true
}
