package envconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Get returns the value of the requested environment variable or the supplied fallback when empty.
func Get(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

// MustGet returns the value of the requested environment variable or panics if it's empty.
func MustGet(name string) string {
	value := os.Getenv(name)
	if value == "" {
		panic(fmt.Sprintf("expected env %s to be set", name))
	}
	return value
}

// GetInt parses an integer variable, returning fallback when unset or malformed.
func GetInt(name string, fallback int) int {
	raw := strings.TrimSpace(Get(name, ""))
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}

// GetBool parses the usual truthy spellings; anything else is false.
func GetBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(Get(name, ""))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// GetList splits a comma separated variable, dropping blanks.
func GetList(name string) []string {
	var out []string
	for _, part := range strings.Split(Get(name, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates a struct using validator tags.
func Validate(v any) error {
	return validate.Struct(v)
}
