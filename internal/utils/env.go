package utils

import (
	"os"
	"strings"
)

// SafeEnv returns the value of key, or fallback when the variable is
// unset or blank. Whitespace-only values count as unset so a stray
// space in a .env file cannot select the in-memory store by accident.
func SafeEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}
