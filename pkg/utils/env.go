// Package utils holds small environment and string helpers shared across
// droneflow's command entrypoints and config loader.
package utils

import (
	"os"
	"strconv"
	"strings"
)

// GetEnv retrieves an environment variable or returns a default value if
// it is unset or empty.
func GetEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// BoolFromEnv converts an environment variable to a boolean. "true",
// "yes", "1", "on" are true (case-insensitive); anything else, including
// an unset variable, falls back to defaultVal.
func BoolFromEnv(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	val = strings.ToLower(val)
	return val == "true" || val == "yes" || val == "1" || val == "on"
}

// IntFromEnv parses an integer environment variable, falling back to
// defaultVal if unset or unparseable.
func IntFromEnv(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// RedactSecret returns a string safe to log in place of a secret value: the
// first few characters followed by an ellipsis, or "(unset)" if empty.
func RedactSecret(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	n := 6
	if len(secret) < n {
		n = len(secret)
	}
	return secret[:n] + "..."
}
