package utils

import (
	"os"
	"strconv"
	"strings"
)

// GetEnv retrieves an environment variable or returns a default value if not set
func GetEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// ExpandEnvVars expands ${VAR} references in a string
func ExpandEnvVars(s string) string {
	return os.ExpandEnv(s)
}

// BoolFromEnv converts an environment variable to a boolean
// "true", "yes", "1", "on" are considered true (case-insensitive)
// Any other value is considered false
func BoolFromEnv(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	val = strings.ToLower(val)
	return val == "true" || val == "yes" || val == "1" || val == "on"
}

// IntFromEnv converts an environment variable to an int, falling back to
// the default on missing or unparseable values
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
