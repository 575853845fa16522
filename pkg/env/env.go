package env

import "os"

// Get reads an environment variable, falling back when it is unset or
// empty. Reserved for the few platform variables (PORT, DYNO, LOG_FORMAT)
// that live outside the prefixed config.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
