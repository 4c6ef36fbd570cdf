package util

import "github.com/google/uuid"

// NewID returns a random UUIDv4 string used to correlate a request's log
// lines. It never names filesystem artifacts.
func NewID() string {
	return uuid.NewString()
}
