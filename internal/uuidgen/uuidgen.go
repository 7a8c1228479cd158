// Package uuidgen centralizes entity UUID generation so only one
// package imports google/uuid directly.
package uuidgen

import "github.com/google/uuid"

// New returns a freshly generated UUID string, assigned by the daemon
// on entity registration.
func New() string {
	return uuid.New().String()
}
