// Package util holds small helpers shared across the service.
package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random identifier, prefixed like "usr_..." for user
// rows and "prg_..." for progress rows so IDs are recognizable in logs.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
