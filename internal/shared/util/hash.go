package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey returns a stable hex identifier for a user ID so that storage
// keys never carry the raw ID.
func HashUserKey(userID string) string {
	sum := sha256.Sum256([]byte("owner:" + userID))
	return hex.EncodeToString(sum[:])
}
