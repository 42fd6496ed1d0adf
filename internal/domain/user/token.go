package user

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const tokenPrefix = "lt_"

// HashToken returns the hex sha256 digest stored for a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewToken generates a random API token.
func NewToken() string {
	return tokenPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
