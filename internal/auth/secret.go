package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateOpaqueToken returns a random token of the form "<prefix>_<hex>",
// along with its sha256 hex digest. Only the digest is persisted; the raw
// token is shown to the caller exactly once (bootstrap tokens, node keys).
func GenerateOpaqueToken(prefix string) (raw string, hash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generating token entropy: %w", err)
	}
	raw = fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(buf))
	return raw, HashToken(raw), nil
}

// HashToken returns the sha256 hex digest of a raw opaque token. Tokens are
// never stored in the clear, only their hash, so a database leak does not
// expose usable credentials.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
