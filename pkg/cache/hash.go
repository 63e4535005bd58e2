package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a snapshot key of the form prefix:hash(parts...). The
// parts (interpreter path, site-packages fingerprint) are JSON-encoded
// before hashing so the key is stable across processes.
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// contentHash returns the SHA-256 of data as a 64-character hex string.
// The file backend uses it to derive entry filenames from keys.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
