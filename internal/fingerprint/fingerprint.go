// Package fingerprint derives deterministic cache keys for synthesized audio.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key is a content-derived identifier for one (text, language, voice) triple.
type Key string

// New hashes a normalized (text, language, voice) triple. Text is lower-cased
// and trimmed before hashing; language and voice are taken verbatim. The same
// triple always produces the same key.
func New(text, language, voice string) Key {
	normalized := strings.TrimSpace(strings.ToLower(text))

	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte(language))
	h.Write([]byte{0})
	h.Write([]byte(voice))
	return Key(hex.EncodeToString(h.Sum(nil)))
}

func (k Key) String() string { return string(k) }
