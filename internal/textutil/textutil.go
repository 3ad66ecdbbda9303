package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash computes a SHA-256 hex hash of a string for cache keys.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Truncate shortens s to maxRunes runes, appending "..." if truncated.
func Truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}

var illegalFilenameChars = strings.NewReplacer(
	`\`, "", "/", "", "*", "", "?", "", ":", "",
	`"`, "", "<", "", ">", "", "|", "",
)

// FilenameTitle strips characters that are illegal in file names, trims
// whitespace and cuts the result to maxRunes runes. maxRunes <= 0 means no limit.
func FilenameTitle(s string, maxRunes int) string {
	s = strings.TrimSpace(illegalFilenameChars.Replace(s))
	if maxRunes <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) > maxRunes {
		s = strings.TrimSpace(string(r[:maxRunes]))
	}
	return s
}
