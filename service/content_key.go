package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// maxContentKeyLength bounds the deterministic content key. When the
// slug would exceed it, a short content hash replaces the tail so that
// two distinct titles never truncate to the same key.
const maxContentKeyLength = 60

// ContentKey derives the idempotent persistence key for a content row
// from its category (or type) and title. The same logical content always
// yields the same key, enabling upsert-by-key instead of
// upsert-by-surrogate-id.
func ContentKey(category, title string) string {
	key := slugify(category) + "-" + slugify(title)
	if len(key) <= maxContentKeyLength {
		return key
	}

	sum := sha256.Sum256([]byte(key))
	suffix := hex.EncodeToString(sum[:])[:8]
	return key[:maxContentKeyLength-len(suffix)-1] + "-" + suffix
}

// slugify lower-cases s and collapses every non-alphanumeric run into a
// single hyphen.
func slugify(s string) string {
	var sb strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(sb.String(), "-")
}
