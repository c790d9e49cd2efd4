package dedup

import (
	"crypto/md5"
	"encoding/hex"
)

// Fingerprint derives a stable content identity from an article's title and
// description: the md5 digest of the normalized concatenation, as a 32-char
// hex string. Articles whose normalized title+description match fingerprint
// identically regardless of source, casing or punctuation.
func Fingerprint(title, description string) string {
	normalized := NormalizeText(title + description)
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
