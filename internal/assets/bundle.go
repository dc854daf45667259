package assets

import (
	"crypto/sha1" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"strings"
)

// Bundle is a single written asset.
type Bundle struct {
	Name string // logical name: "css" for the stylesheet, group name for JS
	Hash string // truncated content digest
	Path string // output-relative, slash-separated
}

// URL returns the site-root-relative URL of the bundle.
func (b Bundle) URL() string { return "/" + b.Path }

// Fingerprint returns the hex SHA-1 of data truncated to n characters.
func Fingerprint(data []byte, n int) string {
	sum := sha1.Sum(data) //nolint:gosec
	h := hex.EncodeToString(sum[:])
	if n > 0 && n < len(h) {
		return h[:n]
	}
	return h
}

// FormatName fills the {name} and {hash} placeholders of mask.
func FormatName(mask, name, hash string) string {
	return strings.NewReplacer("{name}", name, "{hash}", hash).Replace(mask)
}
