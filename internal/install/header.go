package install

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	sourceRe   = regexp.MustCompile(`(?m)^// Source: (\S+)/(\S+)$`)
	registryRe = regexp.MustCompile(`(?m)^// Registry: (.+)$`)
	checksumRe = regexp.MustCompile(`(?m)^// Checksum: sha256:([a-f0-9]+)$`)
)

// Header is the provenance block written at the top of installed sources.
type Header struct {
	Registry string
	Item     string
	Homepage string
	Checksum string
}

// Checksum returns the short sha256 of body used in headers.
func Checksum(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])[:16]
}

// hasHeader reports whether files at path can carry a header.
func hasHeader(path string) bool {
	switch filepath.Ext(path) {
	case ".ts", ".tsx", ".js", ".jsx", ".mts", ".cts":
		return true
	}
	return false
}

// withHeader prefixes body with the provenance block for item.
func withHeader(registry, item, homepage string, body []byte) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "// Source: %s/%s\n", registry, item)
	if homepage != "" {
		fmt.Fprintf(&b, "// Registry: %s\n", homepage)
	}
	fmt.Fprintf(&b, "// Checksum: sha256:%s\n\n", Checksum(body))
	return append([]byte(b.String()), body...)
}

// parseHeader splits content into its header and body. ok is false when
// content does not start with a provenance block.
func parseHeader(content []byte) (h Header, body []byte, ok bool) {
	s := string(content)
	if !strings.HasPrefix(s, "// Source: ") {
		return Header{}, content, false
	}
	end := strings.Index(s, "\n\n")
	if end < 0 {
		return Header{}, content, false
	}
	block := s[:end]

	m := sourceRe.FindStringSubmatch(block)
	c := checksumRe.FindStringSubmatch(block)
	if m == nil || c == nil {
		return Header{}, content, false
	}
	h = Header{Registry: m[1], Item: m[2], Checksum: c[1]}
	if r := registryRe.FindStringSubmatch(block); r != nil {
		h.Homepage = strings.TrimSpace(r[1])
	}
	return h, content[end+2:], true
}

// modified reports whether a headed file was edited after install.
func (h Header) modified(body []byte) bool {
	return Checksum(body) != h.Checksum
}
