package normalize

import (
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// unwanted reports runes that must not reach the database:
// NUL, ASCII controls other than \n \r \t, DEL and the C1 block
func unwanted(r rune) bool {
	switch {
	case r == '\n' || r == '\r' || r == '\t':
		return false
	case r < 0x20 || r == 0x7F:
		return true
	case r >= 0x80 && r <= 0x9F:
		return true
	}
	return false
}

var textChains = sync.Pool{
	New: func() any {
		return transform.Chain(runes.Remove(runes.Predicate(unwanted)), norm.NFC)
	},
}

// CleanText drops invalid UTF-8 and control characters, then applies NFC.
// Clean input is returned unchanged without allocating
func CleanText(s string) string {
	if s == "" {
		return s
	}
	if isClean(s) {
		return s
	}
	s = strings.ToValidUTF8(s, "")
	tr := textChains.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	textChains.Put(tr)
	if err != nil {
		return s
	}
	return out
}

// isClean is the fast path: ASCII without controls is already NFC
func isClean(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= utf8.RuneSelf || unwanted(rune(b)) {
			return false
		}
	}
	return true
}
