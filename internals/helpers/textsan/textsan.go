// Package textsan membersihkan teks bebas dari client (alasan telat, catatan, alamat).
package textsan

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	MaxLateReason = 500
	MaxNotes      = 1000
	MaxAddress    = 255
)

// Clean: NFC, buang control char, rapikan whitespace, potong ke maxRunes.
// Hasil kosong → nil supaya kolom tetap NULL.
func Clean(s *string, maxRunes int) *string {
	if s == nil {
		return nil
	}
	out := CleanString(*s, maxRunes)
	if out == "" {
		return nil
	}
	return &out
}

func CleanString(s string, maxRunes int) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		case unicode.IsControl(r), r == unicode.ReplacementChar, unicode.Is(unicode.Cf, r):
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}

	out := strings.TrimSpace(b.String())
	if maxRunes > 0 {
		runes := []rune(out)
		if len(runes) > maxRunes {
			out = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}
	return out
}
