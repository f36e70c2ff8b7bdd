package converter

import (
	"encoding/hex"
	"strings"
	"unicode"
)

// HexGroupSize is the number of hex digits per space-separated group in block lines.
const HexGroupSize = 4

// GroupHex removes any spaces from s and re-inserts one before every
// HexGroupSize-th character, e.g. "ABCDEF12" becomes "ABCD EF12".
// A short final group is left as is.
func GroupHex(s string) string {
	return groupHex(s, HexGroupSize)
}

func groupHex(s string, size int) string {
	clean := strings.ReplaceAll(s, " ", "")
	if len(clean) <= size {
		return clean
	}

	var sb strings.Builder
	sb.Grow(len(clean) + len(clean)/size)
	n := 0
	for _, r := range clean {
		if n > 0 && n%size == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
		n++
	}
	return sb.String()
}

// FormatBytes renders data as uppercase two-digit hex bytes joined by single
// spaces ("00 04 FF").
func FormatBytes(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	encoded := strings.ToUpper(hex.EncodeToString(data))

	var sb strings.Builder
	sb.Grow(len(encoded) + len(data) - 1)
	for i := 0; i < len(encoded); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(encoded[i : i+2])
	}
	return sb.String()
}

// stripWhitespace removes every whitespace character from s.
func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
