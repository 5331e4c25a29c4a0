package textutil

import (
	"strings"
	"unicode"
)

// Slug converts a label into a lowercase, dash-separated token safe for use
// in a file name. Runs of anything other than letters and digits collapse to
// one dash. Returns fallback when nothing usable remains.
func Slug(value, fallback string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(value) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			dash = true
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// SummaryFileName builds the export file name for a session summary.
func SummaryFileName(documentType, stamp string) string {
	return "teachback-summary-" + Slug(documentType, "document") + "-" + stamp + ".txt"
}
