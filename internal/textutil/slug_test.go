package textutil_test

import (
	"testing"

	"teachback/internal/textutil"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "prior_auth", want: "prior-auth"},
		{in: "  Explanation of Benefits ", want: "explanation-of-benefits"},
		{in: "Lab/Result: CBC?", want: "lab-result-cbc"},
		{in: "__", want: "none"},
		{in: "", want: "none"},
		{in: "Résumé", want: "résumé"},
	}
	for _, tc := range tests {
		if got := textutil.Slug(tc.in, "none"); got != tc.want {
			t.Fatalf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSummaryFileName(t *testing.T) {
	got := textutil.SummaryFileName("discharge", "20260102-030405")
	if got != "teachback-summary-discharge-20260102-030405.txt" {
		t.Fatalf("unexpected file name %q", got)
	}
	if got := textutil.SummaryFileName("", "x"); got != "teachback-summary-document-x.txt" {
		t.Fatalf("unexpected fallback name %q", got)
	}
}
