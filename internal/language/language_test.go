package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"es-MX", "es"},
		{"fr-CA", "fr"},
		{"German", "de"},
		{"español", "es"},
		{"hin", "hi"},
		{"ja", ""},
		{"xyz", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestVoice(t *testing.T) {
	tests := map[string]string{
		"en": "Zephyr",
		"es": "Puck",
		"fr": "Charon",
		"de": "Fenrir",
		"hi": "Kore",
		"ja": DefaultVoice,
	}
	for code, want := range tests {
		if got := Voice(code); got != want {
			t.Errorf("Voice(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"spanish", "Spanish"},
		{"de", "German"},
		{"", "Unknown"},
		{"xyz", "XYZ"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DisplayName(tt.input); got != tt.expected {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
	if NativeName("de") != "Deutsch" {
		t.Errorf("NativeName(de) = %q", NativeName("de"))
	}
}

func TestCodesAndTags(t *testing.T) {
	codes := Codes()
	if len(codes) != 5 || codes[0] != "en" {
		t.Fatalf("unexpected codes: %v", codes)
	}
	for _, code := range codes {
		if !Supported(code) {
			t.Errorf("expected %q supported", code)
		}
	}
	if Tag("es") != "es-US" {
		t.Errorf("Tag(es) = %q", Tag("es"))
	}
	if Tag("zz") != "en-US" {
		t.Errorf("Tag(zz) = %q", Tag("zz"))
	}
}
