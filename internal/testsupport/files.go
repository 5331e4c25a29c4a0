package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"teachback/internal/audio"
)

var imageSignatures = map[string][]byte{
	"image/png":  []byte("\x89PNG\r\n\x1a\n"),
	"image/jpeg": []byte("\xff\xd8\xff\xe0"),
}

func writeFixture(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WritePDF writes a one-page PDF skeleton. Tests stub pdftotext, so only the
// header matters.
func WritePDF(t testing.TB, path string) {
	t.Helper()
	writeFixture(t, path, []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\n%%EOF\n"))
}

// WriteImage writes size bytes starting with the signature for mimeType.
// An unrecognized mimeType produces bytes no image sniffer accepts.
func WriteImage(t testing.TB, path, mimeType string, size int) {
	t.Helper()
	sig := imageSignatures[mimeType]
	data := append([]byte(nil), sig...)
	if pad := size - len(data); pad > 0 {
		data = append(data, bytes.Repeat([]byte{'B'}, pad)...)
	}
	writeFixture(t, path, data)
}

// WriteWAV writes samples of 16-bit mono silence as a WAV file at rate.
func WriteWAV(t testing.TB, path string, samples, rate int) {
	t.Helper()
	data, err := audio.EncodeWAV(make([]byte, samples*2), rate)
	if err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	writeFixture(t, path, data)
}
