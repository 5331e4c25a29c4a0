// Package extract turns files on disk into pipeline input: text pulled out of
// PDFs with pdftotext, and raster images read with their MIME type detected.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"teachback/internal/ai"
	"teachback/internal/services"
)

var commandContext = exec.CommandContext

// Supported image types.
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWebP = "image/webp"
	MIMEHEIC = "image/heic"
)

// PDFText extracts the text layer of a PDF. Layout is preserved so that lists
// and dosing tables keep their line breaks.
func PDFText(ctx context.Context, binary, path string) (string, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "pdftotext"
	}
	if _, err := os.Stat(path); err != nil {
		return "", services.Wrap(services.ErrNotFound, "extract", "pdf", "document not found", err)
	}
	var stdout, stderr bytes.Buffer
	cmd := commandContext(ctx, binary, "-layout", "-enc", "UTF-8", path, "-") //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = exitErr.Error()
			}
			return "", services.Wrap(services.ErrExternalTool, "extract", "pdftotext", detail, err)
		}
		return "", services.Wrap(services.ErrExternalTool, "extract", "pdftotext", "run pdftotext", err)
	}
	text := normalizeText(stdout.String())
	if text == "" {
		return "", services.Wrap(services.ErrInputTooShort, "extract", "pdf", "document has no text layer", nil)
	}
	return text, nil
}

// normalizeText drops form feeds and trailing blanks that pdftotext emits
// between pages.
func normalizeText(raw string) string {
	raw = strings.ReplaceAll(raw, "\f", "\n")
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// LoadImage reads an image for the image content mode. Files larger than
// maxBytes (when positive) or of an unsupported type are rejected.
func LoadImage(path string, maxBytes int64) (*ai.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "extract", "image", "image not found", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "extract", "image", fmt.Sprintf("%s is a directory", path), nil)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, services.Wrap(services.ErrValidation, "extract", "image",
			fmt.Sprintf("image is %d bytes; limit is %d", info.Size(), maxBytes), nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "extract", "image", "read image", err)
	}
	mimeType := DetectImageType(data)
	if mimeType == "" {
		return nil, services.Wrap(services.ErrValidation, "extract", "image",
			fmt.Sprintf("unsupported image type for %s", filepath.Base(path)), nil)
	}
	return &ai.Image{MIMEType: mimeType, Data: data}, nil
}

// DetectImageType sniffs the content type, returning an empty string for
// anything other than PNG, JPEG, WebP or HEIC.
func DetectImageType(data []byte) string {
	if isHEIC(data) {
		return MIMEHEIC
	}
	switch detected := http.DetectContentType(data); detected {
	case MIMEPNG, MIMEJPEG, MIMEWebP:
		return detected
	}
	return ""
}

// isHEIC matches the ISO-BMFF ftyp box with a HEIF brand.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heim", "heis", "hevc", "hevx", "mif1", "msf1":
		return true
	}
	return false
}

// IsPDF reports whether path looks like a PDF by extension or magic bytes.
func IsPDF(path string) bool {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 5)
	n, _ := f.Read(head)
	return n == 5 && string(head) == "%PDF-"
}
