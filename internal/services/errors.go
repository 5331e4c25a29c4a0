package services

import (
	"errors"
	"fmt"
	"strings"
)

// User-facing failure taxonomy.
var (
	ErrGenerationFailure  = errors.New("generation failure")
	ErrInputTooShort      = errors.New("input too short")
	ErrCorruptedSession   = errors.New("corrupted session")
	ErrDeviceUnavailable  = errors.New("device unavailable")
	ErrUnsupportedBrowser = errors.New("unsupported platform")
)

// Ambient markers shared by infrastructure packages.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UserMessage maps an error to the short notice shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputTooShort):
		return "Please enter a little more text so there is something to explain."
	case errors.Is(err, ErrGenerationFailure):
		return "Failed to generate and parse teach-back data after retry."
	case errors.Is(err, ErrCorruptedSession):
		return "Failed to load session. Data might be corrupted."
	case errors.Is(err, ErrDeviceUnavailable):
		return "Could not access the audio device. Check that it is connected and permitted."
	case errors.Is(err, ErrUnsupportedBrowser):
		return "This feature is not supported with the current setup."
	case errors.Is(err, ErrConfiguration):
		return "Configuration problem: " + err.Error()
	case errors.Is(err, ErrTimeout):
		return "The request took too long. Please try again."
	default:
		return "An unknown error occurred."
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
