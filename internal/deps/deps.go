package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is an external tool the client shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Package is the distribution package that ships Command, shown as an
	// install hint when it is missing.
	Package  string
	Optional bool
}

// Status reports the availability of a dependency. Command holds the
// resolved path once the binary is found.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ClientRequirements lists the tools behind microphone capture and PDF
// import. Both are optional: typed text works without either.
func ClientRequirements(captureCommand, pdfToTextCommand string) []Requirement {
	return []Requirement{
		{
			Name:        "Capture",
			Command:     captureCommand,
			Description: "Microphone input for live Q&A and dictation",
			Package:     "alsa-utils",
			Optional:    true,
		},
		{
			Name:        "pdftotext",
			Command:     pdfToTextCommand,
			Description: "PDF import",
			Package:     "poppler-utils",
			Optional:    true,
		},
	}
}

// Check resolves a single requirement on PATH.
func Check(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		if pkg := strings.TrimSpace(req.Package); pkg != "" {
			status.Detail += "; install " + pkg
		}
		return status
	}
	status.Command = path
	status.Available = true
	return status
}

// CheckBinaries runs Check over requirements in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, Check(req))
	}
	return results
}
