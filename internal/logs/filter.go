package logs

import (
	"encoding/json"
	"strings"

	"teachback/internal/logging"
)

// Filter selects log records by session and component. Empty fields match
// everything.
type Filter struct {
	SessionID string
	Component string
}

// Empty reports whether the filter accepts every line.
func (f Filter) Empty() bool {
	return strings.TrimSpace(f.SessionID) == "" && strings.TrimSpace(f.Component) == ""
}

// Match reports whether a single log line passes the filter.
func (f Filter) Match(line string) bool {
	if f.Empty() {
		return true
	}
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		return f.matchJSON(trimmed)
	}
	return f.matchConsole(trimmed)
}

func (f Filter) matchJSON(line string) bool {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return false
	}
	if id := strings.TrimSpace(f.SessionID); id != "" {
		if value, _ := record[logging.FieldSessionID].(string); value != id {
			return false
		}
	}
	if component := strings.TrimSpace(f.Component); component != "" {
		if value, _ := record[logging.FieldComponent].(string); !strings.EqualFold(value, component) {
			return false
		}
	}
	return true
}

// Console records look like "<time> <LEVEL> <component>: <message> key=value".
func (f Filter) matchConsole(line string) bool {
	if id := strings.TrimSpace(f.SessionID); id != "" {
		token := logging.FieldSessionID + "=" + id
		found := false
		for field := range strings.FieldsSeq(line) {
			if field == token || field == logging.FieldSessionID+"="+`"`+id+`"` {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if component := strings.TrimSpace(f.Component); component != "" {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return false
		}
		if !strings.EqualFold(fields[2], component+":") {
			return false
		}
	}
	return true
}
