package teachback

import (
	"fmt"
	"strings"
)

// Category is one of the closed document classes driving which details are generated.
type Category string

// Document categories.
const (
	Prescription Category = "prescription"
	EOB          Category = "eob"
	PriorAuth    Category = "prior_auth"
	Discharge    Category = "discharge"
	Lab          Category = "lab"
	Unknown      Category = "unknown"
)

var allCategories = []Category{Prescription, EOB, PriorAuth, Discharge, Lab, Unknown}

var categoryNames = map[Category]string{
	Prescription: "Prescription",
	EOB:          "Explanation of Benefits",
	PriorAuth:    "Prior Authorization",
	Discharge:    "Discharge Instructions",
	Lab:          "Lab Result",
	Unknown:      "Unknown",
}

// Categories returns every category, unknown last.
func Categories() []Category {
	return append([]Category(nil), allCategories...)
}

// Selectable returns the categories a user may choose as an override.
func Selectable() []Category {
	return append([]Category(nil), allCategories[:len(allCategories)-1]...)
}

// Valid reports whether c belongs to the taxonomy.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// Selectable reports whether c may be chosen as an override.
func (c Category) Selectable() bool {
	return c.Valid() && c != Unknown
}

// DisplayName returns the human-readable category name.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory accepts category identifiers in any case, with spaces or
// hyphens in place of underscores.
func ParseCategory(raw string) (Category, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	c := Category(normalized)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

func categoryEnum(cats []Category) []any {
	out := make([]any, 0, len(cats))
	for _, c := range cats {
		out = append(out, string(c))
	}
	return out
}
