package gemini

import (
	"fmt"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// ConvertSchema maps the subset of JSON Schema used for response schemas onto
// the SDK's schema type. Unsupported constructs are reported rather than
// silently dropped.
func ConvertSchema(s *jsonschema.Schema) (*genai.Schema, error) {
	if s == nil {
		return nil, nil
	}
	if s.Ref != "" || len(s.AnyOf) > 0 || len(s.OneOf) > 0 || len(s.AllOf) > 0 {
		return nil, fmt.Errorf("schema: composition and references are not supported")
	}

	typ, nullable, err := schemaType(s)
	if err != nil {
		return nil, err
	}
	out := &genai.Schema{
		Type:        typ,
		Description: s.Description,
		Format:      s.Format,
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
	}
	if nullable {
		out.Nullable = &nullable
	}
	if s.MinItems != nil {
		v := int64(*s.MinItems)
		out.MinItems = &v
	}
	if s.MaxItems != nil {
		v := int64(*s.MaxItems)
		out.MaxItems = &v
	}
	for _, value := range s.Enum {
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("schema: enum value %v is not a string", value)
		}
		out.Enum = append(out.Enum, str)
	}
	if s.Items != nil {
		items, err := ConvertSchema(s.Items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		out.Items = items
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		names := make([]string, 0, len(s.Properties))
		for name, prop := range s.Properties {
			converted, err := ConvertSchema(prop)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
			out.Properties[name] = converted
			names = append(names, name)
		}
		out.PropertyOrdering = orderProperties(names, s.Required)
	}
	out.Required = slices.Clone(s.Required)
	return out, nil
}

// orderProperties lists required properties first, in their declared order,
// then the rest alphabetically.
func orderProperties(names, required []string) []string {
	slices.Sort(names)
	ordered := make([]string, 0, len(names))
	for _, name := range required {
		if slices.Contains(names, name) {
			ordered = append(ordered, name)
		}
	}
	for _, name := range names {
		if !slices.Contains(ordered, name) {
			ordered = append(ordered, name)
		}
	}
	return ordered
}

func schemaType(s *jsonschema.Schema) (genai.Type, bool, error) {
	types := s.Types
	if s.Type != "" {
		types = []string{s.Type}
	}
	var (
		chosen   string
		nullable bool
	)
	for _, t := range types {
		if t == "null" {
			nullable = true
			continue
		}
		if chosen != "" {
			return "", false, fmt.Errorf("schema: multiple types %v", types)
		}
		chosen = t
	}
	switch chosen {
	case "object":
		return genai.TypeObject, nullable, nil
	case "array":
		return genai.TypeArray, nullable, nil
	case "string":
		return genai.TypeString, nullable, nil
	case "integer":
		return genai.TypeInteger, nullable, nil
	case "number":
		return genai.TypeNumber, nullable, nil
	case "boolean":
		return genai.TypeBoolean, nullable, nil
	case "":
		return genai.TypeUnspecified, nullable, nil
	}
	return "", false, fmt.Errorf("schema: unsupported type %q", chosen)
}
