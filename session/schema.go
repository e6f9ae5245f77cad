package session

import (
	"encoding/json"
	"fmt"
)

// ValidateJSON checks text against a subset of JSON Schema — types,
// required, minimum, maximum, enum — per spec.md §4.7's response_format
// validation clause. It does not implement the full JSON Schema spec
// (no $ref, no oneOf/anyOf/allOf, no pattern/format): those are out of
// scope for validating a model's own structured output.
func ValidateJSON(text string, schema map[string]any) error {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return validateValue(value, schema, "$")
}

func validateValue(value any, schema map[string]any, path string) error {
	if t, ok := schema["type"]; ok {
		if err := checkType(value, t, path); err != nil {
			return err
		}
	}

	if enum, ok := schema["enum"].([]any); ok {
		if !enumContains(enum, value) {
			return fmt.Errorf("%s: value not in enum", path)
		}
	}

	switch v := value.(type) {
	case float64:
		if min, ok := numericField(schema, "minimum"); ok && v < min {
			return fmt.Errorf("%s: %v < minimum %v", path, v, min)
		}
		if max, ok := numericField(schema, "maximum"); ok && v > max {
			return fmt.Errorf("%s: %v > maximum %v", path, v, max)
		}
	case map[string]any:
		props, _ := schema["properties"].(map[string]any)
		for _, req := range requiredFields(schema) {
			if _, ok := v[req]; !ok {
				return fmt.Errorf("%s: missing required field %q", path, req)
			}
		}
		for key, val := range v {
			propSchema, ok := props[key].(map[string]any)
			if !ok {
				continue
			}
			if err := validateValue(val, propSchema, path+"."+key); err != nil {
				return err
			}
		}
	case []any:
		itemSchema, ok := schema["items"].(map[string]any)
		if ok {
			for i, item := range v {
				if err := validateValue(item, itemSchema, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func checkType(value any, t any, path string) error {
	name, ok := t.(string)
	if !ok {
		return nil
	}
	matches := func() bool {
		switch name {
		case "object":
			_, ok := value.(map[string]any)
			return ok
		case "array":
			_, ok := value.([]any)
			return ok
		case "string":
			_, ok := value.(string)
			return ok
		case "boolean":
			_, ok := value.(bool)
			return ok
		case "null":
			return value == nil
		case "number":
			_, ok := value.(float64)
			return ok
		case "integer":
			f, ok := value.(float64)
			return ok && f == float64(int64(f))
		default:
			return true
		}
	}()
	if !matches {
		return fmt.Errorf("%s: expected type %q", path, name)
	}
	return nil
}

func requiredFields(schema map[string]any) []string {
	raw, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func numericField(schema map[string]any, key string) (float64, bool) {
	v, ok := schema[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func enumContains(enum []any, value any) bool {
	for _, e := range enum {
		if fmt.Sprint(e) == fmt.Sprint(value) {
			return true
		}
	}
	return false
}
