package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateJSONAcceptsValidDocument(t *testing.T) {
	schema := map[string]any{
		"type":     "object",
		"required": []any{"name", "age"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"age":  map[string]any{"type": "integer", "minimum": float64(0), "maximum": float64(130)},
		},
	}
	err := ValidateJSON(`{"name":"ada","age":36}`, schema)
	assert.NoError(t, err)
}

func TestValidateJSONRejectsMissingRequired(t *testing.T) {
	schema := map[string]any{
		"type":     "object",
		"required": []any{"name"},
	}
	err := ValidateJSON(`{}`, schema)
	assert.Error(t, err)
}

func TestValidateJSONRejectsOutOfRangeNumber(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"age": map[string]any{"type": "integer", "maximum": float64(10)}},
	}
	err := ValidateJSON(`{"age":99}`, schema)
	assert.Error(t, err)
}

func TestValidateJSONRejectsValueNotInEnum(t *testing.T) {
	schema := map[string]any{
		"type": "string",
		"enum": []any{"red", "green", "blue"},
	}
	err := ValidateJSON(`"purple"`, schema)
	assert.Error(t, err)
}

func TestValidateJSONRejectsInvalidJSON(t *testing.T) {
	err := ValidateJSON(`not json`, map[string]any{"type": "object"})
	assert.Error(t, err)
}

func TestValidateJSONValidatesArrayItems(t *testing.T) {
	schema := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "integer", "minimum": float64(0)},
	}
	assert.NoError(t, ValidateJSON(`[1,2,3]`, schema))
	assert.Error(t, ValidateJSON(`[1,-2,3]`, schema))
}
