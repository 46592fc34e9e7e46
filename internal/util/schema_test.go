package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSchema(t *testing.T) {
	type args struct {
		Name  string `json:"name" description:"The lead's name"`
		Count int    `json:"count,omitempty"`
		Skip  string `json:"-"`
	}

	schema := CreateSchema(args{})

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "count")
	assert.NotContains(t, props, "Skip")

	nameSchema := props["name"].(map[string]any)
	assert.Equal(t, "string", nameSchema["type"])
	assert.Equal(t, "The lead's name", nameSchema["description"])

	// omitempty fields are optional
	assert.Equal(t, []string{"name"}, schema["required"])
}

func TestValidateParametersMissingRequired(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []string{"name"},
	}

	err := ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)

	valErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "name", valErr.Field)
}

func TestValidateParametersRequiredAsAnySlice(t *testing.T) {
	// JSON decoded schemas carry required as []any.
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []any{"name"},
	}

	assert.Error(t, ValidateParameters(map[string]any{}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"name": "Jane"}, schema))
}

func TestValidateParametersTypeChecks(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{"type": "integer"},
			"ratio": map[string]any{"type": "number"},
		},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"count": 3}, schema))
	// JSON numbers arrive as float64; whole values satisfy integer.
	assert.NoError(t, ValidateParameters(map[string]any{"count": float64(3)}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"count": 3.5}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"count": "three"}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"ratio": 0.5}, schema))
}

func TestValidateParametersAllowsExtraFields(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"anything": true}, schema))
}
