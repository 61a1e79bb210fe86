package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleArgs struct {
	Symbol string `json:"symbol" description:"Trading pair"`
	K      *int   `json:"k" description:"Optional result count"`
	Extra  int    `json:"extra,omitempty"`
}

func TestFromStruct(t *testing.T) {
	s := FromStruct(sampleArgs{})

	props, ok := s["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "symbol")
	assert.Contains(t, props, "k")
	assert.Contains(t, props, "extra")

	req, _ := s["required"].([]string)
	assert.ElementsMatch(t, []string{"symbol"}, req)
}

func TestValidate_MissingRequired(t *testing.T) {
	s := Object(map[string]any{"symbol": String("pair")}, "symbol")

	err := Validate(map[string]any{}, s)
	assert.Error(t, err)

	fieldErr, ok := err.(*FieldError)
	assert.True(t, ok)
	assert.Equal(t, "symbol", fieldErr.Field)
}

func TestValidate_TypeMismatch(t *testing.T) {
	s := Object(map[string]any{"k": Integer("count")})

	assert.NoError(t, Validate(map[string]any{"k": 5}, s))
	assert.NoError(t, Validate(map[string]any{"k": float64(5)}, s)) // JSON decoded
	assert.Error(t, Validate(map[string]any{"k": "five"}, s))
	assert.Error(t, Validate(map[string]any{"k": 5.5}, s))
}

func TestValidate_RequiredFromJSON(t *testing.T) {
	// Schemas decoded from JSON carry []any for required.
	s := map[string]any{
		"type":       "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required":   []any{"query"},
	}

	assert.Error(t, Validate(map[string]any{}, s))
	assert.NoError(t, Validate(map[string]any{"query": "rsi"}, s))
}

func TestValidate_UnknownFieldsPass(t *testing.T) {
	s := Object(map[string]any{"query": String("q")}, "query")
	assert.NoError(t, Validate(map[string]any{"query": "x", "verbose": true}, s))
}
