package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"kind": {"enum": ["standard", "unique"]}
	},
	"required": ["title", "kind"]
}`

func TestCompiler_Prepare(t *testing.T) {
	compiler := NewCompilerWithCache(64)

	_, err := compiler.Prepare(testSchema)
	require.NoError(t, err)

	// a second prepare hits the cache
	_, err = compiler.Prepare(testSchema)
	require.NoError(t, err)
}

func TestCompiler_PrepareInvalidSchema(t *testing.T) {
	compiler := NewCompilerWithCache(64)

	_, err := compiler.Prepare(`{"type": 42}`)
	assert.Error(t, err)
}

func TestCompiler_Validate(t *testing.T) {
	compiler := NewCompilerWithCache(64)

	validValue := map[string]interface{}{
		"title": "Sticker pack",
		"kind":  "standard",
	}
	err := compiler.Validate(testSchema, validValue)
	assert.NoError(t, err)

	// missing required field
	err = compiler.Validate(testSchema, map[string]interface{}{"title": "x"})
	assert.Error(t, err)

	// bad enum value
	err = compiler.Validate(testSchema, map[string]interface{}{
		"title": "x",
		"kind":  "mystery",
	})
	assert.Error(t, err)
}
