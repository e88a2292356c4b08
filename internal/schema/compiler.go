// Package schema validates admin-supplied giveaway definitions before they
// reach the database.
package schema

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	js "github.com/santhosh-tekuri/jsonschema/v5"
)

type Compiler struct {
	compiler *js.Compiler
	cache    *expirable.LRU[string, *js.Schema]
}

// NewCompilerWithCache creates a new compiler with cache
func NewCompilerWithCache(maxSize int) *Compiler {
	c := js.NewCompiler()
	c.ExtractAnnotations = true

	return &Compiler{
		compiler: c,
		cache:    expirable.NewLRU[string, *js.Schema](maxSize, nil, time.Hour),
	}
}

// Prepare compiles and caches a schema
func (c *Compiler) Prepare(schema string) (*js.Schema, error) {
	if compiled, ok := c.cache.Get(schema); ok {
		return compiled, nil
	}

	// Hash-based resource URL to avoid URL parsing issues with JSON content
	hash := sha256.Sum256([]byte(schema))
	resourceURL := fmt.Sprintf("mem://schema/%x.json", hash[:8])
	if err := c.compiler.AddResource(resourceURL, bytes.NewReader([]byte(schema))); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}

	compiled, err := c.compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	c.cache.Add(schema, compiled)
	return compiled, nil
}

// Validate validates a decoded JSON value against a schema
func (c *Compiler) Validate(schema string, value interface{}) error {
	compiled, err := c.Prepare(schema)
	if err != nil {
		return err
	}

	// Round-trip through JSON so struct values validate the same way raw
	// request bodies do
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
