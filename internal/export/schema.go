package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "gffstream://item.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func itemSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Validate checks a decoded JSON document (maps, slices, float64 numbers)
// against the item schema.
func Validate(v any) error {
	schema, err := itemSchema()
	if err != nil {
		return fmt.Errorf("failed to compile item schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("item schema validation failed: %w", err)
	}
	return nil
}

// ValidateJSON decodes raw and validates it.
func ValidateJSON(raw []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("failed to normalize item for schema validation: %w", err)
	}
	return Validate(v)
}
