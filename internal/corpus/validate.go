package corpus

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaDef is a named JSON Schema definition.
type schemaDef struct {
	Name       string
	Definition map[string]any
}

var manifestSchema = schemaDef{
	Name: "manifest",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"format", "subjects"},
		"properties": map[string]any{
			"format": map[string]any{"type": "string", "minLength": 1},
			"subjects": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"name", "file"},
					"properties": map[string]any{
						"name": map[string]any{"type": "string", "minLength": 1},
						"file": map[string]any{"type": "string", "minLength": 1},
					},
				},
			},
		},
	},
}

// datasetSchema only pins the outer shape. Field-level problems are
// defaulted by the normalizer and reported as data quality issues.
var datasetSchema = schemaDef{
	Name: "dataset",
	Definition: map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "object"},
	},
}

// schemaCache caches compiled schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// validateDocument checks raw JSON against the schema. Returns
// *SchemaError on failure.
func validateDocument(schema schemaDef, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &SchemaError{Schema: schema.Name, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := compiledSchema(schema)
	if err != nil {
		return &SchemaError{Schema: schema.Name, Err: fmt.Errorf("compile schema: %w", err)}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &SchemaError{Schema: schema.Name, Err: err}
	}
	return nil
}

func compiledSchema(schema schemaDef) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a decoded JSON value, not Go maps with typed slices.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://prelims/%s.json", schema.Name)
	if err := c.AddResource(url, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}
