package config

import (
	"bytes"
	_ "embed"
	encjson "encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed config.schema.json
var schemaJSON []byte

const schemaURL = "https://carbonsense.dev/schemas/config.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parsing config schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("loading config schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Schema returns the JSON Schema that config files are checked against.
func Schema() []byte {
	return schemaJSON
}

// validateDocument checks a parsed config document against the schema.
// The document is round-tripped through JSON so TOML and YAML values take
// their JSON types.
func validateDocument(raw map[string]any) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	b, err := encjson.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding config document: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("decoding config document: %w", err)
	}

	if err := sch.Validate(inst); err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	return nil
}
