package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "latest.schema.json"

//go:embed schema.json
var schemaJSON []byte

//nolint:gochecknoglobals // The embedded schema never changes, compile it once.
var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	if err := compiler.AddResource(schemaResource, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("load manifest schema: %w", err)
	}

	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}

	return schema, nil
})

// Validate checks an encoded manifest against the updater schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	var document any
	if err = json.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("decode manifest: %w", err)
	}

	if err = schema.Validate(document); err != nil {
		return fmt.Errorf("manifest does not match schema: %w", err)
	}

	return nil
}
