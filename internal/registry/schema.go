package registry

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/*.json
var schemaFS embed.FS

const (
	registrySchemaURL = "https://vango.dev/schema/registry.json"
	itemSchemaURL     = "https://vango.dev/schema/registry-item.json"
)

var schemaFiles = map[string]string{
	registrySchemaURL: "schema/registry.json",
	itemSchemaURL:     "schema/registry-item.json",
}

type compiledSchemas struct {
	registry *jsonschema.Schema
	item     *jsonschema.Schema
}

var (
	schemasOnce sync.Once
	schemas     *compiledSchemas
	schemasErr  error
)

// loadSchemas compiles the embedded schemas on first use.
func loadSchemas() (*compiledSchemas, error) {
	schemasOnce.Do(func() {
		schemas, schemasErr = compileSchemas()
	})
	return schemas, schemasErr
}

func compileSchemas() (*compiledSchemas, error) {
	c := jsonschema.NewCompiler()
	for url, file := range schemaFiles {
		data, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add %s: %w", file, err)
		}
	}

	reg, err := c.Compile(registrySchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile registry schema: %w", err)
	}
	item, err := c.Compile(itemSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile item schema: %w", err)
	}
	return &compiledSchemas{registry: reg, item: item}, nil
}

// validate decodes data loosely and checks it against schema.
func validate(schema *jsonschema.Schema, data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return schema.Validate(inst)
}
