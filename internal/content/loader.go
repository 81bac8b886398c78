package content

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed content.schema.json
var schemaJSON []byte

const schemaURL = "https://areaelements.local/content.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("adding content schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compiling content schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// File is the on-disk content layout.
type File struct {
	Elements []ElementRecord `json:"elements"`
	Actions  []ActionRecord  `json:"actions"`
	Traits   []TraitRecord   `json:"traits"`
}

// LoadFile reads a YAML content file, validates it and builds a Catalog.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading content %s: %w", path, err)
	}
	cat, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading content %s: %w", path, err)
	}
	return cat, nil
}

// Load validates YAML content against the schema and builds a Catalog.
// Unknown fields and wrongly typed values are rejected, never coerced.
func Load(data []byte) (*Catalog, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Build(f.Elements, f.Actions, f.Traits)
}

// Decode validates YAML content and decodes it without building the catalog.
func Decode(data []byte) (*File, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	// Round-trip through JSON so the validator sees json.Number values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting yaml to json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var inst any
	if err := dec.Decode(&inst); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(inst); err != nil {
		return nil, fmt.Errorf("validating content: %w", err)
	}

	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decoding content: %w", err)
	}
	return &f, nil
}
