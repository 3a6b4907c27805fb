package intelligence

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

//go:embed catalog.schema.json
var catalogSchemaJSON []byte

// Catalog is the ordered set of schema definitions used for classification
type Catalog struct {
	Version               int                   `json:"version"`
	DefaultPriorityFields []string              `json:"default_priority_fields"`
	PriorityFields        map[Category][]string `json:"priority_fields"`
	Schemas               []SchemaDefinition    `json:"schemas"`

	index map[string]int
}

var (
	compileCatalogSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("catalog.schema.json", bytes.NewReader(catalogSchemaJSON)); err != nil {
			return nil, fmt.Errorf("add catalog schema: %w", err)
		}
		schema, err := compiler.Compile("catalog.schema.json")
		if err != nil {
			return nil, fmt.Errorf("compile catalog schema: %w", err)
		}
		return schema, nil
	})

	loadDefaultCatalog = sync.OnceValues(func() (*Catalog, error) {
		return ParseCatalog(defaultCatalogYAML)
	})
)

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() (*Catalog, error) {
	return loadDefaultCatalog()
}

// MustDefaultCatalog is like DefaultCatalog but panics if the embedded
// catalog is invalid
func MustDefaultCatalog() *Catalog {
	c, err := DefaultCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalogFile reads a catalog from a YAML or JSON file
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes a YAML or JSON catalog document and validates it
// against the catalog schema. JSON input is accepted as a YAML subset.
func ParseCatalog(data []byte) (*Catalog, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	schema, err := compileCatalogSchema()
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("catalog does not match schema: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(jsonData, &c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := c.init(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) init() error {
	c.index = make(map[string]int, len(c.Schemas))
	for i := range c.Schemas {
		def := &c.Schemas[i]
		if _, dup := c.index[def.Type]; dup {
			return fmt.Errorf("duplicate schema type %q", def.Type)
		}
		if def.RequiredIndicators > len(def.Indicators) {
			return fmt.Errorf("schema %q requires %d indicators but defines %d",
				def.Type, def.RequiredIndicators, len(def.Indicators))
		}
		for j, ind := range def.Indicators {
			def.Indicators[j] = strings.ToLower(strings.TrimSpace(ind))
		}
		if len(def.PriorityFields) == 0 {
			def.PriorityFields = c.PriorityFieldsFor(def.Category)
		}
		c.index[def.Type] = i
	}
	return nil
}

// Lookup returns the definition for a schema type
func (c *Catalog) Lookup(schemaType string) (SchemaDefinition, bool) {
	i, ok := c.index[schemaType]
	if !ok {
		return SchemaDefinition{}, false
	}
	return c.Schemas[i], true
}

// Types lists schema types in catalog order
func (c *Catalog) Types() []string {
	out := make([]string, len(c.Schemas))
	for i, def := range c.Schemas {
		out[i] = def.Type
	}
	return out
}

// PriorityFieldsFor returns the summary priority fragments for a category,
// falling back to the catalog defaults
func (c *Catalog) PriorityFieldsFor(category Category) []string {
	if fields, ok := c.PriorityFields[category]; ok && len(fields) > 0 {
		return fields
	}
	return c.DefaultPriorityFields
}
