// Package catalog holds the declarations of every admin list view, their
// payload schemas and the fixtures used to seed an empty store.
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/username/tradeops/backend/src/listing"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed views.yaml schemas/*.json seeds/*.json
var files embed.FS

var ErrUnknownEntity = errors.New("unknown entity")

type document struct {
	Views []*listing.View `yaml:"views"`
}

// Catalog is the validated set of entity views.
type Catalog struct {
	order   []string
	views   map[string]*listing.View
	schemas map[string]*gojsonschema.Schema
}

// Load parses the embedded declarations and compiles each entity schema.
func Load() (*Catalog, error) {
	raw, err := files.ReadFile("views.yaml")
	if err != nil {
		return nil, fmt.Errorf("read views: %w", err)
	}
	return Parse(raw)
}

// Parse builds a catalog from a views document. Entities without an
// embedded schema accept any object.
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal views: %w", err)
	}
	if len(doc.Views) == 0 {
		return nil, errors.New("no views declared")
	}

	c := &Catalog{
		views:   make(map[string]*listing.View, len(doc.Views)),
		schemas: make(map[string]*gojsonschema.Schema, len(doc.Views)),
	}
	for _, v := range doc.Views {
		if v.Name == "" {
			return nil, errors.New("view without a name")
		}
		if _, dup := c.views[v.Name]; dup {
			return nil, fmt.Errorf("duplicate view %q", v.Name)
		}
		if err := v.Validate(); err != nil {
			return nil, err
		}
		schema, err := loadSchema(v.Name)
		if err != nil {
			return nil, err
		}
		c.order = append(c.order, v.Name)
		c.views[v.Name] = v
		c.schemas[v.Name] = schema
	}
	return c, nil
}

func loadSchema(entity string) (*gojsonschema.Schema, error) {
	raw, err := files.ReadFile(path.Join("schemas", entity+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		raw = []byte(`{"type":"object"}`)
	} else if err != nil {
		return nil, fmt.Errorf("read schema for %s: %w", entity, err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", entity, err)
	}
	return schema, nil
}

// Names lists the entities in declaration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Views returns every view in declaration order.
func (c *Catalog) Views() []*listing.View {
	out := make([]*listing.View, len(c.order))
	for i, name := range c.order {
		out[i] = c.views[name]
	}
	return out
}

// View returns the declaration for entity.
func (c *Catalog) View(entity string) (*listing.View, error) {
	v, ok := c.views[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return v, nil
}

// Schema returns the compiled payload schema for entity.
func (c *Catalog) Schema(entity string) (*gojsonschema.Schema, error) {
	s, ok := c.schemas[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return s, nil
}

// Fixtures returns the seed records for entity, or none when it has no fixture file.
func (c *Catalog) Fixtures(entity string) ([]listing.Record, error) {
	if _, err := c.View(entity); err != nil {
		return nil, err
	}
	raw, err := files.ReadFile(path.Join("seeds", entity+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fixtures for %s: %w", entity, err)
	}
	var records []listing.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode fixtures for %s: %w", entity, err)
	}
	return records, nil
}
