package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kaptinlin/hquery"
)

// Config is the YAML registry file the CLI loads with -config: one
// schema declaration per root, plus the document file(s) to query.
type Config struct {
	Schemas   []SchemaConfig    `yaml:"schemas"`
	Documents map[string]string `yaml:"documents"`
}

// SchemaConfig declares one root's IndexSpec and flat field set. Fields
// is a flat dotted-path -> type map rather than a nested tree, since
// that is far easier to hand-write in YAML; buildFieldTree expands it
// into the nested FieldNode tree hquery.NewSchema expects.
type SchemaConfig struct {
	Root    string            `yaml:"root"`
	Indexes []IndexConfig     `yaml:"indexes"`
	Fields  map[string]string `yaml:"fields"`
}

type IndexConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// LoadConfig reads and parses a registry config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// BuildRegistry compiles every schema declared in the config into a
// fresh *hquery.Registry.
func (c *Config) BuildRegistry() (*hquery.Registry, error) {
	reg := hquery.NewRegistry()
	for _, sc := range c.Schemas {
		indexes := make([]hquery.IndexAttr, len(sc.Indexes))
		for i, ic := range sc.Indexes {
			t, err := parseFieldType(ic.Type)
			if err != nil {
				return nil, fmt.Errorf("schema %q index %q: %w", sc.Root, ic.Name, err)
			}
			indexes[i] = hquery.Index(ic.Name, t)
		}

		tree, err := buildFieldTree(sc.Fields)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", sc.Root, err)
		}

		schema, err := hquery.NewSchema(sc.Root, indexes, tree)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", sc.Root, err)
		}
		if err := reg.Register(schema); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// parseFieldType parses a CLI/YAML type name ("string", "int", "float",
// "bool", "list", "map"), with a trailing "?" marking it optional.
func parseFieldType(name string) (hquery.FieldType, error) {
	optional := false
	if strings.HasSuffix(name, "?") {
		optional = true
		name = strings.TrimSuffix(name, "?")
	}
	var base hquery.FieldType
	switch name {
	case "null":
		base = hquery.TypeNull
	case "bool":
		base = hquery.TypeBool
	case "int":
		base = hquery.TypeInt
	case "float":
		base = hquery.TypeFloat
	case "string":
		base = hquery.TypeString
	case "list":
		base = hquery.TypeList
	case "map":
		base = hquery.TypeMap
	default:
		return hquery.FieldType{}, fmt.Errorf("unknown field type %q", name)
	}
	if optional {
		return hquery.Maybe(base), nil
	}
	return base, nil
}

type fieldTreeBuilder struct {
	children map[string]*fieldTreeBuilder
	leafType string
	isLeaf   bool
}

// buildFieldTree expands a flat dotted-path field map into the nested
// Group/Field tree a Schema declares (§3 FieldTree).
func buildFieldTree(fields map[string]string) (*hquery.FieldNode, error) {
	root := &fieldTreeBuilder{children: map[string]*fieldTreeBuilder{}}
	for path, typeName := range fields {
		segs := strings.Split(path, ".")
		cur := root
		for _, seg := range segs {
			next, ok := cur.children[seg]
			if !ok {
				next = &fieldTreeBuilder{children: map[string]*fieldTreeBuilder{}}
				cur.children[seg] = next
			}
			cur = next
		}
		cur.isLeaf = true
		cur.leafType = typeName
	}
	return root.toFieldNode()
}

func (b *fieldTreeBuilder) toFieldNode() (*hquery.FieldNode, error) {
	if b.isLeaf {
		t, err := parseFieldType(b.leafType)
		if err != nil {
			return nil, err
		}
		return hquery.Field(t, hquery.Null()), nil
	}
	names := make([]string, 0, len(b.children))
	for name := range b.children {
		names = append(names, name)
	}
	sort.Strings(names)
	children := make([]hquery.NamedChild, 0, len(names))
	for _, name := range names {
		node, err := b.children[name].toFieldNode()
		if err != nil {
			return nil, err
		}
		children = append(children, hquery.Child(name, node))
	}
	return hquery.Group(children...), nil
}
