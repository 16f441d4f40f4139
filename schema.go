package hquery

import (
	"sort"
	"strings"

	"github.com/kaptinlin/jsonpointer"
)

// splitFieldPath segments a dotted flat-field path ("contact.email") by
// delegating to jsonpointer.Parse, the same JSON Pointer segmenter used
// to resolve "$ref" targets. Every "." is treated as a separator before
// parsing, so a segment can never contain a literal "."; the pointer
// escapes ~0/~1 in a path decode to "~" and "/".
func splitFieldPath(path string) []string {
	if path == "" {
		return nil
	}
	return jsonpointer.Parse("/" + strings.ReplaceAll(path, ".", "/"))
}

// FieldType describes the declared type of an index attribute or a field
// tree leaf: a Kind plus whether null/absent is permitted.
type FieldType struct {
	Kind     Kind
	Optional bool
}

// Maybe returns the optional form of a FieldType, used when declaring
// filter model attributes against a required index or field.
func Maybe(t FieldType) FieldType {
	t.Optional = true
	return t
}

var (
	TypeNull   = FieldType{Kind: KindNull}
	TypeBool   = FieldType{Kind: KindBool}
	TypeInt    = FieldType{Kind: KindInt}
	TypeFloat  = FieldType{Kind: KindFloat}
	TypeString = FieldType{Kind: KindString}
	TypeList   = FieldType{Kind: KindList}
	TypeMap    = FieldType{Kind: KindMap}
)

// sameBaseKind reports whether a declared type matches a base type's
// Kind, ignoring Optional: a filter attribute's type must equal the
// index type or its optional form, i.e. Kind must agree.
func sameBaseKind(declared, base FieldType) bool {
	return declared.Kind == base.Kind
}

// IndexAttr is one entry of an ordered IndexSpec: order defines the
// nesting depth of document traversal.
type IndexAttr struct {
	Name     string
	Type     FieldType
	Optional bool
	Default  Value
}

// Index declares a required index attribute.
func Index(name string, t FieldType) IndexAttr {
	return IndexAttr{Name: name, Type: t}
}

// OptionalIndex declares an index attribute with a default used when the
// document is missing that level (not exercised by the flattener itself,
// which always discovers index values from document keys, but available
// for filter-model and FROM-clause validation).
func OptionalIndex(name string, t FieldType, def Value) IndexAttr {
	return IndexAttr{Name: name, Type: t, Optional: true, Default: def}
}

// FieldNode is a tagged variant over a field-tree leaf and a group of
// named children.
type FieldNode struct {
	isLeaf   bool
	typ      FieldType
	def      Value
	names    []string
	children map[string]*FieldNode
}

// NamedChild pairs a name with a field-tree node, the building block for
// Group (mirrors a Prop(name, schema) constructor).
type NamedChild struct {
	Name string
	Node *FieldNode
}

// Child builds a NamedChild for use in Group.
func Child(name string, node *FieldNode) NamedChild {
	return NamedChild{Name: name, Node: node}
}

// Field declares a field-tree leaf with the given type and default.
func Field(t FieldType, def Value) *FieldNode {
	return &FieldNode{isLeaf: true, typ: t, def: def}
}

// Group declares a field-tree internal node from an ordered list of named
// children; order is preserved for flat-path enumeration.
func Group(children ...NamedChild) *FieldNode {
	g := &FieldNode{children: make(map[string]*FieldNode, len(children))}
	for _, c := range children {
		if _, exists := g.children[c.Name]; !exists {
			g.names = append(g.names, c.Name)
		}
		g.children[c.Name] = c.Node
	}
	return g
}

// FlatFieldSpec is one leaf of a schema's flat field set: the dotted
// path name, its declared type, and its default.
type FlatFieldSpec struct {
	Path    []string
	PathStr string
	Type    FieldType
	Default Value
}

// Schema binds a root name to an ordered IndexSpec and a FieldTree.
type Schema struct {
	Root    string
	Indexes []IndexAttr
	Fields  *FieldNode

	flatOrder []string
	flat      map[string]FlatFieldSpec

	// aliasUnique maps a leaf short name (final path segment) to its flat
	// path, when exactly one flat path ends in that segment (§4.1 step 2).
	aliasUnique map[string]string
	// aliasAmbiguous lists, for each short name matching more than one
	// flat path, all of the matching flat paths.
	aliasAmbiguous map[string][]string
}

// NewSchema builds a Schema, precomputing its flat field set and leaf
// short-name aliases once. root must be non-empty and index names must
// be unique; either violation is rejected with ErrSchemaDeclaration.
func NewSchema(root string, indexes []IndexAttr, fields *FieldNode) (*Schema, error) {
	if root == "" {
		return nil, newQueryError(ErrSchemaDeclaration, "schema", "schema_declaration",
			"schema root name must not be empty", nil)
	}
	seen := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		if _, dup := seen[idx.Name]; dup {
			return nil, newQueryError(ErrSchemaDeclaration, "schema", "schema_declaration",
				"schema '{root}' declares index '{index}' more than once",
				map[string]any{"root": root, "index": idx.Name})
		}
		seen[idx.Name] = struct{}{}
	}
	if fields == nil {
		fields = Group()
	}
	s := &Schema{
		Root:    root,
		Indexes: indexes,
		Fields:  fields,
		flat:    map[string]FlatFieldSpec{},
	}
	collectFlatFields(fields, nil, s.flat, &s.flatOrder)
	s.computeAliases()
	return s, nil
}

func collectFlatFields(node *FieldNode, prefix []string, out map[string]FlatFieldSpec, order *[]string) {
	if node == nil {
		return
	}
	if node.isLeaf {
		pathStr := strings.Join(prefix, ".")
		out[pathStr] = FlatFieldSpec{
			Path:    append([]string{}, prefix...),
			PathStr: pathStr,
			Type:    node.typ,
			Default: node.def,
		}
		*order = append(*order, pathStr)
		return
	}
	for _, name := range node.names {
		collectFlatFields(node.children[name], append(prefix, name), out, order)
	}
}

func (s *Schema) computeAliases() {
	candidates := map[string][]string{}
	for _, path := range s.flatOrder {
		segs := splitFieldPath(path)
		short := segs[len(segs)-1]
		candidates[short] = append(candidates[short], path)
	}
	s.aliasUnique = map[string]string{}
	s.aliasAmbiguous = map[string][]string{}
	for short, paths := range candidates {
		if len(paths) == 1 {
			s.aliasUnique[short] = paths[0]
		} else {
			sorted := append([]string{}, paths...)
			sort.Strings(sorted)
			s.aliasAmbiguous[short] = sorted
		}
	}
}

// FlatFields returns the schema's flat field specs in declaration order.
func (s *Schema) FlatFields() []FlatFieldSpec {
	out := make([]FlatFieldSpec, len(s.flatOrder))
	for i, p := range s.flatOrder {
		out[i] = s.flat[p]
	}
	return out
}

// FlatFieldNames returns the schema's flat field paths in declaration order.
func (s *Schema) FlatFieldNames() []string {
	return append([]string{}, s.flatOrder...)
}

// FlatField looks up a flat field spec by its dotted path.
func (s *Schema) FlatField(path string) (FlatFieldSpec, bool) {
	spec, ok := s.flat[path]
	return spec, ok
}

// IndexNames returns the schema's index names in declaration order.
func (s *Schema) IndexNames() []string {
	out := make([]string, len(s.Indexes))
	for i, idx := range s.Indexes {
		out[i] = idx.Name
	}
	return out
}

// Index looks up an index attribute by name.
func (s *Schema) Index(name string) (IndexAttr, bool) {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexAttr{}, false
}

// Registry is a process-wide mapping from root name to Schema (§3
// SchemaRegistry). Per §5, it carries no internal locking: all
// registrations must complete before any query executes, or a host must
// wrap access in its own shared-readers/single-writer discipline.
type Registry struct {
	schemas map[string]*Schema
	order   []string
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{schemas: map[string]*Schema{}}
}

// Register stores the schema keyed by its root name, failing with
// ErrSchemaAlreadyRegistered if the root is taken.
func (r *Registry) Register(schema *Schema) error {
	if _, exists := r.schemas[schema.Root]; exists {
		return newQueryError(ErrSchemaAlreadyRegistered, "registry", "schema_already_registered",
			"schema already registered for root '{root}'", map[string]any{"root": schema.Root})
	}
	r.schemas[schema.Root] = schema
	r.order = append(r.order, schema.Root)
	return nil
}

// Lookup returns the schema registered for a root name.
func (r *Registry) Lookup(root string) (*Schema, bool) {
	s, ok := r.schemas[root]
	return s, ok
}

// Roots returns registered root names in registration order.
func (r *Registry) Roots() []string {
	return append([]string{}, r.order...)
}

// defaultRegistry is the package-level convenience registry used when a
// caller has no need to thread an explicit *Registry; it exists only
// as a convenience at the outermost boundary.
var defaultRegistry = NewRegistry()

// Register stores schema in the default registry.
func Register(schema *Schema) error { return defaultRegistry.Register(schema) }

// DefaultRegistry returns the package-level default registry.
func DefaultRegistry() *Registry { return defaultRegistry }
