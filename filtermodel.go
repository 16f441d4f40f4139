package hquery

// FilterAttr declares one attribute of a FilterModel before compilation:
// a name that must resolve to an index, a flat field path, or an
// unambiguous leaf alias of the bound schema, and a type that must match
// the resolved attribute's type or its optional form (§3 FilterModel). A
// filter attribute never carries a default of its own — defaults live on
// the schema's index or field declaration, not on the query-time filter
// — so a FilterAttr built with one set is rejected at compilation.
type FilterAttr struct {
	Name       string
	Type       FieldType
	Default    Value
	HasDefault bool
}

// Filter declares a filter attribute.
func Filter(name string, t FieldType) FilterAttr {
	return FilterAttr{Name: name, Type: t}
}

// FilterModel is a compiled declaration binding filter attribute names to
// schema references (index or flat path) and a type, produced only by
// NewFilterModel (§4.1, I3). A *FilterModel not produced this way must be
// rejected with ErrNotAFilterModel wherever one is accepted (§4.4).
type FilterModel struct {
	schema *Schema
	// attrs is the set of declared attribute names, for quick membership
	// checks.
	attrs map[string]FieldType
	// indexAttrs names which declared attributes bind to an index rather
	// than a flat field.
	indexAttrs map[string]struct{}
	// fieldNameMap is the name→flat-path map for non-index attributes
	// (§4.1 step 4).
	fieldNameMap map[string]string
	compiled     bool
}

// NewFilterModel compiles a FilterModel against schema from an ordered
// list of filter attribute declarations (§4.1, §9 design note: "a
// builder that takes (schema, list-of-(name, type, optional)) and
// returns a compiled FilterModel").
func NewFilterModel(schema *Schema, attrs []FilterAttr) (*FilterModel, error) {
	fm := &FilterModel{
		schema:       schema,
		attrs:        map[string]FieldType{},
		indexAttrs:   map[string]struct{}{},
		fieldNameMap: map[string]string{},
	}

	for _, a := range attrs {
		if a.HasDefault {
			return nil, newQueryError(ErrFilterHasDefault, "filter", "filter_has_default",
				"filter attribute '{attribute}' cannot declare a default",
				map[string]any{"model": schema.Root, "attribute": a.Name})
		}
		if idx, ok := schema.Index(a.Name); ok {
			if !sameBaseKind(a.Type, idx.Type) {
				return nil, newQueryError(ErrFilterTypeMismatch, "filter", "filter_type_mismatch",
					"filter attribute '{attribute}' has type '{got}', expected '{expected}'",
					map[string]any{"attribute": a.Name, "got": a.Type.Kind, "expected": idx.Type.Kind})
			}
			fm.attrs[a.Name] = a.Type
			fm.indexAttrs[a.Name] = struct{}{}
			continue
		}

		flatName := a.Name
		if _, ok := schema.FlatField(a.Name); !ok {
			if choices, ambiguous := schema.aliasAmbiguous[a.Name]; ambiguous {
				return nil, newQueryError(ErrFilterAmbiguousAlias, "filter", "filter_ambiguous_alias",
					"filter attribute '{attribute}' is ambiguous: matches [{choices}]",
					map[string]any{"attribute": a.Name, "choices": choices})
			}
			unique, ok := schema.aliasUnique[a.Name]
			if !ok {
				return nil, newQueryError(ErrFilterUnknownAttribute, "filter", "filter_unknown_attribute",
					"filter attribute '{attribute}' is not an index, field, or alias of the schema",
					map[string]any{"attribute": a.Name})
			}
			flatName = unique
		}

		spec, _ := schema.FlatField(flatName)
		if !sameBaseKind(a.Type, spec.Type) {
			return nil, newQueryError(ErrFilterTypeMismatch, "filter", "filter_type_mismatch",
				"filter attribute '{attribute}' has type '{got}', expected '{expected}'",
				map[string]any{"attribute": a.Name, "got": a.Type.Kind, "expected": spec.Type.Kind})
		}

		fm.attrs[a.Name] = a.Type
		fm.fieldNameMap[a.Name] = flatName
	}

	fm.compiled = true
	return fm, nil
}

// newNullFilterModel builds the filter model search() falls back to when
// the caller supplies none (§4.4: "a null filter model bound to the
// schema is constructed").
func newNullFilterModel(schema *Schema) *FilterModel {
	fm, _ := NewFilterModel(schema, nil)
	return fm
}

// IsFilterModel reports whether fm was produced by NewFilterModel (I3,
// §4.4 NotAFilterModel). A nil *FilterModel, or one built by any other
// means, is rejected.
func (fm *FilterModel) IsFilterModel() bool {
	return fm != nil && fm.compiled
}

// resolveFlatPath returns the flat path a non-index filter attribute name
// binds to, falling back to the name itself when no explicit mapping was
// recorded (§4.2: "fall back to n").
func (fm *FilterModel) resolveFlatPath(name string) string {
	if p, ok := fm.fieldNameMap[name]; ok {
		return p
	}
	return name
}

// isIndexAttr reports whether a declared attribute name binds to an index.
func (fm *FilterModel) isIndexAttr(name string) bool {
	_, ok := fm.indexAttrs[name]
	return ok
}
