package hquery

import "strings"

// Unflat rebuilds nested documents from a list of canonical Results,
// inverting the Flattener (and the SQL projection) per §4.6: each
// result's index values are descended in the owning schema's declared
// order, its dotted flat-field paths are expanded back into nested
// maps, and contributions from multiple results are deep-merged at the
// point they collide. A result carrying AllFields (produced by a joined
// SQL query) also reconstructs the joined root's own sub-tree from the
// "<other-root>.<path>" keys it carries, so Unflat(SQL(...)) recovers
// every root a join touched, not just the FROM root.
//
// The returned Value is a map keyed by root name.
func Unflat(registry *Registry, results []Result) (Value, error) {
	out := map[string]Value{}
	for _, res := range results {
		if err := mergeResultInto(registry, out, res); err != nil {
			return Value{}, err
		}
	}
	return Map(out), nil
}

// UnflatByField runs Unflat independently over each entry of byField,
// the field-keyed counterpart to Unflat mirroring SearchByField's
// polymorphic shape (§4.6, §4.4).
func UnflatByField(registry *Registry, byField map[string][]Result) (map[string]Value, error) {
	out := make(map[string]Value, len(byField))
	for field, results := range byField {
		v, err := Unflat(registry, results)
		if err != nil {
			return nil, err
		}
		out[field] = v
	}
	return out, nil
}

func mergeResultInto(registry *Registry, out map[string]Value, res Result) error {
	schema, ok := registry.Lookup(res.Root)
	if !ok {
		return newQueryError(ErrSchemaNotRegistered, "unflatten", "schema_not_registered",
			"no schema registered for root '{root}'", map[string]any{"root": res.Root})
	}

	path, err := indexPathFor(schema, res.Indexes)
	if err != nil {
		return err
	}
	insertAtPath(out, res.Root, path, buildNestedFromFields(res.Fields))

	if res.AllFields == nil {
		return nil
	}

	type otherRoot struct {
		indexes map[string]Value
		fields  map[string]Value
	}
	extras := map[string]*otherRoot{}
	entry := func(rootName string) *otherRoot {
		if extras[rootName] == nil {
			extras[rootName] = &otherRoot{indexes: map[string]Value{}, fields: map[string]Value{}}
		}
		return extras[rootName]
	}

	// Other roots' index values are recovered from AllFields, which is
	// always unrestricted (§4.5 Projection). Their field values are
	// recovered from Fields, which is restricted to the SELECT list when
	// one was given — using AllFields here would leak unselected
	// right-root fields back into the rebuilt document (§4.6 step 3).
	for key, v := range res.AllFields {
		for _, rootName := range registry.Roots() {
			if rootName == res.Root {
				continue
			}
			rest, ok := strings.CutPrefix(key, rootName+".")
			if !ok {
				continue
			}
			if idxName, ok := strings.CutPrefix(rest, "indexes."); ok {
				entry(rootName).indexes[idxName] = v
			}
			break
		}
	}
	for key, v := range res.Fields {
		for _, rootName := range registry.Roots() {
			if rootName == res.Root {
				continue
			}
			rest, ok := strings.CutPrefix(key, rootName+".")
			if !ok {
				continue
			}
			if _, isIdx := strings.CutPrefix(rest, "indexes."); !isIdx {
				entry(rootName).fields[rest] = v
			}
			break
		}
	}

	for rootName, rec := range extras {
		if len(rec.indexes) == 0 && len(rec.fields) == 0 {
			continue
		}
		otherSchema, ok := registry.Lookup(rootName)
		if !ok {
			continue
		}
		opath, err := indexPathFor(otherSchema, rec.indexes)
		if err != nil {
			continue
		}
		insertAtPath(out, rootName, opath, buildNestedFromFields(rec.fields))
	}
	return nil
}

func indexPathFor(schema *Schema, indexes map[string]Value) ([]string, error) {
	path := make([]string, len(schema.Indexes))
	for i, idx := range schema.Indexes {
		v, ok := indexes[idx.Name]
		if !ok {
			return nil, newQueryError(ErrUnknownReference, "unflatten", "unknown_reference",
				"result for root '{root}' is missing index '{index}'",
				map[string]any{"root": schema.Root, "index": idx.Name})
		}
		path[i] = v.String()
	}
	return path, nil
}

// buildNestedFromFields expands a flat {"a.b.c": v} field map back into
// nested maps, the inverse of the Flattener's dotted-path collection.
func buildNestedFromFields(fields map[string]Value) Value {
	root := map[string]Value{}
	for path, v := range fields {
		setNestedPath(root, splitFieldPath(path), v)
	}
	return Map(root)
}

func setNestedPath(m map[string]Value, segs []string, v Value) {
	if len(segs) == 1 {
		m[segs[0]] = v
		return
	}
	child := childMap(m, segs[0])
	setNestedPath(child, segs[1:], v)
	m[segs[0]] = Map(child)
}

func childMap(m map[string]Value, key string) map[string]Value {
	if existing, ok := m[key]; ok {
		if cm, ok := existing.AsMap(); ok {
			return cm
		}
	}
	return map[string]Value{}
}

// insertAtPath descends out[root] through the index-keyed nesting named
// by path, creating maps as needed, and deep-merges leaf into whatever
// already occupies the final position (multiple results contributing to
// the same entity, §4.6).
func insertAtPath(out map[string]Value, root string, path []string, leaf Value) {
	rootMap := childMap(out, root)

	m := rootMap
	for i, seg := range path {
		if i == len(path)-1 {
			if existing, ok := m[seg]; ok {
				m[seg] = deepMerge(existing, leaf)
			} else {
				m[seg] = leaf
			}
			break
		}
		next := childMap(m, seg)
		m[seg] = Map(next)
		m = next
	}
	if len(path) == 0 {
		// no index levels: merge the leaf directly into the root container.
		if lm, ok := leaf.AsMap(); ok {
			for k, v := range lm {
				if existing, ok := rootMap[k]; ok {
					rootMap[k] = deepMerge(existing, v)
				} else {
					rootMap[k] = v
				}
			}
		}
	}

	out[root] = Map(rootMap)
}

// deepMerge merges b into a: maps merge key by key, recursively; any
// other combination has b win.
func deepMerge(a, b Value) Value {
	am, aok := a.AsMap()
	bm, bok := b.AsMap()
	if !aok || !bok {
		return b
	}
	out := make(map[string]Value, len(am)+len(bm))
	for k, v := range am {
		out[k] = v
	}
	for k, v := range bm {
		if existing, ok := out[k]; ok {
			out[k] = deepMerge(existing, v)
		} else {
			out[k] = v
		}
	}
	return Map(out)
}
