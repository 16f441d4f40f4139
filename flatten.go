package hquery

// FilterValues pairs a compiled FilterModel with the caller-supplied
// attribute values for one query (§3 FilterModel, §4.2). Index values in
// Values narrow the traversal whether or not Model is set. Model may be
// nil, in which case no non-index filtering is applied — the shape the
// SQL engine uses while gathering the entries of a root, with only the
// FROM index path as filters, before applying its own WHERE predicate
// (§4.5 step 1).
type FilterValues struct {
	Model  *FilterModel
	Values map[string]Value
}

// Flatten traverses document per schema, emitting one Record per reached
// entity, honouring index filters during traversal and non-index filters
// in a post-pass (§4.2).
//
// Missing index filters yield the full cross-product of that index level
// (P2); a malformed branch (a non-map value where a map was expected)
// simply yields no records for that branch — Flatten never raises
// BadDocumentShape.
func Flatten(schema *Schema, document Value, fv *FilterValues) ([]Record, error) {
	root, ok := document.Get(schema.Root)
	if !ok {
		return nil, nil
	}

	indexFilters := map[string]Value{}
	if fv != nil {
		for _, idx := range schema.Indexes {
			if v, ok := fv.Values[idx.Name]; ok && !v.IsNull() {
				indexFilters[idx.Name] = v
			}
		}
	}

	var records []Record
	descend(schema, root, 0, Record{}, indexFilters, &records)

	if fv != nil && fv.Model != nil {
		records = applyNonIndexFilters(records, fv)
	}

	return records, nil
}

func descend(schema *Schema, node Value, depth int, acc Record, indexFilters map[string]Value, out *[]Record) {
	if depth == len(schema.Indexes) {
		if node.Kind() != KindMap {
			return
		}
		*out = append(*out, buildRecord(schema, node, acc))
		return
	}

	children, ok := node.AsMap()
	if !ok {
		return
	}

	idx := schema.Indexes[depth]
	filterVal, hasFilter := indexFilters[idx.Name]

	for key, child := range children {
		if hasFilter && key != filterVal.String() {
			continue
		}
		next := acc.Clone()
		next[idx.Name] = Str(key)
		descend(schema, child, depth+1, next, indexFilters, out)
	}
}

// buildRecord copies accumulated index values and fills every flat field,
// defaulting where the source path is absent or runs through a non-map
// intermediate (I1).
func buildRecord(schema *Schema, entity Value, indexValues Record) Record {
	rec := indexValues.Clone()
	for _, spec := range schema.FlatFields() {
		rec[spec.PathStr] = getPath(entity, spec.Path, spec.Default)
	}
	return rec
}

// getPath walks a dotted path through nested maps, returning def as soon
// as an intermediate value is missing or not itself a map (§4.2).
func getPath(entity Value, path []string, def Value) Value {
	cur := entity
	for _, seg := range path {
		m, ok := cur.AsMap()
		if !ok {
			return def
		}
		child, ok := m[seg]
		if !ok || child.IsNull() {
			return def
		}
		cur = child
	}
	return cur
}

// applyNonIndexFilters drops records failing any non-null, non-index
// filter attribute's case-folded, trimmed string comparison (§4.2).
func applyNonIndexFilters(records []Record, fv *FilterValues) []Record {
	type cond struct {
		path string
		want string
	}
	var conds []cond
	for name, t := range fv.Model.attrs {
		if fv.Model.isIndexAttr(name) {
			continue
		}
		_ = t
		val, ok := fv.Values[name]
		if !ok || val.IsNull() {
			continue
		}
		conds = append(conds, cond{path: fv.Model.resolveFlatPath(name), want: normStr(val)})
	}
	if len(conds) == 0 {
		return records
	}

	out := records[:0:0]
	for _, rec := range records {
		keep := true
		for _, c := range conds {
			if normStr(rec[c.path]) != c.want {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out
}
