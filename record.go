package hquery

// Record is a flat mapping produced by the Flattener: keys are either an
// index name from the schema or a flat field path (§3 Record). Records
// produced by a SQL join additionally carry keys of the form
// "<other-root>.<flat-path>" and "<other-root>.indexes.<idx-name>".
type Record map[string]Value

// Clone returns a shallow copy of the record, safe to mutate without
// affecting the original (records and documents passed in are read but
// never mutated, §5).
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Result is the canonical projected shape every querying surface emits:
// {root, indexes, fields[, _all_fields]} (I4, §6).
type Result struct {
	Root    string
	Indexes map[string]Value
	Fields  map[string]Value
	// AllFields holds the unrestricted fields map for a SQL-projected
	// result; the Unflattener needs it to recover joined-root index
	// values (§4.5, §4.6). Nil for boolean-search results.
	AllFields map[string]Value
}

// reshapeEntry converts a flat Record into the canonical {root, indexes,
// fields} shape for the given schema: primary-root index keys go into
// Indexes, everything else into Fields (§4.4 "Each matched record is
// projected...").
func reshapeEntry(entry Record, schema *Schema) Result {
	indexNames := make(map[string]struct{}, len(schema.Indexes))
	for _, spec := range schema.Indexes {
		indexNames[spec.Name] = struct{}{}
	}

	indexes := make(map[string]Value)
	fields := make(map[string]Value)
	for k, v := range entry {
		if _, ok := indexNames[k]; ok {
			indexes[k] = v
		} else {
			fields[k] = v
		}
	}

	return Result{
		Root:    schema.Root,
		Indexes: indexes,
		Fields:  fields,
	}
}
