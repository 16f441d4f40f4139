package hquery

import "strings"

// SearchOptions configures term matching for Search (§4.3, §4.4).
type SearchOptions struct {
	Fuzzy      bool
	Exact      bool
	Temp       float64
	MaxResults int
}

// Search runs a boolean free-text query against one field of every record
// flatten produces for document (§4.4). fm may be nil, in which case a
// null filter model bound to schema is used and no non-index filtering is
// applied before the search (index values in filterValues still narrow
// the traversal); a non-nil fm that was not produced by NewFilterModel
// is rejected with ErrNotAFilterModel (I3).
//
// queries is a single query string, or several, rejoined with " OR " at
// the outermost level (§4.4: "a list is rejoined with ' OR ' (outermost)");
// an empty (post-join) query returns an empty result without invoking the
// parser. Results are projected to the canonical {root, indexes, fields}
// shape and capped at opts.MaxResults when it is positive.
func Search(schema *Schema, document Value, fm *FilterModel, filterValues map[string]Value, field string, queries []string, opts SearchOptions) ([]Result, error) {
	if fm == nil {
		fm = newNullFilterModel(schema)
	}
	if !fm.IsFilterModel() {
		return nil, newQueryError(ErrNotAFilterModel, "search", "not_a_filter_model",
			"filter model was not produced by NewFilterModel", nil)
	}

	queryStr := joinQueries(queries)
	if queryStr == "" {
		return []Result{}, nil
	}

	ast, err := ParseQuery(queryStr)
	if err != nil {
		return nil, err
	}

	records, err := Flatten(schema, document, &FilterValues{Model: fm, Values: filterValues})
	if err != nil {
		return nil, err
	}

	var out []Result
	for _, rec := range records {
		targets := targetsForValue(rec[field])
		match := func(term string) bool {
			return targetsMatchTerm(targets, term, opts.Fuzzy, opts.Exact, opts.Temp)
		}
		if !ast.Eval(match) {
			continue
		}
		out = append(out, reshapeEntry(rec, schema))
		if opts.MaxResults > 0 && len(out) >= opts.MaxResults {
			break
		}
	}
	return out, nil
}

// SearchFields runs Search independently against each named field of the
// same document, returning a mapping from field name to its own result
// list and preserving field order only insofar as Go's map iteration
// allows — callers that need declaration order should iterate fields
// themselves (§4.4: "the operation is applied per field and the result
// is a mapping preserving field order").
func SearchFields(schema *Schema, document Value, fm *FilterModel, filterValues map[string]Value, fields []string, queries []string, opts SearchOptions) (map[string][]Result, error) {
	out := make(map[string][]Result, len(fields))
	for _, f := range fields {
		results, err := Search(schema, document, fm, filterValues, f, queries, opts)
		if err != nil {
			return nil, err
		}
		out[f] = results
	}
	return out, nil
}

// SearchByField runs Search independently against each named root's
// document within docsByField (the root-keyed counterpart of Search,
// mirroring the original engine's polymorphic list-or-map search result
// — see UnflatByField for the same shape on the inverse operation).
func SearchByField(schemas map[string]*Schema, docsByField map[string]Value, fm map[string]*FilterModel, filterValues map[string]map[string]Value, fields map[string]string, queries []string, opts SearchOptions) (map[string][]Result, error) {
	out := make(map[string][]Result, len(docsByField))
	for root, doc := range docsByField {
		schema, ok := schemas[root]
		if !ok {
			return nil, newQueryError(ErrSchemaNotRegistered, "search", "schema_not_registered",
				"no schema registered for root '{root}'", map[string]any{"root": root})
		}
		results, err := Search(schema, doc, fm[root], filterValues[root], fields[root], queries, opts)
		if err != nil {
			return nil, err
		}
		out[root] = results
	}
	return out, nil
}

// joinQueries rejoins a query list with " OR " at the outermost level, the
// same normalisation the original engine applies before a list-valued
// query reaches the parser.
func joinQueries(queries []string) string {
	nonEmpty := make([]string, 0, len(queries))
	for _, q := range queries {
		if strings.TrimSpace(q) != "" {
			nonEmpty = append(nonEmpty, q)
		}
	}
	return strings.Join(nonEmpty, " OR ")
}
