package hquery

import "strings"

// SQL parses and executes a restricted SQL statement against documents, a
// map from root name to that root's document Value (§4.5). The schema for
// every root referenced in FROM or JOIN must already be registered in
// registry.
func SQL(registry *Registry, documents map[string]Value, query string) ([]Result, error) {
	q, err := ParseSQL(query)
	if err != nil {
		return nil, err
	}
	return ExecuteSQL(registry, documents, q)
}

// ExecuteSQL runs an already-parsed SQLQuery (§4.5 steps 1-5).
//
// The FROM root's rows keep the bare keys Flatten produces (index names
// and flat field paths, unprefixed); a JOIN's right-root rows are
// combined in with their keys prefixed "<right-root>.indexes.<idx>" (for
// an index) or "<right-root>.<path>" (for a field) — the same asymmetric
// qualification original_source's _combine_join_entries applies, and the
// reason WHERE/ON identifiers resolve differently depending on which side
// of the join they name (see resolveWhereIdent/resolveJoinIdent).
func ExecuteSQL(registry *Registry, documents map[string]Value, q *SQLQuery) ([]Result, error) {
	fromSchema, ok := registry.Lookup(q.From)
	if !ok {
		return nil, newQueryError(ErrSchemaNotRegistered, "sql", "schema_not_registered",
			"no schema registered for root '{root}'", map[string]any{"root": q.From})
	}

	leftRows, err := gatherRows(fromSchema, documents[q.From], q.FromPath)
	if err != nil {
		return nil, err
	}

	var rows []Record
	var rightSchema *Schema
	var rightRoot string

	if len(q.Joins) > 0 {
		jc := q.Joins[0]
		rightRoot = jc.Root
		rightSchema, ok = registry.Lookup(jc.Root)
		if !ok {
			return nil, newQueryError(ErrSchemaNotRegistered, "sql", "schema_not_registered",
				"no schema registered for root '{root}'", map[string]any{"root": jc.Root})
		}
		rightRows, err := gatherRows(rightSchema, documents[jc.Root], nil)
		if err != nil {
			return nil, err
		}

		var on *WhereNode
		if jc.On != nil {
			on = jc.On.clone()
			resolve := func(ident string) (string, error) {
				return resolveJoinIdent(ident, q.From, fromSchema, rightRoot, rightSchema)
			}
			if err := resolveWhereNode(on, resolve); err != nil {
				return nil, err
			}
		}
		rows = nestedLoopJoin(leftRows, rightRows, rightRoot, rightSchema, jc.Kind, on)
	} else {
		rows = leftRows
	}

	where := q.Where
	if where != nil {
		where = where.clone()
		resolve := func(ident string) (string, error) {
			return resolveWhereIdent(ident, q.From, fromSchema, rightRoot, rightSchema)
		}
		if err := resolveWhereNode(where, resolve); err != nil {
			return nil, err
		}
	}

	selects, err := resolveSelect(q, fromSchema, rightRoot, rightSchema)
	if err != nil {
		return nil, err
	}

	var out []Result
	for _, row := range rows {
		if where != nil {
			ok, err := where.Eval(row)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, projectRow(row, q, fromSchema, selects))
	}
	return out, nil
}

// gatherRows flattens every entry of schema's root, optionally restricting
// traversal to a fixed index path (the FROM-clause index-path suffix,
// §4.5 step 1). A path longer than the schema's index count is rejected
// with ErrFromIndexMismatch.
func gatherRows(schema *Schema, document Value, indexPath []string) ([]Record, error) {
	if len(indexPath) > len(schema.Indexes) {
		return nil, newQueryError(ErrFromIndexMismatch, "sql", "from_index_mismatch",
			"FROM index path has {got} segments but root '{root}' has {want} index levels",
			map[string]any{"got": len(indexPath), "want": len(schema.Indexes), "root": schema.Root})
	}

	values := map[string]Value{}
	for i, seg := range indexPath {
		values[schema.Indexes[i].Name] = Str(seg)
	}

	return Flatten(schema, document, &FilterValues{Values: values})
}

// nestedLoopJoin combines left with right per kind: CROSS JOIN takes the
// full cross-product, INNER/plain JOIN keeps only combined rows whose
// (already-resolved) ON predicate holds (§4.5 step 2). Left's own keys are
// copied verbatim; right's keys are requalified under rightRoot.
func nestedLoopJoin(left, right []Record, rightRoot string, rightSchema *Schema, kind JoinKind, on *WhereNode) []Record {
	rightIndexNames := map[string]struct{}{}
	for _, idx := range rightSchema.Indexes {
		rightIndexNames[idx.Name] = struct{}{}
	}

	var out []Record
	for _, l := range left {
		for _, r := range right {
			combined := l.Clone()
			for k, v := range r {
				if _, isIdx := rightIndexNames[k]; isIdx {
					combined[rightRoot+".indexes."+k] = v
				} else {
					combined[rightRoot+"."+k] = v
				}
			}
			if kind == JoinCross {
				out = append(out, combined)
				continue
			}
			if ok, _ := on.Eval(combined); ok {
				out = append(out, combined)
			}
		}
	}
	return out
}

// clone deep-copies a WhereNode tree so identifier resolution can mutate
// LHS/RHSIdent in place without corrupting a cached *SQLQuery a caller
// might reuse across calls.
func (n *WhereNode) clone() *WhereNode {
	if n == nil {
		return nil
	}
	cp := *n
	if len(n.Children) > 0 {
		cp.Children = make([]*WhereNode, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.clone()
		}
	}
	return &cp
}

// resolveWhereNode walks a WHERE/ON tree, rewriting every comparison's LHS
// and (when it is an identifier, not a literal) RHSIdent into the
// canonical row key resolve produces.
func resolveWhereNode(n *WhereNode, resolve func(string) (string, error)) error {
	if n == nil {
		return nil
	}
	if n.Kind == WhereCompare {
		lhs, err := resolve(n.LHS)
		if err != nil {
			return err
		}
		n.LHS = lhs
		if !n.hasLiteral {
			rhs, err := resolve(n.RHSIdent)
			if err != nil {
				return err
			}
			n.RHSIdent = rhs
		}
		return nil
	}
	for _, c := range n.Children {
		if err := resolveWhereNode(c, resolve); err != nil {
			return err
		}
	}
	return nil
}

// resolveJoinIdent resolves one ON-clause identifier, which §4.5 requires
// to be qualified: "<root>.indexes.<idx>" for an index, or
// "<root>.<flat-path>" for a field. A bare "<root>.<idxName>" (omitting
// the "indexes." segment) is also accepted when idxName names an index
// and not a field, mirroring original_source's _parse_qualified_ident
// leniency. The resolved key is the row key the identifier's value lives
// under in a combined Record: bare for the left (FROM) root, requalified
// under rightRoot for the right (JOIN) root.
func resolveJoinIdent(ident, leftRoot string, leftSchema *Schema, rightRoot string, rightSchema *Schema) (string, error) {
	root, rest, ok := splitQualified(ident)
	if !ok {
		return "", newQueryError(ErrUnknownReference, "join", "unknown_join_reference",
			"JOIN identifiers must be qualified with a root, got '{ident}'", map[string]any{"ident": ident})
	}

	var schema *Schema
	var isLeft bool
	switch root {
	case leftRoot:
		schema, isLeft = leftSchema, true
	case rightRoot:
		schema, isLeft = rightSchema, false
	default:
		return "", newQueryError(ErrUnknownReference, "join", "unknown_join_reference",
			"unknown root '{root}' in JOIN condition; expected '{left}' or '{right}'",
			map[string]any{"root": root, "left": leftRoot, "right": rightRoot})
	}

	if idxName, ok := strings.CutPrefix(rest, "indexes."); ok {
		if _, ok := schema.Index(idxName); !ok {
			return "", newQueryError(ErrUnknownReference, "join", "unknown_join_reference",
				"unknown index '{index}' in JOIN condition for root '{root}'",
				map[string]any{"index": idxName, "root": root})
		}
		if isLeft {
			return idxName, nil
		}
		return rightRoot + ".indexes." + idxName, nil
	}

	if _, ok := schema.FlatField(rest); ok {
		if isLeft {
			return rest, nil
		}
		return rightRoot + "." + rest, nil
	}
	if _, ok := schema.Index(rest); ok {
		if isLeft {
			return rest, nil
		}
		return rightRoot + ".indexes." + rest, nil
	}

	return "", newQueryError(ErrUnknownReference, "join", "unknown_join_reference",
		"unknown field '{field}' in JOIN condition for root '{root}'", map[string]any{"field": rest, "root": root})
}

// resolveWhereIdent resolves one WHERE-clause identifier per §4.5: bare
// (resolved against the primary root), primary-root-qualified (the prefix
// is stripped), or "indexes.<name>" (the primary root's index, no root
// prefix). When a JOIN is present, a "<rightRoot>."-qualified identifier
// is also accepted, resolved the same way resolveJoinIdent resolves the
// right side of an ON clause — this is how a joined root's field reaches
// WHERE (e.g. `WHERE customers.name = "Acme"` after
// `FROM orders INNER JOIN customers ...` in this package's tests).
func resolveWhereIdent(ident, primaryRoot string, primarySchema *Schema, joinRoot string, joinSchema *Schema) (string, error) {
	rest := ident
	if stripped, ok := strings.CutPrefix(ident, primaryRoot+"."); ok {
		rest = stripped
	}

	if idxName, ok := strings.CutPrefix(rest, "indexes."); ok {
		if _, ok := primarySchema.Index(idxName); ok {
			return idxName, nil
		}
		return "", newQueryError(ErrUnknownReference, "where", "unknown_where_reference",
			"unknown index '{index}' in WHERE clause", map[string]any{"index": idxName})
	}
	if _, ok := primarySchema.FlatField(rest); ok {
		return rest, nil
	}
	if _, ok := primarySchema.Index(rest); ok {
		return rest, nil
	}

	if joinSchema != nil {
		if resolved, err := resolveJoinIdent(ident, primaryRoot, primarySchema, joinRoot, joinSchema); err == nil {
			return resolved, nil
		}
	}

	return "", newQueryError(ErrUnknownReference, "where", "unknown_where_reference",
		"unknown reference '{ref}' in WHERE clause", map[string]any{"ref": ident})
}

// splitQualified splits a "root.rest" identifier at its first dot.
func splitQualified(ident string) (root, rest string, ok bool) {
	i := strings.Index(ident, ".")
	if i < 0 {
		return "", "", false
	}
	return ident[:i], ident[i+1:], true
}

// selectPlan is one resolved SELECT entry: displayKey is the name under
// which the value is stored in Result.Fields, lookupKey is the row key
// its value is read from.
type selectPlan struct {
	displayKey string
	lookupKey  string
}

// resolveSelect validates and resolves the SELECT list (§4.5 Projection):
// allowed names are the primary root's flat field paths (optionally
// prefixed with the primary root — the prefix is stripped for display),
// and any "<right-root>.<flat-path>" / "<right-root>.indexes.<name>" when
// a JOIN is present, kept in full qualified form for display. SelectAll
// carries no plan; projectRow handles it directly.
func resolveSelect(q *SQLQuery, fromSchema *Schema, rightRoot string, rightSchema *Schema) ([]selectPlan, error) {
	if q.SelectAll {
		return nil, nil
	}
	isPrimaryAttr := func(n string) bool {
		_, ok := fromSchema.FlatField(n)
		return ok
	}
	plans := make([]selectPlan, 0, len(q.Select))
	for _, name := range q.Select {
		if stripped, ok := strings.CutPrefix(name, fromSchema.Root+"."); ok {
			if isPrimaryAttr(stripped) {
				plans = append(plans, selectPlan{displayKey: stripped, lookupKey: stripped})
				continue
			}
		} else if isPrimaryAttr(name) {
			plans = append(plans, selectPlan{displayKey: name, lookupKey: name})
			continue
		}

		if rightSchema != nil {
			if stripped, ok := strings.CutPrefix(name, rightRoot+"."); ok {
				if idxName, ok := strings.CutPrefix(stripped, "indexes."); ok {
					if _, ok := rightSchema.Index(idxName); ok {
						plans = append(plans, selectPlan{displayKey: name, lookupKey: rightRoot + ".indexes." + idxName})
						continue
					}
				} else if _, ok := rightSchema.FlatField(stripped); ok {
					plans = append(plans, selectPlan{displayKey: name, lookupKey: rightRoot + "." + stripped})
					continue
				}
			}
		}

		return nil, newQueryError(ErrUnknownReference, "select", "unknown_reference",
			"unknown field '{field}' in SELECT", map[string]any{"field": name})
	}
	return plans, nil
}

// projectRow builds the canonical Result from a (possibly joined) row:
// the FROM root's index values populate Indexes (I4), the SELECT list (or,
// for "*", every key other than the FROM root's index names, including a
// joined root's "<root>.indexes.<idx>" keys) populates Fields, and the unrestricted
// fields map is always carried in AllFields so Unflat can reconstruct a
// joined root's sub-tree (§4.5 step 3, §4.6).
func projectRow(row Record, q *SQLQuery, fromSchema *Schema, selects []selectPlan) Result {
	fromIndexNames := map[string]struct{}{}
	for _, idx := range fromSchema.Indexes {
		fromIndexNames[idx.Name] = struct{}{}
	}

	res := Result{
		Root:      q.From,
		Indexes:   map[string]Value{},
		Fields:    map[string]Value{},
		AllFields: map[string]Value{},
	}

	for _, idx := range fromSchema.Indexes {
		if v, ok := row[idx.Name]; ok {
			res.Indexes[idx.Name] = v
		}
	}

	for key, v := range row {
		if _, isIdx := fromIndexNames[key]; isIdx {
			continue
		}
		res.AllFields[key] = v
	}

	if q.SelectAll {
		for k, v := range res.AllFields {
			res.Fields[k] = v
		}
		return res
	}

	for _, p := range selects {
		if v, ok := row[p.lookupKey]; ok {
			res.Fields[p.displayKey] = v
		}
	}
	return res
}
