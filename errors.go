package hquery

import "errors"

// === Schema Declaration Related Errors ===
var (
	// ErrSchemaDeclaration is returned when a schema, field tree, or
	// filter model declaration is malformed (§7).
	ErrSchemaDeclaration = errors.New("schema declaration error")

	// ErrFilterHasDefault is returned when a filter model attribute
	// carries a default value; defaults enter only through the optional
	// mechanism (§3 FilterModel).
	ErrFilterHasDefault = errors.New("filter model attribute cannot declare a default")

	// ErrFilterTypeMismatch is returned when a filter attribute's
	// declared type disagrees with the bound index or field type.
	ErrFilterTypeMismatch = errors.New("filter attribute type mismatch")

	// ErrFilterAmbiguousAlias is returned when a filter attribute name
	// matches more than one flat field path's short name (§4.1 step 3).
	ErrFilterAmbiguousAlias = errors.New("filter attribute alias is ambiguous")

	// ErrFilterUnknownAttribute is returned when a filter attribute names
	// neither an index, a flat path, nor an unambiguous alias (I3).
	ErrFilterUnknownAttribute = errors.New("filter attribute is unknown")
)

// === Registry Related Errors ===
var (
	// ErrSchemaAlreadyRegistered is returned when a root name is
	// registered twice (§4.1).
	ErrSchemaAlreadyRegistered = errors.New("schema already registered for root")

	// ErrSchemaNotRegistered is returned when a root name has no
	// registered schema.
	ErrSchemaNotRegistered = errors.New("no schema registered for root")
)

// === Boolean Query Related Errors ===
var (
	// ErrQuerySyntax is returned for a malformed boolean query: unknown
	// token, unbalanced parentheses, or trailing input (§4.3, §7).
	ErrQuerySyntax = errors.New("query syntax error")

	// ErrNotAFilterModel is returned when a value passed as a filter
	// model was not produced by filter-model compilation (§4.1, §4.4).
	ErrNotAFilterModel = errors.New("value is not a compiled filter model")
)

// === SQL Related Errors ===
var (
	// ErrSQLSyntax is returned for a malformed SELECT/FROM/JOIN/WHERE
	// statement (§4.5, §7).
	ErrSQLSyntax = errors.New("sql syntax error")

	// ErrFromIndexMismatch is returned when a FROM path's index suffix
	// disagrees with the registered schema's index sequence (§4.5).
	ErrFromIndexMismatch = errors.New("from clause index path mismatch")

	// ErrJoinSyntax is returned for JOIN without ON, CROSS JOIN with ON,
	// or an empty ON clause (§4.5).
	ErrJoinSyntax = errors.New("join syntax error")

	// ErrUnknownReference is returned when a WHERE, JOIN, or SELECT
	// clause names a root, index, or field the schema doesn't have
	// (§4.5, §7).
	ErrUnknownReference = errors.New("unknown schema reference")
)

// === Serialization Related Errors ===
var (
	// ErrJSONDecode is returned when a document fails to parse as JSON.
	ErrJSONDecode = errors.New("json decode failed")

	// ErrJSONEncode is returned when a Value fails to marshal to JSON.
	ErrJSONEncode = errors.New("json encode failed")
)

// QueryError is the structured failure type surfaced by the schema,
// filter, search, query, SQL and unflatten operations of this package
// (JSON decode/encode failures instead wrap ErrJSONDecode/ErrJSONEncode
// via fmt.Errorf): it carries a keyword (the construct that failed), a
// stable machine-readable code, a templated human message, and the
// params that fill the template, so the embedded-locale localization
// path (i18n.go) applies uniformly across schema, filter, query, and
// SQL errors.
type QueryError struct {
	// Keyword names the grammar construct or declaration site involved:
	// "schema", "filter", "registry", "query", "search", "sql", "where",
	// "join", "select", "unflatten".
	Keyword string `json:"keyword"`
	// Code is a stable identifier used to look up a localized message.
	Code string `json:"code"`
	// Message is the default (English) message template, with
	// {placeholder} substitutions filled from Params.
	Message string `json:"message"`
	// Params holds the values substituted into Message's placeholders.
	Params map[string]any `json:"params"`
	// wrapped is the sentinel base error this QueryError is classified
	// under, so that errors.Is(err, ErrQuerySyntax) etc. keep working.
	wrapped error
}

// newQueryError builds a QueryError wrapping one of the sentinel errors
// declared above.
func newQueryError(wrapped error, keyword, code, message string, params map[string]any) *QueryError {
	return &QueryError{
		Keyword: keyword,
		Code:    code,
		Message: message,
		Params:  params,
		wrapped: wrapped,
	}
}

func (e *QueryError) Error() string {
	return e.Keyword + ": " + replace(e.Message, e.Params)
}

func (e *QueryError) Unwrap() error { return e.wrapped }
