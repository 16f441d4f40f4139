// Package hquery implements an in-memory search and query engine over
// hierarchical record collections held in a JSON-like document: a
// schema-directed flattener, a boolean free-text search engine with
// fuzzy matching, a restricted SQL dialect with joins, and an inverse
// unflattener that rebuilds nested documents from query results.
package hquery
