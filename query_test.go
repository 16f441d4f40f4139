package hquery_test

import (
	"testing"

	"github.com/kaptinlin/hquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalQuery(t *testing.T, qs string, present map[string]bool) bool {
	t.Helper()
	node, err := hquery.ParseQuery(qs)
	require.NoError(t, err)
	return node.Eval(func(term string) bool { return present[term] })
}

func TestParseQueryPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		present map[string]bool
		want    bool
	}{
		{"and true", "foo AND bar", map[string]bool{"foo": true, "bar": true}, true},
		{"and false", "foo AND bar", map[string]bool{"foo": true, "bar": false}, false},
		{"or true", "foo OR bar", map[string]bool{"foo": false, "bar": true}, true},
		{"not", "NOT foo", map[string]bool{"foo": false}, true},
		{"implicit and", "foo bar", map[string]bool{"foo": true, "bar": true}, true},
		{"implicit and false", "foo bar", map[string]bool{"foo": true, "bar": false}, false},
		{"or binds looser than and", "foo AND bar OR baz", map[string]bool{"foo": false, "bar": false, "baz": true}, true},
		{"parens override precedence", "foo AND (bar OR baz)", map[string]bool{"foo": false, "bar": false, "baz": true}, false},
		{"not binds tighter than and", "NOT foo AND bar", map[string]bool{"foo": false, "bar": false}, false},
		{"quoted term with spaces", `"hello world"`, map[string]bool{"hello world": true}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, evalQuery(t, tc.query, tc.present))
		})
	}
}

func TestParseQuerySyntaxErrors(t *testing.T) {
	tests := []string{"", "(foo", "foo)", "AND foo"}
	for _, qs := range tests {
		_, err := hquery.ParseQuery(qs)
		assert.Error(t, err, qs)
	}
}
