package hquery_test

import (
	"testing"

	"github.com/kaptinlin/hquery"
	"github.com/stretchr/testify/assert"
)

func TestSearchSubstringMatch(t *testing.T) {
	schema := buildPersonSchema(t)
	results, err := hquery.Search(schema, personDocument(), nil, nil, "name", []string{"Ad"}, hquery.SearchOptions{})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchExactMatchRequiresFullTerm(t *testing.T) {
	schema := buildPersonSchema(t)
	results, err := hquery.Search(schema, personDocument(), nil, nil, "name", []string{"Ad"}, hquery.SearchOptions{Exact: true})
	assert.NoError(t, err)
	assert.Empty(t, results)

	results, err = hquery.Search(schema, personDocument(), nil, nil, "name", []string{"ada"}, hquery.SearchOptions{Exact: true})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchFuzzyMatchToleratesTypo(t *testing.T) {
	schema := buildPersonSchema(t)
	// temp 50 gives a threshold of 0.5: "adda" scores 6/7 against "ada" and
	// exactly 0.5 against "alan", so both match; "grace" scores 2/9.
	results, err := hquery.Search(schema, personDocument(), nil, nil, "name", []string{"adda"}, hquery.SearchOptions{Fuzzy: true, Temp: 50})
	assert.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchOrJoinsQueryList(t *testing.T) {
	schema := buildPersonSchema(t)
	results, err := hquery.Search(schema, personDocument(), nil, nil, "name", []string{"ada", "grace"}, hquery.SearchOptions{})
	assert.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchEmptyQueryReturnsEmptyWithoutParsing(t *testing.T) {
	schema := buildPersonSchema(t)
	results, err := hquery.Search(schema, personDocument(), nil, nil, "name", nil, hquery.SearchOptions{})
	assert.NoError(t, err)
	assert.Empty(t, results)

	results, err = hquery.Search(schema, personDocument(), nil, nil, "name", []string{""}, hquery.SearchOptions{})
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRejectsUncompiledFilterModel(t *testing.T) {
	schema := buildPersonSchema(t)
	bogus := &hquery.FilterModel{}
	_, err := hquery.Search(schema, personDocument(), bogus, nil, "", nil, hquery.SearchOptions{})
	assert.ErrorIs(t, err, hquery.ErrNotAFilterModel)
}

func TestSearchMaxResultsCaps(t *testing.T) {
	schema := buildPersonSchema(t)
	results, err := hquery.Search(schema, personDocument(), nil, nil, "name", []string{"a"}, hquery.SearchOptions{MaxResults: 1})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchFieldsReturnsPerFieldMapping(t *testing.T) {
	schema := buildPersonSchema(t)
	out, err := hquery.SearchFields(schema, personDocument(), nil, nil, []string{"name", "contact.email"}, []string{"ada"}, hquery.SearchOptions{})
	assert.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Len(t, out["name"], 1)
	assert.Len(t, out["contact.email"], 1)
}
