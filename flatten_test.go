package hquery_test

import (
	"testing"

	"github.com/kaptinlin/hquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personDocument() hquery.Value {
	return hquery.Map(map[string]hquery.Value{
		"people": hquery.Map(map[string]hquery.Value{
			"eng": hquery.Map(map[string]hquery.Value{
				"p1": hquery.Map(map[string]hquery.Value{
					"name": hquery.Str("Ada"),
					"contact": hquery.Map(map[string]hquery.Value{
						"email": hquery.Str("ada@example.com"),
					}),
				}),
				"p2": hquery.Map(map[string]hquery.Value{
					"name": hquery.Str("Alan"),
				}),
			}),
			"sales": hquery.Map(map[string]hquery.Value{
				"p3": hquery.Map(map[string]hquery.Value{
					"name": hquery.Str("Grace"),
				}),
			}),
		}),
	})
}

func TestFlattenFullCrossProduct(t *testing.T) {
	schema := buildPersonSchema(t)
	records, err := hquery.Flatten(schema, personDocument(), nil)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestFlattenAppliesDefaultForMissingLeaf(t *testing.T) {
	schema := buildPersonSchema(t)
	records, err := hquery.Flatten(schema, personDocument(), nil)
	require.NoError(t, err)

	var alan hquery.Record
	for _, r := range records {
		if r["name"].Equal(hquery.Str("Alan")) {
			alan = r
		}
	}
	require.NotNil(t, alan)
	assert.Equal(t, hquery.Str(""), alan["contact.email"])
}

func TestFlattenIndexFilterNarrowsTraversal(t *testing.T) {
	schema := buildPersonSchema(t)
	fv := &hquery.FilterValues{Values: map[string]hquery.Value{"team": hquery.Str("eng")}}
	records, err := hquery.Flatten(schema, personDocument(), fv)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, hquery.Str("eng"), r["team"])
	}
}

func TestFlattenNonIndexFilterPostPass(t *testing.T) {
	schema := buildPersonSchema(t)
	fm, err := hquery.NewFilterModel(schema, []hquery.FilterAttr{
		hquery.Filter("name", hquery.TypeString),
	})
	require.NoError(t, err)

	fv := &hquery.FilterValues{Model: fm, Values: map[string]hquery.Value{"name": hquery.Str(" ADA ")}}
	records, err := hquery.Flatten(schema, personDocument(), fv)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, hquery.Str("Ada"), records[0]["name"])
}

func TestFlattenMissingRootYieldsNoRecords(t *testing.T) {
	schema := buildPersonSchema(t)
	records, err := hquery.Flatten(schema, hquery.Map(map[string]hquery.Value{}), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
