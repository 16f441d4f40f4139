package hquery_test

import (
	"testing"

	"github.com/kaptinlin/hquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnflatRoundTripsSearchResults(t *testing.T) {
	schema := buildPersonSchema(t)
	reg := hquery.NewRegistry()
	require.NoError(t, reg.Register(schema))

	results, err := hquery.Search(schema, personDocument(), nil, nil, "name", []string{"ada"}, hquery.SearchOptions{})
	require.NoError(t, err)

	rebuilt, err := hquery.Unflat(reg, results)
	require.NoError(t, err)

	people, ok := rebuilt.Get("people")
	require.True(t, ok)
	eng, ok := people.Get("eng")
	require.True(t, ok)
	p1, ok := eng.Get("p1")
	require.True(t, ok)
	name, ok := p1.Get("name")
	require.True(t, ok)
	assert.Equal(t, hquery.Str("Ada"), name)
}

func TestUnflatReconstructsJoinedRoot(t *testing.T) {
	reg, docs := ordersCustomersRegistry(t)
	results, err := hquery.SQL(reg, docs, `SELECT * FROM orders INNER JOIN customers ON orders.customer_id = customers.id`)
	require.NoError(t, err)

	rebuilt, err := hquery.Unflat(reg, results)
	require.NoError(t, err)

	customers, ok := rebuilt.Get("customers")
	require.True(t, ok)
	c1, ok := customers.Get("c1")
	require.True(t, ok)
	name, ok := c1.Get("name")
	require.True(t, ok)
	assert.Equal(t, hquery.Str("Acme"), name)
}

func TestUnflatJoinedRootFieldsRestrictedToSelect(t *testing.T) {
	reg, docs := ordersCustomersRegistry(t)
	results, err := hquery.SQL(reg, docs, `SELECT orders.total FROM orders INNER JOIN customers ON orders.customer_id = customers.id`)
	require.NoError(t, err)

	rebuilt, err := hquery.Unflat(reg, results)
	require.NoError(t, err)

	// customers.id was never selected, so AllFields still recovers the
	// joined root's identity (c1/c2 exist)...
	customers, ok := rebuilt.Get("customers")
	require.True(t, ok)
	c1, ok := customers.Get("c1")
	require.True(t, ok)

	// ...but "name" was never selected either, so it must not leak in
	// from AllFields the way an unrestricted source would.
	_, hasName := c1.Get("name")
	assert.False(t, hasName)
}

func TestUnflatMissingRootSchemaErrors(t *testing.T) {
	reg := hquery.NewRegistry()
	_, err := hquery.Unflat(reg, []hquery.Result{{Root: "ghost"}})
	assert.ErrorIs(t, err, hquery.ErrSchemaNotRegistered)
}

func TestUnflatByField(t *testing.T) {
	schema := buildPersonSchema(t)
	reg := hquery.NewRegistry()
	require.NoError(t, reg.Register(schema))

	results, err := hquery.Search(schema, personDocument(), nil, nil, "name", []string{"ada"}, hquery.SearchOptions{})
	require.NoError(t, err)

	out, err := hquery.UnflatByField(reg, map[string][]hquery.Result{"primary": results})
	require.NoError(t, err)
	_, ok := out["primary"].Get("people")
	assert.True(t, ok)
}
