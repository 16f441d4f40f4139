package hquery_test

import (
	"testing"

	"github.com/kaptinlin/hquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPersonSchema(t *testing.T) *hquery.Schema {
	t.Helper()
	schema, err := hquery.NewSchema("people",
		[]hquery.IndexAttr{
			hquery.Index("team", hquery.TypeString),
			hquery.Index("id", hquery.TypeString),
		},
		hquery.Group(
			hquery.Child("name", hquery.Field(hquery.TypeString, hquery.Str(""))),
			hquery.Child("contact", hquery.Group(
				hquery.Child("email", hquery.Field(hquery.TypeString, hquery.Str(""))),
			)),
		),
	)
	require.NoError(t, err)
	return schema
}

func TestSchemaFlatFields(t *testing.T) {
	schema := buildPersonSchema(t)
	names := schema.FlatFieldNames()
	assert.ElementsMatch(t, []string{"name", "contact.email"}, names)
}

func TestSchemaFlatFieldLookup(t *testing.T) {
	schema := buildPersonSchema(t)
	spec, ok := schema.FlatField("contact.email")
	require.True(t, ok)
	assert.Equal(t, hquery.TypeString, spec.Type)
}

func TestRegistryRejectsDuplicateRoot(t *testing.T) {
	schema := buildPersonSchema(t)
	reg := hquery.NewRegistry()
	require.NoError(t, reg.Register(schema))

	err := reg.Register(schema)
	assert.ErrorIs(t, err, hquery.ErrSchemaAlreadyRegistered)
}

func TestNewSchemaRejectsEmptyRoot(t *testing.T) {
	_, err := hquery.NewSchema("", nil, nil)
	assert.ErrorIs(t, err, hquery.ErrSchemaDeclaration)
}

func TestNewSchemaRejectsDuplicateIndexName(t *testing.T) {
	_, err := hquery.NewSchema("dupes", []hquery.IndexAttr{
		hquery.Index("a", hquery.TypeString),
		hquery.Index("a", hquery.TypeString),
	}, nil)
	assert.ErrorIs(t, err, hquery.ErrSchemaDeclaration)
}

func TestRegistryLookup(t *testing.T) {
	schema := buildPersonSchema(t)
	reg := hquery.NewRegistry()
	require.NoError(t, reg.Register(schema))

	got, ok := reg.Lookup("people")
	assert.True(t, ok)
	assert.Same(t, schema, got)

	_, ok = reg.Lookup("nope")
	assert.False(t, ok)
}
