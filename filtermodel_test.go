package hquery_test

import (
	"testing"

	"github.com/kaptinlin/hquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilterModelBindsIndexAndAlias(t *testing.T) {
	schema := buildPersonSchema(t)

	fm, err := hquery.NewFilterModel(schema, []hquery.FilterAttr{
		hquery.Filter("team", hquery.TypeString),
		hquery.Filter("email", hquery.TypeString), // unique alias for contact.email
	})
	require.NoError(t, err)
	assert.True(t, fm.IsFilterModel())
}

func TestNewFilterModelRejectsTypeMismatch(t *testing.T) {
	schema := buildPersonSchema(t)

	_, err := hquery.NewFilterModel(schema, []hquery.FilterAttr{
		hquery.Filter("team", hquery.TypeInt),
	})
	assert.ErrorIs(t, err, hquery.ErrFilterTypeMismatch)
}

func TestNewFilterModelRejectsUnknownAttribute(t *testing.T) {
	schema := buildPersonSchema(t)

	_, err := hquery.NewFilterModel(schema, []hquery.FilterAttr{
		hquery.Filter("nonexistent", hquery.TypeString),
	})
	assert.ErrorIs(t, err, hquery.ErrFilterUnknownAttribute)
}

func TestNewFilterModelRejectsAmbiguousAlias(t *testing.T) {
	schema, err := hquery.NewSchema("docs",
		[]hquery.IndexAttr{hquery.Index("id", hquery.TypeString)},
		hquery.Group(
			hquery.Child("author", hquery.Group(
				hquery.Child("name", hquery.Field(hquery.TypeString, hquery.Str(""))),
			)),
			hquery.Child("reviewer", hquery.Group(
				hquery.Child("name", hquery.Field(hquery.TypeString, hquery.Str(""))),
			)),
		),
	)
	require.NoError(t, err)

	_, err = hquery.NewFilterModel(schema, []hquery.FilterAttr{
		hquery.Filter("name", hquery.TypeString),
	})
	assert.ErrorIs(t, err, hquery.ErrFilterAmbiguousAlias)
}

func TestNewFilterModelRejectsAttributeWithDefault(t *testing.T) {
	schema := buildPersonSchema(t)

	attr := hquery.Filter("team", hquery.TypeString)
	attr.HasDefault = true
	attr.Default = hquery.Str("eng")

	_, err := hquery.NewFilterModel(schema, []hquery.FilterAttr{attr})
	assert.ErrorIs(t, err, hquery.ErrFilterHasDefault)
}

func TestNilFilterModelIsNotCompiled(t *testing.T) {
	var fm *hquery.FilterModel
	assert.False(t, fm.IsFilterModel())
}
