package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
	"github.com/dbcrossbar/dbcrossbar/internal/driver"
	"github.com/dbcrossbar/dbcrossbar/internal/driver/bigquery"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
)

type fakeDriver struct {
	driver.Unimplemented
	features driver.FeatureSet
}

func (f *fakeDriver) Features() driver.FeatureSet { return f.features }

func buildSchema(t *testing.T, idNullable bool) *schema.Schema {
	t.Helper()
	s, err := schema.New(schema.Table{
		Name: "widgets",
		Columns: []schema.Column{
			{Name: "id", DataType: dbtype.Int64Type{}, IsNullable: idNullable},
			{Name: "name", DataType: dbtype.TextType{}, IsNullable: true},
		},
	}, nil)
	require.NoError(t, err)
	return s
}

func TestValidateUpsertKeysNotNullRejectsNullableKey(t *testing.T) {
	s := buildSchema(t, true)
	err := validateUpsertKeysNotNull(s, []string{"id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be NOT NULL")
}

func TestValidateUpsertKeysNotNullAcceptsNotNullKey(t *testing.T) {
	s := buildSchema(t, false)
	assert.NoError(t, validateUpsertKeysNotNull(s, []string{"id"}))
}

func TestValidateUpsertKeysNotNullRejectsUnknownColumn(t *testing.T) {
	s := buildSchema(t, false)
	err := validateUpsertKeysNotNull(s, []string{"missing"})
	assert.Error(t, err)
}

func TestValidateUpsertKeysNotNullRejectsEmptyKeys(t *testing.T) {
	s := buildSchema(t, false)
	err := validateUpsertKeysNotNull(s, nil)
	assert.Error(t, err)
}

func TestValidateOptionsRejectsUnsupportedMode(t *testing.T) {
	dest := &fakeDriver{Unimplemented: driver.Unimplemented{DriverName: "fake"}, features: driver.FeatureSet{
		IfExistsModes: []driver.IfExistsMode{driver.IfExistsAppend},
	}}
	err := validateOptions(dest, Options{IfExists: driver.IfExists{Mode: driver.IfExistsOverwrite}})
	assert.Error(t, err)
}

func TestValidateOptionsAcceptsSupportedMode(t *testing.T) {
	dest := &fakeDriver{Unimplemented: driver.Unimplemented{DriverName: "fake"}, features: driver.FeatureSet{
		IfExistsModes: []driver.IfExistsMode{driver.IfExistsAppend},
	}}
	assert.NoError(t, validateOptions(dest, Options{IfExists: driver.IfExists{Mode: driver.IfExistsAppend}}))
}

func TestValidateTemporariesRequiresEachScheme(t *testing.T) {
	dest := &fakeDriver{Unimplemented: driver.Unimplemented{DriverName: "bigquery"}, features: driver.FeatureSet{
		TemporariesRequired: []string{"gs"},
	}}
	assert.Error(t, validateTemporaries(dest, nil))
	assert.NoError(t, validateTemporaries(dest, []string{"gs"}))
}

func buildCollidingSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New(schema.Table{
		Name: "widgets",
		Columns: []schema.Column{
			{Name: "ID", DataType: dbtype.Int64Type{}},
			{Name: "id", DataType: dbtype.TextType{}},
		},
	}, nil)
	require.NoError(t, err)
	return s
}

func TestValidateCaseFoldedColumnsRejectsCollisionForBigQuery(t *testing.T) {
	dest := &bigquery.Driver{}
	err := validateCaseFoldedColumns(dest, buildCollidingSchema(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collide case-insensitively")
}

func TestValidateCaseFoldedColumnsIgnoresOtherDestinations(t *testing.T) {
	dest := &fakeDriver{Unimplemented: driver.Unimplemented{DriverName: "csv"}}
	assert.NoError(t, validateCaseFoldedColumns(dest, buildCollidingSchema(t)))
}

func TestValidateCaseFoldedColumnsAcceptsNonCollidingSchemaForBigQuery(t *testing.T) {
	dest := &bigquery.Driver{}
	assert.NoError(t, validateCaseFoldedColumns(dest, buildSchema(t, true)))
}

func TestNormalizeSchemaPassesThroughForUnknownDialect(t *testing.T) {
	dest := &fakeDriver{Unimplemented: driver.Unimplemented{DriverName: "csv"}}
	s := buildSchema(t, true)
	normalized, warnings, err := normalizeSchema(dest, s)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Same(t, s, normalized)
}
