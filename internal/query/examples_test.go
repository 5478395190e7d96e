package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/cas-sdss-mcp/internal/catalog"
	"github.com/kyleking/cas-sdss-mcp/internal/errors"
	"github.com/kyleking/cas-sdss-mcp/internal/formatter"
	"github.com/kyleking/cas-sdss-mcp/internal/testutil"
)

// Scenarios covering the lookup contract end to end.

func TestScenario_SingleDatabaseWithoutRemarks(t *testing.T) {
	store := catalog.NewBuilder().LoadDatabases([]catalog.DatabaseEntry{
		testutil.NewTestDatabase("SDSS17", testutil.WithSummary("Sloan survey")),
	}).Build()
	engine := NewCatalogEngine(store)

	assert.Equal(t, []formatter.Pair{formatter.NewPair("SDSS17", "Sloan survey")}, engine.ListDatabases())

	desc, err := engine.DescribeDatabase("SDSS17")
	require.NoError(t, err)
	assert.Equal(t, formatter.NewPair("Sloan survey", ""), desc)
}

func TestScenario_TwoColumnsOfOneTable(t *testing.T) {
	store := catalog.NewBuilder().LoadTableColumns([]catalog.TableColumnEntry{
		testutil.NewTestColumn("SDSS17", "PhotoObj", "ra", "right ascension"),
		testutil.NewTestColumn("SDSS17", "PhotoObj", "dec", "declination"),
	}).Build()
	engine := NewCatalogEngine(store)

	assert.Equal(t, []string{"SDSS17.PhotoObj"}, engine.ListTables("SDSS17"))

	cols, err := engine.ListColumns("SDSS17.PhotoObj")
	require.NoError(t, err)
	assert.Equal(t, []formatter.Pair{
		formatter.NewPair("ra", "right ascension"),
		formatter.NewPair("dec", "declination"),
	}, cols)
}

func TestScenario_ColumnsOfMalformedIdentifier(t *testing.T) {
	engine := newSampleEngine()

	cols, err := engine.ListColumns("BadFormat")

	assert.Equal(t,
		[]string{"Table name 'BadFormat' is not in the correct format. Use [Database].[Table]."},
		formatter.PairsOrMessage(cols, err),
	)
}

func TestScenario_ColumnsOfUnknownTable(t *testing.T) {
	engine := newSampleEngine()

	cols, err := engine.ListColumns("SDSS17.NoSuchTable")

	assert.Equal(t, []string{"Table 'SDSS17.NoSuchTable' not found."}, formatter.PairsOrMessage(cols, err))
}

func TestScenario_DescribeUnknownDatabase(t *testing.T) {
	engine := newSampleEngine()

	desc, err := engine.DescribeDatabase("Unknown")

	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
	assert.Equal(t, "Database 'Unknown' not found.", formatter.PairOrMessage(desc, err))
}
