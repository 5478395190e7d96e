package formatter

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleking/cas-sdss-mcp/internal/errors"
)

func TestText(t *testing.T) {
	assert.Equal(t, "", Text(sql.NullString{}))
	assert.Equal(t, "", Text(sql.NullString{String: "stale", Valid: false}))
	assert.Equal(t, "Sloan survey", Text(sql.NullString{String: "Sloan survey", Valid: true}))
	assert.Equal(t, "", Text(sql.NullString{String: "", Valid: true}))
}

func TestDedupe(t *testing.T) {
	items := []Pair{
		NewPair("a", "1"),
		NewPair("b", "2"),
		NewPair("a", "1"),
		NewPair("a", "3"),
		NewPair("b", "2"),
	}

	t.Run("whole pair key", func(t *testing.T) {
		got := Dedupe(items, func(p Pair) Pair { return p })
		assert.Equal(t, []Pair{NewPair("a", "1"), NewPair("b", "2"), NewPair("a", "3")}, got)
	})

	t.Run("first element key", func(t *testing.T) {
		got := Dedupe(items, func(p Pair) string { return p.First() })
		assert.Equal(t, []Pair{NewPair("a", "1"), NewPair("b", "2")}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		got := Dedupe([]Pair(nil), func(p Pair) Pair { return p })
		assert.Empty(t, got)
	})
}

func TestPair_MarshalsAsArray(t *testing.T) {
	data, err := json.Marshal([]Pair{NewPair("ra", "right ascension")})

	require.NoError(t, err)
	assert.JSONEq(t, `[["ra", "right ascension"]]`, string(data))
}

func TestPairsOrMessage(t *testing.T) {
	pairs := []Pair{NewPair("ra", "right ascension")}

	assert.Equal(t, pairs, PairsOrMessage(pairs, nil))
	assert.Equal(t, []Pair{}, PairsOrMessage(nil, nil))
	assert.Equal(t,
		[]string{"Table 'SDSS17.Nope' not found."},
		PairsOrMessage(nil, errors.New(errors.ErrTypeNotFound, "Table 'SDSS17.Nope' not found.")),
	)
}

func TestPairOrMessage(t *testing.T) {
	pair := NewPair("Sloan survey", "")

	assert.Equal(t, pair, PairOrMessage(pair, nil))
	assert.Equal(t,
		"Database 'Unknown' not found.",
		PairOrMessage(Pair{}, errors.New(errors.ErrTypeNotFound, "Database 'Unknown' not found.")),
	)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{}, Strings(nil))
	assert.Equal(t, []string{"SDSS17.PhotoObj"}, Strings([]string{"SDSS17.PhotoObj"}))
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if tt.wantErr {
				assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatter_FormatPairs(t *testing.T) {
	f := NewFormatter()
	pairs := []Pair{
		NewPair("ra", "right ascension"),
		NewPair("plateifu", ""),
	}

	t.Run("table", func(t *testing.T) {
		out, err := f.FormatPairs(NewPair("column", "description"), pairs, FormatTable)
		require.NoError(t, err)

		assert.Equal(t,
			"COLUMN    DESCRIPTION\n"+
				"ra        right ascension\n"+
				"plateifu  -\n",
			out,
		)
	})

	t.Run("json", func(t *testing.T) {
		out, err := f.FormatPairs(NewPair("column", "description"), pairs, FormatJSON)
		require.NoError(t, err)
		assert.JSONEq(t, `[["ra", "right ascension"], ["plateifu", ""]]`, out)
	})

	t.Run("json empty", func(t *testing.T) {
		out, err := f.FormatPairs(NewPair("column", "description"), nil, FormatJSON)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, out)
	})
}

func TestFormatter_FormatPair(t *testing.T) {
	f := NewFormatter()

	out, err := f.FormatPair(NewPair("Summary", "Remarks"), NewPair("Sloan survey", ""), FormatTable)
	require.NoError(t, err)
	assert.Equal(t, "Summary: Sloan survey\nRemarks: -\n", out)

	out, err = f.FormatPair(NewPair("Summary", "Remarks"), NewPair("Sloan survey", ""), FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `["Sloan survey", ""]`, out)
}

func TestFormatter_FormatStrings(t *testing.T) {
	f := NewFormatter()

	out, err := f.FormatStrings([]string{"SDSS17.PhotoObj", "SDSS17.SpecObj"}, FormatTable)
	require.NoError(t, err)
	assert.Equal(t, "SDSS17.PhotoObj\nSDSS17.SpecObj\n", out)

	out, err = f.FormatStrings(nil, FormatTable)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = f.FormatStrings(nil, FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}
