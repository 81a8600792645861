package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcossen/data-transform/internal/domain"
)

func TestTableValue(t *testing.T) {
	t.Parallel()

	tbl := &Table{
		Headers: []string{"H1", "H2"},
		Rows:    map[string][]string{"A": {"v1", "v2"}, "short": {"only"}},
	}

	tests := []struct {
		name   string
		row    string
		column string
		want   string
		wantOK bool
	}{
		{name: "hit", row: "A", column: "H2", want: "v2", wantOK: true},
		{name: "first column", row: "A", column: "H1", want: "v1", wantOK: true},
		{name: "unknown row", row: "B", column: "H1"},
		{name: "unknown column", row: "A", column: "H3"},
		{name: "short row", row: "short", column: "H2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tbl.Value(tt.row, tt.column)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShape(t *testing.T) {
	t.Parallel()

	records := []domain.Record{
		{"id": "1", "scale": "2.5"},
		{"id": "2", "scale": "7"},
		{"scale": "no id"},
		{"id": "1", "scale": "3.5"},
	}

	tbl, err := Shape([]string{"id", "scale"}, records, "id")
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 2)

	v, ok := tbl.Value("1", "scale")
	require.True(t, ok)
	assert.Equal(t, "3.5", v)

	v, ok = tbl.Value("2", "scale")
	require.True(t, ok)
	assert.Equal(t, "7", v)

	_, err = Shape([]string{"id"}, records, "missing")
	require.Error(t, err)
}

func TestMergeHeaders(t *testing.T) {
	t.Parallel()

	sheets := []Sheet{
		{Headers: []string{"id", "scale"}},
		{Headers: []string{"scale", "date", "id"}},
	}
	assert.Equal(t, []string{"id", "scale", "date"}, MergeHeaders(sheets))
	assert.Nil(t, MergeHeaders(nil))
}
