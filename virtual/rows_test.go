package virtual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keilerkonzept/telemetry-dashboard/series"
)

var rowsFixture = []series.Sample{
	{Timestamp: 1, Value: 10.5, Category: "cpu"},
	{Timestamp: 2, Value: -3, Category: "mem"},
	{Timestamp: 3, Value: 7},
	{Timestamp: 4, Value: 42, Category: "cpu"},
}

func TestRowsDefaultNewestFirst(t *testing.T) {
	rows := Rows(rowsFixture, Query{})
	require.Len(t, rows, 4)
	assert.Equal(t, int64(4), rows[0].Sample.Timestamp)
	assert.Equal(t, int64(1), rows[3].Sample.Timestamp)
	assert.False(t, rows[0].IsHeader())
}

func TestRowsSortByValueAscending(t *testing.T) {
	rows := Rows(rowsFixture, Query{SortBy: SortValue, Asc: true})
	var got []float64
	for _, r := range rows {
		got = append(got, r.Sample.Value)
	}
	assert.Equal(t, []float64{-3, 7, 10.5, 42}, got)
}

func TestRowsSearch(t *testing.T) {
	rows := Rows(rowsFixture, Query{Search: "CPU"})
	require.Len(t, rows, 2)
	rows = Rows(rowsFixture, Query{Search: "10.5"})
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Sample.Timestamp)
	assert.Empty(t, Rows(rowsFixture, Query{Search: "nope"}))
}

func TestRowsGroupBy(t *testing.T) {
	rows := Rows(rowsFixture, Query{GroupBy: true})
	require.Len(t, rows, 7)
	assert.Equal(t, "cpu", rows[0].Header)
	assert.Equal(t, int64(4), rows[1].Sample.Timestamp)
	assert.Equal(t, int64(1), rows[2].Sample.Timestamp)
	assert.Equal(t, UngroupedLabel, rows[3].Header)
	assert.Equal(t, series.UnknownCategory, rows[3].Header, "same name as the category filter")
	assert.Equal(t, "mem", rows[5].Header)
}

func TestSortKeyCycle(t *testing.T) {
	assert.Equal(t, SortValue, SortTime.Next())
	assert.Equal(t, SortTime, SortCategory.Next())
	assert.Equal(t, "category", SortCategory.String())
}
