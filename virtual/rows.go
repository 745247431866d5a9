package virtual

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/keilerkonzept/telemetry-dashboard/series"
)

// SortKey selects the table column rows are ordered by.
type SortKey int

const (
	SortTime SortKey = iota
	SortValue
	SortCategory
)

func (k SortKey) String() string {
	switch k {
	case SortValue:
		return "value"
	case SortCategory:
		return "category"
	}
	return "time"
}

// Next cycles through the sort keys.
func (k SortKey) Next() SortKey {
	return (k + 1) % 3
}

// UngroupedLabel heads the group of samples without a category; it matches
// the category filter's name for them.
const UngroupedLabel = series.UnknownCategory

// TimeLayout is how timestamps are shown and searched in the table.
const TimeLayout = "2006-01-02 15:04:05.000"

// Query describes the table's search, order and grouping.
type Query struct {
	Search  string
	SortBy  SortKey
	Asc     bool
	GroupBy bool
}

// Row is one line of the table: a group header or a sample.
type Row struct {
	Header string
	Sample series.Sample
}

// IsHeader reports whether r is a group header.
func (r Row) IsHeader() bool {
	return r.Header != ""
}

// Matches reports whether s contains the case-insensitive search term in
// its value, category or formatted timestamp.
func Matches(s series.Sample, term string) bool {
	if term == "" {
		return true
	}
	q := strings.ToLower(term)
	return strings.Contains(strconv.FormatFloat(s.Value, 'f', -1, 64), q) ||
		strings.Contains(strings.ToLower(s.Category), q) ||
		strings.Contains(strings.ToLower(FormatTime(s.Timestamp)), q)
}

// FormatTime renders an epoch-ms timestamp in local time.
func FormatTime(ms int64) string {
	return time.UnixMilli(ms).Format(TimeLayout)
}

// Search keeps the samples matching term.
func Search(samples []series.Sample, term string) []series.Sample {
	if term == "" {
		return samples
	}
	out := make([]series.Sample, 0, len(samples))
	for _, s := range samples {
		if Matches(s, term) {
			out = append(out, s)
		}
	}
	return out
}

// Order returns a sorted copy of samples.
func Order(samples []series.Sample, by SortKey, asc bool) []series.Sample {
	out := make([]series.Sample, len(samples))
	copy(out, samples)
	cmp := func(a, b series.Sample) int {
		switch by {
		case SortValue:
			switch {
			case a.Value < b.Value:
				return -1
			case a.Value > b.Value:
				return 1
			}
			return 0
		case SortCategory:
			return strings.Compare(a.Category, b.Category)
		}
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if asc {
			return c < 0
		}
		return c > 0
	})
	return out
}

// Rows filters, sorts and optionally groups samples into the flat row list
// the table scrolls over. Groups appear in the order their first sample
// appears after sorting.
func Rows(samples []series.Sample, q Query) []Row {
	sorted := Order(Search(samples, q.Search), q.SortBy, q.Asc)
	if !q.GroupBy {
		out := make([]Row, len(sorted))
		for i, s := range sorted {
			out[i] = Row{Sample: s}
		}
		return out
	}

	var keys []string
	groups := make(map[string][]series.Sample)
	for _, s := range sorted {
		k := s.Category
		if k == "" {
			k = UngroupedLabel
		}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], s)
	}
	out := make([]Row, 0, len(sorted)+len(keys))
	for _, k := range keys {
		out = append(out, Row{Header: k})
		for _, s := range groups[k] {
			out = append(out, Row{Sample: s})
		}
	}
	return out
}
