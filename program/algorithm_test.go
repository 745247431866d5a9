package main

import (
	"testing"
	"time"

	"github.com/keilerkonzept/topk/heap"
	"github.com/stretchr/testify/assert"
)

func TestCategoryRankerRefresh(t *testing.T) {
	counts := map[string]uint32{"a": 5, "b": 3, "c": 1}
	topCalls := 0
	top := func() []heap.Item {
		topCalls++
		return []heap.Item{{Item: "a", Count: counts["a"]}, {Item: "b", Count: counts["b"]}, {Item: "c", Count: counts["c"]}}
	}
	count := func(items []heap.Item, limit int) {
		for i := 0; i < limit; i++ {
			items[i].Count = counts[items[i].Item]
		}
	}

	r := newCategoryRanker(2, time.Second, 0)
	start := time.Unix(100, 0)

	items, full := r.Refresh(start, top, count)
	assert.True(t, full)
	assert.Equal(t, []string{"a", "b"}, names(items), "truncated to k")

	counts["b"] = 9
	items, full = r.Refresh(start.Add(100*time.Millisecond), top, count)
	assert.False(t, full)
	assert.Equal(t, []string{"b", "a"}, names(items), "partial refresh re-sorts")
	assert.Equal(t, 1, topCalls)

	items, full = r.Refresh(start.Add(time.Second), top, count)
	assert.True(t, full)
	assert.Equal(t, 2, topCalls)
	assert.Len(t, items, 2)
}

func TestCategoryRankerReturnsCopies(t *testing.T) {
	r := newCategoryRanker(3, time.Hour, 0)
	items, _ := r.Refresh(time.Unix(1, 0), func() []heap.Item {
		return []heap.Item{{Item: "x", Count: 1}}
	}, func([]heap.Item, int) {})
	items[0].Item = "mutated"

	again, _ := r.Refresh(time.Unix(2, 0), nil, func([]heap.Item, int) {})
	assert.Equal(t, "x", again[0].Item)
}

func names(items []heap.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Item
	}
	return out
}
