package main

import (
	"sort"
	"time"

	"github.com/keilerkonzept/topk/heap"
)

// categoryRanker keeps the leaderboard of the busiest categories. A full
// refresh re-reads the sketch's top-K; in between, only the counts of the
// first entries are refreshed and re-sorted, which keeps the list stable
// while samples stream in.
type categoryRanker struct {
	k           int
	fullRefresh time.Duration
	partialSize int

	lastFullRefresh time.Time
	items           []heap.Item
}

func newCategoryRanker(k int, fullRefresh time.Duration, partialSize int) *categoryRanker {
	if fullRefresh < 0 {
		fullRefresh = 2 * time.Second
	}
	return &categoryRanker{
		k:           max(1, k),
		fullRefresh: fullRefresh,
		partialSize: max(0, partialSize),
	}
}

// Refresh returns the current ranking and whether it was fully rebuilt.
// topFn returns the sketch's sorted top-K; countFn updates the Count of the
// first limit items in place. Both are called with no locks held by the
// ranker.
func (r *categoryRanker) Refresh(now time.Time, topFn func() []heap.Item, countFn func(items []heap.Item, limit int)) (items []heap.Item, full bool) {
	if now.IsZero() {
		now = time.Now()
	}

	if len(r.items) == 0 || r.fullRefresh == 0 || now.Sub(r.lastFullRefresh) >= r.fullRefresh {
		r.items = topFn()
		if len(r.items) > r.k {
			r.items = r.items[:r.k]
		}
		r.lastFullRefresh = now
		return cloneItems(r.items), true
	}

	limit := len(r.items)
	if r.partialSize > 0 && r.partialSize < limit {
		limit = r.partialSize
	}
	countFn(r.items, limit)
	sort.SliceStable(r.items[:limit], func(i, j int) bool {
		if r.items[i].Count != r.items[j].Count {
			return r.items[i].Count > r.items[j].Count
		}
		return r.items[i].Item < r.items[j].Item
	})
	return cloneItems(r.items), false
}

func cloneItems(in []heap.Item) []heap.Item {
	out := make([]heap.Item, len(in))
	copy(out, in)
	return out
}
