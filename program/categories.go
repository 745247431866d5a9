package main

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"
	"github.com/keilerkonzept/topk/heap"
	"github.com/keilerkonzept/topk/sliding"

	"github.com/keilerkonzept/telemetry-dashboard/series"
)

// categoryBoard tracks how busy each category is over a sliding window and
// which categories the user has hidden from the charts and table.
type categoryBoard struct {
	sketch   *sliding.Sketch
	sketchMu sync.Mutex
	ranker   *categoryRanker

	list     list.Model
	delegate *list.DefaultDelegate
	items    []heap.Item

	hidden map[string]bool
	known  map[string]bool
}

func newCategoryBoard(width, height int) *categoryBoard {
	sketch := sliding.New(config.K,
		int(config.WindowSize/config.TickSize),
		sliding.WithWidth(config.Width),
		sliding.WithDepth(config.Depth),
		sliding.WithDecay(float32(config.Decay)),
	)

	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = styles.NewStyle().
		Border(styles.NormalBorder(), false, false, false, true).
		BorderForeground(borderColor).
		Foreground(selectedColor).
		Padding(0, 0, 0, 1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle
	d.ShowDescription = true

	l := list.New(make([]list.Item, 0), d, width, height)
	l.Styles.NoItems = l.Styles.NoItems.Padding(0, 2)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)

	return &categoryBoard{
		sketch:   sketch,
		ranker:   newCategoryRanker(config.K, 2*time.Second, 0),
		list:     l,
		delegate: &d,
		hidden:   make(map[string]bool),
		known:    make(map[string]bool),
	}
}

// observe counts the categories of a batch of samples.
func (b *categoryBoard) observe(batch []series.Sample) {
	b.sketchMu.Lock()
	for _, s := range batch {
		b.sketch.Incr(series.CategoryOf(s))
	}
	b.sketchMu.Unlock()
	for _, s := range batch {
		b.known[series.CategoryOf(s)] = true
	}
}

// tick advances the sliding window by n ticks.
func (b *categoryBoard) tick(n int) {
	b.sketchMu.Lock()
	b.sketch.Ticks(n)
	b.sketchMu.Unlock()
}

func (b *categoryBoard) refresh(now time.Time) bool {
	items, full := b.ranker.Refresh(
		now,
		func() []heap.Item {
			b.sketchMu.Lock()
			defer b.sketchMu.Unlock()
			return b.sketch.SortedSlice()
		},
		func(items []heap.Item, limit int) {
			b.sketchMu.Lock()
			defer b.sketchMu.Unlock()
			for i := 0; i < limit; i++ {
				items[i].Count = b.sketch.Count(items[i].Item)
			}
		},
	)
	b.items = items
	return full
}

func (b *categoryBoard) updateList(msg tui.Msg) tui.Cmd {
	numDecimals := 1 + int(math.Ceil(math.Log10(float64(config.K+1))))
	rankFormat := "#%-" + fmt.Sprint(numDecimals) + "d"
	pad := strings.Repeat(" ", numDecimals+1)

	items := make([]list.Item, len(b.items))
	for i, item := range b.items {
		items[i] = categoryItem{
			Item:        item,
			TitlePrefix: fmt.Sprintf(rankFormat, i+1),
			DescPrefix:  pad,
			Hidden:      b.hidden[item.Item],
		}
	}
	var selected string
	if it, ok := b.list.SelectedItem().(categoryItem); ok {
		selected = it.Item.Item
	}
	set := b.list.SetItems(items)
	for i, item := range b.items {
		if item.Item == selected {
			b.list.Select(i)
			break
		}
	}
	var cmd tui.Cmd
	b.list, cmd = b.list.Update(msg)
	return tui.Batch(set, cmd)
}

func (b *categoryBoard) selected() (string, bool) {
	it, ok := b.list.SelectedItem().(categoryItem)
	if !ok {
		return "", false
	}
	return it.Item.Item, true
}

func (b *categoryBoard) toggle(category string) {
	if b.hidden[category] {
		delete(b.hidden, category)
		return
	}
	b.hidden[category] = true
}

func (b *categoryBoard) showAll() {
	clear(b.hidden)
}

func (b *categoryBoard) hideAll() {
	for c := range b.known {
		b.hidden[c] = true
	}
}

// toggleGroup hides every known category of group, or shows them all if
// they are all hidden already.
func (b *categoryBoard) toggleGroup(group string) {
	members := b.groupMembers(group)
	show := true
	for _, c := range members {
		if !b.hidden[c] {
			show = false
			break
		}
	}
	for _, c := range members {
		if show {
			delete(b.hidden, c)
		} else {
			b.hidden[c] = true
		}
	}
}

func (b *categoryBoard) groupMembers(group string) []string {
	var out []string
	for c := range b.known {
		if series.Group(c) == group {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// hiddenSet returns a copy safe to hand to the chart pipeline.
func (b *categoryBoard) hiddenSet() map[string]bool {
	if len(b.hidden) == 0 {
		return nil
	}
	out := make(map[string]bool, len(b.hidden))
	for k, v := range b.hidden {
		out[k] = v
	}
	return out
}

type categoryItem struct {
	heap.Item
	TitlePrefix string
	DescPrefix  string
	Hidden      bool
}

func (i categoryItem) Title() string {
	return fmt.Sprintf("%s %s", i.TitlePrefix, i.Item.Item)
}

func (i categoryItem) Description() string {
	if i.Hidden {
		return fmt.Sprintf("%s %d (hidden)", i.DescPrefix, i.Count)
	}
	return fmt.Sprintf("%s %d", i.DescPrefix, i.Count)
}

func (i categoryItem) FilterValue() string { return i.Item.Item }
