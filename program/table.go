package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tui "github.com/charmbracelet/bubbletea"

	"github.com/keilerkonzept/telemetry-dashboard/series"
	"github.com/keilerkonzept/telemetry-dashboard/virtual"
)

// tableView scrolls through every sample but only formats the rows the
// windower asks for.
type tableView struct {
	query  virtual.Query
	search textinput.Model

	rows   []virtual.Row
	offset int
	width  int
	height int

	window virtual.Window
	lines  []string

	// appended is the buffer's Appended count the rows were built from.
	appended uint64
	dirty    bool
}

func newTableView() *tableView {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "search value, category or time"
	ti.CharLimit = 64
	return &tableView{search: ti, dirty: true}
}

func (t *tableView) setSize(width, height int) {
	t.width, t.height = max(1, width), max(1, height-3)
	t.search.Width = max(1, width-2)
	t.clamp()
	t.materialize()
}

func (t *tableView) setRows(rows []virtual.Row) {
	t.rows = rows
	t.clamp()
	t.materialize()
}

func (t *tableView) maxOffset() int {
	return max(0, len(t.rows)-t.height)
}

func (t *tableView) clamp() {
	t.offset = min(max(0, t.offset), t.maxOffset())
}

func (t *tableView) scroll(delta int) {
	t.offset += delta
	t.clamp()
	t.materialize()
}

func (t *tableView) home() { t.scroll(-len(t.rows)) }
func (t *tableView) end()  { t.scroll(len(t.rows)) }

func (t *tableView) materialize() {
	t.window = virtual.Compute(len(t.rows), t.height, 1, t.offset).Pad(virtual.DefaultBuffer, len(t.rows))
	t.lines = t.lines[:0]
	for _, row := range t.rows[t.window.Start:t.window.End] {
		t.lines = append(t.lines, formatRow(row, t.width))
	}
}

// visible returns the formatted rows on screen.
func (t *tableView) visible() []string {
	out := make([]string, 0, t.height)
	for i := t.offset; i < min(len(t.rows), t.offset+t.height); i++ {
		if i < t.window.Start || i >= t.window.End {
			break
		}
		out = append(out, t.lines[i-t.window.Start])
	}
	return out
}

func (t *tableView) editing() bool {
	return t.search.Focused()
}

func (t *tableView) startSearch() tui.Cmd {
	t.search.SetValue(t.query.Search)
	return t.search.Focus()
}

func (t *tableView) stopSearch() {
	t.search.Blur()
}

// updateSearch feeds a key to the search box and reports whether the query
// changed.
func (t *tableView) updateSearch(msg tui.Msg) (tui.Cmd, bool) {
	var cmd tui.Cmd
	t.search, cmd = t.search.Update(msg)
	if v := t.search.Value(); v != t.query.Search {
		t.query.Search = v
		t.offset = 0
		t.dirty = true
		return cmd, true
	}
	return cmd, false
}

func (t *tableView) cycleSort() {
	t.query.SortBy = t.query.SortBy.Next()
	t.dirty = true
}

func (t *tableView) toggleDirection() {
	t.query.Asc = !t.query.Asc
	t.dirty = true
}

func (t *tableView) toggleGroup() {
	t.query.GroupBy = !t.query.GroupBy
	t.dirty = true
}

// rebuild recomputes the rows from samples.
func (t *tableView) rebuild(samples []series.Sample, appended uint64) {
	t.appended = appended
	t.dirty = false
	t.setRows(virtual.Rows(samples, t.query))
}

func (t *tableView) header() string {
	dir := "desc"
	if t.query.Asc {
		dir = "asc"
	}
	cols := fmt.Sprintf("%-23s %12s  %s", "time", "value", "category")
	status := fmt.Sprintf("sort: %s %s", t.query.SortBy, dir)
	if t.query.GroupBy {
		status += " | grouped"
	}
	if len(t.rows) > 0 {
		status += fmt.Sprintf(" | %d-%d of %d", t.offset+1, min(len(t.rows), t.offset+t.height), len(t.rows))
	}
	return truncate(cols, t.width) + "\n" + borderFg.Render(truncate(status, t.width))
}

func (t *tableView) View() string {
	var sb strings.Builder
	switch {
	case t.editing():
		sb.WriteString(t.search.View())
	case t.query.Search != "":
		sb.WriteString(selectedFg.Render(truncate("/"+t.query.Search, t.width)))
	default:
		sb.WriteString(borderFg.Render(truncate("/ to search", t.width)))
	}
	sb.WriteByte('\n')
	sb.WriteString(t.header())
	lines := t.visible()
	for _, line := range lines {
		sb.WriteByte('\n')
		sb.WriteString(line)
	}
	return sb.String()
}

func formatRow(row virtual.Row, width int) string {
	if row.IsHeader() {
		return accentFg.Render(truncate("── "+row.Header, width))
	}
	s := row.Sample
	line := fmt.Sprintf("%-23s %12.3f  %s", virtual.FormatTime(s.Timestamp), s.Value, s.Category)
	return truncate(line, width)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:max(0, width)])
}
