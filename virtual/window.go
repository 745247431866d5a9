// Package virtual computes which rows of a long list need to be
// materialized for the current scroll position, and builds the row list the
// table scrolls through.
package virtual

// DefaultBuffer is the number of extra rows callers materialize on each
// side of a computed window.
const DefaultBuffer = 8

// Window is the half-open index range [Start, End) of rows to render.
type Window struct {
	Start int
	End   int
}

// Len returns the number of rows in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// Compute returns the rows to render for a viewport of viewportHeight
// showing rows of rowHeight, scrolled down by scrollOffset (all in the same
// unit: pixels, terminal lines, ...). The window starts one screen above
// the first visible row and spans three screens. Results always satisfy
// 0 <= Start <= End <= total.
func Compute(total, viewportHeight, rowHeight, scrollOffset int) Window {
	total = max(0, total)
	viewportHeight = max(0, viewportHeight)
	rowHeight = max(1, rowHeight)
	scrollOffset = max(0, scrollOffset)

	perScreen := (viewportHeight + rowHeight - 1) / rowHeight
	start := max(0, scrollOffset/rowHeight-perScreen)
	start = min(start, total)
	end := min(total, start+perScreen*3)
	return Window{Start: start, End: end}
}

// Pad widens w by buffer rows on both sides, clamped to [0, total].
func (w Window) Pad(buffer, total int) Window {
	buffer = max(0, buffer)
	return Window{
		Start: max(0, w.Start-buffer),
		End:   min(total, w.End+buffer),
	}
}
