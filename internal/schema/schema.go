// Package schema derives the active column set of the data table from the
// selected timeframe and indicator selection.
package schema

import "niftydash/internal/domain"

// ClassSticky marks columns pinned to the left edge of the grid.
const ClassSticky = "sticky"

// Widths of the layout template, in terminal cells.
const (
	PinnedWidth = 11
	ColumnWidth = 13
)

// Column describes one column of the rendered grid.
type Column struct {
	ID    string
	Label string
	Class string
}

// Sticky reports whether the column is pinned.
func (c Column) Sticky() bool { return c.Class == ClassSticky }

// Layout is the ordered sequence of column widths shared by the header and
// every data row of one render pass.
type Layout []int

// Equal reports whether two layouts are structurally identical.
func (l Layout) Equal(other Layout) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// Total returns the sum of all widths.
func (l Layout) Total() int {
	n := 0
	for _, w := range l {
		n += w
	}
	return n
}

// Schema is the resolved column list for one render.
type Schema struct {
	Timeframe domain.Timeframe
	Columns   []Column
	Layout    Layout
}

// IDs returns the column ids in order.
func (s Schema) IDs() []string {
	ids := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		ids[i] = c.ID
	}
	return ids
}

// Base column ids.
const (
	ColDate   = "date"
	ColTime   = "time"
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColTarget = "target"
)

// BaseColumns returns the fixed columns for tf. It depends on nothing but
// the timeframe identifier.
func BaseColumns(tf domain.Timeframe) []Column {
	cols := []Column{
		{ID: ColDate, Label: "Date", Class: ClassSticky},
		{ID: ColTime, Label: "Time", Class: ClassSticky},
	}
	if tf.HasOHLC() {
		cols = append(cols,
			Column{ID: ColOpen, Label: "Open"},
			Column{ID: ColHigh, Label: "High"},
			Column{ID: ColLow, Label: "Low"},
			Column{ID: ColClose, Label: "Close"},
		)
	}
	return append(cols, Column{ID: ColTarget, Label: "Signal"})
}

// Resolve builds the schema for tf followed by the selected indicators in
// the given order. An id unknown to the catalogue is labelled with the id
// itself.
func Resolve(c Catalogue, tf domain.Timeframe, selected []string) Schema {
	cols := BaseColumns(tf)
	for _, id := range selected {
		label, ok := c.Label(id)
		if !ok || label == "" {
			label = id
		}
		cols = append(cols, Column{ID: id, Label: label})
	}
	return Schema{Timeframe: tf, Columns: cols, Layout: LayoutFor(cols)}
}

// LayoutFor returns pinned widths first, then one width per other column.
func LayoutFor(cols []Column) Layout {
	var pinned, rest int
	for _, c := range cols {
		if c.Sticky() {
			pinned++
		} else {
			rest++
		}
	}
	l := make(Layout, 0, len(cols))
	for i := 0; i < pinned; i++ {
		l = append(l, PinnedWidth)
	}
	for i := 0; i < rest; i++ {
		l = append(l, ColumnWidth)
	}
	return l
}
