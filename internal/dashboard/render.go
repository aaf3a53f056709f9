// Package dashboard turns a resolved schema and a row set into the grid
// shown by the terminal client and captured by the CSV exporter.
package dashboard

import (
	"niftydash/internal/domain"
	"niftydash/internal/schema"
)

// Row and signal classes.
const (
	PriceUp      = "price-up"
	PriceDown    = "price-down"
	PriceNeutral = "price-neutral"

	SignalCall     = "signal-call"
	SignalPut      = "signal-put"
	SignalSideways = "signal-sideways"
)

// NoData replaces the grid when a load returns zero rows.
const NoData = "No data available"

// Cell is one rendered grid cell.
type Cell struct {
	Text  string
	Class string
}

// Line is a header or data line of the grid.
type Line struct {
	Cells  []Cell
	Layout schema.Layout

	// Set on data lines only.
	PriceClass  string
	SignalClass string
}

// Table is the output of one render pass. Source keeps the rows that
// produced it so an export reads exactly what is on screen.
type Table struct {
	Schema      schema.Schema
	Header      Line
	Rows        []Line
	Source      []domain.Row
	Placeholder string
}

// Empty reports whether the table holds no data lines.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Render builds the grid for rows under s. It reads nothing but its
// arguments.
func Render(s schema.Schema, rows []domain.Row) Table {
	t := Table{
		Schema: s,
		Header: header(s),
		Source: rows,
	}
	if len(rows) == 0 {
		t.Placeholder = NoData
		return t
	}

	t.Rows = make([]Line, len(rows))
	for i, r := range rows {
		t.Rows[i] = renderRow(s, r)
	}
	return t
}

func header(s schema.Schema) Line {
	cells := make([]Cell, len(s.Columns))
	for i, c := range s.Columns {
		cells[i] = Cell{Text: c.Label, Class: c.Class}
	}
	return Line{Cells: cells, Layout: s.Layout}
}

func renderRow(s schema.Schema, r domain.Row) Line {
	price := PriceClass(r)
	signal, signalText := SignalClass(r)
	date, clock := r.DateTime()

	cells := make([]Cell, len(s.Columns))
	for i, c := range s.Columns {
		var cell Cell
		switch c.ID {
		case schema.ColDate:
			cell = Cell{Text: orPlaceholder(date), Class: c.Class}
		case schema.ColTime:
			cell = Cell{Text: orPlaceholder(clock), Class: c.Class}
		case schema.ColTarget:
			cell = Cell{Text: signalText, Class: signal}
		case schema.ColClose:
			v, ok := r.Get(c.ID)
			cell = Cell{Text: FormatCell(v, ok), Class: price}
		default:
			v, ok := r.Get(c.ID)
			cell = Cell{Text: FormatCell(v, ok), Class: c.Class}
		}
		cells[i] = cell
	}
	return Line{
		Cells:       cells,
		Layout:      s.Layout,
		PriceClass:  price,
		SignalClass: signal,
	}
}

// PriceClass compares close to open. Rows missing either are neutral.
func PriceClass(r domain.Row) string {
	o, okO := numeric(r, schema.ColOpen)
	c, okC := numeric(r, schema.ColClose)
	if !okO || !okC {
		return PriceNeutral
	}
	if c >= o {
		return PriceUp
	}
	return PriceDown
}

// SignalClass matches the target exactly against CALL and PUT. Anything
// else, absence included, is sideways. The second result is the cell text.
func SignalClass(r domain.Row) (class, text string) {
	v, ok := r.Lookup(schema.ColTarget)
	if !ok || v.Text() == "" {
		return SignalSideways, Placeholder
	}
	text = v.Text()
	switch domain.Signal(text) {
	case domain.SignalCall:
		return SignalCall, text
	case domain.SignalPut:
		return SignalPut, text
	default:
		return SignalSideways, text
	}
}

func numeric(r domain.Row, id string) (float64, bool) {
	v, ok := r.Lookup(id)
	if !ok {
		return 0, false
	}
	return v.Float()
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
