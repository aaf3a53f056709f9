package domain

import (
	"strconv"
	"strings"
)

// Kind tags the dynamic type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a single optional cell value received from the data API.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

func Null() Value { return Value{} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric payload and whether v is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the raw textual form: strings verbatim, numbers in their
// shortest decimal form, booleans as true/false and null as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Row maps a field id to its value. A field that is missing from the map is
// absent; a field present with a null Value was sent as null.
type Row map[string]Value

// Get returns the value for id and whether the field was present at all.
func (r Row) Get(id string) (Value, bool) {
	v, ok := r[id]
	return v, ok
}

// Lookup returns the value for id only when it is present and non-null.
func (r Row) Lookup(id string) (Value, bool) {
	v, ok := r[id]
	if !ok || v.IsNull() {
		return Value{}, false
	}
	return v, true
}

// DefaultTime is used when a timestamp carries no time component.
const DefaultTime = "00:00:00"

// DateTime derives the date and time cells of a row. Pre-split date/time
// fields win; otherwise the combined timestamp is split on its first space.
func (r Row) DateTime() (date, clock string) {
	var tsDate, tsTime string
	if ts, ok := r.Lookup("timestamp"); ok {
		text := ts.Text()
		if i := strings.IndexByte(text, ' '); i >= 0 {
			tsDate, tsTime = text[:i], text[i+1:]
		} else {
			tsDate, tsTime = text, DefaultTime
		}
	}

	date, clock = tsDate, tsTime
	if v, ok := r.Lookup("date"); ok {
		date = v.Text()
	}
	if v, ok := r.Lookup("time"); ok {
		clock = v.Text()
	}
	if clock == "" && date != "" {
		clock = DefaultTime
	}
	return date, clock
}
