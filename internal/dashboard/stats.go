package dashboard

import (
	"math"

	"niftydash/internal/domain"
	"niftydash/internal/schema"
)

// Summary holds aggregate figures over a loaded row set, shown in the
// terminal header bar.
type Summary struct {
	Rows     int
	Calls    int
	Puts     int
	Sideways int
	High     float64 // highest high, 0 when no row carries one
	Low      float64 // lowest low, 0 when no row carries one
	First    string  // earliest date/time
	Last     string  // latest date/time
	Open     float64 // open of the earliest row
	Close    float64 // close of the latest row
	Change   float64 // (Close-Open)/Open, 0 when either is missing
}

// Summarize aggregates rows regardless of their order.
func Summarize(rows []domain.Row) Summary {
	s := Summary{Rows: len(rows), Low: math.MaxFloat64}
	var openOK, closeOK bool

	for _, r := range rows {
		switch class, _ := SignalClass(r); class {
		case SignalCall:
			s.Calls++
		case SignalPut:
			s.Puts++
		default:
			s.Sideways++
		}

		if h, ok := numeric(r, schema.ColHigh); ok && h > s.High {
			s.High = h
		}
		if l, ok := numeric(r, schema.ColLow); ok && l < s.Low {
			s.Low = l
		}

		date, clock := r.DateTime()
		if date == "" {
			continue
		}
		stamp := date + " " + clock
		if s.First == "" || stamp < s.First {
			s.First = stamp
			s.Open, openOK = numeric(r, schema.ColOpen)
		}
		if s.Last == "" || stamp > s.Last {
			s.Last = stamp
			s.Close, closeOK = numeric(r, schema.ColClose)
		}
	}

	if s.Low == math.MaxFloat64 {
		s.Low = 0
	}
	if openOK && closeOK && s.Open != 0 {
		s.Change = (s.Close - s.Open) / s.Open
	}
	return s
}
