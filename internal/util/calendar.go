package util

import (
	"fmt"
	"time"
)

// TradingCalendar provides market-hours awareness for a single exchange
// session. Holidays are not modelled; weekends are.
type TradingCalendar struct {
	loc   *time.Location
	open  time.Duration // offset from local midnight
	close time.Duration
}

// NewTradingCalendar creates a calendar for a session running from openAt
// to closeAt ("15:04") in the named time zone.
func NewTradingCalendar(tz, openAt, closeAt string) (*TradingCalendar, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %s: %w", tz, err)
	}
	o, err := clockOffset(openAt)
	if err != nil {
		return nil, fmt.Errorf("session open: %w", err)
	}
	c, err := clockOffset(closeAt)
	if err != nil {
		return nil, fmt.Errorf("session close: %w", err)
	}
	if c <= o {
		return nil, fmt.Errorf("session close %s is not after open %s", closeAt, openAt)
	}
	return &TradingCalendar{loc: loc, open: o, close: c}, nil
}

// NewNSECalendar returns the NSE cash session, 09:15-15:30 Asia/Kolkata.
func NewNSECalendar() (*TradingCalendar, error) {
	return NewTradingCalendar("Asia/Kolkata", "09:15", "15:30")
}

// Location returns the calendar's time zone.
func (tc *TradingCalendar) Location() *time.Location { return tc.loc }

// IsMarketOpen returns whether the market is open at time t. Both session
// bounds are inclusive.
func (tc *TradingCalendar) IsMarketOpen(t time.Time) bool {
	t = t.In(tc.loc)
	if !isWeekday(t) {
		return false
	}
	since := t.Sub(midnight(t))
	return since >= tc.open && since <= tc.close
}

// NextOpen returns the next session open at or after t.
func (tc *TradingCalendar) NextOpen(t time.Time) time.Time {
	t = t.In(tc.loc)
	day := midnight(t)
	for i := 0; i < 8; i++ {
		open := day.Add(tc.open)
		if isWeekday(day) && !open.Before(t) {
			return open
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}
}

// NextClose returns the next session close at or after t.
func (tc *TradingCalendar) NextClose(t time.Time) time.Time {
	t = t.In(tc.loc)
	day := midnight(t)
	for i := 0; i < 8; i++ {
		end := day.Add(tc.close)
		if isWeekday(day) && !end.Before(t) {
			return end
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}
}

func clockOffset(hhmm string) (time.Duration, error) {
	p, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return time.Duration(p.Hour())*time.Hour + time.Duration(p.Minute())*time.Minute, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
