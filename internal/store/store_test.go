package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"niftydash/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nifty50.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ist(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("loading timezone: %v", err)
	}
	return loc
}

func num(t *testing.T, r domain.Row, id string) float64 {
	t.Helper()
	v, ok := r.Get(id)
	if !ok {
		t.Fatalf("field %s absent", id)
	}
	f, ok := v.Float()
	if !ok {
		t.Fatalf("field %s is not numeric", id)
	}
	return f
}

func TestNormalizeBounds(t *testing.T) {
	start, end := NormalizeBounds("2024-01-01", "2024-01-31")
	if start != "2024-01-01 00:00:00" {
		t.Errorf("start = %q, want %q", start, "2024-01-01 00:00:00")
	}
	if end != "2024-01-31 23:59:59" {
		t.Errorf("end = %q, want %q", end, "2024-01-31 23:59:59")
	}

	start, end = NormalizeBounds("2024-01-01 10:00:00", "")
	if start != "2024-01-01 10:00:00" || end != "" {
		t.Errorf("NormalizeBounds changed full timestamps: %q %q", start, end)
	}
}

func TestSQLiteWriteReadBars(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	loc := ist(t)

	bars := []domain.Bar{
		{Timestamp: time.Date(2024, 1, 2, 9, 15, 0, 0, loc), Open: 21700, High: 21750, Low: 21680, Close: 21740, Volume: 1000},
		{Timestamp: time.Date(2024, 1, 2, 10, 15, 0, 0, loc), Open: 21740, High: 21760, Low: 21600, Close: 21650, Volume: 2000},
		{Timestamp: time.Date(2024, 1, 3, 9, 15, 0, 0, loc), Open: 21650, High: 21700, Low: 21500, Close: 21550, Volume: 1500},
	}
	if err := s.WriteBars(ctx, domain.Timeframe1h, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	rows, err := s.ReadRows(ctx, domain.Query{Timeframe: domain.Timeframe1h, Limit: 10})
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	ts, _ := rows[0].Get("timestamp")
	if ts.Text() != "2024-01-03 09:15:00" {
		t.Errorf("first row timestamp = %q, want newest first", ts.Text())
	}
	if got := num(t, rows[0], "close"); got != 21550 {
		t.Errorf("close = %v, want 21550", got)
	}
	if got := num(t, rows[0], "volume"); got != 1500 {
		t.Errorf("volume = %v, want 1500", got)
	}
	target, ok := rows[0].Get("target")
	if !ok || !target.IsNull() {
		t.Errorf("target should be present and null, got %v (present=%v)", target, ok)
	}
}

func TestSQLiteReadRowsBoundsAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	loc := ist(t)

	var bars []domain.Bar
	for d := 1; d <= 5; d++ {
		bars = append(bars, domain.Bar{Timestamp: time.Date(2024, 1, d, 0, 0, 0, 0, loc), Open: 1, High: 2, Low: 0.5, Close: 1.5})
	}
	if err := s.WriteBars(ctx, domain.Timeframe1d, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	rows, err := s.ReadRows(ctx, domain.Query{Timeframe: domain.Timeframe1d, Start: "2024-01-02", End: "2024-01-04"})
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("bounded read returned %d rows, want 3", len(rows))
	}

	rows, err = s.ReadRows(ctx, domain.Query{Timeframe: domain.Timeframe1d, Limit: 2})
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("limited read returned %d rows, want 2", len(rows))
	}
}

func TestSQLiteUpsertKeepsTarget(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	loc := ist(t)
	ts := time.Date(2024, 1, 2, 9, 15, 0, 0, loc)

	if err := s.WriteBars(ctx, domain.Timeframe15m, []domain.Bar{{Timestamp: ts, Open: 1, Close: 2}}); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}
	err := s.WriteRows(ctx, domain.Timeframe15m, []domain.Row{{
		"timestamp": domain.String(ts.Format(TimestampLayout)),
		"target":    domain.String("CALL"),
		"rsi_14":    domain.Number(55.5),
	}})
	if err != nil {
		t.Fatalf("WriteRows: %v", err)
	}
	if err := s.WriteBars(ctx, domain.Timeframe15m, []domain.Bar{{Timestamp: ts, Open: 1, Close: 3}}); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	rows, err := s.ReadRows(ctx, domain.Query{Timeframe: domain.Timeframe15m})
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if got := num(t, rows[0], "close"); got != 3 {
		t.Errorf("close = %v, want 3", got)
	}
	if got := num(t, rows[0], "rsi_14"); got != 55.5 {
		t.Errorf("rsi_14 = %v, want 55.5", got)
	}
	if v, _ := rows[0].Get("target"); v.Text() != "CALL" {
		t.Errorf("target = %q, want CALL", v.Text())
	}
}

func TestSQLiteFeaturesRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.WriteRows(ctx, domain.TimeframeFeatures, []domain.Row{{
		"timestamp":        domain.String("2024-02-01 10:15:00"),
		"date":             domain.String("2024-02-01"),
		"time":             domain.String("10:15:00"),
		"target":           domain.String("PUT"),
		"daily_trend_flag": domain.Null(),
	}})
	if err != nil {
		t.Fatalf("WriteRows: %v", err)
	}

	rows, err := s.ReadRows(ctx, domain.Query{Timeframe: domain.TimeframeFeatures, Limit: 1000})
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if _, ok := rows[0].Get("open"); ok {
		t.Error("features rows should not carry open")
	}
	d, c := rows[0].DateTime()
	if d != "2024-02-01" || c != "10:15:00" {
		t.Errorf("DateTime() = %q %q", d, c)
	}

	if err := s.WriteBars(ctx, domain.TimeframeFeatures, []domain.Bar{{}}); err == nil {
		t.Error("WriteBars into features should fail")
	}
}

func TestSQLiteColumnTypeFromFirstNonNull(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.WriteRows(ctx, domain.TimeframeFeatures, []domain.Row{
		{"timestamp": domain.String("2024-02-01 09:15:00"), "rsi_14": domain.Null()},
		{"timestamp": domain.String("2024-02-01 10:15:00"), "rsi_14": domain.Number(61.25)},
	})
	if err != nil {
		t.Fatalf("WriteRows: %v", err)
	}

	rows, err := s.ReadRows(ctx, domain.Query{Timeframe: domain.TimeframeFeatures, Limit: 1000})
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Newest first.
	if got := num(t, rows[0], "rsi_14"); got != 61.25 {
		t.Errorf("rsi_14 = %v, want 61.25", got)
	}
	if v, _ := rows[1].Get("rsi_14"); !v.IsNull() {
		t.Errorf("rsi_14 of first row = %v, want null", v.Text())
	}
}

func TestSQLiteRejectsBadInput(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.ReadRows(ctx, domain.Query{Timeframe: "nifty_1d; DROP TABLE x"})
	if !errors.Is(err, ErrUnknownTimeframe) {
		t.Errorf("ReadRows error = %v, want ErrUnknownTimeframe", err)
	}

	err = s.WriteRows(ctx, domain.Timeframe1d, []domain.Row{{
		"timestamp":   domain.String("2024-01-01 00:00:00"),
		"bad-col; --": domain.Number(1),
	}})
	if err == nil {
		t.Error("WriteRows should reject invalid column names")
	}

	err = s.WriteRows(ctx, domain.Timeframe1d, []domain.Row{{"close": domain.Number(1)}})
	if err == nil {
		t.Error("WriteRows should reject rows without timestamp")
	}
}
