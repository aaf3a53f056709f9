package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"niftydash/internal/domain"
	"niftydash/internal/store"
)

// importBatch bounds the rows written per transaction.
const importBatch = 500

// ReadCSV parses a header-first CSV of feature rows. Header names are
// lowercased with spaces replaced by underscores. Empty and NaN cells are
// null, numeric cells are numbers and everything else is kept as text. A
// row without a timestamp column gets one built from its date and time.
func ReadCSV(r io.Reader) ([]domain.Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv: missing header")
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		cols[i] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
	}

	var rows []domain.Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		row := make(domain.Row, len(cols))
		for i, c := range cols {
			if c == "" {
				continue
			}
			row[c] = parseCell(rec[i])
		}
		if err := fillTimestamp(row); err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseCell(s string) domain.Value {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none":
		return domain.Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return domain.Number(f)
	}
	return domain.String(s)
}

// fillTimestamp normalises the timestamp to store.TimestampLayout, dropping
// any UTC offset, or derives it from date and time.
func fillTimestamp(row domain.Row) error {
	if ts, ok := row.Lookup("timestamp"); ok {
		text := ts.Text()
		for _, layout := range []string{"2006-01-02 15:04:05-07:00", time.RFC3339} {
			if t, err := time.Parse(layout, text); err == nil {
				text = t.Format(store.TimestampLayout)
				break
			}
		}
		if len(text) == len("2006-01-02") {
			text += " " + domain.DefaultTime
		}
		row["timestamp"] = domain.String(text)
		return nil
	}

	date, clock := row.DateTime()
	if date == "" {
		return errors.New("row has neither timestamp nor date")
	}
	row["timestamp"] = domain.String(date + " " + clock)
	return nil
}

// ImportCSV reads feature rows from r and upserts them into the table for
// tf. It returns the number of rows written.
func ImportCSV(ctx context.Context, dst store.RowStore, tf domain.Timeframe, r io.Reader) (int, error) {
	rows, err := ReadCSV(r)
	if err != nil {
		return 0, err
	}
	written := 0
	for start := 0; start < len(rows); start += importBatch {
		end := min(start+importBatch, len(rows))
		if err := dst.WriteRows(ctx, tf, rows[start:end]); err != nil {
			return written, fmt.Errorf("writing rows %d-%d: %w", start, end-1, err)
		}
		written = end
	}
	return written, nil
}
