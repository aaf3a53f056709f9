// Package export serialises the last rendered table to CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"niftydash/internal/dashboard"
	"niftydash/internal/domain"
	"niftydash/internal/schema"
)

// MIMEType of every exported file.
const MIMEType = "text/csv"

// File is a ready-to-save export.
type File struct {
	Name string
	MIME string
	Data []byte
}

// FileName returns the suggested name for an export of tf.
func FileName(tf domain.Timeframe) string {
	return fmt.Sprintf("nifty50_data_%s.csv", tf)
}

// Export writes the columns and source rows of t as CSV. It reports false
// when the table holds no rows.
func Export(t dashboard.Table) (File, bool, error) {
	if len(t.Source) == 0 {
		return File{}, false, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	cols := t.Schema.Columns
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = HeaderName(c.Label)
	}
	if err := w.Write(header); err != nil {
		return File{}, false, fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(cols))
	for _, r := range t.Source {
		date, clock := r.DateTime()
		for i, c := range cols {
			switch c.ID {
			case schema.ColDate:
				record[i] = date
			case schema.ColTime:
				record[i] = clock
			default:
				record[i] = Field(r, c.ID)
			}
		}
		if err := w.Write(record); err != nil {
			return File{}, false, fmt.Errorf("writing row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return File{}, false, fmt.Errorf("flushing csv: %w", err)
	}

	return File{
		Name: FileName(t.Schema.Timeframe),
		MIME: MIMEType,
		Data: buf.Bytes(),
	}, true, nil
}

// HeaderName lowercases a label and replaces spaces with underscores.
func HeaderName(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), " ", "_")
}

// Field returns the raw text of a value, or "" when it is absent or null.
func Field(r domain.Row, id string) string {
	v, ok := r.Lookup(id)
	if !ok {
		return ""
	}
	return v.Text()
}

// Save writes f into dir and returns the full path.
func Save(dir string, f File) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(dir, f.Name)
	if err := os.WriteFile(path, f.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
