package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"niftydash/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ BarStore = (*SQLiteStore)(nil)
var _ RowStore = (*SQLiteStore)(nil)

// TimestampLayout is the text form of every stored timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SQLiteStore implements BarStore and RowStore backed by a SQLite database
// with one table per timeframe.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serialises writers
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, enables WAL
// and creates the timeframe tables.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Readers (the API) run alongside the ingest writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	var stmts []string
	for _, tf := range domain.Timeframes {
		if tf == domain.TimeframeFeatures {
			stmts = append(stmts, `CREATE TABLE IF NOT EXISTS features_merged (
				timestamp TEXT PRIMARY KEY,
				date      TEXT,
				time      TEXT,
				target    TEXT
			)`)
			continue
		}
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			timestamp TEXT PRIMARY KEY,
			open      REAL,
			high      REAL,
			low       REAL,
			close     REAL,
			volume    INTEGER,
			target    TEXT
		)`, tf.Table()))
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func tableFor(tf domain.Timeframe) (string, error) {
	if _, err := domain.ParseTimeframe(string(tf)); err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTimeframe, tf)
	}
	return tf.Table(), nil
}

// ---------------------------------------------------------------------------
// RowStore implementation
// ---------------------------------------------------------------------------

// NormalizeBounds widens bare dates so both ends are inclusive: a 10-char
// start gets 00:00:00 and a 10-char end gets 23:59:59.
func NormalizeBounds(start, end string) (string, string) {
	if len(start) == 10 {
		start += " 00:00:00"
	}
	if len(end) == 10 {
		end += " 23:59:59"
	}
	return start, end
}

// ReadRows returns the newest rows matching q, newest first. A non-positive
// limit returns every matching row.
func (s *SQLiteStore) ReadRows(ctx context.Context, q domain.Query) ([]domain.Row, error) {
	table, err := tableFor(q.Timeframe)
	if err != nil {
		return nil, err
	}

	start, end := NormalizeBounds(q.Start, q.End)
	query := "SELECT * FROM " + table + " WHERE 1=1"
	var args []any
	if start != "" {
		query += " AND timestamp >= ?"
		args = append(args, start)
	}
	if end != "" {
		query += " AND timestamp <= ?"
		args = append(args, end)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []domain.Row
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(domain.Row, len(cols))
		for i, c := range cols {
			row[c] = toValue(vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func toValue(v any) domain.Value {
	switch x := v.(type) {
	case nil:
		return domain.Null()
	case int64:
		return domain.Number(float64(x))
	case float64:
		return domain.Number(x)
	case bool:
		return domain.Bool(x)
	case []byte:
		return domain.String(string(x))
	case string:
		return domain.String(x)
	default:
		return domain.String(fmt.Sprint(x))
	}
}

func toArg(v domain.Value) any {
	switch v.Kind() {
	case domain.KindNull:
		return nil
	case domain.KindNumber:
		f, _ := v.Float()
		return f
	case domain.KindBool:
		return v.Text() == "true"
	default:
		return v.Text()
	}
}

// WriteRows upserts rows into the table for tf, adding missing columns as
// REAL or TEXT depending on the first non-null value in the batch.
func (s *SQLiteStore) WriteRows(ctx context.Context, tf domain.Timeframe, rows []domain.Row) error {
	table, err := tableFor(tf)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.columns(ctx, table)
	if err != nil {
		return err
	}

	types := columnTypes(rows)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range rows {
		if _, ok := r.Lookup("timestamp"); !ok {
			return fmt.Errorf("row without timestamp for %s", table)
		}

		cols := make([]string, 0, len(r))
		for c := range r {
			if !identRe.MatchString(c) {
				return fmt.Errorf("invalid column name %q", c)
			}
			cols = append(cols, c)
		}
		sort.Strings(cols)

		for _, c := range cols {
			if existing[c] {
				continue
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, c, types[c])); err != nil {
				return fmt.Errorf("adding column %s.%s: %w", table, c, err)
			}
			existing[c] = true
		}

		placeholders := make([]string, len(cols))
		updates := make([]string, 0, len(cols))
		args := make([]any, len(cols))
		for i, c := range cols {
			placeholders[i] = "?"
			args[i] = toArg(r[c])
			if c != "timestamp" {
				updates = append(updates, c+"=excluded."+c)
			}
		}
		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(timestamp) DO ",
			table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
		if len(updates) == 0 {
			stmt += "NOTHING"
		} else {
			stmt += "UPDATE SET " + strings.Join(updates, ", ")
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("upsert %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// columnTypes picks a SQLite type per column from its first non-null value.
// Columns that are null throughout default to REAL.
func columnTypes(rows []domain.Row) map[string]string {
	types := make(map[string]string)
	for _, r := range rows {
		for c, v := range r {
			if _, done := types[c]; done || v.IsNull() {
				continue
			}
			if v.Kind() == domain.KindNumber {
				types[c] = "REAL"
			} else {
				types[c] = "TEXT"
			}
		}
	}
	for _, r := range rows {
		for c := range r {
			if _, ok := types[c]; !ok {
				types[c] = "REAL"
			}
		}
	}
	return types
}

func (s *SQLiteStore) columns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// WriteBars upserts candles. Timestamps are stored in the bar's own
// location, so callers convert to exchange time first.
func (s *SQLiteStore) WriteBars(ctx context.Context, tf domain.Timeframe, bars []domain.Bar) error {
	if tf == domain.TimeframeFeatures {
		return fmt.Errorf("%w: %s holds no candles", ErrUnknownTimeframe, tf)
	}
	table, err := tableFor(tf)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(timestamp) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume`, table))
	if err != nil {
		return fmt.Errorf("prepare upsert %s: %w", table, err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, b.Timestamp.Format(TimestampLayout), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("upsert %s %s: %w", table, b.Timestamp.Format(TimestampLayout), err)
		}
	}
	return tx.Commit()
}
