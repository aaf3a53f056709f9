package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"niftydash/internal/domain"
	"niftydash/internal/store"
)

// DefaultLimit applies when /api/data is called without a limit.
const DefaultLimit = 200

// Calendar answers whether the market is open.
type Calendar interface {
	IsMarketOpen(t time.Time) bool
	NextOpen(t time.Time) time.Time
	NextClose(t time.Time) time.Time
	Location() *time.Location
}

// DashboardServer serves the dashboard HTTP API.
type DashboardServer struct {
	rows    store.RowStore
	cal     Calendar
	log     *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewDashboardServer creates a new dashboard HTTP server.
func NewDashboardServer(rows store.RowStore, cal Calendar, metrics *Metrics, log *slog.Logger) *DashboardServer {
	return &DashboardServer{
		rows:    rows,
		cal:     cal,
		log:     log,
		metrics: metrics,
		now:     time.Now,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *DashboardServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/data", s.handleData)
	mux.Handle("GET /metrics", s.metrics.Handler())
}

// Handler returns an http.Handler with request-id, metrics and CORS
// middleware.
func (s *DashboardServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return requestIDMiddleware(s.log, s.metrics.Instrument(corsMiddleware(mux)))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestIDMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		log.Debug("request", "id", id, "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Status: "error", Message: msg})
}

// handleStatus serves GET /api/status.
func (s *DashboardServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := s.now().In(s.cal.Location())
	resp := StatusResponse{
		CurrentTime: now.Format(store.TimestampLayout),
		MarketOpen:  s.cal.IsMarketOpen(now),
	}
	if resp.MarketOpen {
		resp.NextClose = s.cal.NextClose(now).Format(store.TimestampLayout)
	} else {
		resp.NextOpen = s.cal.NextOpen(now).Format(store.TimestampLayout)
	}
	writeJSON(w, resp)
}

// handleData serves GET /api/data?timeframe=&limit=&start=&end=.
func (s *DashboardServer) handleData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tfParam := q.Get("timeframe")
	if tfParam == "" {
		tfParam = string(domain.Timeframe1d)
	}
	tf, err := domain.ParseTimeframe(tfParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := DefaultLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit "+strconv.Quote(v))
			return
		}
		limit = n
	}

	rows, err := s.rows.ReadRows(r.Context(), domain.Query{
		Timeframe: tf,
		Start:     q.Get("start"),
		End:       q.Get("end"),
		Limit:     limit,
	})
	if err != nil {
		s.log.Error("reading rows", "request", RequestID(r.Context()), "timeframe", tf, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrUnknownTimeframe) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	s.metrics.rowsTotal.WithLabelValues(string(tf)).Add(float64(len(rows)))
	writeJSON(w, DataResponse{
		Status:    "success",
		Data:      convertRows(rows),
		Timeframe: string(tf),
	})
}
