package httpapi

import (
	"niftydash/internal/domain"
)

// StatusResponse is the JSON response for GET /api/status.
type StatusResponse struct {
	CurrentTime string `json:"current_time"`
	MarketOpen  bool   `json:"market_open"`
	NextOpen    string `json:"next_open,omitempty"`
	NextClose   string `json:"next_close,omitempty"`
}

// DataResponse is the JSON response for a successful GET /api/data.
type DataResponse struct {
	Status    string           `json:"status"`
	Data      []map[string]any `json:"data"`
	Timeframe string           `json:"timeframe"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// convertRows turns store rows into JSON objects. Null values are encoded as
// JSON null.
func convertRows(rows []domain.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		m := make(map[string]any, len(r))
		for k, v := range r {
			m[k] = convertValue(v)
		}
		out[i] = m
	}
	return out
}

func convertValue(v domain.Value) any {
	switch v.Kind() {
	case domain.KindNumber:
		f, _ := v.Float()
		return f
	case domain.KindBool:
		return v.Text() == "true"
	case domain.KindString:
		return v.Text()
	default:
		return nil
	}
}
