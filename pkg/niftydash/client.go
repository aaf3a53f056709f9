// Package niftydash is a Go client for the dashboard HTTP API.
package niftydash

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"niftydash/internal/domain"
)

// ErrTransport wraps every failure that happened before a well-formed API
// payload was received: connection errors, non-JSON bodies, timeouts.
var ErrTransport = errors.New("transport failure")

// APIError is returned when the server answered with a non-success status
// field.
type APIError struct {
	Status  string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %q", e.Status)
	}
	return e.Message
}

// DataResponse is a decoded /api/data payload.
type DataResponse struct {
	Timeframe domain.Timeframe
	Rows      []domain.Row
}

// Client provides a Go SDK for the dashboard API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches GET /api/status.
func (c *Client) Status(ctx context.Context) (domain.MarketStatus, error) {
	body, err := c.get(ctx, "/api/status", nil)
	if err != nil {
		return domain.MarketStatus{}, err
	}
	open := gjson.GetBytes(body, "market_open")
	if !open.Exists() {
		return domain.MarketStatus{}, fmt.Errorf("%w: status payload missing market_open", ErrTransport)
	}
	return domain.MarketStatus{
		MarketOpen:  open.Bool(),
		CurrentTime: gjson.GetBytes(body, "current_time").String(),
		NextOpen:    gjson.GetBytes(body, "next_open").String(),
		NextClose:   gjson.GetBytes(body, "next_close").String(),
	}, nil
}

// Data fetches GET /api/data for q. Start and End are sent only when set.
func (c *Client) Data(ctx context.Context, q domain.Query) (DataResponse, error) {
	params := url.Values{}
	params.Set("timeframe", string(q.Timeframe))
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Start != "" {
		params.Set("start", q.Start)
	}
	if q.End != "" {
		params.Set("end", q.End)
	}

	body, err := c.get(ctx, "/api/data", params)
	if err != nil {
		return DataResponse{}, err
	}

	status := gjson.GetBytes(body, "status").String()
	if status != "success" {
		return DataResponse{}, &APIError{
			Status:  status,
			Message: gjson.GetBytes(body, "message").String(),
		}
	}

	data := gjson.GetBytes(body, "data")
	if data.Exists() && data.Type != gjson.Null && !data.IsArray() {
		return DataResponse{}, fmt.Errorf("%w: data is not an array", ErrTransport)
	}
	resp := DataResponse{Timeframe: q.Timeframe}
	if tf := gjson.GetBytes(body, "timeframe"); tf.Exists() {
		resp.Timeframe = domain.Timeframe(tf.String())
	}
	for _, item := range data.Array() {
		resp.Rows = append(resp.Rows, DecodeRow(item))
	}
	return resp, nil
}

// DecodeRow converts a JSON object into a Row. Fields sent as null are kept
// as null values; nested objects and arrays are kept as raw text.
func DecodeRow(obj gjson.Result) domain.Row {
	row := make(domain.Row)
	obj.ForEach(func(key, value gjson.Result) bool {
		row[key.String()] = decodeValue(value)
		return true
	})
	return row
}

func decodeValue(v gjson.Result) domain.Value {
	switch v.Type {
	case gjson.Null:
		return domain.Null()
	case gjson.Number:
		return domain.Number(v.Float())
	case gjson.True:
		return domain.Bool(true)
	case gjson.False:
		return domain.Bool(false)
	case gjson.String:
		return domain.String(v.String())
	default:
		return domain.String(v.Raw)
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrTransport, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	// Error payloads arrive with 4xx/5xx codes, so the body decides.
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s returned %d with non-JSON body", ErrTransport, path, resp.StatusCode)
	}
	return body, nil
}
