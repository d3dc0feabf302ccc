package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"WarehouseApp/internal/api"
	"WarehouseApp/internal/model"
)

// DefaultBaseURL is the public Sheets REST endpoint.
const DefaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// NotFound is returned by FindRowIndex when no row carries the container number.
const NotFound = -1

// APIError описывает неуспешный ответ Sheets API.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sheets %s: status %d: %s", e.Op, e.StatusCode, strings.TrimSpace(e.Body))
}

// Config holds the spreadsheet coordinates and transport.
type Config struct {
	BaseURL       string
	SpreadsheetID string
	APIKey        string
	SheetName     string
	// SheetGID is the numeric sheet id used by formatting requests.
	SheetGID int64
	// HighlightCompleted enables row colouring on completion; it needs an OAuth client.
	HighlightCompleted bool
	HTTPClient         *http.Client
	Logger             *zap.SugaredLogger
	Now                func() time.Time
}

// Client реализует удалённое хранилище: одна строка таблицы на контейнер.
type Client struct {
	cfg Config
}

// New fills defaults and returns a client. It performs no network calls.
func New(cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SheetName == "" {
		cfg.SheetName = "Sheet1"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Client{cfg: cfg}, nil
}

type valueRange struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values"`
}

// FetchAll reads every data row below the header.
func (c *Client) FetchAll(ctx context.Context) ([]model.Container, error) {
	rows, err := c.getValues(ctx, "fetch", c.cfg.SheetName+"!A2:Z")
	if err != nil {
		return nil, err
	}
	now := c.cfg.Now()
	out := make([]model.Container, 0, len(rows))
	for _, row := range rows {
		if ct, ok := ParseRow(row, now); ok {
			out = append(out, ct)
		}
	}
	return out, nil
}

// Append writes the container as a new row at the end of the sheet.
func (c *Client) Append(ctx context.Context, ct model.Container) error {
	u := c.valuesURL(c.cfg.SheetName+"!A:Z", ":append", url.Values{"valueInputOption": {"RAW"}})
	body := valueRange{Values: [][]any{toCells(FormatRow(ct))}}
	return c.call(ctx, "append", http.MethodPost, u, body, nil)
}

// Upsert overwrites the row with the same container number, or appends when there is none.
func (c *Client) Upsert(ctx context.Context, ct model.Container) error {
	idx, err := c.FindRowIndex(ctx, ct.ContainerNumber)
	if err != nil {
		return err
	}
	if idx == NotFound {
		return c.Append(ctx, ct)
	}
	rng := rowRange(c.cfg.SheetName, idx)
	u := c.valuesURL(rng, "", url.Values{"valueInputOption": {"RAW"}})
	body := valueRange{Range: rng, MajorDimension: "ROWS", Values: [][]any{toCells(FormatRow(ct))}}
	if err := c.call(ctx, "update", http.MethodPut, u, body, nil); err != nil {
		return err
	}
	if ct.IsCompleted && c.cfg.HighlightCompleted {
		// оформление строки не влияет на результат синхронизации
		if err := c.HighlightRow(ctx, idx); err != nil {
			c.cfg.Logger.Warnw("sheets: highlight completed row failed", "row", idx, "container", ct.ContainerNumber, "error", err)
		}
	}
	return nil
}

// FindRowIndex scans column A and returns the 1-based sheet row of the first exact
// (case-sensitive) match, or NotFound. The header row is row 1.
func (c *Client) FindRowIndex(ctx context.Context, containerNumber string) (int, error) {
	rows, err := c.getValues(ctx, "lookup", c.cfg.SheetName+"!A:A")
	if err != nil {
		return NotFound, err
	}
	for i, row := range rows {
		if len(row) > 0 && row[0] == containerNumber {
			return i + 1, nil
		}
	}
	return NotFound, nil
}

func (c *Client) getValues(ctx context.Context, op, rng string) ([][]string, error) {
	var vr valueRange
	if err := c.call(ctx, op, http.MethodGet, c.valuesURL(rng, "", nil), nil, &vr); err != nil {
		return nil, err
	}
	out := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		out[i] = cells
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, op, method, u string, payload, out any) error {
	err := api.DecodeJSON(ctx, c.cfg.HTTPClient, method, u, payload, out)
	if err == nil {
		return nil
	}
	var se *api.StatusError
	if errors.As(err, &se) {
		return &APIError{Op: op, StatusCode: se.StatusCode, Body: se.Body}
	}
	return fmt.Errorf("sheets %s: %w", op, err)
}

func (c *Client) valuesURL(rng, suffix string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}
	u := c.cfg.BaseURL + "/" + url.PathEscape(c.cfg.SpreadsheetID) + "/values/" + url.PathEscape(rng) + suffix
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func rowRange(sheet string, row int) string {
	n := strconv.Itoa(row)
	return sheet + "!A" + n + ":Z" + n
}

func toCells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
