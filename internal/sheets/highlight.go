package sheets

import (
	"context"
	"net/http"
	"net/url"
)

// цвет фона для завершённых контейнеров
var completedColor = map[string]float64{"red": 0.85, "green": 0.94, "blue": 0.85}

type batchUpdateRequest struct {
	Requests []map[string]any `json:"requests"`
}

// HighlightRow paints the background of a 1-based sheet row. Formatting needs OAuth;
// an API key alone is rejected by the API.
func (c *Client) HighlightRow(ctx context.Context, row int) error {
	q := url.Values{}
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}
	u := c.cfg.BaseURL + "/" + url.PathEscape(c.cfg.SpreadsheetID) + ":batchUpdate"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	req := batchUpdateRequest{Requests: []map[string]any{{
		"repeatCell": map[string]any{
			"range": map[string]any{
				"sheetId":       c.cfg.SheetGID,
				"startRowIndex": row - 1,
				"endRowIndex":   row,
			},
			"cell": map[string]any{
				"userEnteredFormat": map[string]any{"backgroundColor": completedColor},
			},
			"fields": "userEnteredFormat.backgroundColor",
		},
	}}}
	return c.call(ctx, "highlight", http.MethodPost, u, req, nil)
}
