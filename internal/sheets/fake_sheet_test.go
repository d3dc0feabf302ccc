package sheets

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	testSpreadsheet = "sheet-1"
	testKey         = "test-key"
)

// fakeSheet: in-memory эмуляция values API одной таблицы. rows[0] это заголовок.
type fakeSheet struct {
	mu         sync.Mutex
	rows       [][]string
	calls      []string
	highlights []int
	failStatus int // если не 0, все запросы падают с этим статусом
}

func newFakeSheet(t *testing.T, rows ...[]string) (*fakeSheet, *httptest.Server) {
	t.Helper()
	fs := &fakeSheet{rows: append([][]string{{"Container #", "Type"}}, rows...)}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.serve(t, w, r)
	}))
	t.Cleanup(ts.Close)
	return fs, ts
}

func (f *fakeSheet) serve(t *testing.T, w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.URL.Query().Get("key") != testKey {
		http.Error(w, "missing key", http.StatusForbidden)
		return
	}
	prefix := "/v4/spreadsheets/" + testSpreadsheet
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	if rest == ":batchUpdate" {
		var req struct {
			Requests []struct {
				RepeatCell struct {
					Range struct {
						EndRowIndex int `json:"endRowIndex"`
					} `json:"range"`
				} `json:"repeatCell"`
			} `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.calls = append(f.calls, "highlight")
		if f.failStatus != 0 {
			http.Error(w, "boom", f.failStatus)
			return
		}
		f.highlights = append(f.highlights, req.Requests[0].RepeatCell.Range.EndRowIndex)
		_, _ = w.Write([]byte(`{}`))
		return
	}
	rng, ok := strings.CutPrefix(rest, "/values/")
	if !ok {
		t.Errorf("unexpected path %q", r.URL.Path)
		http.NotFound(w, r)
		return
	}
	f.calls = append(f.calls, r.Method+" "+rng)
	if f.failStatus != 0 {
		http.Error(w, "backend unavailable", f.failStatus)
		return
	}
	switch {
	case r.Method == http.MethodGet && rng == "Sheet1!A2:Z":
		writeValues(w, f.rows[1:])
	case r.Method == http.MethodGet && rng == "Sheet1!A:A":
		col := make([][]string, len(f.rows))
		for i, row := range f.rows {
			if len(row) > 0 {
				col[i] = []string{row[0]}
			} else {
				col[i] = []string{}
			}
		}
		writeValues(w, col)
	case r.Method == http.MethodPost && rng == "Sheet1!A:Z:append":
		if r.URL.Query().Get("valueInputOption") != "RAW" {
			t.Errorf("append without RAW input option")
		}
		f.rows = append(f.rows, decodeRow(t, r))
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPut && strings.HasPrefix(rng, "Sheet1!A"):
		n, err := strconv.Atoi(strings.TrimPrefix(strings.SplitN(rng, ":", 2)[0], "Sheet1!A"))
		if err != nil || n < 1 || n > len(f.rows) {
			http.Error(w, "bad range", http.StatusBadRequest)
			return
		}
		f.rows[n-1] = decodeRow(t, r)
		_, _ = w.Write([]byte(`{}`))
	default:
		t.Errorf("unexpected request %s %s", r.Method, rng)
		http.NotFound(w, r)
	}
}

func writeValues(w http.ResponseWriter, rows [][]string) {
	_ = json.NewEncoder(w).Encode(map[string]any{"majorDimension": "ROWS", "values": rows})
}

func decodeRow(t *testing.T, r *http.Request) []string {
	var body struct {
		Values [][]string `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Values) != 1 {
		t.Errorf("bad values body: %v", err)
		return nil
	}
	return body.Values[0]
}

func (f *fakeSheet) snapshot() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.rows))
	copy(out, f.rows)
	return out
}
