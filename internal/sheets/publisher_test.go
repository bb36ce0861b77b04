package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/cchai186/commodity-price-tracker/internal/quotes"
)

// fakeSheetsServer implements the handful of Sheets API endpoints the
// publisher calls, against in-memory worksheets.
type fakeSheetsServer struct {
	mu           sync.Mutex
	id           string
	sheets       map[string][][]interface{}
	ids          map[string]int64
	nextID       int64
	formats      []*sheetsapi.Request
	failValues   map[string]bool
	failMetadata bool
}

func newFakeSheets(id string) *fakeSheetsServer {
	return &fakeSheetsServer{
		id:         id,
		sheets:     make(map[string][][]interface{}),
		ids:        make(map[string]int64),
		nextID:     1,
		failValues: make(map[string]bool),
	}
}

func (f *fakeSheetsServer) seed(title string, rows [][]interface{}) {
	f.sheets[title] = rows
	f.ids[title] = f.nextID
	f.nextID++
}

func (f *fakeSheetsServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		path := r.URL.Path
		switch {
		case r.Method == http.MethodGet && path == "/v4/spreadsheets/"+f.id:
			f.writeMetadata(w)
		case r.Method == http.MethodPost && path == "/v4/spreadsheets/"+f.id+":batchUpdate":
			f.handleBatchUpdate(w, r)
		case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
			f.handleAppend(w, r)
		case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
			f.handleValues(w, r)
		default:
			http.Error(w, "unexpected call: "+r.Method+" "+path, http.StatusBadRequest)
		}
	}
}

func (f *fakeSheetsServer) writeMetadata(w http.ResponseWriter) {
	if f.failMetadata {
		http.Error(w, "metadata unavailable", http.StatusInternalServerError)
		return
	}
	resp := &sheetsapi.Spreadsheet{SpreadsheetId: f.id}
	for title, id := range f.ids {
		resp.Sheets = append(resp.Sheets, &sheetsapi.Sheet{
			Properties: &sheetsapi.SheetProperties{Title: title, SheetId: id},
		})
	}
	json.NewEncoder(w).Encode(resp)
}

func (f *fakeSheetsServer) handleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req sheetsapi.BatchUpdateSpreadsheetRequest
	json.NewDecoder(r.Body).Decode(&req)

	resp := &sheetsapi.BatchUpdateSpreadsheetResponse{SpreadsheetId: f.id}
	for _, request := range req.Requests {
		if request.AddSheet != nil {
			title := request.AddSheet.Properties.Title
			f.ids[title] = f.nextID
			f.sheets[title] = nil
			resp.Replies = append(resp.Replies, &sheetsapi.Response{
				AddSheet: &sheetsapi.AddSheetResponse{
					Properties: &sheetsapi.SheetProperties{Title: title, SheetId: f.nextID},
				},
			})
			f.nextID++
			continue
		}
		f.formats = append(f.formats, request)
		resp.Replies = append(resp.Replies, &sheetsapi.Response{})
	}
	json.NewEncoder(w).Encode(resp)
}

func titleFromPath(path string) string {
	rest := path[strings.Index(path, "/values/")+len("/values/"):]
	rest = strings.TrimSuffix(rest, ":append")
	if i := strings.Index(rest, "!"); i >= 0 {
		rest = rest[:i]
	}
	return strings.Trim(rest, "'")
}

func (f *fakeSheetsServer) handleValues(w http.ResponseWriter, r *http.Request) {
	title := titleFromPath(r.URL.Path)
	if f.failValues[title] {
		http.Error(w, "values unavailable", http.StatusInternalServerError)
		return
	}
	rows, ok := f.sheets[title]
	if !ok {
		http.Error(w, "Unable to parse range: "+title, http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(&sheetsapi.ValueRange{Values: rows})
}

func (f *fakeSheetsServer) handleAppend(w http.ResponseWriter, r *http.Request) {
	title := titleFromPath(r.URL.Path)
	if _, ok := f.sheets[title]; !ok && f.ids[title] == 0 {
		http.Error(w, "Unable to parse range: "+title, http.StatusBadRequest)
		return
	}
	var vr sheetsapi.ValueRange
	json.NewDecoder(r.Body).Decode(&vr)
	f.sheets[title] = append(f.sheets[title], vr.Values...)
	json.NewEncoder(w).Encode(&sheetsapi.AppendValuesResponse{})
}

func newTestPublisher(t *testing.T, fake *fakeSheetsServer) *Publisher {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication())
	require.NoError(t, err)

	return NewPublisher(svc, fake.id, 0, zap.NewNop().Sugar())
}

func metalsReport() quotes.CategoryQuotes {
	return quotes.CategoryQuotes{
		Category: "Metals",
		Date:     "2026-08-25",
		Quotes: []quotes.Quote{
			{Ticker: "GC=F", Label: "Gold", Price: 2051.3},
			{Ticker: "SI=F", Label: "Silver", Price: 23.4},
		},
		Commentary: "Gold at premium levels. Safe-haven demand strong.",
	}
}

func TestPublishFirstRun(t *testing.T) {
	fake := newFakeSheets("test-sheet")
	publisher := newTestPublisher(t, fake)

	require.NoError(t, publisher.Publish(context.Background(), []quotes.CategoryQuotes{energyReport()}))

	rows := fake.sheets["Energy"]
	require.Len(t, rows, 2)

	headers := rows[0]
	require.Len(t, headers, 6)
	assert.Equal(t, "Date", headers[0])
	assert.Equal(t, "Brent", headers[1])
	assert.Equal(t, "Brent WoW", headers[2])
	assert.Equal(t, "Market Commentary", headers[5])

	data := rows[1]
	assert.Equal(t, "2026-08-25", data[0])
	assert.Equal(t, 84.0, data[1])
	assert.Equal(t, "N/A", data[2])
	assert.Equal(t, "N/A", data[4])

	// Header format, data row format, two percent formats, auto-resize.
	require.Len(t, fake.formats, 5)

	var percent, autoResize, repeatRows int
	for _, req := range fake.formats {
		if req.AutoResizeDimensions != nil {
			autoResize++
			continue
		}
		require.NotNil(t, req.RepeatCell)
		if req.RepeatCell.Cell.UserEnteredFormat.NumberFormat != nil {
			assert.Equal(t, "0.00%", req.RepeatCell.Cell.UserEnteredFormat.NumberFormat.Pattern)
			percent++
			continue
		}
		repeatRows++
	}
	assert.Equal(t, 2, percent)
	assert.Equal(t, 1, autoResize)
	assert.Equal(t, 2, repeatRows)
}

func TestPublishAppendsWithWoW(t *testing.T) {
	fake := newFakeSheets("test-sheet")
	fake.seed("Energy", [][]interface{}{
		{"Date", "Brent", "Brent WoW", "WTI", "WTI WoW", "Market Commentary"},
		{"2026-08-18", 80.0, "N/A", 75.0, "N/A", "old"},
	})
	publisher := newTestPublisher(t, fake)

	require.NoError(t, publisher.Publish(context.Background(), []quotes.CategoryQuotes{energyReport()}))

	rows := fake.sheets["Energy"]
	require.Len(t, rows, 3)

	appended := rows[2]
	assert.Equal(t, "2026-08-25", appended[0])
	assert.Equal(t, 84.0, appended[1])
	assert.InDelta(t, 0.05, appended[2].(float64), 1e-9)
	assert.InDelta(t, -0.02, appended[4].(float64), 1e-9)
}

func TestPublishContinuesOnCategoryError(t *testing.T) {
	fake := newFakeSheets("test-sheet")
	fake.seed("Energy", nil)
	fake.failValues["Energy"] = true
	publisher := newTestPublisher(t, fake)

	err := publisher.Publish(context.Background(), []quotes.CategoryQuotes{energyReport(), metalsReport()})
	require.NoError(t, err)

	assert.Empty(t, fake.sheets["Energy"])
	assert.Len(t, fake.sheets["Metals"], 2)
}

func TestPublishAllCategoriesFail(t *testing.T) {
	fake := newFakeSheets("test-sheet")
	fake.seed("Energy", nil)
	fake.seed("Metals", nil)
	fake.failValues["Energy"] = true
	fake.failValues["Metals"] = true
	publisher := newTestPublisher(t, fake)

	err := publisher.Publish(context.Background(), []quotes.CategoryQuotes{energyReport(), metalsReport()})
	assert.ErrorIs(t, err, ErrNothingPublished)
}

func TestPublishSpreadsheetUnreachable(t *testing.T) {
	fake := newFakeSheets("test-sheet")
	fake.failMetadata = true
	publisher := newTestPublisher(t, fake)

	err := publisher.Publish(context.Background(), []quotes.CategoryQuotes{energyReport()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open spreadsheet")
}

func TestLastRecords(t *testing.T) {
	fake := newFakeSheets("test-sheet")
	fake.seed("FX", [][]interface{}{
		{"Date", "DXY", "DXY WoW", "Market Commentary"},
		{"2026-08-11", 102.5, "N/A", "older"},
		{"2026-08-18", 103.42, 0.009, "newer"},
	})
	publisher := newTestPublisher(t, fake)

	record := publisher.LastRecords(context.Background(), "FX")
	require.NotNil(t, record)
	assert.InDelta(t, 103.42, record["DXY"], 1e-9)
	assert.InDelta(t, 0.009, record["DXY WoW"], 1e-9)
	assert.NotContains(t, record, "Date")

	assert.Nil(t, publisher.LastRecords(context.Background(), "Crypto"))
}

func TestLastRecordsHeadersOnly(t *testing.T) {
	fake := newFakeSheets("test-sheet")
	fake.seed("FX", [][]interface{}{
		{"Date", "DXY", "DXY WoW", "Market Commentary"},
	})
	publisher := newTestPublisher(t, fake)

	assert.Nil(t, publisher.LastRecords(context.Background(), "FX"))
}
