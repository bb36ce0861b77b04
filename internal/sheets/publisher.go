package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowchartsman/retry"
	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"github.com/cchai186/commodity-price-tracker/internal/quotes"
)

// New worksheets get the same grid as the original sheet layout.
const (
	newSheetRows = 1000
	newSheetCols = 20
)

// ErrNothingPublished is returned when every category failed to publish.
var ErrNothingPublished = errors.New("failed to update any worksheet")

// Publisher appends category reports to a spreadsheet, one worksheet per
// category. Calls are paced to stay inside the Sheets API write quota.
type Publisher struct {
	svc           *sheets.Service
	spreadsheetID string
	interval      time.Duration
	retrier       *retry.Retrier
	log           *zap.SugaredLogger
}

// NewPublisher creates a publisher for one spreadsheet. interval is the
// delay applied before every API call; zero disables pacing.
func NewPublisher(svc *sheets.Service, spreadsheetID string, interval time.Duration, log *zap.SugaredLogger) *Publisher {
	return &Publisher{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		interval:      interval,
		retrier:       retry.NewRetrier(4, 500*time.Millisecond, 5*time.Second),
		log:           log,
	}
}

// Publish appends one row per category. A failing category is logged and
// skipped so the others still publish; the error is non-nil only when the
// spreadsheet itself is unreachable or every category failed.
func (p *Publisher) Publish(ctx context.Context, reports []quotes.CategoryQuotes) error {
	sheetIDs, err := p.worksheetIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to open spreadsheet %s: %w", p.spreadsheetID, err)
	}

	failures := 0
	for _, cq := range reports {
		if err := p.publishCategory(ctx, sheetIDs, cq); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Errorf("failed to update %s worksheet: %v", cq.Category, err)
			failures++
			continue
		}
		p.log.Infof("updated %s worksheet", cq.Category)
	}

	if len(reports) > 0 && failures == len(reports) {
		return ErrNothingPublished
	}
	return nil
}

// LastRecords returns the most recent published record of a category,
// keyed by header. Missing worksheets, empty worksheets and read errors
// all yield nil: trend analysis just degrades without history.
func (p *Publisher) LastRecords(ctx context.Context, category string) map[string]float64 {
	rows, err := p.values(ctx, category)
	if err != nil || len(rows) < 2 {
		return nil
	}
	return parseRecord(rows[0], rows[len(rows)-1])
}

func (p *Publisher) publishCategory(ctx context.Context, sheetIDs map[string]int64, cq quotes.CategoryQuotes) error {
	sheetID, ok := sheetIDs[cq.Category]
	if !ok {
		var err error
		sheetID, err = p.addWorksheet(ctx, cq.Category)
		if err != nil {
			return fmt.Errorf("failed to create worksheet: %w", err)
		}
		sheetIDs[cq.Category] = sheetID
		p.log.Infof("created new worksheet for %s", cq.Category)
	}

	existing, err := p.values(ctx, cq.Category)
	if err != nil {
		return fmt.Errorf("failed to read worksheet: %w", err)
	}

	var requests []*sheets.Request

	if len(existing) == 0 {
		headers := HeaderRow(cq)
		if err := p.appendRow(ctx, cq.Category, toCells(headers)); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
		requests = append(requests, formatRowRequest(sheetID, 0, len(headers), headerFormat()))
		existing = [][]string{headers}
	}

	headers := existing[0]
	var prevRow []string
	if len(existing) > 1 {
		prevRow = existing[len(existing)-1]
	}

	row := BuildRow(headers, prevRow, cq)
	if err := p.appendRow(ctx, cq.Category, row); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	// The appended row lands right under the existing ones.
	rowIndex := int64(len(existing))
	requests = append(requests, formatRowRequest(sheetID, rowIndex, len(headers), dataFormat()))
	for i, header := range headers {
		if IsWoWColumn(header) {
			requests = append(requests, percentFormatRequest(sheetID, rowIndex, int64(i)))
		}
	}
	requests = append(requests, autoResizeRequest(sheetID, len(headers)))

	if err := p.batchUpdate(ctx, requests); err != nil {
		return fmt.Errorf("failed to format row: %w", err)
	}

	return nil
}

// worksheetIDs fetches the sheet IDs keyed by worksheet title.
func (p *Publisher) worksheetIDs(ctx context.Context) (map[string]int64, error) {
	if err := p.pace(ctx); err != nil {
		return nil, err
	}

	ss, err := p.svc.Spreadsheets.Get(p.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int64, len(ss.Sheets))
	for _, sheet := range ss.Sheets {
		if sheet.Properties != nil {
			ids[sheet.Properties.Title] = sheet.Properties.SheetId
		}
	}
	return ids, nil
}

func (p *Publisher) addWorksheet(ctx context.Context, title string) (int64, error) {
	if err := p.pace(ctx); err != nil {
		return 0, err
	}

	var resp *sheets.BatchUpdateSpreadsheetResponse
	err := p.retrier.RunContext(ctx, func(ctx context.Context) error {
		var err error
		resp, err = p.svc.Spreadsheets.BatchUpdate(p.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: title,
						GridProperties: &sheets.GridProperties{
							RowCount:    newSheetRows,
							ColumnCount: newSheetCols,
						},
					},
				},
			}},
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, err
	}

	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, errors.New("add sheet reply missing properties")
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (p *Publisher) values(ctx context.Context, title string) ([][]string, error) {
	if err := p.pace(ctx); err != nil {
		return nil, err
	}

	vr, err := p.svc.Spreadsheets.Values.Get(p.spreadsheetID, fmt.Sprintf("'%s'", title)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return stringRows(vr.Values), nil
}

func (p *Publisher) appendRow(ctx context.Context, title string, row []interface{}) error {
	if err := p.pace(ctx); err != nil {
		return err
	}

	return p.retrier.RunContext(ctx, func(ctx context.Context) error {
		_, err := p.svc.Spreadsheets.Values.Append(p.spreadsheetID, fmt.Sprintf("'%s'!A1", title), &sheets.ValueRange{
			Values: [][]interface{}{row},
		}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	})
}

func (p *Publisher) batchUpdate(ctx context.Context, requests []*sheets.Request) error {
	if len(requests) == 0 {
		return nil
	}
	if err := p.pace(ctx); err != nil {
		return err
	}

	return p.retrier.RunContext(ctx, func(ctx context.Context) error {
		_, err := p.svc.Spreadsheets.BatchUpdate(p.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: requests,
		}).Context(ctx).Do()
		return err
	})
}

func (p *Publisher) pace(ctx context.Context) error {
	if p.interval <= 0 {
		return nil
	}
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func toCells(headers []string) []interface{} {
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	return cells
}
