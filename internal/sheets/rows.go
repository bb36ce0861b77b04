// Package sheets publishes category reports to a Google spreadsheet, one
// worksheet per category.
package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cchai186/commodity-price-tracker/internal/quotes"
)

// CommentaryHeader is the last column of every worksheet.
const CommentaryHeader = "Market Commentary"

// missingCell marks values that could not be fetched or derived.
const missingCell = "N/A"

// HeaderRow builds the worksheet header for a category: Date, then each
// label followed by its week-over-week column, then the commentary.
func HeaderRow(cq quotes.CategoryQuotes) []string {
	headers := []string{"Date"}
	for _, q := range cq.Quotes {
		headers = append(headers, q.Label, q.Label+" WoW")
	}
	headers = append(headers, CommentaryHeader)
	return headers
}

// BuildRow shapes a category report into a sheet row following the
// worksheet's existing headers. WoW cells hold the fractional change
// against prevRow's value column; anything underivable becomes N/A.
func BuildRow(headers []string, prevRow []string, cq quotes.CategoryQuotes) []interface{} {
	row := []interface{}{cq.Date}
	for i := 1; i < len(headers); i++ {
		header := headers[i]
		if strings.HasSuffix(header, " WoW") {
			label := strings.TrimSuffix(header, " WoW")
			row = append(row, wowChange(label, prevRow, i, cq))
			continue
		}
		if header == CommentaryHeader {
			row = append(row, cq.Commentary)
			continue
		}
		if price, ok := cq.Price(header); ok {
			row = append(row, price)
		} else {
			row = append(row, missingCell)
		}
	}
	return row
}

// wowChange computes (current-previous)/previous where previous is the
// value column one left of the WoW column in the previous row.
func wowChange(label string, prevRow []string, col int, cq quotes.CategoryQuotes) interface{} {
	curr, ok := cq.Price(label)
	if !ok {
		return missingCell
	}
	if col-1 >= len(prevRow) {
		return missingCell
	}
	prev, err := strconv.ParseFloat(strings.TrimSpace(prevRow[col-1]), 64)
	if err != nil || prev == 0 {
		return missingCell
	}
	return (curr - prev) / prev
}

// IsWoWColumn reports whether the header names a week-over-week column.
func IsWoWColumn(header string) bool {
	return strings.HasSuffix(header, " WoW")
}

// parseRecord zips a data row with the worksheet headers, keeping only the
// cells that parse as numbers.
func parseRecord(headers []string, row []string) map[string]float64 {
	record := make(map[string]float64)
	for i, header := range headers {
		if i >= len(row) {
			break
		}
		if value, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64); err == nil {
			record[header] = value
		}
	}
	return record
}

// stringRows flattens API cell values to trimmed strings.
func stringRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = strings.TrimSpace(fmt.Sprint(cell))
		}
		rows[i] = cells
	}
	return rows
}
