package sheets

import "google.golang.org/api/sheets/v4"

// headerFormat styles the header row: grey bold centered cells with solid
// borders.
func headerFormat() *sheets.CellFormat {
	return &sheets.CellFormat{
		BackgroundColor:     &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
		TextFormat:          &sheets.TextFormat{Bold: true},
		HorizontalAlignment: "CENTER",
		Borders:             solidBorders(),
	}
}

// dataFormat styles appended data rows: white centered cells with solid
// borders.
func dataFormat() *sheets.CellFormat {
	return &sheets.CellFormat{
		BackgroundColor:     &sheets.Color{Red: 1, Green: 1, Blue: 1},
		HorizontalAlignment: "CENTER",
		Borders:             solidBorders(),
	}
}

func solidBorders() *sheets.Borders {
	solid := func() *sheets.Border { return &sheets.Border{Style: "SOLID"} }
	return &sheets.Borders{
		Top:    solid(),
		Bottom: solid(),
		Left:   solid(),
		Right:  solid(),
	}
}

func formatRowRequest(sheetID, rowIndex int64, numCols int, format *sheets.CellFormat) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    rowIndex,
				EndRowIndex:      rowIndex + 1,
				StartColumnIndex: 0,
				EndColumnIndex:   int64(numCols),
			},
			Cell:   &sheets.CellData{UserEnteredFormat: format},
			Fields: "userEnteredFormat(backgroundColor,textFormat,horizontalAlignment,borders)",
		},
	}
}

// percentFormatRequest formats one WoW cell as "0.00%".
func percentFormatRequest(sheetID, rowIndex, colIndex int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    rowIndex,
				EndRowIndex:      rowIndex + 1,
				StartColumnIndex: colIndex,
				EndColumnIndex:   colIndex + 1,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					NumberFormat: &sheets.NumberFormat{Type: "PERCENT", Pattern: "0.00%"},
				},
			},
			Fields: "userEnteredFormat.numberFormat",
		},
	}
}

func autoResizeRequest(sheetID int64, numCols int) *sheets.Request {
	return &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   int64(numCols),
			},
		},
	}
}
