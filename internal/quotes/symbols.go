// Package quotes fetches market prices from the Yahoo Finance chart API.
package quotes

// Symbol maps an upstream ticker to the label used in sheets and
// commentary.
type Symbol struct {
	Ticker string `json:"ticker"`
	Label  string `json:"label"`
}

// Category is an ordered group of symbols published to one worksheet.
type Category struct {
	Name    string   `json:"name"`
	Symbols []Symbol `json:"symbols"`
}

// DefaultCategories returns the built-in tracking universe. Order matters:
// categories publish in this order and symbols define the sheet columns.
func DefaultCategories() []Category {
	return []Category{
		{
			Name: "FX",
			Symbols: []Symbol{
				{Ticker: "DX-Y.NYB", Label: "DXY"},
				{Ticker: "EURUSD=X", Label: "EURUSD"},
				{Ticker: "NZDUSD=X", Label: "NZDUSD"},
				{Ticker: "USDKRW=X", Label: "USDKRW"},
				{Ticker: "USDTHB=X", Label: "USDTHB"},
				{Ticker: "USDSGD=X", Label: "USDSGD"},
			},
		},
		{
			Name: "Energy",
			Symbols: []Symbol{
				{Ticker: "BZ=F", Label: "Brent"},
				{Ticker: "CL=F", Label: "WTI"},
			},
		},
		{
			Name: "Feed",
			Symbols: []Symbol{
				{Ticker: "ZC=F", Label: "Corn"},
				{Ticker: "ZM=F", Label: "Soybean"},
			},
		},
		{
			Name: "Metals",
			Symbols: []Symbol{
				{Ticker: "GC=F", Label: "Gold"},
				{Ticker: "SI=F", Label: "Silver"},
			},
		},
		{
			Name: "Crypto",
			Symbols: []Symbol{
				{Ticker: "BTC-USD", Label: "Bitcoin"},
			},
		},
	}
}
