package quotes

import "time"

// Quote is one fetched price. A symbol that could not be fetched keeps its
// place in the category with Missing set.
type Quote struct {
	Ticker  string  `json:"ticker"`
	Label   string  `json:"label"`
	Price   float64 `json:"price"`
	Missing bool    `json:"missing"`
}

// CategoryQuotes is the fetched state of one category for one report date.
// Commentary is filled in by the analyze step.
type CategoryQuotes struct {
	Category   string    `json:"category"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Quotes     []Quote   `json:"quotes"`
	Commentary string    `json:"commentary,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Price returns the price for a label. ok is false when the label is
// unknown or its quote is missing.
func (c CategoryQuotes) Price(label string) (float64, bool) {
	for _, q := range c.Quotes {
		if q.Label == label {
			if q.Missing {
				return 0, false
			}
			return q.Price, true
		}
	}
	return 0, false
}

// MissingCount returns how many quotes in the category are missing.
func (c CategoryQuotes) MissingCount() int {
	n := 0
	for _, q := range c.Quotes {
		if q.Missing {
			n++
		}
	}
	return n
}
