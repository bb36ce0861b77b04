package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// The chart API rejects Go's default agent string.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// ErrNoData is returned when the chart API answers without any usable
// close price for the requested ticker.
var ErrNoData = errors.New("no quote data returned")

// Client fetches last-close prices from the Yahoo Finance v8 chart API.
// Requests are paced to stay under the API's rate limits.
type Client struct {
	baseURL  string
	http     *retryablehttp.Client
	interval time.Duration
}

// NewClient creates a chart API client. baseURL falls back to the public
// endpoint when empty. requestInterval is the delay applied before every
// request; zero disables pacing.
func NewClient(baseURL string, requestInterval time.Duration) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 5 * time.Second
	httpClient.HTTPClient.Timeout = 10 * time.Second
	httpClient.Logger = nil

	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		baseURL:  baseURL,
		http:     httpClient,
		interval: requestInterval,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// LastClose returns the most recent close for ticker, rounded to four
// decimal places.
func (c *Client) LastClose(ctx context.Context, ticker string) (float64, error) {
	if err := c.pace(ctx); err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", c.baseURL, url.PathEscape(ticker))
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch chart for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("chart request for %s failed with status %d: %s", ticker, resp.StatusCode, string(body))
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return 0, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if chart.Chart.Error != nil {
		return 0, fmt.Errorf("chart API error for %s: %s: %s", ticker, chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return 0, ErrNoData
	}
	result := chart.Chart.Result[0]

	// Last non-null close of the day, falling back to the meta price when
	// the close series is empty (happens while a session is open).
	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil {
				return roundPrice(*closes[i]), nil
			}
		}
	}
	if result.Meta.RegularMarketPrice != nil {
		return roundPrice(*result.Meta.RegularMarketPrice), nil
	}
	return 0, ErrNoData
}

// FetchCategory fetches every symbol of a category for the given report
// date. Failed symbols become missing quotes, they never abort the
// category.
func (c *Client) FetchCategory(ctx context.Context, category Category, date string) (CategoryQuotes, error) {
	cq := CategoryQuotes{
		Category:  category.Name,
		Date:      date,
		FetchedAt: time.Now(),
	}

	for _, sym := range category.Symbols {
		price, err := c.LastClose(ctx, sym.Ticker)
		if err != nil {
			if ctx.Err() != nil {
				return cq, ctx.Err()
			}
			cq.Quotes = append(cq.Quotes, Quote{Ticker: sym.Ticker, Label: sym.Label, Missing: true})
			continue
		}
		cq.Quotes = append(cq.Quotes, Quote{Ticker: sym.Ticker, Label: sym.Label, Price: price})
	}

	return cq, nil
}

func (c *Client) pace(ctx context.Context) error {
	if c.interval <= 0 {
		return nil
	}
	timer := time.NewTimer(c.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func roundPrice(p float64) float64 {
	return math.Round(p*10000) / 10000
}
