package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cchai186/commodity-price-tracker/internal/models"
	"github.com/cchai186/commodity-price-tracker/internal/quotes"
	"github.com/cchai186/commodity-price-tracker/internal/version"
)

// ErrRunActive is returned when the daemon refuses an overlapping run.
var ErrRunActive = errors.New("a run is already in progress")

// Client talks to the trackerd REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates an API client. The token may be empty, endpoints
// that need one will answer 401.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("login", resp)
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &loginResp, nil
}

// DispatchRun asks the daemon to start a manual run.
func (c *Client) DispatchRun(ctx context.Context, requestedBy string) (*models.Run, error) {
	payload := map[string]string{}
	if requestedBy != "" {
		payload["requested_by"] = requestedBy
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/runs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrRunActive
	}
	if resp.StatusCode != http.StatusAccepted {
		return nil, apiError("dispatch", resp)
	}

	var run models.Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &run, nil
}

// GetRun fetches one run with its steps.
func (c *Client) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	if err := c.get(ctx, "get run", "/api/v1/runs/"+url.PathEscape(id), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// RunList is a page of run history.
type RunList struct {
	Runs   []models.Run `json:"runs"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// ListRuns fetches run history, newest first.
func (c *Client) ListRuns(ctx context.Context, limit, offset int, status string) (*RunList, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if status != "" {
		q.Set("status", status)
	}

	var list RunList
	if err := c.get(ctx, "list runs", "/api/v1/runs?"+q.Encode(), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// QuoteList is the cached quotes of every category.
type QuoteList struct {
	Categories []quotes.CategoryQuotes `json:"categories"`
}

// ListQuotes fetches the cached quotes of every category.
func (c *Client) ListQuotes(ctx context.Context) (*QuoteList, error) {
	var list QuoteList
	if err := c.get(ctx, "list quotes", "/api/v1/quotes", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetQuotes fetches the cached quotes of one category.
func (c *Client) GetQuotes(ctx context.Context, category string) (*quotes.CategoryQuotes, error) {
	var cq quotes.CategoryQuotes
	if err := c.get(ctx, "get quotes", "/api/v1/quotes/"+url.PathEscape(category), &cq); err != nil {
		return nil, err
	}
	return &cq, nil
}

// Status is the daemon status report.
type Status struct {
	Version          version.Info     `json:"version"`
	Runs             map[string]int64 `json:"runs"`
	ActiveRun        string           `json:"active_run"`
	LastRun          *models.Run      `json:"last_run"`
	NextScheduledRun string           `json:"next_scheduled_run"`
}

// GetStatus fetches the daemon status.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.get(ctx, "get status", "/api/v1/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) get(ctx context.Context, op, path string, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func apiError(op string, resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(bodyBytes, &apiResp); err == nil && apiResp.Error != "" {
		return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, apiResp.Error)
	}
	return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, string(bodyBytes))
}
