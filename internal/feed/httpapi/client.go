// Package httpapi talks to a spreadsheet-as-database HTTP endpoint:
// GET returns {"data": [[...]]} with a header row, POST takes a
// single-row 2-D array as JSON.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	ports "foyer/internal/feed"
)

type Client struct {
	httpClient *http.Client
	url        string
}

var (
	_ ports.GridFetcher = (*Client)(nil)
	_ ports.RowAppender = (*Client)(nil)
)

func New(url string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        url,
	}
}

// Fetch loads the full grid. Cells arrive as arbitrary JSON scalars
// (the endpoint does not distinguish numbers from text) and are
// normalized to strings.
func (c *Client) Fetch(ctx context.Context) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Data [][]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}

	grid := make([][]string, len(payload.Data))
	for i, row := range payload.Data {
		grid[i] = toStrings(row)
	}
	return grid, nil
}

// Append POSTs one row as a single-row 2-D array.
func (c *Client) Append(ctx context.Context, cells []string) error {
	body, err := json.Marshal([][]string{cells})
	if err != nil {
		return fmt.Errorf("encode feed row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("append feed row: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("append feed row: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch t := v.(type) {
		case string:
			out[i] = t
		case float64:
			out[i] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[i] = strconv.FormatBool(t)
		case nil:
			out[i] = ""
		default:
			out[i] = fmt.Sprint(t)
		}
	}
	return out
}
