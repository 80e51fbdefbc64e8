// Package blossom is a minimal client for the Blossom transcription-tracking
// REST API: transcription text search, volunteer lookup, and activity heatmap
// data. All endpoints return Django-style paged JSON.
package blossom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL points at the production Blossom instance.
const DefaultBaseURL = "https://api.grafeas.org/api"

// Client calls the Blossom API. The zero HTTPClient falls back to a client
// with a 10s timeout; Blossom can be slow on large text searches.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// New returns a client for the given instance. An empty baseURL selects the
// production API.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Transcription is a single transcription record as returned by the search
// endpoint. Only the fields the bot renders are decoded.
type Transcription struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	URL        string `json:"url"`
	CreateTime string `json:"create_time"`
}

// SearchResponse is one page of transcription search results.
type SearchResponse struct {
	Count   int             `json:"count"`
	Results []Transcription `json:"results"`
}

// SearchTranscriptions runs a case-insensitive contains search over
// transcription texts, newest first. page is 1-based and pageSize is the
// number of records per fetched page.
func (c *Client) SearchTranscriptions(ctx context.Context, query string, pageSize, page int) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("text__icontains", query)
	q.Set("url__isnull", "false")
	q.Set("ordering", "-create_time")
	q.Set("page_size", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))

	var out SearchResponse
	if err := c.get(ctx, "/transcription/", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Volunteer is a Blossom volunteer record.
type Volunteer struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Gamma      int    `json:"gamma"`
	DateJoined string `json:"date_joined"`
}

// GetVolunteer looks up a volunteer by username. It returns ErrNotFound if no
// volunteer matches.
func (c *Client) GetVolunteer(ctx context.Context, username string) (*Volunteer, error) {
	q := url.Values{}
	q.Set("username", username)

	var out struct {
		Count   int         `json:"count"`
		Results []Volunteer `json:"results"`
	}
	if err := c.get(ctx, "/volunteer/", q, &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, ErrNotFound
	}
	return &out.Results[0], nil
}

// HeatmapEntry is one cell of activity data: ISO day of week (1=Monday),
// hour of day and the number of transcriptions completed in that slot.
type HeatmapEntry struct {
	Day   int `json:"day"`
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// HeatmapParams narrows the heatmap query. CompletedBy == 0 means all
// volunteers; zero times leave the corresponding bound open.
type HeatmapParams struct {
	CompletedBy int64
	UTCOffset   int
	After       time.Time
	Before      time.Time
}

// Heatmap fetches day/hour activity counts for the given constraints.
func (c *Client) Heatmap(ctx context.Context, params HeatmapParams) ([]HeatmapEntry, error) {
	q := url.Values{}
	if params.CompletedBy != 0 {
		q.Set("completed_by", strconv.FormatInt(params.CompletedBy, 10))
	}
	q.Set("utc_offset", strconv.Itoa(params.UTCOffset))
	if !params.After.IsZero() {
		q.Set("complete_time__gte", params.After.Format(time.RFC3339))
	}
	if !params.Before.IsZero() {
		q.Set("complete_time__lte", params.Before.Format(time.RFC3339))
	}

	var out []HeatmapEntry
	if err := c.get(ctx, "/submission/heatmap/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// get performs a GET request against the API and decodes the JSON body into
// out. Non-200 responses become an *APIError carrying status and body.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = query.Encode()
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Api-Key "+c.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http().Do(req)
	if err != nil {
		return fmt.Errorf("blossom request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("blossom decode: %w", err)
	}
	return nil
}
