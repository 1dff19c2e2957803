// Package jobs fetches live job listings from the Adzuna search API and
// normalizes them for the market dashboard.
package jobs

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

	"github.com/jonathan/career-coach/internal/config"
)

const (
	// DefaultBaseURL is the Adzuna API host
	DefaultBaseURL = "https://api.adzuna.com"
	// CacheMaxAge is how long a search result may be reused
	CacheMaxAge = time.Hour
	// MaxListings is the number of listings kept from a search
	MaxListings = 20

	resultsPerPage = 50
)

// CacheControl is the header value sent upstream and to API callers
var CacheControl = "max-age=" + strconv.Itoa(int(CacheMaxAge.Seconds()))

// Credentials resolves configuration values. config.Store implements it.
type Credentials interface {
	Get(key string) string
	Missing(keys ...string) []string
}

// Listing is a normalized job listing
type Listing struct {
	Title     string   `json:"title"`
	Location  string   `json:"location"`
	SalaryMin *float64 `json:"salaryMin,omitempty"`
	SalaryMax *float64 `json:"salaryMax,omitempty"`
	Category  string   `json:"category"`
	Created   string   `json:"created"`
}

// Result is one search: the upstream total, the first MaxListings listings
// and when the request was made.
type Result struct {
	Count     int       `json:"count"`
	Listings  []Listing `json:"listings"`
	FetchedAt time.Time `json:"fetchedAt"`
}

type adzunaResponse struct {
	Count   int           `json:"count"`
	Results []adzunaEntry `json:"results"`
}

type adzunaEntry struct {
	Title    string `json:"title"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	SalaryMin *float64 `json:"salary_min"`
	SalaryMax *float64 `json:"salary_max"`
	Category  struct {
		Label string `json:"label"`
	} `json:"category"`
	Created string `json:"created"`
}

// Fetcher searches Adzuna. Zero-valued fields fall back to defaults.
type Fetcher struct {
	Credentials Credentials
	HTTPClient  *http.Client
	BaseURL     string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewFetcher creates a fetcher with a 15 second HTTP timeout
func NewFetcher(creds Credentials, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		Credentials: creds,
		HTTPClient:  &http.Client{Timeout: 15 * time.Second},
		BaseURL:     DefaultBaseURL,
		Now:         time.Now,
		Logger:      logger,
	}
}

// Fetch runs one search, optionally filtered by role. It issues exactly one
// GET and never retries.
func (f *Fetcher) Fetch(ctx context.Context, role string) (*Result, error) {
	if missing := f.Credentials.Missing(config.KeyAdzunaAppID, config.KeyAdzunaAPIKey); len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	fetchedAt := now().UTC()

	reqURL := f.searchURL(role)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &UpstreamError{Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", CacheControl)

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var payload adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &UpstreamError{Message: "failed to decode response", Cause: err}
	}

	result := &Result{
		Count:     payload.Count,
		Listings:  normalize(payload.Results),
		FetchedAt: fetchedAt,
	}

	if f.Logger != nil {
		f.Logger.DebugContext(ctx, "job search complete",
			"role", role,
			"count", result.Count,
			"listings", len(result.Listings))
	}
	return result, nil
}

func (f *Fetcher) searchURL(role string) string {
	base := f.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	q := url.Values{}
	q.Set("app_id", f.Credentials.Get(config.KeyAdzunaAppID))
	q.Set("app_key", f.Credentials.Get(config.KeyAdzunaAPIKey))
	q.Set("results_per_page", strconv.Itoa(resultsPerPage))
	q.Set("content-type", "application/json")
	if role = strings.TrimSpace(role); role != "" {
		q.Set("what", role)
	}

	return fmt.Sprintf("%s/v1/api/jobs/us/search/1?%s", strings.TrimRight(base, "/"), q.Encode())
}

// normalize maps upstream entries and keeps the first MaxListings
func normalize(entries []adzunaEntry) []Listing {
	if len(entries) > MaxListings {
		entries = entries[:MaxListings]
	}

	listings := make([]Listing, 0, len(entries))
	for _, e := range entries {
		listings = append(listings, Listing{
			Title:     strings.TrimSpace(e.Title),
			Location:  e.Location.DisplayName,
			SalaryMin: e.SalaryMin,
			SalaryMax: e.SalaryMax,
			Category:  e.Category.Label,
			Created:   e.Created,
		})
	}
	return listings
}
