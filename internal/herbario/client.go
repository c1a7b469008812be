// Package herbario is the HTTP client for the Herbario Digital public API.
package herbario

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	apperrors "github.com/herbario-cl/herbario/internal/errors"
	"github.com/herbario-cl/herbario/internal/retry"
)

const userAgent = "herbario/1.0"

// Client talks to the Herbario Digital API with retry on transient failures.
type Client struct {
	httpClient *http.Client
	baseURL    string
	policy     retry.Policy
	pageStart  int
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL string, policy retry.Policy, pageStart int) *Client {
	if pageStart <= 0 {
		pageStart = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		policy:     policy,
		pageStart:  pageStart,
	}
}

// WithHTTPClient overrides the underlying HTTP client (fluent helper, used by tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client { c.httpClient = hc; return c }

// ListSpecies pages through the species list endpoint until an empty page and
// returns every species reference found.
func (c *Client) ListSpecies(ctx context.Context) ([]SpeciesRef, error) {
	slog.Info("Retrieving species list", "base_url", c.baseURL)

	var species []SpeciesRef
	for page := c.pageStart; ; page++ {
		slog.Debug("Retrieving species list page", "page", page)

		var pageData speciesListPage
		endpoint := fmt.Sprintf("species_list/?format=json&page=%d", page)
		err := c.policy.Do(ctx, func() error {
			return c.getJSON(ctx, endpoint, &pageData)
		})
		if err != nil {
			return nil, apperrors.WrapError(err, apperrors.CategoryNetwork, "failed to retrieve species list page").
				WithContext("page", page)
		}

		if len(pageData.Results) == 0 {
			slog.Info("Species list complete", "pages", page-c.pageStart+1, "species", len(species))
			return species, nil
		}
		species = append(species, pageData.Results...)
	}
}

// GetSpecies retrieves the detail record for one species id.
func (c *Client) GetSpecies(ctx context.Context, id int) (*SpeciesDetail, error) {
	var detail SpeciesDetail
	endpoint := fmt.Sprintf("species/%d/?format=json&lang=en", id)
	err := c.policy.Do(ctx, func() error {
		return c.getJSON(ctx, endpoint, &detail)
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// getJSON executes a GET against a relative endpoint and decodes the response.
func (c *Client) getJSON(ctx context.Context, endpoint string, result any) error {
	req, err := c.newRequest(ctx, endpoint)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.WrapRetryable(err, apperrors.CategoryNetwork, apperrors.SeverityError, "failed to execute API request").
			WithContext("url", req.URL.String())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Read limited body for diagnostics
		limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

		e := apperrors.New(apperrors.CategoryNetwork, apperrors.SeverityError, "non-ok API status").
			WithContext("status", resp.StatusCode).
			WithContext("url", req.URL.String()).
			WithContext("body", bodyStr)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			e.Retryable = true
		}
		return e
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryDecode, apperrors.SeverityError, "failed to decode API response").
			WithContext("url", req.URL.String())
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	cleanEndpoint := strings.TrimPrefix(endpoint, "/")

	var rawQuery string
	if idx := strings.Index(cleanEndpoint, "?"); idx != -1 {
		rawQuery = cleanEndpoint[idx+1:]
		cleanEndpoint = cleanEndpoint[:idx]
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryConfig, apperrors.SeverityFatal, "failed to parse API base URL").
			WithContext("base_url", c.baseURL)
	}

	basePath := strings.TrimSuffix(u.Path, "/")
	u.Path = path.Join(basePath, cleanEndpoint)
	// path.Join drops the trailing slash the API requires; restore it.
	if strings.HasSuffix(cleanEndpoint, "/") {
		u.Path += "/"
	}
	if rawQuery != "" {
		u.RawQuery = rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryInternal, apperrors.SeverityError, "failed to create request").
			WithContext("url", u.String())
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
