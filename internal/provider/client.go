// Package provider is the boundary to the payment provider: a thin HTTP
// client for pulling statement activity and webhook signature
// verification. Pagination and rate limiting stay upstream.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/ingest"
)

// Client fetches provider activity for a time range.
type Client interface {
	FetchTransactionsInRange(ctx context.Context, start, end time.Time) ([]ingest.StatementRow, error)
}

// HTTPClient is the live implementation of Client.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	apiToken   string
	profileID  string
}

// NewHTTPClient creates a provider client for the given profile. A nil
// httpClient gets a default with a 30 second timeout.
func NewHTTPClient(httpClient *http.Client, baseURL, apiToken, profileID string) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiToken:   apiToken,
		profileID:  profileID,
	}
}

// activityResponse is the provider's activity listing envelope.
type activityResponse struct {
	Transactions []ingest.StatementRow `json:"transactions"`
}

// FetchTransactionsInRange fetches all statement rows between start and
// end. Any transport or decode failure maps to UPSTREAM_FETCH_FAILED so
// callers surface a consistent error to their own clients.
func (c *HTTPClient) FetchTransactionsInRange(ctx context.Context, start, end time.Time) ([]ingest.StatementRow, error) {
	endpoint := fmt.Sprintf("%s/v1/profiles/%s/activity", c.baseURL, c.profileID)

	query := url.Values{}
	query.Set("intervalStart", start.UTC().Format(time.RFC3339))
	query.Set("intervalEnd", end.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstreamFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstreamFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.WithMessage(apperrors.ErrUpstreamFetch,
			fmt.Sprintf("provider activity request returned status %d", resp.StatusCode))
	}

	var payload activityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstreamFetch, err)
	}

	return payload.Transactions, nil
}
