package unipile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrUsageLimit signals that the provider reported a hard usage or quota
// limit for the account. Pagination stops but already-fetched pages are kept.
var ErrUsageLimit = eris.New("unipile: account usage limit reached")

// Client is the Unipile LinkedIn API surface used by the search pipeline.
type Client interface {
	// Search performs one page of POST /api/v1/linkedin/search. The body is
	// a dialect-specific payload; cursor is empty for the first page.
	Search(ctx context.Context, accountID string, payload any, cursor string, limit int) (*SearchResponse, error)

	// SearchParameters resolves free text to provider filter IDs. A 404
	// (tier does not support the lookup) yields an empty slice, not an error.
	SearchParameters(ctx context.Context, accountID string, typ ParameterType, keywords string, limit int) ([]Parameter, error)

	// ListAccounts returns all accounts connected at the provider.
	ListAccounts(ctx context.Context) ([]AccountInfo, error)

	// GetAccount fetches a single account with capability metadata.
	GetAccount(ctx context.Context, accountID string) (*AccountInfo, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithBaseURL overrides the base URL derived from the DSN.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// BaseURL derives the API base URL from a DSN, which may be a bare
// subdomain ("api6") or a full host with port ("api6.unipile.com:13670").
func BaseURL(dsn string) string {
	if strings.Contains(dsn, ".") {
		return "https://" + dsn
	}
	return fmt.Sprintf("https://%s.unipile.com:13443", dsn)
}

// NewClient creates a Unipile API client. Both the API key and DSN are
// required; missing credentials are a fatal configuration error.
func NewClient(apiKey, dsn string, opts ...Option) (Client, error) {
	if apiKey == "" || dsn == "" {
		return nil, eris.New("unipile: api key and dsn are required")
	}
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: BaseURL(dsn),
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *httpClient) Search(ctx context.Context, accountID string, payload any, cursor string, limit int) (*SearchResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: marshal search payload")
	}

	q := url.Values{}
	q.Set("account_id", accountID)
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	endpoint := c.baseURL + "/api/v1/linkedin/search?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "unipile: create search request")
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: send search request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: read search response")
	}

	if resp.StatusCode != http.StatusOK {
		if isUsageLimit(resp.StatusCode, respBody) {
			return nil, eris.Wrapf(ErrUsageLimit, "status %d: %s", resp.StatusCode, truncate(respBody, 200))
		}
		return nil, eris.Errorf("unipile: search status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "unipile: unmarshal search response")
	}
	return &result, nil
}

func (c *httpClient) SearchParameters(ctx context.Context, accountID string, typ ParameterType, keywords string, limit int) ([]Parameter, error) {
	q := url.Values{}
	q.Set("account_id", accountID)
	q.Set("type", string(typ))
	q.Set("keywords", keywords)
	q.Set("limit", strconv.Itoa(limit))

	endpoint := c.baseURL + "/api/v1/linkedin/search/parameters?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: create parameters request")
	}
	c.setHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: send parameters request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: read parameters response")
	}

	// Some tiers do not support parameter lookups at all; treat that as
	// "no match" so the translator can fall back to keyword search.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("unipile: parameters status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var result ParameterResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "unipile: unmarshal parameters response")
	}
	return result.Items, nil
}

func (c *httpClient) ListAccounts(ctx context.Context) ([]AccountInfo, error) {
	endpoint := c.baseURL + "/api/v1/accounts"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: create accounts request")
	}
	c.setHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: send accounts request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: read accounts response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("unipile: accounts status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	// The endpoint has returned both a bare array and an {items: []} object.
	trimmed := bytes.TrimSpace(respBody)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var accounts []AccountInfo
		if err := json.Unmarshal(trimmed, &accounts); err != nil {
			return nil, eris.Wrap(err, "unipile: unmarshal accounts response")
		}
		return accounts, nil
	}
	var list AccountList
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, eris.Wrap(err, "unipile: unmarshal accounts response")
	}
	return list.Items, nil
}

func (c *httpClient) GetAccount(ctx context.Context, accountID string) (*AccountInfo, error) {
	endpoint := c.baseURL + "/api/v1/accounts/" + url.PathEscape(accountID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: create account request")
	}
	c.setHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: send account request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "unipile: read account response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("unipile: account status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var account AccountInfo
	if err := json.Unmarshal(respBody, &account); err != nil {
		return nil, eris.Wrap(err, "unipile: unmarshal account response")
	}
	return &account, nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
}

// isUsageLimit detects hard quota/rate conditions that should end
// pagination rather than fail it.
func isUsageLimit(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "usage_limit") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "rate limit")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
