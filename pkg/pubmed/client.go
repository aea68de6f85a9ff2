package pubmed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pubmedscraper/pkg/config"
	"pubmedscraper/pkg/errors"
	"pubmedscraper/pkg/logger"
)

// Page is one fetched page of search results
type Page struct {
	Term    string
	Number  int
	URL     string
	Content string
	// HasContent is false when the page carries no <pre> block
	HasContent bool
}

// Client fetches PubMed search listings
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	query      SearchQuery
	logger     logger.Logger
}

// NewClient creates a new PubMed client
func NewClient(cfg *config.SearchConfig, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: headers,
		query:   QueryFromConfig(cfg),
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Query returns the fixed search query
func (c *Client) Query() SearchQuery {
	return c.query
}

// FetchPage downloads one listing page and extracts its content block.
// Transport failures and non-200 responses come back as transient errors.
func (c *Client) FetchPage(ctx context.Context, term string, page int) (*Page, error) {
	pageURL := c.query.URL(term, page)

	body, err := c.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	content, found, err := ContentBlock(body)
	if err != nil {
		c.logger.ErrorWithFields("failed to parse search page", map[string]interface{}{
			"term":  term,
			"page":  page,
			"error": err.Error(),
		})
		return nil, err
	}

	return &Page{
		Term:       term,
		Number:     page,
		URL:        pageURL,
		Content:    content,
		HasContent: found,
	}, nil
}

// Get performs a GET request and returns the body of a 200 response
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeUnknown,
			fmt.Sprintf("failed to create request: %v", err), err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if errors.IsRetryableStatusCode(resp.StatusCode) {
		// drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return nil, errors.FromStatus(resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork,
			fmt.Sprintf("failed to read response body: %v", err), err)
	}
	return body, nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		// cancellation is not a fetch failure
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork,
			fmt.Sprintf("network error: %v", err), err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}
