// internal/client/reddit_client.go
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reddit-modbot/internal/models"
	"reddit-modbot/internal/processor"
)

const pageSize = 100

// Ensure RedditClient implements RedditClientInterface
var _ RedditClientInterface = (*RedditClient)(nil)

type Options struct {
	BaseURL string
	AuthURL string

	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	UserAgent    string

	RequestsPerMinute int
	MaxRetries        int
	Timeout           time.Duration
}

type RedditClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	processor  processor.ProcessorInterface
	logger     *slog.Logger
}

func NewRedditClient(opts Options, proc processor.ProcessorInterface, logger *slog.Logger) *RedditClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 60
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("subsystem", "reddit")

	return &RedditClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: newAPIClient(opts, logger),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 5),
		processor:  proc,
		logger:     logger,
	}
}

func (c *RedditClient) Me(ctx context.Context) (string, error) {
	var me struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, "me", "/api/v1/me", nil, &me); err != nil {
		return "", err
	}
	if me.Name == "" {
		return "", fmt.Errorf("reddit: authenticated account has no name")
	}
	return me.Name, nil
}

func (c *RedditClient) Community(ctx context.Context, name string) (string, error) {
	var about struct {
		Kind string `json:"kind"`
		Data struct {
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/r/%s/about", url.PathEscape(name))
	if err := c.getJSON(ctx, "about", path, nil, &about); err != nil {
		return "", err
	}
	if about.Kind != "t5" || about.Data.DisplayName == "" {
		return "", fmt.Errorf("reddit: subreddit %q not found", name)
	}
	return about.Data.DisplayName, nil
}

func (c *RedditClient) NewPosts(ctx context.Context, community string) iter.Seq2[models.Post, error] {
	path := fmt.Sprintf("/r/%s/new", url.PathEscape(community))
	return c.listing(ctx, "new", path, nil)
}

func (c *RedditClient) AuthorPosts(ctx context.Context, author string) iter.Seq2[models.Post, error] {
	path := fmt.Sprintf("/user/%s/submitted", url.PathEscape(author))
	return c.listing(ctx, "submitted", path, url.Values{"sort": {"new"}})
}

// listing walks a listing endpoint page by page using the after cursor.
func (c *RedditClient) listing(ctx context.Context, endpoint, path string, query url.Values) iter.Seq2[models.Post, error] {
	return func(yield func(models.Post, error) bool) {
		after := ""
		for {
			params := url.Values{}
			maps.Copy(params, query)
			params.Set("limit", strconv.Itoa(pageSize))
			params.Set("raw_json", "1")
			if after != "" {
				params.Set("after", after)
			}

			var page models.Listing
			if err := c.getJSON(ctx, endpoint, path, params, &page); err != nil {
				yield(models.Post{}, err)
				return
			}
			c.logger.Debug("fetched listing page", "endpoint", endpoint, "after", after, "children", len(page.Data.Children))

			for _, post := range c.processor.ProcessListing(&page) {
				if !yield(post, nil) {
					return
				}
			}

			after = page.Data.After
			if after == "" || len(page.Data.Children) == 0 {
				return
			}
		}
	}
}

func (c *RedditClient) Report(ctx context.Context, post models.Post, reason ReportReason, text string) error {
	form := url.Values{
		"api_type":     {"json"},
		"thing_id":     {post.FullName},
		"reason":       {string(reason)},
		"other_reason": {text},
	}

	var response struct {
		JSON struct {
			Errors [][]any `json:"errors"`
		} `json:"json"`
	}
	if err := c.do(ctx, "report", http.MethodPost, "/api/report", form, &response); err != nil {
		return fmt.Errorf("reporting %s: %w", post.FullName, err)
	}
	if len(response.JSON.Errors) > 0 {
		return fmt.Errorf("reporting %s: reddit returned errors: %v", post.FullName, response.JSON.Errors)
	}
	return nil
}

func (c *RedditClient) getJSON(ctx context.Context, endpoint, path string, query url.Values, result any) error {
	endpointURL := c.baseURL + path
	if len(query) > 0 {
		endpointURL += "?" + query.Encode()
	}
	return c.makeRequest(ctx, endpoint, http.MethodGet, endpointURL, nil, result)
}

func (c *RedditClient) do(ctx context.Context, endpoint, method, path string, form url.Values, result any) error {
	return c.makeRequest(ctx, endpoint, method, c.baseURL+path, form, result)
}

func (c *RedditClient) makeRequest(ctx context.Context, endpoint, method, endpointURL string, form url.Values, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpointURL, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	apiRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	return nil
}
