// internal/client/transport.go
package client

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

type LeveledSlog struct {
	inner *slog.Logger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l LeveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

// userAgentTransport sets the User-Agent Reddit requires on every request,
// including token requests.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// passwordTokenSource mints a new token with the password grant. Reddit
// script apps get no refresh token, so an expired token is replaced by
// logging in again.
type passwordTokenSource struct {
	conf     *oauth2.Config
	username string
	password string
	client   *http.Client

	mu sync.Mutex
}

func (s *passwordTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)

	return s.conf.PasswordCredentialsToken(ctx, s.username, s.password)
}

// DefaultRetryPolicy wraps retryablehttp.DefaultRetryPolicy but leaves 429s
// to the rate limiter and the next poll cycle.
func DefaultRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func newAPIClient(opts Options, logger *slog.Logger) *http.Client {
	base := &userAgentTransport{
		base:      cleanhttp.DefaultPooledTransport(),
		userAgent: opts.UserAgent,
	}

	authClient := &http.Client{Transport: base, Timeout: opts.Timeout}
	conf := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  opts.AuthURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	tokens := oauth2.ReuseTokenSource(nil, &passwordTokenSource{
		conf:     conf,
		username: opts.Username,
		password: opts.Password,
		client:   authClient,
	})

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = &oauth2.Transport{Source: tokens, Base: base}
	retryClient.RetryMax = opts.MaxRetries
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(LeveledSlog{inner: logger})
	retryClient.CheckRetry = DefaultRetryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := retryClient.StandardClient()
	client.Timeout = opts.Timeout
	return client
}
