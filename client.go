package userfetch

import (
	"context"
	"io"
	"net/http"
	"time"
)

// HTTPDoer is the part of *http.Client the fetch needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs the user fetch against a fixed Users URL. A Client is
// never mutated after construction and is safe for concurrent use.
type Client struct {
	usersURL  string
	http      HTTPDoer
	userAgent string
	verbose   bool
	logger    Logger
	metrics   *Metrics
	registry  *observerRegistry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests. The default is
// http.DefaultClient.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records fetch outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithVerbose enables request/response debug logging.
func WithVerbose(enabled bool) Option {
	return func(c *Client) { c.verbose = enabled }
}

// New builds a Client whose Users URL is settings.BaseURL joined with "users".
func New(settings *Settings, opts ...Option) (*Client, error) {
	if settings == nil {
		return nil, ErrNilSettings
	}
	usersURL, err := UsersURL(settings.BaseURL)
	if err != nil {
		return nil, &ConfigError{Key: "BASE_URL", Reason: "base URL is not an absolute URL", Cause: err}
	}

	base := []Option{WithUserAgent(settings.UserAgent), WithVerbose(settings.Verbose)}
	return NewForURL(usersURL, append(base, opts...)...), nil
}

// NewForURL builds a Client that fetches usersURL as given.
func NewForURL(usersURL string, opts ...Option) *Client {
	c := &Client{
		usersURL:  usersURL,
		http:      http.DefaultClient,
		userAgent: DefaultUserAgent,
		logger:    defaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registry = newObserverRegistry(c.logger)
	return c
}

// UsersURL returns the URL GetUsers requests.
func (c *Client) UsersURL() string {
	return c.usersURL
}

// WithUsersURL returns a copy of c that fetches usersURL. c itself is left
// untouched, so an override scoped to a test needs no restoration. The copy
// shares c's observers and metrics.
func (c *Client) WithUsersURL(usersURL string) *Client {
	scoped := *c
	scoped.usersURL = usersURL
	return &scoped
}

// RegisterObserver subscribes observer to fetch events.
func (c *Client) RegisterObserver(observer Observer, eventTypes ...string) error {
	return c.registry.RegisterObserver(observer, eventTypes...)
}

// UnregisterObserver removes observer.
func (c *Client) UnregisterObserver(observer Observer) error {
	return c.registry.UnregisterObserver(observer)
}

// GetObservers lists the registered observers.
func (c *Client) GetObservers() []ObserverInfo {
	return c.registry.GetObservers()
}

// GetUsers issues one GET to the Users URL.
//
// A status below 400 returns the buffered *Response. Any other status returns
// (nil, nil), the absent value, with the failed response discarded. A request
// that cannot be built or sent, or whose body cannot be read, returns a
// *TransportError.
func (c *Client) GetUsers(ctx context.Context) (*Response, error) {
	target := SanitizeURL(c.usersURL)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.usersURL, nil)
	if err != nil {
		return nil, c.fail(ctx, "build request", target, start, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if c.verbose {
		c.logger.Debug("Fetching users", "url", target)
	}
	c.registry.emit(ctx, CloudEventTypeRequestStarted, map[string]any{"url": target}, nil)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(ctx, "send request", target, start, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		elapsed := time.Since(start)
		c.logger.Warn("User fetch returned non-success status", "url", target, "status", resp.StatusCode, "duration_ms", elapsed.Milliseconds())
		c.metrics.observe(OutcomeAbsent, elapsed)
		c.registry.emit(ctx, CloudEventTypeResponseRejected, map[string]any{
			"url":        target,
			"statusCode": resp.StatusCode,
			"durationMs": elapsed.Milliseconds(),
		}, nil)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(ctx, "read body", target, start, err)
	}

	elapsed := time.Since(start)
	if c.verbose {
		c.logger.Debug("Users fetched", "url", target, "status", resp.StatusCode, "bytes", len(body), "duration_ms", elapsed.Milliseconds())
	}
	c.metrics.observe(OutcomeSuccess, elapsed)
	c.registry.emit(ctx, CloudEventTypeResponseReceived, map[string]any{
		"url":         target,
		"statusCode":  resp.StatusCode,
		"contentType": resp.Header.Get("Content-Type"),
		"bytes":       len(body),
		"durationMs":  elapsed.Milliseconds(),
	}, nil)

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

func (c *Client) fail(ctx context.Context, op, target string, start time.Time, cause error) error {
	elapsed := time.Since(start)
	err := &TransportError{Op: op, URL: target, Cause: cause}
	c.logger.Error("User fetch failed", "url", target, "op", op, "error", cause, "duration_ms", elapsed.Milliseconds())
	c.metrics.observe(OutcomeTransportError, elapsed)
	c.registry.emit(ctx, CloudEventTypeRequestFailed, map[string]any{
		"url":   target,
		"op":    op,
		"error": cause.Error(),
	}, nil)
	return err
}
