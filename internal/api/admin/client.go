package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/oshokin/bbug/internal/config"
	"github.com/oshokin/bbug/internal/version"
)

// Header names understood by the admin API.
const (
	HeaderAppID     = "App-Id"
	HeaderAuthToken = "Auth-Token"
)

const (
	loginPath         = "/api/v1/login"
	adminPathPrefix   = "/api/v1/admin/"
	configurationPath = "/configuration"

	// lastSuccessStatus is the upper bound of accepted statuses, inclusive.
	lastSuccessStatus = 300
)

var (
	// ErrTokenMissing is returned when a successful login carries no token.
	ErrTokenMissing = errors.New("login response carries no auth token")
	// errNotAuthenticated is returned when a call needs a token that is not set.
	errNotAuthenticated = errors.New("configuration has no auth token")
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
)

// StatusError is returned for responses outside the accepted status range.
type StatusError struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Status is the HTTP status line.
	Status string
	// Body is the raw response body.
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return "unexpected http status: " + e.Status
}

// ResponseBody returns the raw body so callers can surface the remote message.
func (e *StatusError) ResponseBody() string {
	return e.Body
}

// Client talks to the platform admin API.
type Client struct {
	// httpClient performs the requests. No timeout is set by default.
	httpClient *http.Client
	// userAgent tags every request.
	userAgent string
}

// Option configures client behaviour.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates an admin API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: http.DefaultClient,
		userAgent:  version.UserAgent(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// appURL addresses the module on the admin API.
func appURL(cfg *config.Configuration) string {
	return cfg.BaseURL() + adminPathPrefix +
		url.PathEscape(cfg.CompanyID) + "/apps/" + url.PathEscape(cfg.ModuleName())
}

// newRequest builds a request carrying the platform headers.
func (c *Client) newRequest(
	ctx context.Context,
	method, target string,
	body io.Reader,
	cfg *config.Configuration,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set(HeaderAppID, cfg.AppID)
	req.Header.Set("User-Agent", c.userAgent)

	if cfg.AuthToken != "" {
		req.Header.Set(HeaderAuthToken, cfg.AuthToken)
	}

	return req, nil
}

// do sends the request and returns the response with its body read.
func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return response, nil, fmt.Errorf("read response: %w", err)
	}

	if !isSuccess(response.StatusCode) {
		return response, body, &StatusError{
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Body:       string(body),
		}
	}

	return response, body, nil
}

// isSuccess accepts 200 through 300 inclusive.
func isSuccess(code int) bool {
	return code >= http.StatusOK && code <= lastSuccessStatus
}
