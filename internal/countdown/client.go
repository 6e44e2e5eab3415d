package countdown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/good-yellow-bee/countdown/internal/models"
)

// ErrNoTimers is returned by Load when the shop has no current timer.
var ErrNoTimers = errors.New("no current timers")

// FetchError reports a transport failure or a non-2xx response.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch timers: %v", e.Err)
	}
	return fmt.Sprintf("fetch timers: unexpected status %d", e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a payload without the expected shape.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed timers response: " + e.Reason
}

// DefaultPath is the storefront endpoint path.
const DefaultPath = "/api/timers"

// Client fetches current timers from the public endpoint. It imposes no
// timeout of its own; the caller's context bounds each request.
type Client struct {
	baseURL    string
	path       string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPath replaces DefaultPath, e.g. with the app-proxy path.
func WithPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.path = path
		}
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		path:       DefaultPath,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type timersResponse struct {
	Timers *[]models.PublicTimer `json:"timers"`
}

// Fetch returns the current timers of shop in server order.
func (c *Client) Fetch(ctx context.Context, shop string) ([]models.PublicTimer, error) {
	u := c.baseURL + c.path + "?" + url.Values{"shop": {shop}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	var body timersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &MalformedResponseError{Reason: err.Error()}
	}
	if body.Timers == nil {
		return nil, &MalformedResponseError{Reason: `missing "timers"`}
	}
	return *body.Timers, nil
}

// Load fetches the shop's current timers and prepares a widget for the
// first one. Any error means the widget stays hidden for good.
func Load(ctx context.Context, client *Client, shop string, opts ...WidgetOption) (*Widget, error) {
	timers, err := client.Fetch(ctx, shop)
	if err != nil {
		return nil, err
	}
	if len(timers) == 0 {
		return nil, ErrNoTimers
	}
	return NewWidget(timers[0], opts...)
}
