package revenuecat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/specialistvlad/rcctl/internal/ctxlog"
)

// DefaultBaseURL is the versioned API root every path is resolved against.
const DefaultBaseURL = "https://api.revenuecat.com/v2"

const defaultUserAgent = "rcctl"

// maxErrorBody caps how much of a failed response is read for logging.
const maxErrorBody = 4 << 10

// Client calls the RevenueCat V2 API on behalf of one project.
// It is safe for concurrent use.
type Client struct {
	apiKey     string
	projectID  string
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the pooled default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every exchange, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = NewHTTPClient(d)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New returns a client for projectID. Both arguments are stored verbatim;
// credentials are only checked by the server on the first call.
func New(apiKey, projectID string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		projectID:  projectID,
		baseURL:    DefaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: NewHTTPClient(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// ProjectID returns the project the client is scoped to.
func (c *Client) ProjectID() string {
	return c.projectID
}

// projectPath joins escaped segments under /projects/{projectID}.
func (c *Client) projectPath(segments ...string) string {
	var b strings.Builder
	b.WriteString("/projects/")
	b.WriteString(escapeSegment(c.projectID))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(s)
	}
	return b.String()
}

// do performs one exchange. op names the operation in transport and decode
// failures, e.g. "fetch customer data".
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	logger := ctxlog.FromContext(ctx).With("method", method, "path", path)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return wrapError(op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return wrapError(op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	logger.Debug("Sending API request.")
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapError(op, err)
	}
	defer resp.Body.Close()
	logger.Debug("Received API response.", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.Debug("API request rejected.", "status", resp.StatusCode, "body", string(detail))
		return statusError(resp.StatusCode, statusText(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrapError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// statusText extracts the reason phrase from resp.Status ("404 Not Found").
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// escapeSegment percent-encodes s for use as a single path segment. Only
// unreserved characters and !*'() are left as is.
func escapeSegment(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isUnescaped(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[ch>>4])
		b.WriteByte(hex[ch&0x0F])
	}
	return b.String()
}

func isUnescaped(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	switch ch {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
