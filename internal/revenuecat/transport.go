package revenuecat

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// NewHTTPClient returns a pooled *http.Client suitable for sharing across
// concurrent calls. A zero timeout leaves requests bounded only by their
// context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := cleanhttp.DefaultPooledTransport()
	transport.MaxIdleConns = 100
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
