package http

import (
	lib "net/http"
	"time"
)

// ClientOption allows adjusting client settings following a functional pattern.
type ClientOption func(c *Client) error

// WithRoundTripper adjust the transport used by the client instance.
func WithRoundTripper(rt lib.RoundTripper) ClientOption {
	return func(c *Client) error {
		c.hc.Transport = rt
		return nil
	}
}

// WithTimeout specifies a time limit for requests made by this
// Client. The timeout includes connection time, any redirects,
// and reading the response body. The timer remains running after
// Get or Do return and will interrupt reading of the Response.Body.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		c.hc.Timeout = timeout
		return nil
	}
}

// WithInterceptors allows to transform/adjust every outbound Request
// before being executed by the client.
func WithInterceptors(ci ...func(req *lib.Request)) ClientOption {
	return func(c *Client) error {
		c.mw = append(c.mw, ci...)
		return nil
	}
}
