package http

import (
	"context"
	lib "net/http"

	"go.bryk.io/jose-uri/errors"
)

// Client provides an HTTP client instance that's interface-compatible
// with the standard library.
type Client struct {
	mw []func(req *lib.Request)
	hc *lib.Client
}

// NewClient returns an HTTP client with the provided configuration options.
func NewClient(options ...ClientOption) (*Client, error) {
	c := &Client{
		hc: &lib.Client{
			Transport: lib.DefaultTransport,
		},
	}
	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Get issues a GET to the specified URL.
func (c *Client) Get(ctx context.Context, url string) (*lib.Response, error) {
	req, err := lib.NewRequestWithContext(ctx, lib.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// Do sends an HTTP request and returns an HTTP response, following
// policy (such as redirects, cookies, auth) as configured on the
// client.
func (c *Client) Do(req *lib.Request) (*lib.Response, error) {
	return c.do(req)
}

// CloseIdleConnections closes any connections on its Transport which
// were previously connected from previous requests but are now
// sitting idle in a "keep-alive" state. It does not interrupt any
// connections currently in use.
func (c *Client) CloseIdleConnections() {
	c.hc.CloseIdleConnections()
}

// apply interceptor(s) and execute request.
func (c *Client) do(req *lib.Request) (*lib.Response, error) {
	for _, ci := range c.mw {
		ci(req)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	return resp, nil
}
