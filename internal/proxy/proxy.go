// Package proxy forwards dashboard data requests to the upstream API with a
// hard deadline, so a slow backend degrades to a 503 instead of a hung page.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidEndpoint = errors.New("endpoint must be an absolute path")
	ErrTimeout         = errors.New("upstream request timed out")
	ErrUnavailable     = errors.New("upstream unavailable")
)

const maxBodyBytes = 4 << 20

// StatusError reports a non-2xx upstream answer.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrUnavailable
}

type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("parse upstream base url %q: invalid", baseURL)
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		base:    base,
		http:    &http.Client{},
		timeout: timeout,
	}, nil
}

// Forward sends method to endpoint on the upstream, passing authorization
// through. The response body is bounded in size.
func (c *Client) Forward(ctx context.Context, method, endpoint, authorization string, body io.Reader) (Response, error) {
	target, err := c.resolve(endpoint)
	if err != nil {
		return Response{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, classify(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, classify(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &StatusError{Status: resp.StatusCode}
	}

	return Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// resolve keeps requests on the configured upstream host.
func (c *Client) resolve(endpoint string) (string, error) {
	if !strings.HasPrefix(endpoint, "/") || strings.HasPrefix(endpoint, "//") || strings.Contains(endpoint, "\\") {
		return "", ErrInvalidEndpoint
	}
	ref, err := url.Parse(endpoint)
	if err != nil || ref.Scheme != "" || ref.Host != "" {
		return "", ErrInvalidEndpoint
	}
	return c.base.String() + ref.String(), nil
}

func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
