// Package fetch wraps a single HTTP request with a hard deadline.
//
// The CMS is an untrusted, possibly slow dependency, so every request carries
// its own timer. The timer is released when the call fails or when the caller
// closes the response body. There are no retries.
package fetch

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
)

// DefaultTimeout applies when no WithTimeout option is given.
const DefaultTimeout = 10 * time.Second

// Fetcher issues single-attempt HTTP requests under a per-request deadline.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	recorder  metrics.Recorder
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request deadline. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client (tests use httptest clients).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(f *Fetcher) {
		if r != nil {
			f.recorder = r
		}
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{},
		timeout:  DefaultTimeout,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Timeout returns the configured per-request deadline.
func (f *Fetcher) Timeout() time.Duration {
	return f.timeout
}

type request struct {
	method string
	header http.Header
	label  string
}

// RequestOption customizes a single request.
type RequestOption func(*request)

// WithMethod overrides the default GET.
func WithMethod(method string) RequestOption {
	return func(r *request) { r.method = method }
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *request) { r.header.Set(key, value) }
}

// WithLabel names the resource for metrics (e.g. "posts").
func WithLabel(label string) RequestOption {
	return func(r *request) { r.label = label }
}

// Do issues the request and returns the raw response. Non-2xx responses are
// returned as-is so callers can inspect headers; use CheckStatus to turn them
// into errors. The caller must close the response body, which also releases
// the request timer.
func (f *Fetcher) Do(ctx context.Context, rawURL string, opts ...RequestOption) (*http.Response, error) {
	r := &request{method: http.MethodGet, header: make(http.Header), label: "other"}
	for _, opt := range opts {
		opt(r)
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	req, err := http.NewRequestWithContext(reqCtx, r.method, rawURL, http.NoBody)
	if err != nil {
		cancel()
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to create request").
			WithContext("method", r.method).
			WithContext("url", rawURL).
			Build()
	}
	req.Header = r.header
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		deadlineHit := stderrors.Is(reqCtx.Err(), context.DeadlineExceeded)
		cancel()
		if deadlineHit || isTimeout(err) {
			f.recorder.ObserveRequestDuration(r.label, elapsed, metrics.OutcomeTimeout)
			return nil, errors.TimeoutError("request timed out").
				WithCause(err).
				WithContext("url", rawURL).
				WithContext("timeout", f.timeout.String()).
				Build()
		}
		f.recorder.ObserveRequestDuration(r.label, elapsed, metrics.OutcomeNetwork)
		return nil, errors.NetworkError("request failed").
			WithCause(err).
			WithContext("method", r.method).
			WithContext("url", rawURL).
			Build()
	}

	outcome := metrics.OutcomeSuccess
	if !isSuccess(resp.StatusCode) {
		outcome = metrics.OutcomeHTTPError
	}
	f.recorder.ObserveRequestDuration(r.label, elapsed, outcome)

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// CheckStatus returns an HTTP-category error when resp is not 2xx.
func CheckStatus(resp *http.Response) error {
	if isSuccess(resp.StatusCode) {
		return nil
	}
	limited, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	body := strings.ReplaceAll(strings.TrimSpace(string(limited)), "\n", " ")

	b := errors.HTTPError(fmt.Sprintf("unexpected status %s", resp.Status))
	if resp.StatusCode == http.StatusNotFound {
		b = errors.NewError(errors.CategoryNotFound, "resource not found")
	}
	b = b.WithContext("status", resp.StatusCode).
		WithContext("response", body)
	if resp.Request != nil && resp.Request.URL != nil {
		b = b.WithContext("url", resp.Request.URL.String())
	}
	return b.Build()
}

// DecodeJSON decodes resp's body into v and closes it. A body that does not
// parse is Malformed; a read that fails because the deadline fired or the
// connection broke is Timeout or Network, like a failure in Do.
func DecodeJSON(resp *http.Response, v any) error {
	defer func() { _ = resp.Body.Close() }()
	body := &readTracker{r: resp.Body}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var b *errors.ErrorBuilder
		switch {
		case body.err != nil && (deadlineHit(resp) || isTimeout(body.err)):
			b = errors.TimeoutError("response body timed out").WithCause(body.err)
		case body.err != nil:
			b = errors.NetworkError("failed to read response").WithCause(body.err)
		default:
			b = errors.MalformedError("failed to decode response").WithCause(err)
		}
		if resp.Request != nil && resp.Request.URL != nil {
			b = b.WithContext("url", resp.Request.URL.String())
		}
		return b.Build()
	}
	return nil
}

// readTracker remembers the first read failure other than io.EOF so decode
// errors can be told apart from transport errors.
type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

func isSuccess(code int) bool {
	return code >= 200 && code <= 299
}

func deadlineHit(resp *http.Response) bool {
	return resp.Request != nil && stderrors.Is(resp.Request.Context().Err(), context.DeadlineExceeded)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// cancelOnClose releases the request deadline once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
