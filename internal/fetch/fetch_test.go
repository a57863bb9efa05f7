package fetch

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
)

type recordedRequest struct {
	resource string
	outcome  metrics.RequestOutcome
}

type fakeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeRecorder) ObserveRequestDuration(resource string, _ time.Duration, outcome metrics.RequestOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{resource, outcome})
}

func TestDoSuccessSetsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		require.Equal(t, "sitepress/test", r.Header.Get("User-Agent"))
		require.Equal(t, "yes", r.Header.Get("X-Probe"))
		w.Header().Set("X-WP-Total", "3")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	f := New(WithUserAgent("sitepress/test"), WithRecorder(rec))
	resp, err := f.Do(t.Context(), srv.URL, WithMethod(http.MethodHead), WithHeader("X-Probe", "yes"), WithLabel("posts"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, "3", resp.Header.Get("X-WP-Total"))
	require.NoError(t, CheckStatus(resp))
	require.Equal(t, []recordedRequest{{"posts", metrics.OutcomeSuccess}}, rec.requests)
}

func TestDoTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	rec := &fakeRecorder{}
	f := New(WithTimeout(50*time.Millisecond), WithRecorder(rec))

	start := time.Now()
	resp, err := f.Do(t.Context(), srv.URL)
	require.Nil(t, resp)
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
	require.True(t, errors.HasCategory(err, errors.CategoryTimeout), "got %v", err)
	require.True(t, errors.IsRetryable(err))
	require.Equal(t, metrics.OutcomeTimeout, rec.requests[0].outcome)
}

func TestDoNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New().Do(t.Context(), url)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork), "got %v", err)
}

func TestDoParentCancellationIsNotTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New().Do(ctx, srv.URL)
	require.Error(t, err)
	require.False(t, errors.HasCategory(err, errors.CategoryTimeout))
	require.True(t, stderrors.Is(err, context.Canceled))
}

func TestNonSuccessIsReturnedForInspection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "maintenance\nmode")
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	resp, err := New(WithRecorder(rec)).Do(t.Context(), srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, "120", resp.Header.Get("Retry-After"))
	statusErr := CheckStatus(resp)
	require.True(t, errors.HasCategory(statusErr, errors.CategoryHTTP))

	classified, ok := errors.AsClassified(statusErr)
	require.True(t, ok)
	status, _ := classified.Context().Get("status")
	require.Equal(t, http.StatusServiceUnavailable, status)
	body, _ := classified.Context().GetString("response")
	require.Equal(t, "maintenance mode", body)
	require.Equal(t, metrics.OutcomeHTTPError, rec.requests[0].outcome)
}

func TestCheckStatusNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	resp, err := New().Do(t.Context(), srv.URL+"/posts/99")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.True(t, errors.HasCategory(CheckStatus(resp), errors.CategoryNotFound))
}

func TestDecodeJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			_, _ = io.WriteString(w, "<html>not json</html>")
			return
		}
		_, _ = io.WriteString(w, `{"id": 7}`)
	}))
	defer srv.Close()

	f := New()
	resp, err := f.Do(t.Context(), srv.URL+"/good")
	require.NoError(t, err)
	var v struct{ ID int }
	require.NoError(t, DecodeJSON(resp, &v))
	require.Equal(t, 7, v.ID)

	resp, err = f.Do(t.Context(), srv.URL+"/bad")
	require.NoError(t, err)
	err = DecodeJSON(resp, &v)
	require.True(t, errors.HasCategory(err, errors.CategoryMalformed))
}

func TestDecodeJSONStalledBodyIsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "[")
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	resp, err := New(WithTimeout(100*time.Millisecond)).Do(t.Context(), srv.URL)
	require.NoError(t, err)

	var v []int
	err = DecodeJSON(resp, &v)
	require.True(t, errors.HasCategory(err, errors.CategoryTimeout), "got %v", err)
	require.False(t, errors.HasCategory(err, errors.CategoryMalformed))
	require.True(t, errors.IsRetryable(err))
}

func TestDecodeJSONBrokenConnectionIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "64")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `[{"id": 1},`)
		w.(http.Flusher).Flush()
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer srv.Close()

	resp, err := New().Do(t.Context(), srv.URL)
	require.NoError(t, err)

	var v []struct{ ID int }
	err = DecodeJSON(resp, &v)
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork), "got %v", err)
	require.False(t, errors.HasCategory(err, errors.CategoryMalformed))
}

func TestDecodeJSONTruncatedDocumentIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id": 1},`)
	}))
	defer srv.Close()

	resp, err := New().Do(t.Context(), srv.URL)
	require.NoError(t, err)

	var v []struct{ ID int }
	err = DecodeJSON(resp, &v)
	require.True(t, errors.HasCategory(err, errors.CategoryMalformed), "got %v", err)
}

func TestInvalidURL(t *testing.T) {
	_, err := New().Do(t.Context(), "://nope")
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestDefaults(t *testing.T) {
	require.Equal(t, DefaultTimeout, New().Timeout())
	require.Equal(t, DefaultTimeout, New(WithTimeout(0)).Timeout())
	require.Equal(t, time.Second, New(WithTimeout(time.Second)).Timeout())
}
