package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardPassesAuthorization(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/member/workouts", r.URL.Path)
		assert.Equal(t, "week=2", r.URL.RawQuery)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"workouts":[]}`))
	}))
	defer upstream.Close()

	client, err := New(upstream.URL+"/", time.Second)
	require.NoError(t, err)

	resp, err := client.Forward(context.Background(), http.MethodGet, "/api/member/workouts?week=2", "Bearer abc", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"workouts":[]}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.ContentType)
}

func TestForwardPost(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"a":1}`, string(body))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	client, err := New(upstream.URL, time.Second)
	require.NoError(t, err)

	_, err = client.Forward(context.Background(), http.MethodPost, "/x", "", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
}

func TestForwardTimeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	client, err := New(upstream.URL, 50*time.Millisecond)
	require.NoError(t, err)

	_, err = client.Forward(context.Background(), http.MethodGet, "/slow", "", nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestForwardUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	client, err := New(upstream.URL, time.Second)
	require.NoError(t, err)

	_, err = client.Forward(context.Background(), http.MethodGet, "/x", "", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Status)

	upstream.Close()
	_, err = client.Forward(context.Background(), http.MethodGet, "/x", "", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestForwardRejectsForeignEndpoints(t *testing.T) {
	client, err := New("http://localhost:5001", time.Second)
	require.NoError(t, err)

	for _, endpoint := range []string{"", "api/x", "http://evil.com/x", "//evil.com/x", "/\\evil.com"} {
		_, err := client.Forward(context.Background(), http.MethodGet, endpoint, "", nil)
		assert.ErrorIs(t, err, ErrInvalidEndpoint, endpoint)
	}
}

func TestNewRejectsBadBase(t *testing.T) {
	_, err := New("localhost", time.Second)
	assert.Error(t, err)
}
