package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sanos-dev/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVercelClient(url string) *VercelClient {
	c := NewVercelClient(config.VercelConfig{Token: "vtok", APIURL: url})
	c.retryInterval = time.Millisecond
	return c
}

func TestFetchBuildLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/deployments/dpl_1/events", r.URL.Path)
		assert.Equal(t, "Bearer vtok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"type":"command","text":"npm run build"},
			{"type":"stdout","payload":{"text":"compiling"}},
			{"type":"stderr","payload":{"text":"Type error: x is undefined"}},
			{"type":"delimiter"}
		]`))
	}))
	defer srv.Close()

	logs, err := newTestVercelClient(srv.URL).FetchBuildLogs(context.Background(), "dpl_1")
	require.NoError(t, err)
	assert.Equal(t, "npm run build\ncompiling\nType error: x is undefined", logs)
}

func TestFetchBuildLogsKeepsLastLines(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 250; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"type":"stdout","payload":{"text":"line %d"}}`, i)
	}
	b.WriteString("]")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(b.String()))
	}))
	defer srv.Close()

	logs, err := newTestVercelClient(srv.URL).FetchBuildLogs(context.Background(), "dpl_1")
	require.NoError(t, err)

	lines := strings.Split(logs, "\n")
	require.Len(t, lines, maxBuildLogLines)
	assert.Equal(t, "line 50", lines[0])
	assert.Equal(t, "line 249", lines[len(lines)-1])
}

func TestFetchBuildLogsRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"type":"stdout","payload":{"text":"ok"}}]`))
	}))
	defer srv.Close()

	logs, err := newTestVercelClient(srv.URL).FetchBuildLogs(context.Background(), "dpl_1")
	require.NoError(t, err)
	assert.Equal(t, "ok", logs)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchBuildLogsDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestVercelClient(srv.URL).FetchBuildLogs(context.Background(), "dpl_1")
	require.ErrorContains(t, err, "vercel returned status: 403")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchBuildLogsWithoutToken(t *testing.T) {
	c := NewVercelClient(config.VercelConfig{APIURL: "http://127.0.0.1"})
	assert.False(t, c.IsConfigured())
	_, err := c.FetchBuildLogs(context.Background(), "dpl_1")
	require.Error(t, err)
}

func TestFetchBuildLogsStopsRetryingWhenContextDone(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestVercelClient(srv.URL)
	c.retryInterval = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.FetchBuildLogs(ctx, "dpl_1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
