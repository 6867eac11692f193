package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sanos-dev/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentClientRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/run", r.URL.Path)

		var req AgentRunRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "fix it", req.Input)
		assert.Equal(t, "gho_token", req.GitHubToken)
		assert.Equal(t, "test-model", req.Model)

		_ = json.NewEncoder(w).Encode(AgentResult{Success: true, AgentOutput: "ROOT_CAUSE: x"})
	}))
	defer srv.Close()

	c := NewAgentClient(config.AgentConfig{BaseURL: srv.URL, Model: "test-model"})
	res, err := c.Run(context.Background(), "gho_token", "fix it")
	require.NoError(t, err)
	assert.Equal(t, "ROOT_CAUSE: x", res.AgentOutput)
	assert.Equal(t, "test-model", c.Model())
}

func TestAgentClientRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream down", http.StatusBadGateway)
			},
			want: "agent returned status: 502",
		},
		{
			name: "reported failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(AgentResult{Success: false, Error: "tool error"})
			},
			want: "tool error",
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			want: "failed to parse response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewAgentClient(config.AgentConfig{BaseURL: srv.URL})
			_, err := c.Run(context.Background(), "tok", "task")
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestAgentClientRunTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewAgentClient(config.AgentConfig{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Run(ctx, "tok", "task")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTruncateKeepsRunes(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 200))
	assert.Equal(t, "abc", truncate("abcdef", 3))

	got := truncate("배포 실패: 모듈을 찾을 수 없음", 4)
	assert.Equal(t, "배포 실", got)
	assert.True(t, utf8.ValidString(got))
}

func TestAgentClientRunErrorBodyStaysValidUTF8(t *testing.T) {
	body := strings.Repeat("에러", 150)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := NewAgentClient(config.AgentConfig{BaseURL: srv.URL}).Run(context.Background(), "gho_tok", "task")
	require.Error(t, err)
	assert.True(t, utf8.ValidString(err.Error()))
	assert.Contains(t, err.Error(), "agent returned status: 502: "+strings.Repeat("에러", 100))
	assert.NotContains(t, err.Error(), strings.Repeat("에러", 101))
}
