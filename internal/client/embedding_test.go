package client

import (
	"context"
	"testing"

	"github.com/sanos-dev/backend/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingClientRequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingClient(context.Background(), config.EmbeddingConfig{Model: "text-embedding-004"})
	require.ErrorContains(t, err, "AI_API_KEY")
}
