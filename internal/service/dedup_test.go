package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sanos-dev/backend/internal/db/dbtest"
	"github.com/sanos-dev/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldAdmit(t *testing.T) {
	ctx := context.Background()
	store := dbtest.New()
	target := seedTarget(store, "tok")
	f := NewDedupFilter(store)

	admit, existing, err := f.ShouldAdmit(ctx, target.ID, "server", "boom", 0)
	require.NoError(t, err)
	assert.True(t, admit)
	assert.Nil(t, existing)

	inc, created, err := store.CreateIncident(ctx, model.Incident{TargetID: target.ID, Source: "server", ErrorMessage: "boom"})
	require.NoError(t, err)
	require.True(t, created)

	admit, existing, err = f.ShouldAdmit(ctx, target.ID, "server", "boom", 0)
	require.NoError(t, err)
	assert.False(t, admit)
	require.NotNil(t, existing)
	assert.Equal(t, inc.ID, existing.ID)

	t.Run("excluded incident does not block itself", func(t *testing.T) {
		admit, _, err := f.ShouldAdmit(ctx, target.ID, "server", "boom", inc.ID)
		require.NoError(t, err)
		assert.True(t, admit)
	})

	t.Run("exact match only", func(t *testing.T) {
		for _, tc := range []struct{ source, msg string }{
			{"server", "boom "},
			{"server", "Boom"},
			{"client", "boom"},
		} {
			admit, _, err := f.ShouldAdmit(ctx, target.ID, tc.source, tc.msg, 0)
			require.NoError(t, err)
			assert.True(t, admit, "%q/%q", tc.source, tc.msg)
		}
	})

	t.Run("every non-terminal status blocks", func(t *testing.T) {
		for _, status := range model.ActiveIncidentStatuses {
			store.SetIncidentStatus(inc.ID, status)
			admit, _, err := f.ShouldAdmit(ctx, target.ID, "server", "boom", 0)
			require.NoError(t, err)
			assert.False(t, admit, status)
		}
	})

	t.Run("resolved does not block", func(t *testing.T) {
		store.SetIncidentStatus(inc.ID, model.IncidentResolved)
		admit, _, err := f.ShouldAdmit(ctx, target.ID, "server", "boom", 0)
		require.NoError(t, err)
		assert.True(t, admit)
	})

	t.Run("store error", func(t *testing.T) {
		store.FindActiveErr = errors.New("db down")
		defer func() { store.FindActiveErr = nil }()
		_, _, err := f.ShouldAdmit(ctx, target.ID, "server", "boom", 0)
		require.Error(t, err)
	})
}
