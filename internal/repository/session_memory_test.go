package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meetpoint/service-pickup/internal/domain/pickup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryTestSession(t *testing.T) *pickup.ResolutionSession {
	t.Helper()
	session, err := pickup.NewResolutionSession(
		pickup.GeoPoint{Lat: 37.80, Lng: -122.41},
		pickup.GeoPoint{Lat: 37.78, Lng: -122.40},
		pickup.SourcePoi,
	)
	require.NoError(t, err)
	return session
}

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	repo := NewMemorySessionRepository(time.Minute)
	defer repo.Close()

	session := newMemoryTestSession(t)
	require.NoError(t, repo.Save(context.Background(), session))

	found, err := repo.FindByID(context.Background(), session.ID())
	require.NoError(t, err)
	assert.Equal(t, session.ID(), found.ID())
	assert.Equal(t, pickup.SourcePoi, found.Strategy())
	assert.True(t, found.Driver().AlmostEqual(session.Driver()))
	assert.Nil(t, found.LastResult())
}

func TestMemoryRepository_FindUnknown(t *testing.T) {
	repo := NewMemorySessionRepository(time.Minute)
	defer repo.Close()

	_, err := repo.FindByID(context.Background(), uuid.New())
	resErr, ok := pickup.AsResolutionError(err)
	require.True(t, ok)
	assert.Equal(t, pickup.KindSessionNotFound, resErr.Kind)
}

func TestMemoryRepository_Update(t *testing.T) {
	repo := NewMemorySessionRepository(time.Minute)
	defer repo.Close()

	session := newMemoryTestSession(t)
	require.NoError(t, repo.Save(context.Background(), session))

	result := pickup.NewScoredCandidate(
		pickup.Candidate{Location: pickup.GeoPoint{Lat: 37.79, Lng: -122.405}, Source: pickup.SourcePoi},
		pickup.Route{DurationMin: 5},
		pickup.Route{DurationMin: 8},
	)
	session.RecordRefinement(result)
	session.IncrementVersion()
	require.NoError(t, repo.Update(context.Background(), session))

	found, err := repo.FindByID(context.Background(), session.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, found.Refinements())
	assert.Equal(t, int64(2), found.Version())
	require.NotNil(t, found.LastResult())
	assert.Equal(t, 8.0, found.LastResult().Score)
}

func TestMemoryRepository_UpdateVersionConflict(t *testing.T) {
	repo := NewMemorySessionRepository(time.Minute)
	defer repo.Close()

	session := newMemoryTestSession(t)
	require.NoError(t, repo.Save(context.Background(), session))

	// Two increments without an intervening Update leave the stored version
	// two behind, which the optimistic check must reject.
	session.IncrementVersion()
	session.IncrementVersion()
	err := repo.Update(context.Background(), session)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestMemoryRepository_TTLExpiry(t *testing.T) {
	repo := NewMemorySessionRepository(10 * time.Millisecond)
	defer repo.Close()

	session := newMemoryTestSession(t)
	require.NoError(t, repo.Save(context.Background(), session))

	time.Sleep(20 * time.Millisecond)

	_, err := repo.FindByID(context.Background(), session.ID())
	resErr, ok := pickup.AsResolutionError(err)
	require.True(t, ok)
	assert.Equal(t, pickup.KindSessionNotFound, resErr.Kind)
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemorySessionRepository(time.Minute)
	defer repo.Close()

	session := newMemoryTestSession(t)
	require.NoError(t, repo.Save(context.Background(), session))
	require.NoError(t, repo.Delete(context.Background(), session.ID()))

	_, err := repo.FindByID(context.Background(), session.ID())
	assert.Error(t, err)
}
