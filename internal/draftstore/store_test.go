package draftstore

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/propdraft/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := New(client, Options{DraftTTL: time.Hour, EnvelopeTTL: time.Minute}, slog.Default())
	return store, mr
}

func TestSaveAndLoadDraft(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	draft := &domain.PropertyDraft{
		ID:          "d1",
		OwnerID:     "owner1",
		CurrentStep: 2,
		PropertyData: domain.PropertyData{
			Name:         "Maple House",
			PropertyType: domain.PropertyTypeHouse,
			Bedrooms:     3,
			Bathrooms:    2.5,
		},
		Areas: []domain.PropertyArea{
			{ID: "a1", Name: "Kitchen", Selected: true, PhotoPaths: []string{"props/d1/a1/1.jpg"}},
		},
	}

	require.NoError(t, store.SaveDraft(ctx, draft))

	loaded, err := store.LoadDraft(ctx, "owner1", "d1")
	require.NoError(t, err)
	assert.Equal(t, "Maple House", loaded.PropertyData.Name)
	assert.Len(t, loaded.Areas, 1)
	assert.Equal(t, []string{"props/d1/a1/1.jpg"}, loaded.Areas[0].PhotoPaths)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestLoadDraftNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.LoadDraft(context.Background(), "owner1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveDraftOverwrites(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	draft := &domain.PropertyDraft{ID: "d1", OwnerID: "owner1", CurrentStep: 1}
	require.NoError(t, store.SaveDraft(ctx, draft))

	draft.CurrentStep = 2
	draft.Areas = []domain.PropertyArea{{ID: "a1", Name: "Garage"}}
	require.NoError(t, store.SaveDraft(ctx, draft))

	loaded, err := store.LoadDraft(ctx, "owner1", "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.CurrentStep)
	assert.Len(t, loaded.Areas, 1)
}

func TestCurrentPointerRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.CurrentPointer(ctx, "owner1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.SetCurrentPointer(ctx, "owner1", "d1", 2))

	ptr, err := store.CurrentPointer(ctx, "owner1")
	require.NoError(t, err)
	assert.Equal(t, "d1", ptr.DraftID)
	assert.Equal(t, 2, ptr.Step)

	require.NoError(t, store.ClearPointer(ctx, "owner1"))
	_, err = store.CurrentPointer(ctx, "owner1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDraftTTLApplied(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	draft := &domain.PropertyDraft{ID: "d1", OwnerID: "owner1"}
	require.NoError(t, store.SaveDraft(ctx, draft))

	mr.FastForward(2 * time.Hour)

	_, err := store.LoadDraft(ctx, "owner1", "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteDraft(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDraft(ctx, &domain.PropertyDraft{ID: "d1", OwnerID: "owner1"}))
	require.NoError(t, store.DeleteDraft(ctx, "owner1", "d1"))

	_, err := store.LoadDraft(ctx, "owner1", "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, store.DeleteDraft(ctx, "owner1", "d1"))
}

func TestGetJSONPersistenceError(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("draft:owner1:bad", "{not json"))

	_, err := store.LoadDraft(ctx, "owner1", "bad")
	var perr *domain.PersistenceError
	assert.True(t, errors.As(err, &perr))
}
