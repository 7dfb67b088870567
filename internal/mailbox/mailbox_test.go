package mailbox

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/propdraft/internal/domain"
	"github.com/vbonduro/propdraft/internal/draftstore"
)

func newTestMailbox(t *testing.T) *Mailbox {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	kv := draftstore.New(client, draftstore.Options{EnvelopeTTL: time.Minute}, slog.Default())
	return New(kv, kv.EnvelopeTTL(), slog.Default())
}

func testAreas() []domain.PropertyArea {
	return []domain.PropertyArea{
		{ID: "a1", Name: "Kitchen", Selected: true},
		{ID: "a2", Name: "Garage", Selected: true},
	}
}

func TestDepositAndCollect(t *testing.T) {
	mb := newTestMailbox(t)
	ctx := context.Background()

	asset := domain.InventoryItem{ID: "i1", Name: "Dishwasher", Brand: "Bosch"}
	require.NoError(t, mb.Deposit(ctx, "d1", "a1", asset))

	env, err := mb.Collect(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "a1", env.AreaID)
	assert.Equal(t, "Dishwasher", env.Asset.Name)
}

func TestCollectEmpty(t *testing.T) {
	mb := newTestMailbox(t)

	_, err := mb.Collect(context.Background(), "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollectIntoMergesOnce(t *testing.T) {
	mb := newTestMailbox(t)
	ctx := context.Background()

	asset := domain.InventoryItem{ID: "i1", Name: "Fridge"}
	require.NoError(t, mb.Deposit(ctx, "d1", "a1", asset))

	// Mount-time collect merges the asset and discards the envelope.
	areas, applied, err := mb.CollectInto(ctx, "d1", testAreas())
	require.NoError(t, err)
	assert.True(t, applied)
	require.Len(t, areas[0].Assets, 1)
	assert.Equal(t, "a1", areas[0].Assets[0].AreaID)

	// Focus-time collect finds nothing.
	areas, applied, err = mb.CollectInto(ctx, "d1", areas)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Len(t, areas[0].Assets, 1)
}

func TestCollectTwiceIsIdempotent(t *testing.T) {
	// Covers the focus event firing before the first collection's state
	// update lands: the envelope is still present on the second collect, but
	// the asset is already in the area list.
	mb := newTestMailbox(t)
	ctx := context.Background()

	asset := domain.InventoryItem{ID: "i1", Name: "Fridge"}
	require.NoError(t, mb.Deposit(ctx, "d1", "a1", asset))

	env1, err := mb.Collect(ctx, "d1")
	require.NoError(t, err)
	env2, err := mb.Collect(ctx, "d1")
	require.NoError(t, err)

	// Apply in both orders: mount-then-focus and focus-then-mount.
	for _, order := range [][]*domain.PendingAssetEnvelope{{env1, env2}, {env2, env1}} {
		areas := testAreas()
		var appliedCount int
		for _, env := range order {
			var applied bool
			areas, applied = MergeInto(areas, env)
			if applied {
				appliedCount++
			}
		}
		assert.Equal(t, 1, appliedCount)
		assert.Len(t, areas[0].Assets, 1)
	}
}

func TestMergeIntoUnknownArea(t *testing.T) {
	env := &domain.PendingAssetEnvelope{AreaID: "ghost", Asset: domain.InventoryItem{ID: "i1"}}

	areas, applied := MergeInto(testAreas(), env)
	assert.False(t, applied)
	for _, a := range areas {
		assert.Empty(t, a.Assets)
	}
}

func TestParamsBagTakeOnce(t *testing.T) {
	mb := newTestMailbox(t)
	ctx := context.Background()

	require.NoError(t, mb.PutParams(ctx, "a1", map[string]string{"areaName": "Kitchen"}))

	params, err := mb.TakeParams(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", params["areaName"])

	_, err = mb.TakeParams(ctx, "a1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
