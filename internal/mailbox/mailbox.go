// Package mailbox is the one-shot handoff between the add-asset screen and
// its parent. The two screens are independently lifecycled (a web reload
// rebuilds the parent from scratch and drops in-memory callbacks), so the
// result travels through the key-value store instead of navigation.
package mailbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vbonduro/propdraft/internal/domain"
	"github.com/vbonduro/propdraft/internal/draftstore"
)

// KV is the subset of draftstore.Store the mailbox requires.
type KV interface {
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}

type Mailbox struct {
	kv     KV
	ttl    time.Duration
	logger *slog.Logger
}

func New(kv KV, ttl time.Duration, logger *slog.Logger) *Mailbox {
	return &Mailbox{kv: kv, ttl: ttl, logger: logger}
}

// Deposit stores the envelope for the draft, replacing any undelivered one.
// Called by the producer immediately before handing control back.
func (m *Mailbox) Deposit(ctx context.Context, draftID, areaID string, asset domain.InventoryItem) error {
	env := domain.PendingAssetEnvelope{AreaID: areaID, Asset: asset}
	return m.kv.SetJSON(ctx, draftstore.PendingAssetKey(draftID), &env, m.ttl)
}

// Collect returns the pending envelope for the draft, or domain.ErrNotFound
// when the mailbox is empty. The envelope stays stored until Discard; callers
// run Collect on mount and again on every focus event.
func (m *Mailbox) Collect(ctx context.Context, draftID string) (*domain.PendingAssetEnvelope, error) {
	var env domain.PendingAssetEnvelope
	if err := m.kv.GetJSON(ctx, draftstore.PendingAssetKey(draftID), &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Discard deletes the envelope after a merge or after it was recognized as
// already applied.
func (m *Mailbox) Discard(ctx context.Context, draftID string) error {
	return m.kv.Delete(ctx, draftstore.PendingAssetKey(draftID))
}

// CollectInto collects, merges idempotently into areas, and discards the
// envelope. It returns the (possibly updated) area list and whether a new
// asset was actually added. An empty mailbox is not an error.
func (m *Mailbox) CollectInto(ctx context.Context, draftID string, areas []domain.PropertyArea) ([]domain.PropertyArea, bool, error) {
	env, err := m.Collect(ctx, draftID)
	if errors.Is(err, domain.ErrNotFound) {
		return areas, false, nil
	}
	if err != nil {
		return areas, false, err
	}

	merged, applied := MergeInto(areas, env)
	if !applied {
		m.logger.Debug("pending asset already applied", "draft_id", draftID, "asset_id", env.Asset.ID)
	}
	if err := m.Discard(ctx, draftID); err != nil {
		// The merge already happened in memory; a failed delete only risks a
		// redundant future collect, which MergeInto absorbs.
		m.logger.Error("failed to discard envelope", "draft_id", draftID, "error", err)
	}
	return merged, applied, nil
}

// MergeInto applies the envelope to the area list. The merge is idempotent:
// if an asset with the same id already exists under the envelope's area, or
// the area does not exist, nothing changes and applied is false.
func MergeInto(areas []domain.PropertyArea, env *domain.PendingAssetEnvelope) (result []domain.PropertyArea, applied bool) {
	for i := range areas {
		if areas[i].ID != env.AreaID {
			continue
		}
		for _, a := range areas[i].Assets {
			if a.ID == env.Asset.ID {
				return areas, false
			}
		}
		asset := env.Asset
		asset.AreaID = env.AreaID
		areas[i].Assets = append(areas[i].Assets, asset)
		return areas, true
	}
	return areas, false
}

// PutParams stores the cross-navigation input bag for the add-asset screen.
// Same family of problem as the mailbox, but for inputs rather than outputs.
func (m *Mailbox) PutParams(ctx context.Context, areaID string, params map[string]string) error {
	return m.kv.SetJSON(ctx, draftstore.AddAssetParamsKey(areaID), params, m.ttl)
}

// TakeParams returns and deletes the input bag for the area, or
// domain.ErrNotFound.
func (m *Mailbox) TakeParams(ctx context.Context, areaID string) (map[string]string, error) {
	var params map[string]string
	if err := m.kv.GetJSON(ctx, draftstore.AddAssetParamsKey(areaID), &params); err != nil {
		return nil, err
	}
	if err := m.kv.Delete(ctx, draftstore.AddAssetParamsKey(areaID)); err != nil {
		m.logger.Error("failed to delete params bag", "area_id", areaID, "error", err)
	}
	return params, nil
}
