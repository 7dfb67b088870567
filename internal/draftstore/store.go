// Package draftstore persists draft snapshots and the per-owner current-draft
// pointer in Redis. Snapshots are whole-record JSON writes with
// last-write-wins semantics; there is no field-level update.
package draftstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vbonduro/propdraft/internal/domain"
)

// Key layout. The pointer lives under the owner's "current" slot so a screen
// rebuilt from scratch can find its draft without navigation parameters.
const (
	draftKeyPrefix          = "draft:"          // draft:{owner_id}:{draft_id} -> PropertyDraft JSON
	pointerKeySuffix        = ":current"        // draft:{owner_id}:current   -> DraftPointer JSON
	pendingAssetKeyPrefix   = "pendingAsset:"   // pendingAsset:{draft_id}    -> PendingAssetEnvelope JSON
	addAssetParamsKeyPrefix = "addAssetParams:" // addAssetParams:{area_id}   -> params JSON
)

// Options control retention. Zero TTLs disable expiry; there is no other
// garbage collection for abandoned drafts.
type Options struct {
	DraftTTL    time.Duration
	EnvelopeTTL time.Duration
}

type Store struct {
	client *redis.Client
	opts   Options
	logger *slog.Logger
}

func New(client *redis.Client, opts Options, logger *slog.Logger) *Store {
	return &Store{client: client, opts: opts, logger: logger}
}

func draftKey(ownerID, draftID string) string {
	return draftKeyPrefix + ownerID + ":" + draftID
}

func pointerKey(ownerID string) string {
	return draftKeyPrefix + ownerID + pointerKeySuffix
}

// PendingAssetKey returns the mailbox key for a draft.
func PendingAssetKey(draftID string) string {
	return pendingAssetKeyPrefix + draftID
}

// AddAssetParamsKey returns the params-bag key for an area.
func AddAssetParamsKey(areaID string) string {
	return addAssetParamsKeyPrefix + areaID
}

// LoadDraft returns the stored snapshot, or domain.ErrNotFound.
func (s *Store) LoadDraft(ctx context.Context, ownerID, draftID string) (*domain.PropertyDraft, error) {
	var draft domain.PropertyDraft
	if err := s.GetJSON(ctx, draftKey(ownerID, draftID), &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// SaveDraft overwrites the full snapshot for the draft.
func (s *Store) SaveDraft(ctx context.Context, draft *domain.PropertyDraft) error {
	draft.UpdatedAt = time.Now()
	return s.SetJSON(ctx, draftKey(draft.OwnerID, draft.ID), draft, s.opts.DraftTTL)
}

// DeleteDraft removes the snapshot, e.g. after a successful publish.
func (s *Store) DeleteDraft(ctx context.Context, ownerID, draftID string) error {
	return s.Delete(ctx, draftKey(ownerID, draftID))
}

// SetCurrentPointer records which draft the owner should resume and at what
// step. The pointer shares the draft TTL so it cannot outlive its draft by
// much.
func (s *Store) SetCurrentPointer(ctx context.Context, ownerID, draftID string, step int) error {
	ptr := domain.DraftPointer{DraftID: draftID, Step: step}
	return s.SetJSON(ctx, pointerKey(ownerID), &ptr, s.opts.DraftTTL)
}

// CurrentPointer returns the owner's resume pointer, or domain.ErrNotFound.
func (s *Store) CurrentPointer(ctx context.Context, ownerID string) (*domain.DraftPointer, error) {
	var ptr domain.DraftPointer
	if err := s.GetJSON(ctx, pointerKey(ownerID), &ptr); err != nil {
		return nil, err
	}
	return &ptr, nil
}

// ClearPointer removes the owner's resume pointer.
func (s *Store) ClearPointer(ctx context.Context, ownerID string) error {
	return s.Delete(ctx, pointerKey(ownerID))
}

// EnvelopeTTL exposes the configured mailbox retention for callers building
// on the raw KV primitive.
func (s *Store) EnvelopeTTL() time.Duration { return s.opts.EnvelopeTTL }

// SetJSON serializes v and stores it under key with the given TTL (0 keeps
// the key forever).
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &domain.PersistenceError{Op: "marshal " + key, Err: err}
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return &domain.PersistenceError{Op: "set " + key, Err: err}
	}
	return nil
}

// GetJSON loads key into v. Returns domain.ErrNotFound when the key is
// absent.
func (s *Store) GetJSON(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return &domain.PersistenceError{Op: "get " + key, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &domain.PersistenceError{Op: "unmarshal " + key, Err: err}
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return &domain.PersistenceError{Op: "del " + key, Err: err}
	}
	return nil
}
