// Package reconcile decides what a property's areas are right now. During
// onboarding the same property exists as screen state, a stored draft,
// navigation parameters (which a web reload silently drops), and, once
// published, authoritative remote rows; the reconciler merges those candidate
// sources under a strict precedence into one canonical list.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/vbonduro/propdraft/internal/domain"
)

// PropertyService is the remote property-service boundary. All calls are
// treated as atomic and synchronously consistent; retries are the caller's
// concern.
type PropertyService interface {
	CreateProperty(ctx context.Context, ownerID string, data domain.PropertyData) (string, error)
	AreasWithAssets(ctx context.Context, propertyID string) ([]domain.PropertyArea, error)
	UpdateAreaPhotoPaths(ctx context.Context, areaID string, photoPaths []string) error
	AddAsset(ctx context.Context, asset domain.InventoryItem) (*domain.InventoryItem, error)
	DeleteAsset(ctx context.Context, assetID string) error
	BulkSaveAreas(ctx context.Context, propertyID string, areas []domain.PropertyArea) ([]domain.PropertyArea, error)
}

// DraftReader is the subset of draftstore.Store the reconciler requires.
type DraftReader interface {
	LoadDraft(ctx context.Context, ownerID, draftID string) (*domain.PropertyDraft, error)
	CurrentPointer(ctx context.Context, ownerID string) (*domain.DraftPointer, error)
}

// PhotoResolver is the subset of photoref.Resolver the reconciler requires.
type PhotoResolver interface {
	Resolve(ctx context.Context, photoPaths []string) ([]string, error)
}

// Source identifies which candidate won a reconciliation pass.
type Source string

const (
	SourceRemote     Source = "remote"
	SourceNavigation Source = "navigation"
	SourceDraft      Source = "draft"
	SourceDefaults   Source = "defaults"
)

// Sources carries the four candidate inputs for one reconciliation pass.
type Sources struct {
	// PublishedPropertyID, when set, means the screen was opened against a
	// published property; remote data wins and the draft store is bypassed.
	PublishedPropertyID string

	// NavAreas is the area list passed through navigation, empty after a
	// reload that dropped the payload.
	NavAreas []domain.PropertyArea

	OwnerID string
	// DraftID identifies the draft to merge against; when empty the owner's
	// current-draft pointer is consulted.
	DraftID string

	// Inputs for default generation when nothing else has areas.
	PropertyType string
	Bedrooms     int
	Bathrooms    float64
}

// Result is one reconciliation outcome. Signature identifies the inputs it
// was computed for; callers applying a Result asynchronously must drop it if
// Stale reports the signature has been superseded.
type Result struct {
	Areas     []domain.PropertyArea
	Source    Source
	Signature string
}

// Reconciler serves one screen instance. The merge-once guard is an explicit
// signature transition rather than a boolean: a pass re-runs only for
// genuinely new inputs, so adding photo paths re-triggers resolution while an
// unchanged re-mount does not.
type Reconciler struct {
	props    PropertyService
	drafts   DraftReader
	resolver PhotoResolver
	logger   *slog.Logger

	mu      sync.Mutex
	lastSig string
	last    *Result
}

func New(props PropertyService, drafts DraftReader, resolver PhotoResolver, logger *slog.Logger) *Reconciler {
	return &Reconciler{props: props, drafts: drafts, resolver: resolver, logger: logger}
}

// Reconcile runs the precedence decision for the given sources. Re-running
// with an unchanged input signature is a no-op returning the cached result,
// with no store or resolver traffic.
func (r *Reconciler) Reconcile(ctx context.Context, src Sources) (*Result, error) {
	sig := src.signature()

	r.mu.Lock()
	if r.last != nil && sig == r.lastSig {
		cached := r.last
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	areas, source, err := r.reconcile(ctx, src)
	if err != nil {
		return nil, err
	}

	result := &Result{Areas: areas, Source: source, Signature: sig}

	r.mu.Lock()
	r.lastSig = sig
	r.last = result
	r.mu.Unlock()

	r.logger.Debug("reconciled areas", "source", source, "areas", len(areas))
	return result, nil
}

// Stale reports whether a result signature has been superseded by a later
// pass. Used as the stale-write guard for async callers.
func (r *Reconciler) Stale(signature string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return signature != r.lastSig
}

// Invalidate forces the next Reconcile to run even for an unchanged
// signature, e.g. after a remote write changed server-side state.
func (r *Reconciler) Invalidate() {
	r.mu.Lock()
	r.lastSig = ""
	r.last = nil
	r.mu.Unlock()
}

func (r *Reconciler) reconcile(ctx context.Context, src Sources) ([]domain.PropertyArea, Source, error) {
	// 1. Published property: remote rows win unconditionally.
	if src.PublishedPropertyID != "" {
		areas, err := r.props.AreasWithAssets(ctx, src.PublishedPropertyID)
		if err != nil {
			return nil, SourceRemote, fmt.Errorf("failed to fetch remote areas: %w", err)
		}
		if err := r.resolveAreas(ctx, areas); err != nil {
			return nil, SourceRemote, err
		}
		return areas, SourceRemote, nil
	}

	// 2. Navigation payload, backfilled with durable photo paths the draft
	// already has: photos uploaded mid-session update the draft, but the
	// in-memory navigation payload predates the upload.
	if len(src.NavAreas) > 0 {
		areas := cloneAreas(src.NavAreas)
		draft, err := r.loadDraft(ctx, src)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			// Merge source unavailable; the navigation payload alone is still
			// a correct answer.
			r.logger.Warn("draft unavailable for photo-path merge", "error", err)
		}
		if draft != nil {
			mergePhotoPaths(areas, draft.Areas)
		}
		if err := r.resolveAreas(ctx, areas); err != nil {
			return nil, SourceNavigation, err
		}
		return areas, SourceNavigation, nil
	}

	// 3. Stored draft, typically after a reload lost the navigation payload.
	draft, err := r.loadDraft(ctx, src)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, SourceDraft, err
	}
	if draft != nil && len(draft.Areas) > 0 {
		areas := cloneAreas(draft.Areas)
		if err := r.resolveAreas(ctx, areas); err != nil {
			return nil, SourceDraft, err
		}
		return areas, SourceDraft, nil
	}

	// 4. Brand-new property: synthesize defaults.
	return GenerateDefaultAreas(src.PropertyType, src.Bedrooms, src.Bathrooms), SourceDefaults, nil
}

func (r *Reconciler) loadDraft(ctx context.Context, src Sources) (*domain.PropertyDraft, error) {
	if src.OwnerID == "" {
		return nil, domain.ErrNotFound
	}
	draftID := src.DraftID
	if draftID == "" {
		ptr, err := r.drafts.CurrentPointer(ctx, src.OwnerID)
		if err != nil {
			return nil, err
		}
		draftID = ptr.DraftID
	}
	return r.drafts.LoadDraft(ctx, src.OwnerID, draftID)
}

// resolveAreas rebuilds each area's display cache from its durable photo
// paths. Areas without paths keep whatever display references they carried.
func (r *Reconciler) resolveAreas(ctx context.Context, areas []domain.PropertyArea) error {
	for i := range areas {
		if len(areas[i].PhotoPaths) == 0 {
			continue
		}
		urls, err := r.resolver.Resolve(ctx, areas[i].PhotoPaths)
		if err != nil {
			return err
		}
		areas[i].Photos = urls
	}
	return nil
}

// mergePhotoPaths copies durable photo paths from draft areas into navigation
// areas that lack them, matched by area id.
func mergePhotoPaths(areas, draftAreas []domain.PropertyArea) {
	byID := make(map[string]*domain.PropertyArea, len(draftAreas))
	for i := range draftAreas {
		byID[draftAreas[i].ID] = &draftAreas[i]
	}
	for i := range areas {
		if len(areas[i].PhotoPaths) > 0 {
			continue
		}
		if d, ok := byID[areas[i].ID]; ok && len(d.PhotoPaths) > 0 {
			areas[i].PhotoPaths = append([]string(nil), d.PhotoPaths...)
		}
	}
}

func cloneAreas(areas []domain.PropertyArea) []domain.PropertyArea {
	out := make([]domain.PropertyArea, len(areas))
	copy(out, areas)
	for i := range out {
		out[i].PhotoPaths = append([]string(nil), out[i].PhotoPaths...)
		out[i].Photos = append([]string(nil), out[i].Photos...)
		out[i].Assets = append([]domain.InventoryItem(nil), out[i].Assets...)
	}
	return out
}

// signature captures every input that should re-trigger a pass. Photo paths
// are included so newly uploaded photos break the guard; display caches are
// not, because they are derived state.
func (s Sources) signature() string {
	var b strings.Builder
	b.WriteString("remote=")
	b.WriteString(s.PublishedPropertyID)
	b.WriteString(";owner=")
	b.WriteString(s.OwnerID)
	b.WriteString(";draft=")
	b.WriteString(s.DraftID)
	b.WriteString(";type=")
	b.WriteString(s.PropertyType)
	b.WriteString(";bed=")
	b.WriteString(strconv.Itoa(s.Bedrooms))
	b.WriteString(";bath=")
	b.WriteString(strconv.FormatFloat(s.Bathrooms, 'f', -1, 64))
	for _, a := range s.NavAreas {
		b.WriteString(";area=")
		b.WriteString(a.ID)
		b.WriteString(":")
		b.WriteString(strings.Join(a.PhotoPaths, ","))
	}
	return b.String()
}
