package web

import (
	"log/slog"
	"sync"

	"github.com/vbonduro/propdraft/internal/reconcile"
)

// reconcilerRegistry scopes merge-once guards the way screens do: one
// reconciler per draft being edited or published property being viewed. A
// shared process-wide guard would keep serving one screen's cached pass,
// stale photo URLs included, to every later identical request.
type reconcilerRegistry struct {
	props    reconcile.PropertyService
	drafts   reconcile.DraftReader
	resolver reconcile.PhotoResolver
	logger   *slog.Logger

	mu   sync.Mutex
	recs map[string]*reconcile.Reconciler
}

func newReconcilerRegistry(props reconcile.PropertyService, drafts reconcile.DraftReader, resolver reconcile.PhotoResolver, logger *slog.Logger) *reconcilerRegistry {
	return &reconcilerRegistry{
		props:    props,
		drafts:   drafts,
		resolver: resolver,
		logger:   logger,
		recs:     make(map[string]*reconcile.Reconciler),
	}
}

func draftScope(ownerID, draftID string) string {
	return "draft/" + ownerID + "/" + draftID
}

func propertyScope(propertyID string) string {
	return "property/" + propertyID
}

// get returns the reconciler for the scope, creating it on first use.
func (r *reconcilerRegistry) get(scope string) *reconcile.Reconciler {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.recs[scope]; ok {
		return rec
	}
	rec := reconcile.New(r.props, r.drafts, r.resolver, r.logger)
	r.recs[scope] = rec
	return rec
}

// invalidate breaks the scope's merge-once guard after a write changed the
// underlying draft or remote state.
func (r *reconcilerRegistry) invalidate(scope string) {
	r.mu.Lock()
	rec, ok := r.recs[scope]
	r.mu.Unlock()
	if ok {
		rec.Invalidate()
	}
}

// reset drops the scope's reconciler entirely. Called on start and resume:
// a fresh mount gets a fresh instance, so display URLs are regenerated
// rather than trusted across a reload.
func (r *reconcilerRegistry) reset(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.recs, scope)
}
