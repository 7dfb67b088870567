// Package session is the per-screen runtime wrapper around the draft store:
// an in-memory working copy, mutators with debounced auto-save, and
// loading/saving status flags for presentation code.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/propdraft/internal/domain"
)

// Store is the subset of draftstore.Store a session requires.
type Store interface {
	LoadDraft(ctx context.Context, ownerID, draftID string) (*domain.PropertyDraft, error)
	SaveDraft(ctx context.Context, draft *domain.PropertyDraft) error
	SetCurrentPointer(ctx context.Context, ownerID, draftID string, step int) error
}

// State is the session lifecycle:
// Uninitialized → Loading → Ready ⇄ Saving, with Ready → Error → Ready on an
// acknowledged background-save failure. There is no terminal state; a session
// ends with its screen's teardown via Close.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateSaving
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

const defaultDebounce = 2 * time.Second

// saveTimeout bounds the background write triggered by the debounce timer,
// which has no caller-supplied context.
const saveTimeout = 10 * time.Second

type Session struct {
	store    Store
	logger   *slog.Logger
	debounce time.Duration

	mu          sync.Mutex
	state       State
	draft       *domain.PropertyDraft
	timer       *time.Timer
	dirty       bool
	lastSavedAt time.Time
	err         error
}

type Option func(*Session)

// WithDebounce overrides the auto-save delay.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

func New(store Store, logger *slog.Logger, opts ...Option) *Session {
	s := &Session{store: store, logger: logger, debounce: defaultDebounce, state: StateUninitialized}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load initializes the session from a stored draft. domain.ErrNotFound means
// there is nothing to edit; the caller routes to the start of onboarding.
func (s *Session) Load(ctx context.Context, ownerID, draftID string) error {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	draft, err := s.store.LoadDraft(ctx, ownerID, draftID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateUninitialized
		return err
	}
	s.draft = draft
	s.state = StateReady
	return nil
}

// Start creates a fresh draft at step 1 and records the owner's resume
// pointer. The draft id is minted client-side.
func (s *Session) Start(ctx context.Context, ownerID string, data domain.PropertyData) (*domain.PropertyDraft, error) {
	draft := &domain.PropertyDraft{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		CurrentStep:  1,
		PropertyData: data,
	}
	if err := s.store.SaveDraft(ctx, draft); err != nil {
		return nil, err
	}
	if err := s.store.SetCurrentPointer(ctx, ownerID, draft.ID, 1); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.draft = draft
	s.state = StateReady
	snapshot := s.snapshotLocked(draft)
	s.mu.Unlock()
	return snapshot, nil
}

// Resume loads the draft named by the owner's current pointer. The returned
// step is where the screen should route: the pointer's step normally, or 1
// when the draft fails the resumability invariant (past step 1 with no
// areas).
func (s *Session) Resume(ctx context.Context, ownerID string, load func(ctx context.Context, ownerID string) (*domain.DraftPointer, error)) (*domain.PropertyDraft, int, error) {
	ptr, err := load(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.Load(ctx, ownerID, ptr.DraftID); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	step := ptr.Step
	if !s.draft.Resumable() {
		step = 1
	}
	return s.snapshotLocked(s.draft), step, nil
}

// Draft returns a copy of the working draft, or nil before Load/Start.
func (s *Session) Draft() *domain.PropertyDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return nil
	}
	return s.snapshotLocked(s.draft)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsSaving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateSaving
}

func (s *Session) LastSavedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSavedAt
}

// Err returns the sticky background-save error, if any. It is cleared by
// AcknowledgeError, not by a later successful save.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// AcknowledgeError clears the error state after the user dismissed the
// notice.
func (s *Session) AcknowledgeError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	if s.state == StateError {
		s.state = StateReady
	}
}

// UpdatePropertyData merges the top-level property record and schedules a
// save. Mutators never block on the underlying write.
func (s *Session) UpdatePropertyData(data domain.PropertyData) {
	s.mutate(func(d *domain.PropertyDraft) { d.PropertyData = data })
}

// UpdateAreas replaces the area list and schedules a save.
func (s *Session) UpdateAreas(areas []domain.PropertyArea) {
	s.mutate(func(d *domain.PropertyDraft) { d.Areas = areas })
}

// UpdateCurrentStep advances the wizard step, refreshes the resume pointer,
// and schedules a save. Steps never move backwards; the pointer records the
// clamped step so resume cannot route behind the draft's actual progress.
func (s *Session) UpdateCurrentStep(ctx context.Context, step int) {
	var ownerID, draftID string
	var effective int
	s.mutate(func(d *domain.PropertyDraft) {
		if step > d.CurrentStep {
			d.CurrentStep = step
		}
		effective = d.CurrentStep
		ownerID, draftID = d.OwnerID, d.ID
	})
	if ownerID == "" {
		return
	}
	if err := s.store.SetCurrentPointer(ctx, ownerID, draftID, effective); err != nil {
		s.logger.Error("failed to update draft pointer", "draft_id", draftID, "error", err)
	}
}

func (s *Session) mutate(apply func(*domain.PropertyDraft)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return
	}
	apply(s.draft)
	s.draft.UpdatedAt = time.Now()
	s.dirty = true
	s.scheduleSaveLocked()
}

// scheduleSaveLocked resets the debounce timer; a burst of mutators persists
// as one coalesced write of the latest state. Intermediate states are never
// individually durable.
func (s *Session) scheduleSaveLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flush)
}

// flush is the debounce-timer callback: it writes the latest snapshot in the
// background.
func (s *Session) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.save(ctx); err != nil && !errors.Is(err, errNothingToSave) {
		s.logger.Error("background draft save failed", "error", err)
	}
}

var errNothingToSave = errors.New("nothing to save")

func (s *Session) save(ctx context.Context) error {
	s.mu.Lock()
	if s.draft == nil || !s.dirty {
		s.mu.Unlock()
		return errNothingToSave
	}
	snapshot := s.snapshotLocked(s.draft)
	s.dirty = false
	s.state = StateSaving
	s.mu.Unlock()

	err := s.store.SaveDraft(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// Keep in-memory state; the next debounce cycle retries.
		s.dirty = true
		s.err = err
		s.state = StateError
		return err
	}
	s.lastSavedAt = time.Now()
	s.draft.UpdatedAt = snapshot.UpdatedAt
	if s.state == StateSaving {
		s.state = StateReady
	}
	return nil
}

// SaveNow bypasses the debounce for explicit save-points and reports the
// write's outcome to the caller.
func (s *Session) SaveNow(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dirty = s.draft != nil // force a write even without pending mutations
	s.mu.Unlock()

	err := s.save(ctx)
	if errors.Is(err, errNothingToSave) {
		return nil
	}
	return err
}

// Abort stops the debounce timer and drops any pending mutation without
// writing. Used when the draft no longer exists in the store; a flush after
// the delete would resurrect it.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dirty = false
}

// Close stops the debounce timer and flushes any pending mutation
// synchronously. Called on screen teardown.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	pending := s.dirty
	s.mu.Unlock()

	if !pending {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	err := s.save(ctx)
	if errors.Is(err, errNothingToSave) {
		return nil
	}
	return err
}

// snapshotLocked deep-copies the draft so callers and background saves never
// alias the working copy. Caller holds s.mu.
func (s *Session) snapshotLocked(d *domain.PropertyDraft) *domain.PropertyDraft {
	out := *d
	out.PropertyData.Photos = append([]string(nil), d.PropertyData.Photos...)
	out.Areas = make([]domain.PropertyArea, len(d.Areas))
	copy(out.Areas, d.Areas)
	for i := range out.Areas {
		out.Areas[i].Photos = append([]string(nil), out.Areas[i].Photos...)
		out.Areas[i].PhotoPaths = append([]string(nil), out.Areas[i].PhotoPaths...)
		out.Areas[i].Assets = append([]domain.InventoryItem(nil), out.Areas[i].Assets...)
	}
	return &out
}
