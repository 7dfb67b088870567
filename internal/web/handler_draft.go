package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/propdraft/internal/domain"
	"github.com/vbonduro/propdraft/internal/session"
)

type startDraftRequest struct {
	OwnerID      string              `json:"ownerId"`
	PropertyData domain.PropertyData `json:"propertyData"`
}

type sessionStatus struct {
	State       string    `json:"state"`
	IsSaving    bool      `json:"isSaving"`
	LastSavedAt time.Time `json:"lastSavedAt"`
	Error       string    `json:"error,omitempty"`
}

func statusOf(s *session.Session) sessionStatus {
	st := sessionStatus{
		State:       s.State().String(),
		IsSaving:    s.IsSaving(),
		LastSavedAt: s.LastSavedAt(),
	}
	if err := s.Err(); err != nil {
		st.Error = err.Error()
	}
	return st
}

// invalidateDraftScopes breaks the merge-once guards that may hold a pass
// computed before this draft write. Pointer-driven screens reconcile without
// a draft id, so that scope is covered too.
func (s *Server) invalidateDraftScopes(ownerID, draftID string) {
	s.reconcilers.invalidate(draftScope(ownerID, draftID))
	s.reconcilers.invalidate(draftScope(ownerID, ""))
}

func (s *Server) resetDraftScopes(ownerID, draftID string) {
	s.reconcilers.reset(draftScope(ownerID, draftID))
	s.reconcilers.reset(draftScope(ownerID, ""))
}

func (s *Server) handleStartDraft(w http.ResponseWriter, r *http.Request) {
	var req startDraftRequest
	if err := readJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	if req.OwnerID == "" {
		s.writeBadRequest(w, "ownerId is required")
		return
	}

	sess := session.New(s.drafts, s.logger, session.WithDebounce(s.sessions.debounce))
	draft, err := sess.Start(r.Context(), req.OwnerID, req.PropertyData)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.sessions.put(req.OwnerID, draft.ID, sess)
	s.resetDraftScopes(req.OwnerID, draft.ID)

	s.logger.Info("draft started", "owner_id", req.OwnerID, "draft_id", draft.ID)
	s.writeJSON(w, http.StatusCreated, draft)
}

type resumeDraftResponse struct {
	Draft *domain.PropertyDraft `json:"draft"`
	Step  int                   `json:"step"`
}

func (s *Server) handleResumeDraft(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("ownerID")

	sess := session.New(s.drafts, s.logger, session.WithDebounce(s.sessions.debounce))
	draft, step, err := sess.Resume(r.Context(), ownerID, s.drafts.CurrentPointer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.sessions.put(ownerID, draft.ID, sess)
	// A resume is a fresh mount: the screen gets a fresh guard so display
	// URLs are regenerated rather than trusted across the reload.
	s.resetDraftScopes(ownerID, draft.ID)

	s.writeJSON(w, http.StatusOK, resumeDraftResponse{Draft: draft, Step: step})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("ownerID")
	draftID := r.PathValue("draftID")

	sess, err := s.sessions.get(r.Context(), ownerID, draftID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Draft())
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("ownerID")
	draftID := r.PathValue("draftID")
	ctx := r.Context()

	// The session must not flush a pending save back after the delete.
	s.sessions.discard(ownerID, draftID)
	s.resetDraftScopes(ownerID, draftID)

	if err := s.drafts.DeleteDraft(ctx, ownerID, draftID); err != nil {
		s.writeError(w, err)
		return
	}
	if ptr, err := s.drafts.CurrentPointer(ctx, ownerID); err == nil && ptr.DraftID == draftID {
		if err := s.drafts.ClearPointer(ctx, ownerID); err != nil {
			s.writeError(w, err)
			return
		}
	}

	s.logger.Info("draft deleted", "owner_id", ownerID, "draft_id", draftID)
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	var data domain.PropertyData
	if err := readJSON(r, &data); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}

	sess, err := s.sessions.get(r.Context(), r.PathValue("ownerID"), r.PathValue("draftID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess.UpdatePropertyData(data)
	s.invalidateDraftScopes(r.PathValue("ownerID"), r.PathValue("draftID"))
	s.writeJSON(w, http.StatusOK, statusOf(sess))
}

func (s *Server) handleUpdateAreas(w http.ResponseWriter, r *http.Request) {
	var areas []domain.PropertyArea
	if err := readJSON(r, &areas); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}

	sess, err := s.sessions.get(r.Context(), r.PathValue("ownerID"), r.PathValue("draftID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess.UpdateAreas(areas)
	s.invalidateDraftScopes(r.PathValue("ownerID"), r.PathValue("draftID"))
	s.writeJSON(w, http.StatusOK, statusOf(sess))
}

func (s *Server) handleUpdateStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step int `json:"step"`
	}
	if err := readJSON(r, &req); err != nil || req.Step < 1 {
		s.writeBadRequest(w, "step must be a positive integer")
		return
	}

	sess, err := s.sessions.get(r.Context(), r.PathValue("ownerID"), r.PathValue("draftID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess.UpdateCurrentStep(r.Context(), req.Step)
	s.invalidateDraftScopes(r.PathValue("ownerID"), r.PathValue("draftID"))
	s.writeJSON(w, http.StatusOK, statusOf(sess))
}

func (s *Server) handleSaveNow(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(r.Context(), r.PathValue("ownerID"), r.PathValue("draftID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.SaveNow(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.invalidateDraftScopes(r.PathValue("ownerID"), r.PathValue("draftID"))
	s.writeJSON(w, http.StatusOK, statusOf(sess))
}

func (s *Server) handleAcknowledgeError(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(r.Context(), r.PathValue("ownerID"), r.PathValue("draftID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess.AcknowledgeError()
	s.writeJSON(w, http.StatusOK, statusOf(sess))
}

type publishDraftResponse struct {
	PropertyID string                `json:"propertyId"`
	Areas      []domain.PropertyArea `json:"areas"`
	AreaIDMap  map[string]string     `json:"areaIdMap"`
}

// handlePublishDraft promotes the draft to a remote property. On success the
// draft and its resume pointer are gone; the caller re-keys every held area id
// through the returned map before touching the published record.
func (s *Server) handlePublishDraft(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("ownerID")
	draftID := r.PathValue("draftID")
	ctx := r.Context()

	sess, err := s.sessions.get(ctx, ownerID, draftID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.SaveNow(ctx); err != nil {
		s.writeError(w, err)
		return
	}
	draft := sess.Draft()

	propertyID, canonical, idMap, err := s.reconcilers.get(draftScope(ownerID, draftID)).Publish(ctx, draft)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Published properties live in the property service; the draft is done.
	s.sessions.discard(ownerID, draftID)
	s.resetDraftScopes(ownerID, draftID)
	if err := s.drafts.DeleteDraft(ctx, ownerID, draftID); err != nil {
		s.logger.Error("failed to delete draft after publish", "draft_id", draftID, "error", err)
	}
	if err := s.drafts.ClearPointer(ctx, ownerID); err != nil {
		s.logger.Error("failed to clear draft pointer after publish", "owner_id", ownerID, "error", err)
	}

	s.logger.Info("draft published", "draft_id", draftID, "property_id", propertyID, "areas", len(canonical))
	s.writeJSON(w, http.StatusOK, publishDraftResponse{
		PropertyID: propertyID,
		Areas:      canonical,
		AreaIDMap:  idMap,
	})
}
