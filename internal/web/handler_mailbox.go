package web

import (
	"net/http"

	"github.com/vbonduro/propdraft/internal/domain"
)

type depositAssetRequest struct {
	AreaID string               `json:"areaId"`
	Asset  domain.InventoryItem `json:"asset"`
}

func (s *Server) handleDepositAsset(w http.ResponseWriter, r *http.Request) {
	var req depositAssetRequest
	if err := readJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	if req.AreaID == "" || req.Asset.ID == "" {
		s.writeBadRequest(w, "areaId and asset.id are required")
		return
	}

	if err := s.mailbox.Deposit(r.Context(), r.PathValue("draftID"), req.AreaID, req.Asset); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type collectAssetRequest struct {
	Areas []domain.PropertyArea `json:"areas"`
}

type collectAssetResponse struct {
	Areas   []domain.PropertyArea `json:"areas"`
	Applied bool                  `json:"applied"`
}

// handleCollectAsset merges any pending asset into the caller's area list.
// Safe to call on every mount and focus event; an empty mailbox or an
// already-applied envelope returns the list unchanged.
func (s *Server) handleCollectAsset(w http.ResponseWriter, r *http.Request) {
	var req collectAssetRequest
	if err := readJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}

	areas, applied, err := s.mailbox.CollectInto(r.Context(), r.PathValue("draftID"), req.Areas)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, collectAssetResponse{Areas: areas, Applied: applied})
}

func (s *Server) handlePutAssetParams(w http.ResponseWriter, r *http.Request) {
	var params map[string]string
	if err := readJSON(r, &params); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}

	if err := s.mailbox.PutParams(r.Context(), r.PathValue("areaID"), params); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleTakeAssetParams(w http.ResponseWriter, r *http.Request) {
	params, err := s.mailbox.TakeParams(r.Context(), r.PathValue("areaID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, params)
}
