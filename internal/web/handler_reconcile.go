package web

import (
	"net/http"

	"github.com/vbonduro/propdraft/internal/domain"
	"github.com/vbonduro/propdraft/internal/reconcile"
)

type reconcileRequest struct {
	PublishedPropertyID string                `json:"publishedPropertyId"`
	NavAreas            []domain.PropertyArea `json:"navAreas"`
	OwnerID             string                `json:"ownerId"`
	DraftID             string                `json:"draftId"`
	PropertyType        string                `json:"propertyType"`
	Bedrooms            int                   `json:"bedrooms"`
	Bathrooms           float64               `json:"bathrooms"`
}

type reconcileResponse struct {
	Areas     []domain.PropertyArea `json:"areas"`
	Source    string                `json:"source"`
	Signature string                `json:"signature"`
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := readJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}

	scope := draftScope(req.OwnerID, req.DraftID)
	if req.PublishedPropertyID != "" {
		scope = propertyScope(req.PublishedPropertyID)
	}

	result, err := s.reconcilers.get(scope).Reconcile(r.Context(), reconcile.Sources{
		PublishedPropertyID: req.PublishedPropertyID,
		NavAreas:            req.NavAreas,
		OwnerID:             req.OwnerID,
		DraftID:             req.DraftID,
		PropertyType:        req.PropertyType,
		Bedrooms:            req.Bedrooms,
		Bathrooms:           req.Bathrooms,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, reconcileResponse{
		Areas:     result.Areas,
		Source:    string(result.Source),
		Signature: result.Signature,
	})
}

type areasResponse struct {
	Areas []domain.PropertyArea `json:"areas"`
}

func (s *Server) handleAddPublishedAsset(w http.ResponseWriter, r *http.Request) {
	var asset domain.InventoryItem
	if err := readJSON(r, &asset); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	if asset.AreaID == "" {
		s.writeBadRequest(w, "areaId is required")
		return
	}

	propertyID := r.PathValue("propertyID")
	areas, err := s.reconcilers.get(propertyScope(propertyID)).AddPublishedAsset(r.Context(), propertyID, asset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, areasResponse{Areas: areas})
}

func (s *Server) handleDeletePublishedAsset(w http.ResponseWriter, r *http.Request) {
	propertyID := r.PathValue("propertyID")
	areas, err := s.reconcilers.get(propertyScope(propertyID)).DeletePublishedAsset(r.Context(), propertyID, r.PathValue("assetID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, areasResponse{Areas: areas})
}

func (s *Server) handleUpdateAreaPhotos(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhotoPaths []string `json:"photoPaths"`
	}
	if err := readJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}

	rec := s.reconcilers.get(propertyScope(r.PathValue("propertyID")))
	if err := rec.UpdatePublishedAreaPhotos(r.Context(), r.PathValue("areaID"), req.PhotoPaths); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type resolvePhotosRequest struct {
	PhotoPaths []string `json:"photoPaths"`
}

type resolvePhotosResponse struct {
	URLs []string `json:"urls"`
}

func (s *Server) handleResolvePhotos(w http.ResponseWriter, r *http.Request) {
	var req resolvePhotosRequest
	if err := readJSON(r, &req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}

	urls, err := s.resolver.Resolve(r.Context(), req.PhotoPaths)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resolvePhotosResponse{URLs: urls})
}
