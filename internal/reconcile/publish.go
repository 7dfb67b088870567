package reconcile

import (
	"context"
	"fmt"

	"github.com/vbonduro/propdraft/internal/domain"
)

// Publish creates the remote property from a draft and bulk-saves its
// selected areas. The property service reassigns area ids; the returned map
// translates draft-local ids to canonical ids (matched by name) and callers
// must re-key everything they hold — draft-local area ids are dead after
// publish.
func (r *Reconciler) Publish(ctx context.Context, draft *domain.PropertyDraft) (string, []domain.PropertyArea, map[string]string, error) {
	propertyID, err := r.props.CreateProperty(ctx, draft.OwnerID, draft.PropertyData)
	if err != nil {
		return "", nil, nil, &domain.RemoteSaveError{Op: "create property", Err: err, Message: remoteMessage(err)}
	}

	selected := make([]domain.PropertyArea, 0, len(draft.Areas))
	for _, area := range draft.Areas {
		if area.Selected {
			selected = append(selected, area)
		}
	}

	canonical, err := r.props.BulkSaveAreas(ctx, propertyID, selected)
	if err != nil {
		return "", nil, nil, &domain.RemoteSaveError{Op: "bulk-save areas", Err: err, Message: remoteMessage(err)}
	}

	r.Invalidate()
	return propertyID, canonical, RekeyByName(selected, canonical), nil
}

// RekeyByName builds the draft-id to canonical-id translation after a
// publish. Names are the only stable handle across the draft to published
// transition; duplicate names pair up in list order.
func RekeyByName(draftAreas, canonical []domain.PropertyArea) map[string]string {
	used := make(map[int]bool, len(canonical))
	idMap := make(map[string]string, len(draftAreas))
	for _, d := range draftAreas {
		for i, c := range canonical {
			if used[i] || c.Name != d.Name {
				continue
			}
			idMap[d.ID] = c.ID
			used[i] = true
			break
		}
	}
	return idMap
}

// AddPublishedAsset writes one asset straight to the property service — there
// is no draft to debounce through in published mode — then re-fetches the
// canonical area list. The caller applies its optimistic local update before
// calling and replaces it with the returned list.
func (r *Reconciler) AddPublishedAsset(ctx context.Context, propertyID string, asset domain.InventoryItem) ([]domain.PropertyArea, error) {
	if _, err := r.props.AddAsset(ctx, asset); err != nil {
		return nil, &domain.RemoteSaveError{Op: "add asset", Err: err, Message: remoteMessage(err)}
	}
	return r.refetch(ctx, propertyID)
}

// DeletePublishedAsset removes one asset remotely and re-fetches.
func (r *Reconciler) DeletePublishedAsset(ctx context.Context, propertyID, assetID string) ([]domain.PropertyArea, error) {
	if err := r.props.DeleteAsset(ctx, assetID); err != nil {
		return nil, &domain.RemoteSaveError{Op: "delete asset", Err: err, Message: remoteMessage(err)}
	}
	return r.refetch(ctx, propertyID)
}

// UpdatePublishedAreaPhotos writes an area's durable photo paths straight to
// the property service.
func (r *Reconciler) UpdatePublishedAreaPhotos(ctx context.Context, areaID string, photoPaths []string) error {
	if err := r.props.UpdateAreaPhotoPaths(ctx, areaID, photoPaths); err != nil {
		return &domain.RemoteSaveError{Op: "update area photos", Err: err, Message: remoteMessage(err)}
	}
	r.Invalidate()
	return nil
}

func (r *Reconciler) refetch(ctx context.Context, propertyID string) ([]domain.PropertyArea, error) {
	r.Invalidate()
	areas, err := r.props.AreasWithAssets(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-fetch areas: %w", err)
	}
	if err := r.resolveAreas(ctx, areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// remoteMessage extracts the server-provided text for inline display.
func remoteMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
