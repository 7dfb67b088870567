package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/propdraft/internal/domain"
)

// stubProps is an in-memory PropertyService that counts calls.
type stubProps struct {
	areas      []domain.PropertyArea
	fetchCalls int
	fetchErr   error

	createdID string
	createErr error

	bulkSaveIn  []domain.PropertyArea
	bulkSaveErr error

	addedAssets   []domain.InventoryItem
	addAssetErr   error
	deletedAssets []string

	photoPathWrites map[string][]string
}

func (s *stubProps) CreateProperty(_ context.Context, _ string, _ domain.PropertyData) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	if s.createdID == "" {
		s.createdID = uuid.New().String()
	}
	return s.createdID, nil
}

func (s *stubProps) AreasWithAssets(_ context.Context, _ string) ([]domain.PropertyArea, error) {
	s.fetchCalls++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.areas, nil
}

func (s *stubProps) UpdateAreaPhotoPaths(_ context.Context, areaID string, photoPaths []string) error {
	if s.photoPathWrites == nil {
		s.photoPathWrites = make(map[string][]string)
	}
	s.photoPathWrites[areaID] = photoPaths
	return nil
}

func (s *stubProps) AddAsset(_ context.Context, asset domain.InventoryItem) (*domain.InventoryItem, error) {
	if s.addAssetErr != nil {
		return nil, s.addAssetErr
	}
	s.addedAssets = append(s.addedAssets, asset)
	return &asset, nil
}

func (s *stubProps) DeleteAsset(_ context.Context, assetID string) error {
	s.deletedAssets = append(s.deletedAssets, assetID)
	return nil
}

func (s *stubProps) BulkSaveAreas(_ context.Context, _ string, areas []domain.PropertyArea) ([]domain.PropertyArea, error) {
	if s.bulkSaveErr != nil {
		return nil, s.bulkSaveErr
	}
	s.bulkSaveIn = areas
	canonical := make([]domain.PropertyArea, len(areas))
	copy(canonical, areas)
	for i := range canonical {
		canonical[i].ID = "canonical-" + canonical[i].Name
	}
	return canonical, nil
}

// stubDrafts serves one draft and counts reads.
type stubDrafts struct {
	draft     *domain.PropertyDraft
	pointer   *domain.DraftPointer
	loadCalls int
}

func (s *stubDrafts) LoadDraft(_ context.Context, ownerID, draftID string) (*domain.PropertyDraft, error) {
	s.loadCalls++
	if s.draft != nil && s.draft.OwnerID == ownerID && s.draft.ID == draftID {
		return s.draft, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubDrafts) CurrentPointer(_ context.Context, _ string) (*domain.DraftPointer, error) {
	if s.pointer == nil {
		return nil, domain.ErrNotFound
	}
	return s.pointer, nil
}

// countingResolver counts resolution passes and fabricates display URLs.
type countingResolver struct {
	passes int
}

func (r *countingResolver) Resolve(_ context.Context, photoPaths []string) ([]string, error) {
	r.passes++
	urls := make([]string, len(photoPaths))
	for i, p := range photoPaths {
		urls[i] = "https://signed.example.com/" + p
	}
	return urls, nil
}

func newTestReconciler(props *stubProps, drafts *stubDrafts) (*Reconciler, *countingResolver) {
	resolver := &countingResolver{}
	return New(props, drafts, resolver, slog.Default()), resolver
}

func allSources() Sources {
	return Sources{
		PublishedPropertyID: "p1",
		NavAreas:            []domain.PropertyArea{{ID: "nav-a1", Name: "Nav Kitchen"}},
		OwnerID:             "owner1",
		DraftID:             "d1",
		PropertyType:        domain.PropertyTypeHouse,
		Bedrooms:            3,
		Bathrooms:           2.5,
	}
}

func TestRemotePrecedence(t *testing.T) {
	props := &stubProps{areas: []domain.PropertyArea{
		{ID: "r1", Name: "Remote Kitchen", Assets: []domain.InventoryItem{{ID: "i1", Name: "Oven"}}},
	}}
	drafts := &stubDrafts{
		draft:   &domain.PropertyDraft{ID: "d1", OwnerID: "owner1", Areas: []domain.PropertyArea{{ID: "da1", Name: "Draft Kitchen"}}},
		pointer: &domain.DraftPointer{DraftID: "d1", Step: 2},
	}
	r, _ := newTestReconciler(props, drafts)

	// All four candidates populated: remote wins, draft store untouched.
	result, err := r.Reconcile(context.Background(), allSources())
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, result.Source)
	require.Len(t, result.Areas, 1)
	assert.Equal(t, "Remote Kitchen", result.Areas[0].Name)
	assert.Zero(t, drafts.loadCalls)
}

func TestRemoteAreasGetResolvedPhotos(t *testing.T) {
	props := &stubProps{areas: []domain.PropertyArea{
		{ID: "r1", Name: "Kitchen", PhotoPaths: []string{"props/p1/r1/1.jpg"}, Photos: []string{"https://expired.example.com/old"}},
	}}
	r, resolver := newTestReconciler(props, &stubDrafts{})

	result, err := r.Reconcile(context.Background(), Sources{PublishedPropertyID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.passes)
	assert.Equal(t, []string{"https://signed.example.com/props/p1/r1/1.jpg"}, result.Areas[0].Photos)
}

func TestNavigationMergesDraftPhotoPaths(t *testing.T) {
	drafts := &stubDrafts{draft: &domain.PropertyDraft{
		ID:      "d1",
		OwnerID: "owner1",
		Areas: []domain.PropertyArea{
			{ID: "a1", Name: "Kitchen", PhotoPaths: []string{"props/d1/a1/1.jpg"}},
			{ID: "a2", Name: "Garage"},
		},
	}}
	r, resolver := newTestReconciler(&stubProps{}, drafts)

	src := Sources{
		NavAreas: []domain.PropertyArea{
			{ID: "a1", Name: "Kitchen"}, // predates the photo upload
			{ID: "a2", Name: "Garage"},
		},
		OwnerID: "owner1",
		DraftID: "d1",
	}

	result, err := r.Reconcile(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, SourceNavigation, result.Source)
	assert.Equal(t, []string{"props/d1/a1/1.jpg"}, result.Areas[0].PhotoPaths)
	assert.Equal(t, []string{"https://signed.example.com/props/d1/a1/1.jpg"}, result.Areas[0].Photos)
	assert.Empty(t, result.Areas[1].PhotoPaths)
	assert.Equal(t, 1, resolver.passes)
}

func TestMergeRunsOncePerSignature(t *testing.T) {
	drafts := &stubDrafts{draft: &domain.PropertyDraft{
		ID:      "d1",
		OwnerID: "owner1",
		Areas:   []domain.PropertyArea{{ID: "a1", Name: "Kitchen", PhotoPaths: []string{"p/1.jpg"}}},
	}}
	r, resolver := newTestReconciler(&stubProps{}, drafts)
	ctx := context.Background()

	src := Sources{NavAreas: []domain.PropertyArea{{ID: "a1", Name: "Kitchen"}}, OwnerID: "owner1", DraftID: "d1"}

	first, err := r.Reconcile(ctx, src)
	require.NoError(t, err)
	require.Equal(t, 1, resolver.passes)
	require.Equal(t, 1, drafts.loadCalls)

	// Re-running on the already-merged inputs is a no-op.
	second, err := r.Reconcile(ctx, src)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, resolver.passes)
	assert.Equal(t, 1, drafts.loadCalls)

	// A genuinely new input signature re-triggers the pass.
	src.NavAreas = append(src.NavAreas, domain.PropertyArea{ID: "a2", Name: "Garage"})
	third, err := r.Reconcile(ctx, src)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, resolver.passes)
}

func TestDraftFallbackViaPointer(t *testing.T) {
	drafts := &stubDrafts{
		draft: &domain.PropertyDraft{
			ID:      "d1",
			OwnerID: "owner1",
			Areas:   []domain.PropertyArea{{ID: "a1", Name: "Draft Kitchen"}},
		},
		pointer: &domain.DraftPointer{DraftID: "d1", Step: 2},
	}
	r, _ := newTestReconciler(&stubProps{}, drafts)

	// Navigation lost on reload: no DraftID either, only the pointer knows.
	result, err := r.Reconcile(context.Background(), Sources{OwnerID: "owner1"})
	require.NoError(t, err)
	assert.Equal(t, SourceDraft, result.Source)
	require.Len(t, result.Areas, 1)
	assert.Equal(t, "Draft Kitchen", result.Areas[0].Name)
}

func TestDefaultsWhenNothingStored(t *testing.T) {
	r, resolver := newTestReconciler(&stubProps{}, &stubDrafts{})

	result, err := r.Reconcile(context.Background(), Sources{
		OwnerID:      "owner1",
		PropertyType: domain.PropertyTypeHouse,
		Bedrooms:     3,
		Bathrooms:    2.5,
	})
	require.NoError(t, err)
	assert.Equal(t, SourceDefaults, result.Source)
	assert.Len(t, result.Areas, 12)
	assert.Zero(t, resolver.passes)
}

func TestStaleSignature(t *testing.T) {
	r, _ := newTestReconciler(&stubProps{}, &stubDrafts{})
	ctx := context.Background()

	first, err := r.Reconcile(ctx, Sources{OwnerID: "owner1", PropertyType: domain.PropertyTypeCondo, Bedrooms: 1, Bathrooms: 1})
	require.NoError(t, err)
	assert.False(t, r.Stale(first.Signature))

	second, err := r.Reconcile(ctx, Sources{OwnerID: "owner1", PropertyType: domain.PropertyTypeCondo, Bedrooms: 2, Bathrooms: 1})
	require.NoError(t, err)

	assert.True(t, r.Stale(first.Signature))
	assert.False(t, r.Stale(second.Signature))
}

func TestReconcileRemoteFetchError(t *testing.T) {
	props := &stubProps{fetchErr: errors.New("service down")}
	r, _ := newTestReconciler(props, &stubDrafts{})

	_, err := r.Reconcile(context.Background(), Sources{PublishedPropertyID: "p1"})
	assert.Error(t, err)
}
