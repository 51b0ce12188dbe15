package service

import (
	"context"
	"errors"
	"testing"

	"bimquery/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doorObject(id int64) ViewerObject {
	return ViewerObject{
		ObjectID: id,
		Name:     "Single-Flush Door",
		Properties: []ViewerProperty{
			{Category: "__category__", Name: "Category", Value: "Revit Doors"},
			{Category: "Identity Data", Name: "Type Name", Value: "0915 x 2134mm"},
			{Category: "Identity Data", Name: "Family", Value: "Single-Flush"},
			{Category: "Constraints", Name: "Level", Value: "Level 1"},
			{Category: "Identity Data", Name: "Manufacturer", Value: "Acme"},
			{Category: "Dimensions", Name: "Area", Value: float64(2.5)},
		},
	}
}

func TestIngest_ReplacesPartition(t *testing.T) {
	store := &fakeStore{}
	viewer := &fakeViewer{
		enabled:   true,
		viewables: []Viewable{{GUID: "guid-1", Name: "3D View"}},
		objects: map[string][]ViewerObject{
			"guid-1": {doorObject(101), doorObject(102)},
		},
	}
	ai := &fakeAI{
		enabled: true,
		embedBatchFn: func(texts []string) ([][]float32, error) {
			require.Len(t, texts, 2)
			return [][]float32{{0.1, 0.2}, {0.3, 0.4}}, nil
		},
	}
	svc := NewIngestService(store, ai, viewer, "text-embedding-3-small", testLogger())

	resp, err := svc.Ingest(context.Background(), "urn:model")

	require.NoError(t, err)
	assert.Equal(t, "urn:model", resp.ModelURN)
	assert.Equal(t, 2, resp.Elements)
	assert.Equal(t, 2, resp.Embedded)
	require.Equal(t, []string{"urn:model"}, store.replacedModelURNs)
	require.Len(t, store.replacedElements, 2)

	first := store.replacedElements[0]
	assert.Equal(t, int64(101), first.ElementID)
	assert.Equal(t, "Doors", first.Category)
	assert.Equal(t, "0915 x 2134mm", first.TypeName)
	assert.Equal(t, "Single-Flush", first.FamilyName)
	assert.Equal(t, "Level 1", first.Level)
	assert.True(t, first.IsAsset)
	assert.Equal(t, "2.5", first.Properties["Dimensions.Area"])
	assert.Equal(t, "text-embedding-3-small", first.EmbeddingModel)
}

func TestIngest_EmbeddingFailureDegrades(t *testing.T) {
	store := &fakeStore{}
	viewer := &fakeViewer{
		enabled:   true,
		viewables: []Viewable{{GUID: "guid-1"}},
		objects:   map[string][]ViewerObject{"guid-1": {doorObject(101)}},
	}
	ai := &fakeAI{
		enabled: true,
		embedBatchFn: func([]string) ([][]float32, error) {
			return nil, errors.New("embedding provider down")
		},
	}
	svc := NewIngestService(store, ai, viewer, "text-embedding-3-small", testLogger())

	resp, err := svc.Ingest(context.Background(), "urn:model")

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Elements)
	assert.Equal(t, 0, resp.Embedded)
	require.Len(t, store.replacedElements, 1)
	assert.Empty(t, store.replacedElements[0].EmbeddingModel)
}

func TestIngest_RequiresViewerCredentials(t *testing.T) {
	svc := NewIngestService(&fakeStore{}, &fakeAI{}, &fakeViewer{enabled: false}, "m", testLogger())

	_, err := svc.Ingest(context.Background(), "urn:model")

	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestIngest_RequiresModelURN(t *testing.T) {
	svc := NewIngestService(&fakeStore{}, &fakeAI{}, &fakeViewer{enabled: true}, "m", testLogger())

	_, err := svc.Ingest(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestIngest_ViewerErrorAborts(t *testing.T) {
	store := &fakeStore{}
	viewer := &fakeViewer{enabled: true, viewablesErr: errors.New("translation pending")}
	svc := NewIngestService(store, &fakeAI{}, viewer, "m", testLogger())

	_, err := svc.Ingest(context.Background(), "urn:model")

	require.Error(t, err)
	assert.Empty(t, store.replacedModelURNs)
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "Doors", normalizeCategory("Revit Doors"))
	assert.Equal(t, "Walls", normalizeCategory(" Walls "))
	assert.Equal(t, "Other", normalizeCategory(""))
	assert.Equal(t, "Other", normalizeCategory("  "))
}

func TestBuildElement(t *testing.T) {
	obj := ViewerObject{
		ObjectID: 7,
		Name:     "  AHU-01 ",
		Properties: []ViewerProperty{
			{Category: "__category__", Name: "Category", Value: "Revit Mechanical Equipment"},
			{Category: "Mechanical", Name: "System Type", Value: "Supply Air"},
			{Category: "Identity Data", Name: "Model", Value: "X-2000"},
			{Category: "Identity Data", Name: "Mark", Value: nil},
			{Category: "Identity Data", Name: "Shared", Value: true},
			// Duplicate property name: the first occurrence wins.
			{Category: "Other", Name: "Model", Value: "ignored"},
		},
	}

	e := buildElement("urn:model", "guid-1", obj)

	assert.Equal(t, "AHU-01", e.Name)
	assert.Equal(t, "Mechanical Equipment", e.Category)
	assert.Equal(t, "Supply Air", e.SystemType)
	assert.Equal(t, "X-2000", e.ModelName)
	assert.True(t, e.IsAsset)
	assert.Equal(t, "Yes", e.Properties["Identity Data.Shared"])
	assert.NotContains(t, e.Properties, "Identity Data.Mark")
}

func TestEmbeddingText(t *testing.T) {
	e := model.Element{Name: "Door A", Category: "Doors", Level: "L1"}
	assert.Equal(t, "Door A | Doors | L1", embeddingText(e))

	assert.Equal(t, "", embeddingText(model.Element{}))
}
