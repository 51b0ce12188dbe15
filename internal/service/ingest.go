package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bimquery/internal/model"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// IngestService pulls a model's element records from the viewer provider,
// flattens them into rows, attaches embeddings and bulk-replaces the
// partition in one transaction.
type IngestService struct {
	store          ElementStore
	ai             AIClient
	viewer         ViewerSource
	embeddingModel string
	log            *zap.SugaredLogger
}

// NewIngestService creates a new ingest service
func NewIngestService(store ElementStore, ai AIClient, viewer ViewerSource, embeddingModel string, log *zap.SugaredLogger) *IngestService {
	return &IngestService{
		store:          store,
		ai:             ai,
		viewer:         viewer,
		embeddingModel: embeddingModel,
		log:            log,
	}
}

// Ingest replaces all rows of one model URN from the viewer source.
// Running it twice with the same input yields the same partition: old rows
// are fully deleted, never duplicated.
func (s *IngestService) Ingest(ctx context.Context, modelURN string) (*model.IngestResponse, error) {
	startTime := time.Now()

	modelURN = strings.TrimSpace(modelURN)
	if modelURN == "" {
		return nil, fmt.Errorf("%w: model_urn is required", ErrValidation)
	}
	if s.viewer == nil || !s.viewer.IsEnabled() {
		return nil, fmt.Errorf("viewer provider: %w", ErrNotConfigured)
	}

	viewables, err := s.viewer.ListViewables(ctx, modelURN)
	if err != nil {
		return nil, err
	}

	var elements []model.Element
	for _, viewable := range viewables {
		objects, err := s.viewer.FetchProperties(ctx, modelURN, viewable.GUID)
		if err != nil {
			return nil, err
		}
		for _, obj := range objects {
			elements = append(elements, buildElement(modelURN, viewable.GUID, obj))
		}
	}
	s.log.Infow("Fetched model elements", "model_urn", modelURN,
		"viewables", len(viewables), "elements", len(elements))

	embedded := s.attachEmbeddings(ctx, elements)

	if err := s.store.ReplaceModelElements(ctx, modelURN, elements); err != nil {
		return nil, err
	}

	return &model.IngestResponse{
		ModelURN: modelURN,
		Elements: len(elements),
		Embedded: embedded,
		Took:     time.Since(startTime).Milliseconds(),
	}, nil
}

// attachEmbeddings generates vectors for every element in provider-sized
// batches. An embedding outage degrades to an ingest without vectors;
// symbolic querying must keep working.
func (s *IngestService) attachEmbeddings(ctx context.Context, elements []model.Element) int {
	if s.ai == nil || !s.ai.IsEnabled() || len(elements) == 0 {
		return 0
	}

	texts := make([]string, len(elements))
	for i := range elements {
		texts[i] = embeddingText(elements[i])
	}

	vectors, err := s.ai.EmbedBatch(ctx, texts)
	if err != nil {
		s.log.Warnw("Embedding generation failed, ingesting without vectors", "error", err)
		return 0
	}

	embedded := 0
	for i := range elements {
		if len(vectors[i]) == 0 {
			continue
		}
		elements[i].Embedding = pgvector.NewVector(vectors[i])
		elements[i].EmbeddingModel = s.embeddingModel
		embedded++
	}
	return embedded
}

// buildElement flattens one viewer record into an element row.
func buildElement(modelURN, viewableGUID string, obj ViewerObject) model.Element {
	properties := make(model.PropertyMap, len(obj.Properties))
	byName := make(map[string]string)

	for _, p := range obj.Properties {
		value := propertyValueString(p.Value)
		if value == "" {
			continue
		}
		properties[model.PropertyKey(p.Category, p.Name)] = value

		// First occurrence wins for attribute extraction
		nameKey := strings.ToLower(strings.TrimSpace(p.Name))
		if _, ok := byName[nameKey]; !ok {
			byName[nameKey] = value
		}
	}

	e := model.Element{
		ModelURN:             modelURN,
		ViewableGUID:         viewableGUID,
		ElementID:            obj.ObjectID,
		Name:                 strings.TrimSpace(obj.Name),
		Category:             normalizeCategory(byName["category"]),
		TypeName:             firstOf(byName, "type name", "type"),
		FamilyName:           firstOf(byName, "family", "family name"),
		Level:                firstOf(byName, "level", "reference level"),
		RoomType:             byName["room type"],
		RoomName:             byName["room name"],
		SystemType:           byName["system type"],
		SystemName:           byName["system name"],
		Manufacturer:         byName["manufacturer"],
		ModelName:            byName["model"],
		Specification:        firstOf(byName, "specification", "description"),
		ClassificationTitle:  firstOf(byName, "omniclass title", "assembly description"),
		ClassificationNumber: firstOf(byName, "omniclass number", "assembly code"),
		Properties:           properties,
	}
	e.IsAsset = e.Manufacturer != "" || e.ModelName != ""
	return e
}

// normalizeCategory maps the raw viewer label to the normalized category
// every query filters on. Categories are never empty.
func normalizeCategory(raw string) string {
	category := strings.TrimSpace(raw)
	category = strings.TrimPrefix(category, "Revit ")
	if category == "" {
		return "Other"
	}
	return category
}

// embeddingText is the descriptive line an element is embedded from.
func embeddingText(e model.Element) string {
	parts := []string{e.Name, e.Category, e.TypeName, e.FamilyName,
		e.Level, e.RoomName, e.SystemType, e.Manufacturer, e.ModelName}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " | ")
}

func propertyValueString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", value), "0"), ".")
	case bool:
		if value {
			return "Yes"
		}
		return "No"
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func firstOf(byName map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := byName[key]; v != "" {
			return v
		}
	}
	return ""
}
