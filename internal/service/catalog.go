package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bimquery/internal/config"
	"bimquery/internal/model"

	"go.uber.org/zap"
)

// areaKeyMarkers are matched case-insensitively against flattened property
// keys to find area-like measurements.
var areaKeyMarkers = []string{"area", "diện tích", "dien tich"}

// CatalogBuilder computes the per-request metadata snapshot a question is
// resolved against: distinct categories, sampled attribute values and
// area-like property keys.
type CatalogBuilder struct {
	store ElementStore
	cfg   config.ChatConfig
	log   *zap.SugaredLogger
}

// NewCatalogBuilder creates a new catalog builder
func NewCatalogBuilder(store ElementStore, cfg config.ChatConfig, log *zap.SugaredLogger) *CatalogBuilder {
	return &CatalogBuilder{store: store, cfg: cfg, log: log}
}

// Build computes the catalog snapshot for one model URN. A model with zero
// rows yields empty collections, not an error.
func (b *CatalogBuilder) Build(ctx context.Context, modelURN string) (*model.CatalogSnapshot, error) {
	categories, err := b.store.DistinctCategories(ctx, modelURN, b.cfg.CategoryPromptCap)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	snapshot := &model.CatalogSnapshot{
		ModelURN:     modelURN,
		Categories:   categories,
		ParamSamples: make(map[string][]string),
	}

	partition := model.ElementFilter{ModelURN: modelURN}
	for _, attr := range model.CatalogAttrs {
		values, err := b.store.DistinctValues(ctx, partition, attr, b.cfg.ParamSampleSize)
		if err != nil {
			return nil, fmt.Errorf("catalog: sampling %s: %w", attr, err)
		}
		if len(values) > 0 {
			snapshot.ParamSamples[string(attr)] = values
		}
	}

	areaKeys, err := b.scanAreaKeys(ctx, modelURN)
	if err != nil {
		return nil, err
	}
	snapshot.AreaKeys = areaKeys

	return snapshot, nil
}

// scanAreaKeys inspects a bounded prefix of rows for property keys that
// look like area measurements. The bound is a performance limit, not a
// completeness guarantee.
func (b *CatalogBuilder) scanAreaKeys(ctx context.Context, modelURN string) ([]string, error) {
	maps, err := b.store.SampleProperties(ctx, modelURN, b.cfg.AreaKeyScanRows)
	if err != nil {
		return nil, fmt.Errorf("catalog: sampling properties: %w", err)
	}

	seen := make(map[string]bool)
	for _, properties := range maps {
		for key := range properties {
			if seen[key] || !isAreaKey(key) {
				continue
			}
			seen[key] = true
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if len(keys) > b.cfg.AreaKeyLimit {
		keys = keys[:b.cfg.AreaKeyLimit]
	}
	return keys, nil
}

func isAreaKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range areaKeyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
