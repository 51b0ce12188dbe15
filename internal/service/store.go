package service

import (
	"context"
	"database/sql"

	"bimquery/internal/model"
)

// ElementStore is the row-store surface the pipeline depends on. The
// Postgres repository implements it; tests use in-memory fakes.
type ElementStore interface {
	CountElements(ctx context.Context, f model.ElementFilter) (int, error)
	DistinctCategories(ctx context.Context, modelURN string, limit int) ([]string, error)
	DistinctValues(ctx context.Context, f model.ElementFilter, attr model.FilterAttr, limit int) ([]string, error)
	GroupCountByAttr(ctx context.Context, f model.ElementFilter, attr model.FilterAttr, limit int) ([]model.GroupCount, error)
	ListElements(ctx context.Context, f model.ElementFilter, limit int) ([]model.Element, error)
	PropertyValues(ctx context.Context, f model.ElementFilter, key string) ([]sql.NullString, error)
	SampleProperties(ctx context.Context, modelURN string, rowLimit int) ([]model.PropertyMap, error)
	VectorsForModel(ctx context.Context, modelURN string) ([]model.ElementVector, error)
	ReplaceModelElements(ctx context.Context, modelURN string, elements []model.Element) error
	LogChat(ctx context.Context, chatID, modelURN, question string, plan *model.QueryPlan, resultCount int, answer string, responseTimeMs int) error
}
