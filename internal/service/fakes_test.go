package service

import (
	"context"
	"database/sql"
	"errors"

	"bimquery/internal/model"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func vectorOf(id int64, v []float32) model.ElementVector {
	return model.ElementVector{ElementID: id, Embedding: pgvector.NewVector(v)}
}

// fakeStore is an in-memory ElementStore. Unset function fields return zero
// values.
type fakeStore struct {
	countFn           func(f model.ElementFilter) (int, error)
	categoriesFn      func(modelURN string, limit int) ([]string, error)
	distinctFn        func(f model.ElementFilter, attr model.FilterAttr, limit int) ([]string, error)
	groupCountFn      func(f model.ElementFilter, attr model.FilterAttr, limit int) ([]model.GroupCount, error)
	listFn            func(f model.ElementFilter, limit int) ([]model.Element, error)
	propertyValuesFn  func(f model.ElementFilter, key string) ([]sql.NullString, error)
	samplePropsFn     func(modelURN string, rowLimit int) ([]model.PropertyMap, error)
	vectorsFn         func(modelURN string) ([]model.ElementVector, error)
	replaceFn         func(modelURN string, elements []model.Element) error
	loggedChats       int
	replacedElements  []model.Element
	replacedModelURNs []string
}

func (s *fakeStore) CountElements(_ context.Context, f model.ElementFilter) (int, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(f)
}

func (s *fakeStore) DistinctCategories(_ context.Context, modelURN string, limit int) ([]string, error) {
	if s.categoriesFn == nil {
		return nil, nil
	}
	return s.categoriesFn(modelURN, limit)
}

func (s *fakeStore) DistinctValues(_ context.Context, f model.ElementFilter, attr model.FilterAttr, limit int) ([]string, error) {
	if s.distinctFn == nil {
		return nil, nil
	}
	return s.distinctFn(f, attr, limit)
}

func (s *fakeStore) GroupCountByAttr(_ context.Context, f model.ElementFilter, attr model.FilterAttr, limit int) ([]model.GroupCount, error) {
	if s.groupCountFn == nil {
		return nil, nil
	}
	return s.groupCountFn(f, attr, limit)
}

func (s *fakeStore) ListElements(_ context.Context, f model.ElementFilter, limit int) ([]model.Element, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(f, limit)
}

func (s *fakeStore) PropertyValues(_ context.Context, f model.ElementFilter, key string) ([]sql.NullString, error) {
	if s.propertyValuesFn == nil {
		return nil, nil
	}
	return s.propertyValuesFn(f, key)
}

func (s *fakeStore) SampleProperties(_ context.Context, modelURN string, rowLimit int) ([]model.PropertyMap, error) {
	if s.samplePropsFn == nil {
		return nil, nil
	}
	return s.samplePropsFn(modelURN, rowLimit)
}

func (s *fakeStore) VectorsForModel(_ context.Context, modelURN string) ([]model.ElementVector, error) {
	if s.vectorsFn == nil {
		return nil, nil
	}
	return s.vectorsFn(modelURN)
}

func (s *fakeStore) ReplaceModelElements(_ context.Context, modelURN string, elements []model.Element) error {
	s.replacedModelURNs = append(s.replacedModelURNs, modelURN)
	s.replacedElements = elements
	if s.replaceFn == nil {
		return nil
	}
	return s.replaceFn(modelURN, elements)
}

func (s *fakeStore) LogChat(_ context.Context, _, _, _ string, _ *model.QueryPlan, _ int, _ string, _ int) error {
	s.loggedChats++
	return nil
}

// fakeAI is a scripted AIClient.
type fakeAI struct {
	enabled           bool
	inferStructuredFn func(prompt string, target any) error
	inferTextFn       func(prompt string) (string, error)
	embedFn           func(text string) ([]float32, error)
	embedBatchFn      func(texts []string) ([][]float32, error)
	structuredCalls   int
}

func (a *fakeAI) InferStructured(_ context.Context, prompt string, target any) error {
	a.structuredCalls++
	if a.inferStructuredFn == nil {
		return errors.New("no structured inference scripted")
	}
	return a.inferStructuredFn(prompt, target)
}

func (a *fakeAI) InferText(_ context.Context, prompt string) (string, error) {
	if a.inferTextFn == nil {
		return "", errors.New("no text inference scripted")
	}
	return a.inferTextFn(prompt)
}

func (a *fakeAI) Embed(_ context.Context, text string) ([]float32, error) {
	if a.embedFn == nil {
		return nil, errors.New("no embedding scripted")
	}
	return a.embedFn(text)
}

func (a *fakeAI) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if a.embedBatchFn == nil {
		return nil, errors.New("no batch embedding scripted")
	}
	return a.embedBatchFn(texts)
}

func (a *fakeAI) IsEnabled() bool { return a.enabled }

// fakeViewer is a scripted ViewerSource.
type fakeViewer struct {
	enabled      bool
	viewables    []Viewable
	viewablesErr error
	objects      map[string][]ViewerObject
	objectsErr   error
}

func (v *fakeViewer) ListViewables(_ context.Context, _ string) ([]Viewable, error) {
	return v.viewables, v.viewablesErr
}

func (v *fakeViewer) FetchProperties(_ context.Context, _, guid string) ([]ViewerObject, error) {
	if v.objectsErr != nil {
		return nil, v.objectsErr
	}
	return v.objects[guid], nil
}

func (v *fakeViewer) IsEnabled() bool { return v.enabled }
