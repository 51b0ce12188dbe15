package service

import (
	"context"
	"database/sql"
	"testing"

	"bimquery/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryEngine_Count(t *testing.T) {
	store := &fakeStore{
		countFn: func(f model.ElementFilter) (int, error) {
			assert.Equal(t, "urn:model", f.ModelURN)
			assert.Equal(t, "Doors", f.Category)
			return 15, nil
		},
	}
	engine := NewQueryEngine(store, testLogger())

	result, err := engine.Execute(context.Background(), &model.QueryPlan{
		ModelURN: "urn:model",
		Task:     model.TaskCount,
		Category: "Doors",
	})

	require.NoError(t, err)
	assert.Equal(t, model.ResultCount, result.Kind)
	assert.Equal(t, 15, result.Count)
}

func TestQueryEngine_DistinctNeedsTargetAttr(t *testing.T) {
	engine := NewQueryEngine(&fakeStore{}, testLogger())

	_, err := engine.Execute(context.Background(), &model.QueryPlan{
		ModelURN: "urn:model",
		Task:     model.TaskDistinct,
	})

	assert.ErrorIs(t, err, ErrQueryConstruction)
}

func TestQueryEngine_GroupCountNeedsTargetAttr(t *testing.T) {
	engine := NewQueryEngine(&fakeStore{}, testLogger())

	_, err := engine.Execute(context.Background(), &model.QueryPlan{
		ModelURN: "urn:model",
		Task:     model.TaskGroupCount,
	})

	assert.ErrorIs(t, err, ErrQueryConstruction)
}

func TestQueryEngine_SumArea(t *testing.T) {
	store := &fakeStore{
		propertyValuesFn: func(f model.ElementFilter, key string) ([]sql.NullString, error) {
			assert.Equal(t, "Dimensions.Area", key)
			return []sql.NullString{
				{String: "120.5 m²", Valid: true},
				{String: "80,25", Valid: true},
				{Valid: false},
				{String: "not a number", Valid: true},
			}, nil
		},
	}
	engine := NewQueryEngine(store, testLogger())

	result, err := engine.Execute(context.Background(), &model.QueryPlan{
		ModelURN: "urn:model",
		Task:     model.TaskSumArea,
		AreaKey:  "Dimensions.Area",
	})

	require.NoError(t, err)
	require.Equal(t, model.ResultSumArea, result.Kind)
	assert.InDelta(t, 200.75, result.Sum.Total, 1e-9)
	assert.Equal(t, 2, result.Sum.Counted)
	assert.Equal(t, 2, result.Sum.Skipped)
}

func TestQueryEngine_SumAreaNeedsKey(t *testing.T) {
	engine := NewQueryEngine(&fakeStore{}, testLogger())

	_, err := engine.Execute(context.Background(), &model.QueryPlan{
		ModelURN: "urn:model",
		Task:     model.TaskSumArea,
	})

	assert.ErrorIs(t, err, ErrQueryConstruction)
}

func TestQueryEngine_List(t *testing.T) {
	store := &fakeStore{
		listFn: func(f model.ElementFilter, limit int) ([]model.Element, error) {
			assert.Equal(t, 20, limit)
			return []model.Element{
				{ElementID: 1, Name: "Door A", Category: "Doors", Level: "L1"},
				{ElementID: 2, Name: "Door B", Category: "Doors", Level: "L2"},
			}, nil
		},
	}
	engine := NewQueryEngine(store, testLogger())

	result, err := engine.Execute(context.Background(), &model.QueryPlan{
		ModelURN: "urn:model",
		Task:     model.TaskList,
		Limit:    20,
	})

	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Door A", result.Rows[0].Name)
	assert.Equal(t, "L2", result.Rows[1].Location.Level)
}

func TestQueryEngine_FilterSanitization(t *testing.T) {
	// An attribute outside the allow-list never reaches the store filter.
	plan := &model.QueryPlan{
		ModelURN:    "urn:model",
		FilterAttr:  model.FilterAttr("properties; DROP TABLE elements"),
		FilterValue: "x",
	}
	f := plan.Filter()
	assert.Empty(t, string(f.Attr))
	assert.Empty(t, f.Value)
}
