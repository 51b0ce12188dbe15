package service

import (
	"context"
	"fmt"

	"bimquery/internal/model"
	"bimquery/internal/utils"

	"go.uber.org/zap"
)

// QueryEngine synthesizes and runs the final read for a finalized plan.
type QueryEngine struct {
	store ElementStore
	log   *zap.SugaredLogger
}

// NewQueryEngine creates a new query engine
func NewQueryEngine(store ElementStore, log *zap.SugaredLogger) *QueryEngine {
	return &QueryEngine{store: store, log: log}
}

// Execute runs the plan's task over the conjunctive filter. Task-required
// fields an inference step failed to supply are a fatal step failure, never
// silently defaulted.
func (e *QueryEngine) Execute(ctx context.Context, plan *model.QueryPlan) (*model.QueryResult, error) {
	f := plan.Filter()

	switch plan.Task {
	case model.TaskCount:
		count, err := e.store.CountElements(ctx, f)
		if err != nil {
			return nil, err
		}
		return &model.QueryResult{Kind: model.ResultCount, Count: count}, nil

	case model.TaskDistinct:
		if plan.TargetAttr.Column() == "" {
			return nil, fmt.Errorf("%w: distinct requires a target attribute", ErrQueryConstruction)
		}
		values, err := e.store.DistinctValues(ctx, f, plan.TargetAttr, plan.Limit)
		if err != nil {
			return nil, err
		}
		return &model.QueryResult{Kind: model.ResultDistinct, Values: values}, nil

	case model.TaskGroupCount:
		if plan.TargetAttr.Column() == "" {
			return nil, fmt.Errorf("%w: group_count requires a target attribute", ErrQueryConstruction)
		}
		groups, err := e.store.GroupCountByAttr(ctx, f, plan.TargetAttr, plan.Limit)
		if err != nil {
			return nil, err
		}
		return &model.QueryResult{Kind: model.ResultGroupCount, Groups: groups}, nil

	case model.TaskSumArea:
		if plan.AreaKey == "" {
			return nil, fmt.Errorf("%w: sum_area requires an area property key", ErrQueryConstruction)
		}
		values, err := e.store.PropertyValues(ctx, f, plan.AreaKey)
		if err != nil {
			return nil, err
		}
		sum := &model.AreaSum{}
		for _, v := range values {
			if !v.Valid {
				sum.Skipped++
				continue
			}
			number, ok := utils.ExtractDecimal(v.String)
			if !ok {
				sum.Skipped++
				continue
			}
			sum.Total += number
			sum.Counted++
		}
		return &model.QueryResult{Kind: model.ResultSumArea, Sum: sum}, nil

	default: // TaskList
		elements, err := e.store.ListElements(ctx, f, plan.Limit)
		if err != nil {
			return nil, err
		}
		rows := make([]model.ElementView, 0, len(elements))
		for _, el := range elements {
			rows = append(rows, model.ViewOf(el))
		}
		return &model.QueryResult{Kind: model.ResultList, Rows: rows}, nil
	}
}
