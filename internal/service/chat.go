package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bimquery/internal/config"
	"bimquery/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// countQuestionRe recognizes plain "how many X" questions eligible for the
// lexical fast path.
var countQuestionRe = regexp.MustCompile(`(?i)how many|bao nhiêu|có mấy`)

// ChatService resolves one natural-language question into a structured
// query and a rendered answer. Stages are strictly sequential: each
// inference step depends on the previous one's output.
type ChatService struct {
	store   ElementStore
	ai      AIClient
	catalog *CatalogBuilder
	engine  *QueryEngine
	answers *AnswerSynthesizer
	cfg     config.ChatConfig
	log     *zap.SugaredLogger
}

// NewChatService creates a new chat service
func NewChatService(
	store ElementStore,
	ai AIClient,
	catalog *CatalogBuilder,
	engine *QueryEngine,
	answers *AnswerSynthesizer,
	cfg config.ChatConfig,
	log *zap.SugaredLogger,
) *ChatService {
	return &ChatService{
		store:   store,
		ai:      ai,
		catalog: catalog,
		engine:  engine,
		answers: answers,
		cfg:     cfg,
		log:     log,
	}
}

// categoryInference is the structured output of the category step.
type categoryInference struct {
	InScope  bool   `json:"in_scope"`
	Task     string `json:"task"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
	Notes    string `json:"notes"`
}

// paramInference is the structured output of the parameter step.
type paramInference struct {
	UseSemantic     bool   `json:"use_semantic"`
	SemanticQuery   string `json:"semantic_query"`
	TopK            int    `json:"top_k"`
	FilterAttr      string `json:"filter_attr"`
	FilterValue     string `json:"filter_value"`
	TargetAttr      string `json:"target_attr"`
	AreaPropertyKey string `json:"area_property_key"`
}

// valueChoice is the structured output of the disambiguation step.
type valueChoice struct {
	Value string `json:"value"`
}

// Resolve runs the full question-resolution pipeline for one request.
func (s *ChatService) Resolve(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	startTime := time.Now()

	modelURN := strings.TrimSpace(req.ModelURN)
	question := strings.TrimSpace(req.Question)
	if modelURN == "" {
		return nil, fmt.Errorf("%w: model_urn is required", ErrValidation)
	}
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrValidation)
	}

	// A model with no ingested rows gets an explained empty answer, not an
	// error.
	total, err := s.store.CountElements(ctx, model.ElementFilter{ModelURN: modelURN})
	if err != nil {
		return nil, err
	}
	if total == 0 {
		s.log.Infow("Model has no ingested elements", "model_urn", modelURN)
		return &model.ChatResponse{
			ChatID: uuid.NewString(),
			Answer: "This model has no ingested elements yet. Run an ingest for it first, then ask again.",
			Took:   time.Since(startTime).Milliseconds(),
		}, nil
	}

	catalog, err := s.catalog.Build(ctx, modelURN)
	if err != nil {
		return nil, err
	}

	plan := &model.QueryPlan{
		ModelURN: modelURN,
		Question: question,
		InScope:  true,
		Task:     model.TaskList,
		Limit:    s.cfg.DefaultLimit,
	}

	hint := MatchCategoryHint(question)

	if !s.fastPathCount(plan, catalog, hint) {
		if err := s.inferCategory(ctx, plan, catalog, hint); err != nil {
			return nil, err
		}
	}

	if !plan.InScope {
		answer := s.generalAnswer(ctx, question)
		resp := s.respond(startTime, plan, nil, answer)
		return resp, nil
	}

	if err := s.inferParams(ctx, plan, catalog); err != nil {
		return nil, err
	}

	if err := s.disambiguateValue(ctx, plan); err != nil {
		return nil, err
	}

	s.narrowSemantically(ctx, plan)

	result, err := s.engine.Execute(ctx, plan)
	if err != nil {
		return nil, err
	}

	answer := s.answers.Synthesize(ctx, plan, result)
	return s.respond(startTime, plan, result, answer), nil
}

// fastPathCount shortcuts plain "how many <category>" questions when the
// lexical hint names a category that exists in the catalog, skipping the
// category inference call entirely.
func (s *ChatService) fastPathCount(plan *model.QueryPlan, catalog *model.CatalogSnapshot, hint string) bool {
	if hint == "" || !catalog.HasCategory(hint) || !countQuestionRe.MatchString(plan.Question) {
		return false
	}
	plan.Task = model.TaskCount
	plan.Category = hint
	plan.Notes = "lexical fast path"
	s.log.Infow("Lexical fast path matched", "category", hint)
	return true
}

// inferCategory runs the category inference step and validates its output
// against the catalog: the step selects from the supplied list, it never
// generates new labels.
func (s *ChatService) inferCategory(ctx context.Context, plan *model.QueryPlan, catalog *model.CatalogSnapshot, hint string) error {
	var out categoryInference
	if err := s.ai.InferStructured(ctx, categoryPrompt(plan.Question, catalog.Categories, hint), &out); err != nil {
		return fmt.Errorf("category inference: %w", err)
	}

	plan.InScope = out.InScope
	plan.Task = model.ParseTaskType(out.Task)
	plan.Notes = out.Notes

	if out.Limit > 0 {
		plan.Limit = out.Limit
	}
	if plan.Limit > s.cfg.MaxLimit {
		plan.Limit = s.cfg.MaxLimit
	}

	switch {
	case out.Category == "":
		// no category filter
	case catalog.HasCategory(out.Category):
		plan.Category = out.Category
	case hint != "" && catalog.HasCategory(hint):
		s.log.Warnw("Inferred category not in catalog, falling back to lexical hint",
			"inferred", out.Category, "hint", hint)
		plan.Category = hint
	default:
		s.log.Warnw("Inferred category not in catalog, dropping", "inferred", out.Category)
	}
	return nil
}

// inferParams runs the parameter inference step and sanitizes every
// attribute against the closed allow-list before it can reach a query.
func (s *ChatService) inferParams(ctx context.Context, plan *model.QueryPlan, catalog *model.CatalogSnapshot) error {
	var out paramInference
	if err := s.ai.InferStructured(ctx, paramPrompt(plan, catalog), &out); err != nil {
		return fmt.Errorf("parameter inference: %w", err)
	}

	plan.UseSemantic = out.UseSemantic
	plan.SemanticQuery = strings.TrimSpace(out.SemanticQuery)
	plan.TopK = out.TopK
	if plan.TopK <= 0 {
		plan.TopK = s.cfg.DefaultTopK
	}

	if attr, ok := model.ParseFilterAttr(out.FilterAttr); ok {
		plan.FilterAttr = attr
		plan.FilterValue = strings.TrimSpace(out.FilterValue)
	} else if out.FilterAttr != "" {
		s.log.Warnw("Discarding filter attribute outside allow-list", "attr", out.FilterAttr)
	}

	if attr, ok := model.ParseFilterAttr(out.TargetAttr); ok {
		plan.TargetAttr = attr
	} else if out.TargetAttr != "" {
		s.log.Warnw("Discarding target attribute outside allow-list", "attr", out.TargetAttr)
	}

	if out.AreaPropertyKey != "" {
		if catalog.HasAreaKey(out.AreaPropertyKey) {
			plan.AreaKey = out.AreaPropertyKey
		} else {
			s.log.Warnw("Discarding area key absent from catalog", "key", out.AreaPropertyKey)
		}
	}

	// Task-required fields must be present now; defaulting them silently
	// would hide an inference failure.
	if (plan.Task == model.TaskDistinct || plan.Task == model.TaskGroupCount) && plan.TargetAttr == "" {
		return fmt.Errorf("%w: task %s needs a target attribute", ErrQueryConstruction, plan.Task)
	}
	if plan.Task == model.TaskSumArea && plan.AreaKey == "" {
		return fmt.Errorf("%w: task sum_area needs an area property key", ErrQueryConstruction)
	}
	return nil
}

// disambiguateValue replaces a filter value that matches no live distinct
// value with the closest real one, chosen by inference from an enumerated
// candidate list. A choice outside the list is discarded; the prior value
// stands and will likely match zero rows downstream.
func (s *ChatService) disambiguateValue(ctx context.Context, plan *model.QueryPlan) error {
	if plan.FilterAttr == "" || plan.FilterValue == "" {
		return nil
	}

	candidates, err := s.store.DistinctValues(ctx,
		model.ElementFilter{ModelURN: plan.ModelURN}, plan.FilterAttr, s.cfg.DisambiguationCap)
	if err != nil {
		return err
	}

	trimmed := strings.TrimSpace(plan.FilterValue)
	for _, c := range candidates {
		if strings.TrimSpace(c) == trimmed {
			plan.FilterValue = c
			return nil
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	var out valueChoice
	if err := s.ai.InferStructured(ctx, disambiguationPrompt(plan, candidates), &out); err != nil {
		return fmt.Errorf("value disambiguation: %w", err)
	}

	for _, c := range candidates {
		if c == out.Value {
			s.log.Infow("Disambiguated filter value",
				"attr", plan.FilterAttr, "from", plan.FilterValue, "to", c)
			plan.FilterValue = c
			return nil
		}
	}

	s.log.Warnw("Disambiguation returned a value outside the candidate list, keeping original",
		"attr", plan.FilterAttr, "value", out.Value)
	return nil
}

// narrowSemantically optionally restricts the candidate row set via vector
// similarity. Any failure here degrades to an unnarrowed query; an
// embedding outage must not abort the question.
func (s *ChatService) narrowSemantically(ctx context.Context, plan *model.QueryPlan) {
	if !plan.UseSemantic {
		return
	}

	queryText := plan.SemanticQuery
	if queryText == "" {
		queryText = plan.Question
	}

	queryVec, err := s.ai.Embed(ctx, queryText)
	if err != nil || len(queryVec) == 0 {
		s.log.Warnw("Semantic narrowing skipped: embedding unavailable", "error", err)
		return
	}

	vectors, err := s.store.VectorsForModel(ctx, plan.ModelURN)
	if err != nil {
		s.log.Warnw("Semantic narrowing skipped: vector load failed", "error", err)
		return
	}

	ids := TopKByCosine(queryVec, vectors, plan.TopK)
	if len(ids) == 0 {
		s.log.Infow("Semantic narrowing produced no candidates, proceeding unnarrowed")
		return
	}
	plan.CandidateIDs = ids
}

// generalAnswer answers out-of-scope questions without touching the
// dataset.
func (s *ChatService) generalAnswer(ctx context.Context, question string) string {
	if s.ai == nil || !s.ai.IsEnabled() {
		return "I can only answer questions about the loaded building model."
	}
	answer, err := s.ai.InferText(ctx,
		"Answer briefly, in the language of the question. Question: "+question)
	if err != nil || answer == "" {
		return "I can only answer questions about the loaded building model."
	}
	return answer
}

// respond assembles the response and logs the chat without blocking it.
func (s *ChatService) respond(startTime time.Time, plan *model.QueryPlan, result *model.QueryResult, answer string) *model.ChatResponse {
	took := time.Since(startTime).Milliseconds()
	chatID := uuid.NewString()

	resultCount := 0
	if result != nil && !result.IsEmpty() {
		switch result.Kind {
		case model.ResultCount:
			resultCount = result.Count
		case model.ResultDistinct:
			resultCount = len(result.Values)
		case model.ResultGroupCount:
			resultCount = len(result.Groups)
		case model.ResultSumArea:
			resultCount = result.Sum.Counted
		case model.ResultList:
			resultCount = len(result.Rows)
		}
	}

	// Log chat (non-blocking)
	go func() {
		if err := s.store.LogChat(context.Background(), chatID, plan.ModelURN, plan.Question, plan, resultCount, answer, int(took)); err != nil {
			s.log.Warnw("Failed to log chat", "chat_id", chatID, "error", err)
		}
	}()

	return &model.ChatResponse{
		ChatID: chatID,
		Answer: answer,
		Plan:   plan,
		Result: result,
		Took:   took,
	}
}

// categoryPrompt builds the category inference prompt from the live
// catalog.
func categoryPrompt(question string, categories []string, hint string) string {
	var b strings.Builder
	b.WriteString("You classify a question about a building information model.\n")
	b.WriteString("The question may mix Vietnamese and English.\n\n")
	b.WriteString("Categories present in this model:\n")
	for _, c := range categories {
		b.WriteString("- " + c + "\n")
	}
	if hint != "" {
		b.WriteString("\nA keyword rule suggests the category may be: " + hint + "\n")
	}
	b.WriteString("\nQuestion: " + question + "\n\n")
	b.WriteString(`Return JSON with exactly these fields:
{
  "in_scope": bool,    // false when the question is not about this model's elements
  "task": string,      // one of "count", "distinct", "group_count", "sum_area", "list"
  "category": string,  // copied VERBATIM from the list above, or "" when no single category applies
  "limit": int,        // max results the user wants, 20 when unstated
  "notes": string      // one short remark about your reading of the question
}
Never output a category that is not in the list.`)
	return b.String()
}

// paramPrompt builds the parameter inference prompt from the plan so far
// and the catalog's samples.
func paramPrompt(plan *model.QueryPlan, catalog *model.CatalogSnapshot) string {
	var b strings.Builder
	b.WriteString("You refine a query over a building information model.\n")
	b.WriteString(fmt.Sprintf("Task: %s. Category filter: %q.\n", plan.Task, plan.Category))
	b.WriteString("Question: " + plan.Question + "\n\n")

	b.WriteString("Queryable attributes and sample values from this model:\n")
	for _, attr := range model.CatalogAttrs {
		samples := catalog.ParamSamples[string(attr)]
		if len(samples) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", attr, strings.Join(samples, ", ")))
	}
	if len(catalog.AreaKeys) > 0 {
		b.WriteString("\nArea-like property keys: " + strings.Join(catalog.AreaKeys, ", ") + "\n")
	}

	b.WriteString(`
Return JSON with exactly these fields:
{
  "use_semantic": bool,       // true when the question describes a concept or characteristic instead of naming a category or value verbatim
  "semantic_query": string,   // the phrase to embed when use_semantic is true, else ""
  "top_k": int,               // semantic candidate count, 100 when unsure
  "filter_attr": string,      // one of the attribute names above, or ""
  "filter_value": string,     // the value the question filters on, or ""
  "target_attr": string,      // for distinct/group_count: the attribute to enumerate or group by, else ""
  "area_property_key": string // for sum_area: copied VERBATIM from the area-like keys, else ""
}
Use only attribute names and area keys listed above.`)
	return b.String()
}

// disambiguationPrompt asks for the closest real value, selection only.
func disambiguationPrompt(plan *model.QueryPlan, candidates []string) string {
	var b strings.Builder
	b.WriteString("A question filters the attribute \"" + string(plan.FilterAttr) + "\" ")
	b.WriteString(fmt.Sprintf("by %q, but that exact value does not exist in the model.\n", plan.FilterValue))
	b.WriteString("Question: " + plan.Question + "\n\n")
	b.WriteString("Values that do exist:\n")
	for _, c := range candidates {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString(`
Return JSON: {"value": string} where value is copied VERBATIM from the list
above and is what the question most plausibly means, or "" when none fits.`)
	return b.String()
}
