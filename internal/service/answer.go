package service

import (
	"context"
	"fmt"
	"strings"

	"bimquery/internal/model"

	"go.uber.org/zap"
)

// answerEnumerationCap bounds how many entries get spelled out in replies.
const answerEnumerationCap = 15

// AnswerSynthesizer renders a structured query result into a short
// natural-language reply in the language of the question.
type AnswerSynthesizer struct {
	ai  AIClient
	log *zap.SugaredLogger
}

// NewAnswerSynthesizer creates a new answer synthesizer
func NewAnswerSynthesizer(ai AIClient, log *zap.SugaredLogger) *AnswerSynthesizer {
	return &AnswerSynthesizer{ai: ai, log: log}
}

// Synthesize phrases the result for the user. When the AI client is
// disabled or errors, the deterministic fact rendering is returned as-is.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, plan *model.QueryPlan, result *model.QueryResult) string {
	facts := RenderFacts(plan, result)

	if s.ai == nil || !s.ai.IsEnabled() {
		return facts
	}

	var b strings.Builder
	b.WriteString("You are an assistant answering questions about a building information model.\n")
	b.WriteString("Question: " + plan.Question + "\n")
	b.WriteString("Verified query result:\n" + facts + "\n")
	b.WriteString("Reply in the language of the question, in at most three sentences. ")
	b.WriteString("State only what the result says; do not invent numbers or names. ")
	if result.IsEmpty() {
		b.WriteString("Say explicitly that nothing was found and suggest how the user could rephrase the question.")
	}

	answer, err := s.ai.InferText(ctx, b.String())
	if err != nil || answer == "" {
		if err != nil {
			s.log.Warnf("Answer synthesis failed, returning fact rendering: %v", err)
		}
		return facts
	}
	return answer
}

// RenderFacts produces the deterministic, hallucination-free rendering of a
// query result. It is both the synthesis prompt payload and the fallback
// answer.
func RenderFacts(plan *model.QueryPlan, result *model.QueryResult) string {
	if result.IsEmpty() {
		return "No matching elements were found in this model. " +
			"The category, filter value or attribute may not exist here; try rephrasing the question."
	}

	subject := "elements"
	if plan.Category != "" {
		subject = fmt.Sprintf("%q elements", plan.Category)
	}

	switch result.Kind {
	case model.ResultCount:
		return fmt.Sprintf("Found %d %s.", result.Count, subject)

	case model.ResultDistinct:
		values := result.Values
		suffix := ""
		if len(values) > answerEnumerationCap {
			values = values[:answerEnumerationCap]
			suffix = fmt.Sprintf(" (and %d more)", len(result.Values)-answerEnumerationCap)
		}
		return fmt.Sprintf("Distinct %s values among %s: %s%s.",
			plan.TargetAttr, subject, strings.Join(values, ", "), suffix)

	case model.ResultGroupCount:
		groups := result.Groups
		suffix := ""
		if len(groups) > answerEnumerationCap {
			groups = groups[:answerEnumerationCap]
			suffix = fmt.Sprintf(" (and %d more groups)", len(result.Groups)-answerEnumerationCap)
		}
		parts := make([]string, 0, len(groups))
		for _, g := range groups {
			parts = append(parts, fmt.Sprintf("%s: %d", g.Value, g.Count))
		}
		return fmt.Sprintf("Counts of %s by %s: %s%s.",
			subject, plan.TargetAttr, strings.Join(parts, ", "), suffix)

	case model.ResultSumArea:
		return fmt.Sprintf("Total of %q over %s: %.2f across %d elements (%d without a numeric value). "+
			"The unit is whatever the model stores for that property.",
			plan.AreaKey, subject, result.Sum.Total, result.Sum.Counted, result.Sum.Skipped)

	default: // list
		names := make([]string, 0, len(result.Rows))
		for i, row := range result.Rows {
			if i == answerEnumerationCap {
				break
			}
			name := row.Name
			if name == "" {
				name = fmt.Sprintf("element %d", row.ElementID)
			}
			names = append(names, name)
		}
		suffix := ""
		if len(result.Rows) > answerEnumerationCap {
			suffix = fmt.Sprintf(" (and %d more)", len(result.Rows)-answerEnumerationCap)
		}
		return fmt.Sprintf("Matching %s: %s%s.", subject, strings.Join(names, ", "), suffix)
	}
}
