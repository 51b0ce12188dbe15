package model

// ElementFilter is the closed, conjunctive filter the query engine hands to
// the row store: model URN equality AND optional semantic-candidate
// membership AND optional category equality AND optional allow-listed
// attribute equality. It is the only way attribute names reach SQL.
type ElementFilter struct {
	ModelURN   string
	Category   string
	Attr       FilterAttr
	Value      string
	ElementIDs []int64
}

// Filter derives the row-store filter from the finalized plan.
func (p *QueryPlan) Filter() ElementFilter {
	f := ElementFilter{
		ModelURN:   p.ModelURN,
		Category:   p.Category,
		ElementIDs: p.CandidateIDs,
	}
	if p.FilterAttr.Column() != "" && p.FilterValue != "" {
		f.Attr = p.FilterAttr
		f.Value = p.FilterValue
	}
	return f
}
