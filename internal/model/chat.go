package model

// ChatRequest represents a question about one translated model.
type ChatRequest struct {
	ModelURN string `json:"model_urn" binding:"required"`
	Question string `json:"question" binding:"required"`
}

// ChatResponse represents the resolved answer for a question.
type ChatResponse struct {
	ChatID string       `json:"chat_id"`
	Answer string       `json:"answer"`
	Plan   *QueryPlan   `json:"plan,omitempty"`
	Result *QueryResult `json:"result,omitempty"`
	Took   int64        `json:"took_ms"`
}

// IngestRequest asks for a full re-ingest of one model's elements.
type IngestRequest struct {
	ModelURN string `json:"model_urn" binding:"required"`
}

// IngestResponse summarizes one ingest run.
type IngestResponse struct {
	ModelURN string `json:"model_urn"`
	Elements int    `json:"elements"`
	Embedded int    `json:"embedded"`
	Took     int64  `json:"took_ms"`
}
