package entities

// RetrievedDocument is the wire shape of a retrieval hit.
type RetrievedDocument struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Scored converts the hit into a ScoredDocument, reading payload.text.
func (d RetrievedDocument) Scored() ScoredDocument {
	text, _ := d.Payload["text"].(string)
	return ScoredDocument{Text: text, Score: d.Score, Payload: d.Payload}
}

// OrchestrationRequest is the inbound payload.
// Query is a pointer so a missing field can be told apart from an empty one.
type OrchestrationRequest struct {
	Query              *string             `json:"query"`
	TenantID           string              `json:"tenantId,omitempty"`
	PersonaID          string              `json:"personaId,omitempty"`
	UserEmail          string              `json:"userEmail,omitempty"`
	RetrievedDocuments []RetrievedDocument `json:"retrievedDocuments"`
}

// Validate checks the structural shape of the request.
func (r *OrchestrationRequest) Validate() error {
	if r == nil || r.Query == nil {
		return &ValidationError{Field: "query", Err: ErrMissingQuery}
	}
	return nil
}

// Documents returns the retrieval hits as ScoredDocuments, in retrieval order.
func (r *OrchestrationRequest) Documents() []ScoredDocument {
	docs := make([]ScoredDocument, len(r.RetrievedDocuments))
	for i, d := range r.RetrievedDocuments {
		docs[i] = d.Scored()
	}
	return docs
}

// OrchestrationResult is the outbound payload handed to downstream inference.
type OrchestrationResult struct {
	Prompt               string           `json:"prompt"`
	HasContext           bool             `json:"hasContext"`
	ContextCount         int              `json:"contextCount"`
	TenantID             string           `json:"tenantId"`
	PersonaID            string           `json:"personaId"`
	UsedExternalConfig   bool             `json:"usedExternalConfig"`
	SelectedModel        string           `json:"selectedModel"`
	ModelSelectionReason string           `json:"modelSelectionReason"`
	ModelCapabilities    ModelDescriptor  `json:"modelCapabilities"`
	QueryScores          ComplexityScores `json:"queryScores"`
}

// GenerationResult is an orchestration result plus the model's answer.
type GenerationResult struct {
	OrchestrationResult
	Answer string `json:"answer"`
}
