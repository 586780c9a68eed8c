package dto

type FlowSummaryResponse struct {
	Key              string   `json:"key"`
	PermittedActions []string `json:"permitted_actions"`
	SuggestedPrompts []string `json:"suggested_prompts,omitempty"`
}

type FlowDetailResponse struct {
	Key              string   `json:"key"`
	PermittedActions []string `json:"permitted_actions"`
	SuggestedPrompts []string `json:"suggested_prompts,omitempty"`
	HasRetrieval     bool     `json:"has_retrieval"`
	Collection       string   `json:"collection,omitempty"`
	ScoringScheme    string   `json:"scoring_scheme,omitempty"`
	SearchLimit      int      `json:"search_limit"`
	FinalCount       int      `json:"final_count"`
	ScoreThreshold   float64  `json:"score_threshold"`
}
