package service

import (
	"ai-flowchat-be/internal/dto"
	"ai-flowchat-be/pkg/flow"
)

type IFlowService interface {
	ListFlows() []dto.FlowSummaryResponse
	GetFlow(key string) (*dto.FlowDetailResponse, error)
}

type flowService struct {
	registry *flow.Registry
}

func NewFlowService(registry *flow.Registry) IFlowService {
	return &flowService{registry: registry}
}

func (s *flowService) ListFlows() []dto.FlowSummaryResponse {
	defs := s.registry.ListFlows()
	out := make([]dto.FlowSummaryResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, dto.FlowSummaryResponse{
			Key:              def.Key,
			PermittedActions: actionsToStrings(def.PermittedActions),
			SuggestedPrompts: def.SuggestedPrompts,
		})
	}
	return out
}

func (s *flowService) GetFlow(key string) (*dto.FlowDetailResponse, error) {
	def, err := s.registry.Resolve(key)
	if err != nil {
		return nil, err
	}

	detail := &dto.FlowDetailResponse{
		Key:              def.Key,
		PermittedActions: actionsToStrings(def.PermittedActions),
		SuggestedPrompts: def.SuggestedPrompts,
		HasRetrieval:     def.Retrieval != nil,
		SearchLimit:      def.SearchLimit,
		FinalCount:       def.FinalCount,
		ScoreThreshold:   def.ScoreThreshold,
	}
	if def.Retrieval != nil {
		detail.Collection = def.Retrieval.Collection
		detail.ScoringScheme = string(def.Retrieval.Scheme)
	}
	return detail, nil
}

func actionsToStrings(actions []flow.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}
