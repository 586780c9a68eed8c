package bootstrap

import (
	"ai-flowchat-be/internal/config"
	"ai-flowchat-be/internal/constant"
	"ai-flowchat-be/pkg/flow"
)

// DefaultFlowDefinitions returns the built-in business flows. Prompt
// templates and score thresholds can be overridden per flow through the
// FLOW_PROMPT_<KEY> and FLOW_THRESHOLD_<KEY> environment variables.
func DefaultFlowDefinitions(cfg *config.Config) []*flow.Definition {
	defs := []*flow.Definition{
		{
			Key: "HR",
			Retrieval: &flow.PartitionRef{
				Collection: "hr_policies",
				Scheme:     flow.SchemeDistance,
			},
			PermittedActions: []flow.Action{flow.ActionAnswerOnly},
			PromptTemplate:   constant.HRPromptTemplateV1,
			SuggestedPrompts: []string{
				"What is the probation period policy?",
				"How do I report a workplace issue?",
			},
			ScoreThreshold: 0.55,
		},
		{
			Key: "TOR",
			Retrieval: &flow.PartitionRef{
				Collection:   "tor_documents",
				Scheme:       flow.SchemeCertainty,
				ReturnFields: []string{"project", "party"},
			},
			PermittedActions:              []flow.Action{flow.ActionAnswerOnly, flow.ActionRead},
			PromptTemplate:                constant.TORPromptTemplateV1,
			TranslateQueryBeforeEmbedding: true,
			SuggestedPrompts: []string{
				"What are the deliverables for this project?",
				"Who is responsible for milestone two?",
			},
			ScoreThreshold: 0.6,
		},
		{
			Key: "CRM",
			Retrieval: &flow.PartitionRef{
				Collection: "crm_records",
				Scheme:     flow.SchemeLexical,
			},
			PermittedActions: []flow.Action{flow.ActionAnswerOnly, flow.ActionCreate, flow.ActionRead, flow.ActionUpdate},
			PromptTemplate:   constant.CRMPromptTemplateV1,
			SuggestedPrompts: []string{
				"Show me recent interactions with Acme Corp",
				"Create a follow-up record for the Jones account",
			},
			ProcessId: "crm-record-process",
			FieldMapping: map[string]string{
				"customer": "customer_name",
				"summary":  "interaction_summary",
				"channel":  "contact_channel",
			},
		},
		{
			Key: "LEAVE",
			Retrieval: &flow.PartitionRef{
				Collection: "leave_policies",
				Scheme:     flow.SchemeDistance,
			},
			PermittedActions: []flow.Action{flow.ActionAnswerOnly, flow.ActionCreate, flow.ActionQuery},
			PromptTemplate:   constant.LeavePromptTemplateV1,
			SuggestedPrompts: []string{
				"How many annual leave days do I have left?",
				"File a leave request for next Monday",
			},
			ProcessId: "leave-request-process",
			FieldMapping: map[string]string{
				"type":       "leave_type",
				"start_date": "start_date",
				"end_date":   "end_date",
				"reason":     "reason",
			},
			BalanceRef:     "leave_balances",
			ScoreThreshold: 0.55,
		},
	}

	for _, def := range defs {
		if prompt, ok := cfg.FlowPrompts[def.Key]; ok && prompt != "" {
			def.PromptTemplate = prompt
		}
		if threshold, ok := cfg.FlowThresholds[def.Key]; ok {
			def.ScoreThreshold = threshold
		}
	}
	return defs
}
