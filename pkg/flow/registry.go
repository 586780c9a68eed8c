package flow

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownFlow is returned when a flow key has no registered definition.
// An unresolvable key reaching a running conversation is a configuration
// error, not a per-request condition.
var ErrUnknownFlow = errors.New("unknown flow")

// Action is a host-platform capability a flow may be granted.
type Action string

const (
	ActionAnswerOnly Action = "ANSWER_ONLY"
	ActionCreate     Action = "CREATE"
	ActionRead       Action = "READ"
	ActionQuery      Action = "QUERY"
	ActionUpdate     Action = "UPDATE"
)

// ScoringScheme tags how a partition's native relevance metric maps to [0,1].
type ScoringScheme string

const (
	// SchemeDistance partitions return a cosine distance; score = 1 - distance.
	SchemeDistance ScoringScheme = "distance"
	// SchemeCertainty partitions return a certainty already in [0,1].
	SchemeCertainty ScoringScheme = "certainty"
	// SchemeLexical partitions return an unbounded lexical score; filtering
	// is disabled (threshold 0) and the raw score is clamped for display.
	SchemeLexical ScoringScheme = "lexical"
)

// PartitionRef identifies the knowledge collection a flow searches, together
// with its native scoring scheme and the fields its heterogeneous schema
// exposes. The scheme is resolved here once, never string-compared at call
// sites.
type PartitionRef struct {
	Collection   string
	Scheme       ScoringScheme
	ReturnFields []string
}

// Definition is the static configuration of one business domain. Loaded at
// startup, immutable for the process lifetime, safe for concurrent reads.
type Definition struct {
	Key                           string
	Retrieval                     *PartitionRef // nil for answer-only flows
	PermittedActions              []Action
	PromptTemplate                string
	TranslateQueryBeforeEmbedding bool
	SuggestedPrompts              []string

	// Retrieval tunables. Thresholds are partition and dataset dependent and
	// therefore configuration, not constants.
	SearchLimit    int
	FinalCount     int
	ScoreThreshold float64

	// Host-platform wiring for mutating actions.
	ProcessId    string
	FieldMapping map[string]string // logical field -> host field
	BalanceRef   string            // dataset reference for QUERY lookups
}

// HasAction reports whether the definition grants the action.
func (d *Definition) HasAction(action Action) bool {
	for _, a := range d.PermittedActions {
		if a == action {
			return true
		}
	}
	return false
}

// Registry holds every flow definition, populated once at process start.
type Registry struct {
	flows map[string]*Definition
	order []string
}

// NewRegistry builds a registry from definitions. Duplicate keys and
// definitions missing a key are rejected at construction so misconfiguration
// surfaces at startup rather than per request.
func NewRegistry(defs []*Definition) (*Registry, error) {
	r := &Registry{flows: make(map[string]*Definition, len(defs))}
	for _, def := range defs {
		if def.Key == "" {
			return nil, fmt.Errorf("flow definition with empty key")
		}
		if _, exists := r.flows[def.Key]; exists {
			return nil, fmt.Errorf("duplicate flow key %q", def.Key)
		}
		if def.SearchLimit <= 0 {
			def.SearchLimit = 10
		}
		if def.FinalCount <= 0 {
			def.FinalCount = 5
		}
		r.flows[def.Key] = def
		r.order = append(r.order, def.Key)
	}
	return r, nil
}

// Resolve returns the definition for key, or ErrUnknownFlow. It never
// returns a partial or default definition.
func (r *Registry) Resolve(key string) (*Definition, error) {
	def, ok := r.flows[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, key)
	}
	return def, nil
}

// IsActionPermitted reports whether the flow grants the action. Lookup
// failures default to false; this is the guard used before any mutating
// host call, so it must never panic or error.
func (r *Registry) IsActionPermitted(key string, action Action) bool {
	def, ok := r.flows[key]
	if !ok {
		return false
	}
	return def.HasAction(action)
}

// ListFlows returns all definitions in registration order.
func (r *Registry) ListFlows() []*Definition {
	defs := make([]*Definition, 0, len(r.order))
	for _, key := range r.order {
		defs = append(defs, r.flows[key])
	}
	return defs
}

// Keys returns the registered flow keys sorted for stable diagnostics.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.flows))
	for k := range r.flows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
