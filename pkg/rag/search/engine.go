package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"ai-flowchat-be/pkg/embedding"
	"ai-flowchat-be/pkg/flow"
	"ai-flowchat-be/pkg/llm"
	"ai-flowchat-be/pkg/store"
)

// NoResultsMarker is injected into the formatted context when retrieval
// produced nothing (or failed), so the completion is never silently
// presented as grounded.
const NoResultsMarker = "[no supporting documents found]"

// RetrievalError wraps a failed partition search. The orchestrator treats
// it as non-fatal and degrades to an ungrounded completion.
type RetrievalError struct {
	FlowKey string
	Err     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for flow %s: %v", e.FlowKey, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Hit is one raw partition search result. Native carries the partition's
// own relevance metric: cosine distance for distance partitions, certainty
// for certainty partitions, an unbounded score for lexical ones.
type Hit struct {
	ExternalId string
	Title      string
	Content    string
	Metadata   map[string]interface{}
	Native     float64
}

// PartitionSearcher is the storage boundary. The gorm/pgvector repository
// implements it; tests use an in-memory fake.
type PartitionSearcher interface {
	SearchNearVector(ctx context.Context, collection string, vector []float32, fields []string, limit int) ([]Hit, error)
	SearchLexical(ctx context.Context, collection string, query string, fields []string, limit int) ([]Hit, error)
}

// Config bounds context assembly so prompts cannot grow without limit.
type Config struct {
	ExcerptLimit      int    // characters kept per document
	ContextLimit      int    // characters kept for the joined context
	CanonicalLanguage string // translation target for monolingual partitions
}

// DefaultConfig returns the production bounds.
func DefaultConfig() Config {
	return Config{
		ExcerptLimit:      500,
		ContextLimit:      3000,
		CanonicalLanguage: "English",
	}
}

// Result is everything one retrieval produced for the current turn.
type Result struct {
	Documents        []store.Document
	FormattedContext string
	Citations        []store.Citation
	QueryUsed        string // query actually embedded, after optional translation
	Translated       bool
}

// Engine runs the flow-scoped retrieval pipeline: optional translation,
// embedding, partition search, score normalization, threshold filtering,
// truncation, deduplication, and bounded context assembly.
type Engine struct {
	registry   *flow.Registry
	embedder   embedding.EmbeddingProvider
	translator llm.CompletionProvider
	searcher   PartitionSearcher
	config     Config
	logger     *log.Logger
}

// NewEngine creates the retrieval engine.
func NewEngine(
	registry *flow.Registry,
	embedder embedding.EmbeddingProvider,
	translator llm.CompletionProvider,
	searcher PartitionSearcher,
	config Config,
	logger *log.Logger,
) *Engine {
	if config.ExcerptLimit <= 0 {
		config.ExcerptLimit = DefaultConfig().ExcerptLimit
	}
	if config.ContextLimit <= 0 {
		config.ContextLimit = DefaultConfig().ContextLimit
	}
	if config.CanonicalLanguage == "" {
		config.CanonicalLanguage = DefaultConfig().CanonicalLanguage
	}
	return &Engine{
		registry:   registry,
		embedder:   embedder,
		translator: translator,
		searcher:   searcher,
		config:     config,
		logger:     logger,
	}
}

// Retrieve runs the pipeline for one query. Passing limit <= 0 or a
// negative threshold selects the flow's configured tunables. A failed
// search returns a RetrievalError; the caller decides whether to degrade.
func (e *Engine) Retrieve(ctx context.Context, flowKey string, queryText string, limit int, scoreThreshold float64) (*Result, error) {
	def, err := e.registry.Resolve(flowKey)
	if err != nil {
		return nil, err
	}
	if def.Retrieval == nil {
		return nil, &RetrievalError{FlowKey: flowKey, Err: fmt.Errorf("flow declares no retrieval partition")}
	}

	if limit <= 0 {
		limit = def.SearchLimit
	}
	if scoreThreshold < 0 {
		scoreThreshold = def.ScoreThreshold
	}

	// Lexical partitions never filter by score; their native metric is not
	// comparable to embedding certainty.
	if def.Retrieval.Scheme == flow.SchemeLexical {
		scoreThreshold = 0
	}

	query := queryText
	translated := false
	if def.TranslateQueryBeforeEmbedding {
		if normalized := e.translator.Translate(ctx, queryText, e.config.CanonicalLanguage); normalized != queryText {
			query = normalized
			translated = true
		}
	}

	hits, err := e.search(ctx, def, query, limit)
	if err != nil {
		return nil, &RetrievalError{FlowKey: flowKey, Err: err}
	}

	e.logger.Printf("[RETRIEVE] flow=%s raw=%d limit=%d threshold=%.2f", flowKey, len(hits), limit, scoreThreshold)

	documents := normalize(hits, def.Retrieval.Scheme)
	documents = filterByScore(documents, scoreThreshold)
	if len(documents) > def.FinalCount {
		documents = documents[:def.FinalCount]
	}
	documents = dedupeByIdentifier(documents)

	result := &Result{
		Documents:  documents,
		QueryUsed:  query,
		Translated: translated,
	}
	result.FormattedContext, result.Citations = e.buildContext(documents)
	return result, nil
}

func (e *Engine) search(ctx context.Context, def *flow.Definition, query string, limit int) ([]Hit, error) {
	ref := def.Retrieval
	if ref.Scheme == flow.SchemeLexical {
		return e.searcher.SearchLexical(ctx, ref.Collection, query, ref.ReturnFields, limit)
	}

	vector, err := e.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return e.searcher.SearchNearVector(ctx, ref.Collection, vector, ref.ReturnFields, limit)
}

// normalize maps each hit's native relevance metric into [0,1] according to
// the partition's scheme tag.
func normalize(hits []Hit, scheme flow.ScoringScheme) []store.Document {
	documents := make([]store.Document, 0, len(hits))
	for _, hit := range hits {
		var score float64
		switch scheme {
		case flow.SchemeDistance:
			score = 1 - hit.Native
		default:
			// Certainty partitions already report [0,1]; lexical scores
			// are clamped for display only.
			score = hit.Native
		}
		score = clamp01(score)

		documents = append(documents, store.Document{
			Identifier:     hit.ExternalId,
			Title:          hit.Title,
			Content:        hit.Content,
			DomainMetadata: hit.Metadata,
			Score:          score,
		})
	}
	return documents
}

// filterByScore drops documents below the threshold, preserving relative
// order. A threshold of 0 disables filtering.
func filterByScore(documents []store.Document, threshold float64) []store.Document {
	if threshold <= 0 {
		return documents
	}
	kept := documents[:0:0]
	for _, doc := range documents {
		if doc.Score >= threshold {
			kept = append(kept, doc)
		}
	}
	return kept
}

// dedupeByIdentifier retains at most one document per external identifier,
// keeping the highest-scoring instance at its original position. Documents
// without an identifier are never collapsed.
func dedupeByIdentifier(documents []store.Document) []store.Document {
	best := make(map[string]int, len(documents))
	for i, doc := range documents {
		if doc.Identifier == "" {
			continue
		}
		if prev, seen := best[doc.Identifier]; !seen || doc.Score > documents[prev].Score {
			best[doc.Identifier] = i
		}
	}

	kept := documents[:0:0]
	for i, doc := range documents {
		if doc.Identifier != "" && best[doc.Identifier] != i {
			continue
		}
		kept = append(kept, doc)
	}
	return kept
}

// buildContext concatenates bounded excerpts with 1-based citation markers.
// The citation order matches the documents used for the context.
func (e *Engine) buildContext(documents []store.Document) (string, []store.Citation) {
	if len(documents) == 0 {
		return NoResultsMarker, nil
	}

	var sb strings.Builder
	citations := make([]store.Citation, 0, len(documents))

	// Both limits are rune budgets, so multi-byte scripts fill the same
	// amount of context as ASCII.
	used := 0
	for i, doc := range documents {
		block := fmt.Sprintf("[%d] %s\n%s", i+1, doc.Title, truncateRunes(doc.Content, e.config.ExcerptLimit))
		if used > 0 {
			block = "\n\n" + block
		}
		blockLen := utf8.RuneCountInString(block)
		if used+blockLen > e.config.ContextLimit {
			break
		}
		sb.WriteString(block)
		used += blockLen
		citations = append(citations, store.Citation{
			Index:    i + 1,
			Title:    doc.Title,
			SourceId: doc.Identifier,
			Score:    doc.Score,
		})
	}

	return sb.String(), citations
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
