package contract

import (
	"context"

	"ai-flowchat-be/internal/model"
	"ai-flowchat-be/pkg/rag/search"

	"github.com/google/uuid"
)

// KnowledgeRepository stores and searches grounding documents. Each flow
// reads from its own collection; the two Search methods satisfy
// search.PartitionSearcher so the retrieval engine stays storage-agnostic.
type KnowledgeRepository interface {
	search.PartitionSearcher

	Create(ctx context.Context, doc *model.KnowledgeDocument) error
	CreateBulk(ctx context.Context, docs []*model.KnowledgeDocument) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByCollection(ctx context.Context, collection string) error
	CountByCollection(ctx context.Context, collection string) (int64, error)
	ListCollections(ctx context.Context) ([]string, error)
}
