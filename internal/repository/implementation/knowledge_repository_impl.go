package implementation

import (
	"context"
	"encoding/json"

	"ai-flowchat-be/internal/model"
	"ai-flowchat-be/internal/repository/contract"
	"ai-flowchat-be/pkg/rag/search"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeRepositoryImpl struct {
	db *gorm.DB
}

func NewKnowledgeRepository(db *gorm.DB) contract.KnowledgeRepository {
	return &KnowledgeRepositoryImpl{db: db}
}

func (r *KnowledgeRepositoryImpl) Create(ctx context.Context, doc *model.KnowledgeDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *KnowledgeRepositoryImpl) CreateBulk(ctx context.Context, docs []*model.KnowledgeDocument) error {
	if len(docs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(docs, 100).Error
}

func (r *KnowledgeRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.KnowledgeDocument{}, id).Error
}

func (r *KnowledgeRepositoryImpl) DeleteByCollection(ctx context.Context, collection string) error {
	return r.db.WithContext(ctx).Where("collection = ?", collection).Delete(&model.KnowledgeDocument{}).Error
}

func (r *KnowledgeRepositoryImpl) CountByCollection(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.KnowledgeDocument{}).
		Where("collection = ?", collection).
		Count(&count).Error
	return count, err
}

func (r *KnowledgeRepositoryImpl) ListCollections(ctx context.Context) ([]string, error) {
	var collections []string
	err := r.db.WithContext(ctx).Model(&model.KnowledgeDocument{}).
		Distinct("collection").
		Order("collection").
		Pluck("collection", &collections).Error
	return collections, err
}

// SearchNearVector returns the nearest chunks in a collection by cosine
// distance. Native carries the raw distance; the retrieval engine converts
// it to a similarity according to the flow's scoring scheme.
func (r *KnowledgeRepositoryImpl) SearchNearVector(ctx context.Context, collection string, vector []float32, fields []string, limit int) ([]search.Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		model.KnowledgeDocument
		Distance float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	err := r.db.WithContext(ctx).
		Table("knowledge_documents").
		Select("knowledge_documents.*, embedding <=> ? as distance", queryVector).
		Where("collection = ?", collection).
		Where("deleted_at IS NULL").
		Order("distance ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	hits := make([]search.Hit, len(results))
	for i, res := range results {
		hits[i] = r.toHit(&res.KnowledgeDocument, fields, res.Distance)
	}
	return hits, nil
}

// SearchLexical ranks chunks with Postgres full-text search. Native carries
// the ts_rank score, which has no upper bound.
func (r *KnowledgeRepositoryImpl) SearchLexical(ctx context.Context, collection string, query string, fields []string, limit int) ([]search.Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		model.KnowledgeDocument
		Rank float64
	}
	var results []result

	err := r.db.WithContext(ctx).
		Table("knowledge_documents").
		Select("knowledge_documents.*, ts_rank(to_tsvector('simple', coalesce(title, '') || ' ' || content), plainto_tsquery('simple', ?)) as rank", query).
		Where("collection = ?", collection).
		Where("deleted_at IS NULL").
		Where("to_tsvector('simple', coalesce(title, '') || ' ' || content) @@ plainto_tsquery('simple', ?)", query).
		Order("rank DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	hits := make([]search.Hit, len(results))
	for i, res := range results {
		hits[i] = r.toHit(&res.KnowledgeDocument, fields, res.Rank)
	}
	return hits, nil
}

func (r *KnowledgeRepositoryImpl) toHit(doc *model.KnowledgeDocument, fields []string, native float64) search.Hit {
	metadata := map[string]interface{}{}
	if len(doc.Metadata) > 0 {
		_ = json.Unmarshal(doc.Metadata, &metadata)
	}
	if len(fields) > 0 {
		projected := make(map[string]interface{}, len(fields))
		for _, field := range fields {
			if value, ok := metadata[field]; ok {
				projected[field] = value
			}
		}
		metadata = projected
	}
	return search.Hit{
		ExternalId: doc.ExternalId,
		Title:      doc.Title,
		Content:    doc.Content,
		Metadata:   metadata,
		Native:     native,
	}
}
