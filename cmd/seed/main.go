// Seeds a knowledge collection from a directory of text files. Each file is
// chunked, embedded, and stored, replacing whatever the collection held.
//
//	go run ./cmd/seed -dir ./docs/hr -collection hr_policies
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ai-flowchat-be/internal/config"
	"ai-flowchat-be/internal/model"
	"ai-flowchat-be/internal/repository/implementation"
	"ai-flowchat-be/pkg/database"
	"ai-flowchat-be/pkg/embedding"
	"ai-flowchat-be/pkg/utils"

	"github.com/fatih/color"
	"github.com/pgvector/pgvector-go"
)

const (
	chunkSize    = 1200
	chunkOverlap = 150
)

func main() {
	dir := flag.String("dir", "", "directory of .txt/.md files to seed")
	collection := flag.String("collection", "", "target collection, e.g. hr_policies")
	flag.Parse()

	if *dir == "" || *collection == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] Invalid configuration: %v", err)
	}

	db, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("[FATAL] Database connection failed: %v", err)
	}
	if err := db.AutoMigrate(&model.KnowledgeDocument{}); err != nil {
		log.Fatalf("[FATAL] Migration failed: %v", err)
	}

	repo := implementation.NewKnowledgeRepository(db)
	embedder := embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel, "")
	ctx := context.Background()

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("[FATAL] Cannot read %s: %v", *dir, err)
	}

	color.Cyan("Seeding collection %q from %s", *collection, *dir)
	if err := repo.DeleteByCollection(ctx, *collection); err != nil {
		log.Fatalf("[FATAL] Cannot clear collection: %v", err)
	}

	var docs []*model.KnowledgeDocument
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(*dir, entry.Name()))
		if err != nil {
			log.Fatalf("[FATAL] Cannot read %s: %v", entry.Name(), err)
		}

		title := strings.TrimSuffix(entry.Name(), ext)
		chunks := utils.SplitText(string(raw), chunkSize, chunkOverlap)
		color.Yellow("  %s: %d chunks", entry.Name(), len(chunks))

		for i, chunk := range chunks {
			vector, err := embedder.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
			if err != nil {
				log.Fatalf("[FATAL] Embedding failed for %s chunk %d: %v", entry.Name(), i, err)
			}
			docs = append(docs, &model.KnowledgeDocument{
				Collection: *collection,
				ExternalId: title,
				Title:      title,
				Content:    chunk,
				Embedding:  pgvector.NewVector(vector),
				ChunkIndex: i,
			})
		}
	}

	if err := repo.CreateBulk(ctx, docs); err != nil {
		log.Fatalf("[FATAL] Insert failed: %v", err)
	}
	color.Green("✅ Seeded %d chunks into %q", len(docs), *collection)
}
