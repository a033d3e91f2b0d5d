package main

import (
	"context"
	"log"
	"time"

	"github.com/recallstack/go-qa/config"
	"github.com/recallstack/go-qa/src/concurrent"
	"github.com/recallstack/go-qa/src/memory/embed"
	"github.com/recallstack/go-qa/src/memory/store"
	"github.com/recallstack/go-qa/src/models"
	"github.com/recallstack/go-qa/src/qa"
	"github.com/recallstack/go-qa/src/server"
)

const (
	embedCacheSize = 2048
	embedCacheTTL  = time.Hour
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	model, err := models.NewLLMProvider(ctx, cfg.LLMProvider, cfg.LLMModel)
	if err != nil {
		log.Fatalf("[main] llm provider: %v", err)
	}

	inner, err := embed.NewEmbedder(ctx, cfg.EmbedProvider, cfg.EmbedModel, cfg.EmbedCacheDir, cfg.VectorDimension)
	if err != nil {
		log.Fatalf("[main] embedder: %v", err)
	}
	embedder := embed.NewCachedEmbedder(inner, embedCacheSize, embedCacheTTL)

	// The configured dimension must match what the embedder actually
	// produces; a mismatch would poison every write, so fail here.
	probe, err := embedder.Embed(ctx, "dimension probe")
	if err != nil {
		log.Fatalf("[main] embedder probe: %v", err)
	}
	if len(probe) != cfg.VectorDimension {
		log.Fatalf("[main] embedder produces %d-dim vectors, VECTOR_DIMENSION is %d", len(probe), cfg.VectorDimension)
	}

	primary, err := store.NewVectorStore(ctx, cfg.PrimaryStore, cfg)
	if err != nil {
		log.Fatalf("[main] primary store (%s): %v", cfg.PrimaryStore, err)
	}
	secondary, err := store.NewVectorStore(ctx, cfg.SecondaryStore, cfg)
	if err != nil {
		log.Fatalf("[main] secondary store (%s): %v", cfg.SecondaryStore, err)
	}

	svc := qa.NewService(model, embedder, primary, secondary, concurrent.NewWorkerPool(16))
	srv := server.New(svc)

	log.Printf("[main] listening on :%s (primary=%s secondary=%s)", cfg.Port, cfg.PrimaryStore, cfg.SecondaryStore)
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
