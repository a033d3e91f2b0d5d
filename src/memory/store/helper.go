package store

import (
	"context"
	"fmt"

	"github.com/recallstack/go-qa/config"
)

// NewVectorStore constructs the named backend from config. Construction also
// performs the backend's idempotent provisioning.
func NewVectorStore(ctx context.Context, backend string, cfg config.AppConfig) (VectorStore, error) {
	switch backend {
	case "pinecone":
		return NewPineconeStore(ctx, PineconeConfig{
			APIKey:     cfg.PineconeAPIKey,
			Index:      cfg.PineconeIndex,
			Dimension:  cfg.VectorDimension,
			Metric:     cfg.PineconeMetric,
			Cloud:      cfg.PineconeCloud,
			Region:     cfg.PineconeRegion,
			ControlURL: cfg.PineconeControlURL,
		})
	case "chroma":
		return NewChromaStore(ctx, cfg.ChromaURL, cfg.ChromaCollection)
	case "postgres":
		return NewPostgresStore(ctx, cfg.PostgresURL, cfg.VectorDimension)
	case "mongodb", "mongo":
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case "memory":
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector store backend: %s", backend)
	}
}
