package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig collects every environment-supplied knob the service needs.
// All handles built from it are constructed once at startup.
type AppConfig struct {
	Port string

	LLMProvider string
	LLMModel    string

	EmbedProvider string
	EmbedModel    string
	EmbedCacheDir string

	// VectorDimension must match the dimension the primary index was
	// provisioned with. A mismatch is fatal at startup, not per request.
	VectorDimension int

	PrimaryStore   string
	SecondaryStore string

	PineconeAPIKey     string
	PineconeIndex      string
	PineconeCloud      string
	PineconeRegion     string
	PineconeMetric     string
	PineconeControlURL string

	ChromaURL        string
	ChromaCollection string

	PostgresURL string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

func Load() AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Printf("[cfg] no .env file loaded: %v", err)
	}

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}

	dimension, err := strconv.Atoi(get("VECTOR_DIMENSION", "384"))
	if err != nil || dimension <= 0 {
		log.Fatalf("[cfg] invalid VECTOR_DIMENSION: %v", os.Getenv("VECTOR_DIMENSION"))
	}

	cfg := AppConfig{
		Port: get("PORT", "8080"),

		LLMProvider: get("LLM_PROVIDER", "gemini"),
		LLMModel:    get("LLM_MODEL", "gemini-1.5-flash"),

		EmbedProvider: get("EMBED_PROVIDER", "fastembed"),
		EmbedModel:    get("EMBED_MODEL", ""),
		EmbedCacheDir: get("EMBED_CACHE_DIR", ".fastembed"),

		VectorDimension: dimension,

		PrimaryStore:   get("PRIMARY_STORE", "pinecone"),
		SecondaryStore: get("SECONDARY_STORE", "chroma"),

		PineconeAPIKey:     get("PINECONE_API_KEY", ""),
		PineconeIndex:      get("PINECONE_INDEX", "gemini-qa"),
		PineconeCloud:      get("PINECONE_CLOUD", "aws"),
		PineconeRegion:     get("PINECONE_REGION", "us-east-1"),
		PineconeMetric:     get("PINECONE_METRIC", "cosine"),
		PineconeControlURL: get("PINECONE_CONTROL_URL", "https://api.pinecone.io"),

		ChromaURL:        get("CHROMA_URL", "http://localhost:8000"),
		ChromaCollection: get("CHROMA_COLLECTION", "gemini-qa"),

		PostgresURL: get("POSTGRES_URL", ""),

		MongoURI:        get("MONGO_URI", ""),
		MongoDatabase:   get("MONGO_DATABASE", "qa"),
		MongoCollection: get("MONGO_COLLECTION", "qa_records"),
	}

	return cfg
}
