package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements VectorStore on a Mongo collection. Similarity is
// scored client-side with cosine similarity; equality filters are pushed down
// to Find, so the store implements FilterQuerier.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

const mongoCloseTimeout = 5 * time.Second

type mongoQADocument struct {
	ID        string    `bson:"_id"`
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	UserID    string    `bson:"user_id"`
	CreatedAt string    `bson:"created_at"`
	Embedding []float64 `bson:"embedding"`
}

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		return nil, errors.New("mongo collection name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (ms *MongoStore) Upsert(ctx context.Context, records []QARecord) error {
	if ms == nil || ms.collection == nil {
		return nil
	}
	upsert := true
	for _, rec := range records {
		doc := mongoQADocument{
			ID:        rec.ID,
			Role:      rec.Role,
			Content:   rec.Text,
			UserID:    rec.UserID,
			CreatedAt: rec.Timestamp,
			Embedding: float64Embedding(rec.Embedding),
		}
		_, err := ms.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, doc, &options.ReplaceOptions{Upsert: &upsert})
		if err != nil {
			return err
		}
	}
	return nil
}

func (ms *MongoStore) Query(ctx context.Context, vector []float32, topK int) ([]QARecord, error) {
	return ms.QueryFiltered(ctx, vector, topK, nil)
}

// QueryFiltered implements FilterQuerier: the equality constraints narrow the
// Find, cosine ranking happens here.
func (ms *MongoStore) QueryFiltered(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]QARecord, error) {
	if ms == nil || ms.collection == nil || topK < 1 {
		return nil, nil
	}
	docs, err := ms.find(ctx, mongoFilter(filter))
	if err != nil {
		return nil, err
	}

	records := make([]QARecord, 0, len(docs))
	for _, doc := range docs {
		rec := doc.toRecord()
		rec.Score = CosineSimilarity(vector, float32Embedding(doc.Embedding))
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
	if len(records) > topK {
		records = records[:topK]
	}
	return records, nil
}

func (ms *MongoStore) ListAll(ctx context.Context) ([]QARecord, error) {
	if ms == nil || ms.collection == nil {
		return nil, nil
	}
	docs, err := ms.find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	records := make([]QARecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toRecord())
	}
	return records, nil
}

func (ms *MongoStore) Count(ctx context.Context) (int, error) {
	if ms == nil || ms.collection == nil {
		return 0, nil
	}
	n, err := ms.collection.CountDocuments(ctx, bson.M{})
	return int(n), err
}

func (ms *MongoStore) Close() error {
	if ms == nil || ms.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return ms.client.Disconnect(ctx)
}

func (ms *MongoStore) find(ctx context.Context, filter bson.M) ([]mongoQADocument, error) {
	cursor, err := ms.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []mongoQADocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (doc mongoQADocument) toRecord() QARecord {
	return QARecord{
		ID:        doc.ID,
		Role:      doc.Role,
		Text:      doc.Content,
		UserID:    doc.UserID,
		Timestamp: doc.CreatedAt,
	}
}

func mongoFilter(filter map[string]string) bson.M {
	out := bson.M{}
	fields := map[string]string{
		"user_id": "user_id",
		"type":    "role",
	}
	for key, value := range filter {
		if field, ok := fields[key]; ok {
			out[field] = value
		}
	}
	return out
}

func float64Embedding(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

func float32Embedding(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}

var _ VectorStore = (*MongoStore)(nil)
var _ FilterQuerier = (*MongoStore)(nil)
