package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements VectorStore using Postgres + pgvector. The table
// is ensured at construction; re-running the DDL is a no-op.
type PostgresStore struct {
	DB *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string, dimension int) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	s := &PostgresStore{DB: db}
	if err := s.ensureSchema(ctx, dimension); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (ps *PostgresStore) ensureSchema(ctx context.Context, dimension int) error {
	if _, err := ps.DB.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector;`); err != nil {
		return err
	}
	ddl := fmt.Sprintf(`
                CREATE TABLE IF NOT EXISTS qa_records (
                        id TEXT PRIMARY KEY,
                        role TEXT NOT NULL,
                        content TEXT NOT NULL,
                        user_id TEXT NOT NULL DEFAULT '',
                        created_at TEXT NOT NULL,
                        embedding vector(%d)
                );
        `, dimension)
	_, err := ps.DB.Exec(ctx, ddl)
	return err
}

func (ps *PostgresStore) Upsert(ctx context.Context, records []QARecord) error {
	for _, rec := range records {
		_, err := ps.DB.Exec(ctx, `
                        INSERT INTO qa_records (id, role, content, user_id, created_at, embedding)
                        VALUES ($1, $2, $3, $4, $5, $6::vector)
                        ON CONFLICT (id) DO UPDATE
                        SET role = EXCLUDED.role,
                            content = EXCLUDED.content,
                            user_id = EXCLUDED.user_id,
                            created_at = EXCLUDED.created_at,
                            embedding = EXCLUDED.embedding;
                `, rec.ID, rec.Role, rec.Text, rec.UserID, rec.Timestamp, vectorLiteral(rec.Embedding))
		if err != nil {
			return err
		}
	}
	return nil
}

func (ps *PostgresStore) Query(ctx context.Context, vector []float32, topK int) ([]QARecord, error) {
	return ps.QueryFiltered(ctx, vector, topK, nil)
}

// QueryFiltered implements FilterQuerier over the metadata columns.
func (ps *PostgresStore) QueryFiltered(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]QARecord, error) {
	if topK < 1 {
		return nil, nil
	}
	where, args := filterClause(filter, 3)
	query := fmt.Sprintf(`
                SELECT id, role, content, user_id, created_at,
                       1 - (embedding <=> $1::vector) AS score
                FROM qa_records
                %s
                ORDER BY embedding <=> $1::vector
                LIMIT $2;
        `, where)

	params := append([]any{vectorLiteral(vector), topK}, args...)
	rows, err := ps.DB.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []QARecord
	for rows.Next() {
		var rec QARecord
		if err := rows.Scan(&rec.ID, &rec.Role, &rec.Text, &rec.UserID, &rec.Timestamp, &rec.Score); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (ps *PostgresStore) ListAll(ctx context.Context) ([]QARecord, error) {
	rows, err := ps.DB.Query(ctx, `SELECT id, role, content, user_id, created_at FROM qa_records;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []QARecord
	for rows.Next() {
		var rec QARecord
		if err := rows.Scan(&rec.ID, &rec.Role, &rec.Text, &rec.UserID, &rec.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (ps *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := ps.DB.QueryRow(ctx, `SELECT COUNT(*) FROM qa_records;`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (ps *PostgresStore) Close() {
	if ps != nil && ps.DB != nil {
		ps.DB.Close()
	}
}

// filterClause maps metadata filter keys onto columns, starting placeholders
// at $start. Unknown keys are rejected by returning a clause that matches
// nothing rather than risking injection.
func filterClause(filter map[string]string, start int) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	columns := map[string]string{
		"user_id": "user_id",
		"type":    "role",
	}
	var clauses []string
	var args []any
	for _, key := range []string{"user_id", "type"} {
		value, ok := filter[key]
		if !ok {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s = $%d", columns[key], start+len(args)))
		args = append(args, value)
	}
	if len(clauses) != len(filter) {
		return "WHERE FALSE", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// vectorLiteral renders a pgvector input literal; JSON float encoding matches
// what pgvector parses.
func vectorLiteral(vec []float32) string {
	data, _ := json.Marshal(vec)
	return string(data)
}

var _ VectorStore = (*PostgresStore)(nil)
var _ FilterQuerier = (*PostgresStore)(nil)
