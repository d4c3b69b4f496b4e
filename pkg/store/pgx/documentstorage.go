package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/store"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Ping(ctx context.Context) error
}

// DocumentDBStorage implements the DocumentStore interface using PostgreSQL.
// Document graphs and tasks are stored as jsonb blobs keyed by their public
// id, visual feature vectors live in a pgvector column for similarity search.
type DocumentDBStorage struct {
	conn pgxIConn
}

// NewDocumentDBStorageWithConnection creates a new DocumentDBStorage using an
// existing database connection or pool.
func NewDocumentDBStorageWithConnection(conn pgxIConn) *DocumentDBStorage {
	return &DocumentDBStorage{conn: conn}
}

func (s *DocumentDBStorage) SaveDocument(ctx context.Context, doc *schema.DocumentGraph) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.DocID, err)
	}

	logger.Debug("[Store][SaveDocument] Inserting document", "docId", doc.DocID, "nodes", len(doc.Nodes))

	tag, err := s.conn.Exec(ctx, `
		INSERT INTO documents (doc_id, status, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (doc_id) DO NOTHING
	`, doc.DocID, string(doc.AnnotationStatus), data)
	if err != nil {
		return fmt.Errorf("failed to insert document %s: %w", doc.DocID, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrDocumentExists
	}
	return nil
}

func (s *DocumentDBStorage) RewriteDocument(ctx context.Context, doc *schema.DocumentGraph) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.DocID, err)
	}

	tag, err := s.conn.Exec(ctx, `
		UPDATE documents
		SET status = $2, data = $3, updated_at = now()
		WHERE doc_id = $1
	`, doc.DocID, string(doc.AnnotationStatus), data)
	if err != nil {
		return fmt.Errorf("failed to rewrite document %s: %w", doc.DocID, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrDocumentNotFound
	}
	return nil
}

func (s *DocumentDBStorage) GetDocument(ctx context.Context, docID string) (*schema.DocumentGraph, error) {
	var data []byte
	err := s.conn.QueryRow(ctx, `
		SELECT data FROM documents WHERE doc_id = $1
	`, docID).Scan(&data)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", docID, err)
	}

	var doc schema.DocumentGraph
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", docID, err)
	}
	return &doc, nil
}

func (s *DocumentDBStorage) ListDocuments(ctx context.Context, statuses []schema.AnnotationStatus) ([]*schema.DocumentGraph, error) {
	query := `SELECT data FROM documents`
	args := []any{}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, string(status))
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*schema.DocumentGraph
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var doc schema.DocumentGraph
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode stored document: %w", err)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (s *DocumentDBStorage) SaveTask(ctx context.Context, task *schema.AnnotationTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.TaskID, err)
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO tasks (task_id, doc_id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (task_id) DO UPDATE SET data = EXCLUDED.data
	`, task.TaskID, task.DocID, data)
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.TaskID, err)
	}
	return nil
}

func (s *DocumentDBStorage) GetTask(ctx context.Context, taskID string) (*schema.AnnotationTask, error) {
	var data []byte
	err := s.conn.QueryRow(ctx, `
		SELECT data FROM tasks WHERE task_id = $1
	`, taskID).Scan(&data)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	var task schema.AnnotationTask
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task %s: %w", taskID, err)
	}
	return &task, nil
}

func (s *DocumentDBStorage) SaveNodeFeatures(ctx context.Context, docID string, elementID string, embedding []float32) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO element_features (doc_id, element_id, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (doc_id, element_id) DO UPDATE SET embedding = EXCLUDED.embedding
	`, docID, elementID, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to save features for %s/%s: %w", docID, elementID, err)
	}
	return nil
}

func (s *DocumentDBStorage) SimilarNodes(ctx context.Context, docID string, elementID string, embedding []float32, limit int) ([]store.SimilarNode, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.conn.Query(ctx, `
		SELECT doc_id, element_id, embedding <-> $1 AS distance
		FROM element_features
		WHERE NOT (doc_id = $2 AND element_id = $3)
		ORDER BY embedding <-> $1
		LIMIT $4
	`, pgvector.NewVector(embedding), docID, elementID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar nodes: %w", err)
	}
	defer rows.Close()

	var results []store.SimilarNode
	for rows.Next() {
		var node store.SimilarNode
		if err := rows.Scan(&node.DocID, &node.ElementID, &node.Distance); err != nil {
			return nil, err
		}
		results = append(results, node)
	}
	return results, rows.Err()
}

func (s *DocumentDBStorage) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}
