package store

import (
	"context"
	"errors"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")
	ErrTaskNotFound     = errors.New("annotation task not found")
)

// SimilarNode is one nearest-neighbor result from a visual feature lookup.
type SimilarNode struct {
	DocID     string
	ElementID string
	Distance  float64
}

// DocumentStore defines the interface for persisting document graphs and their
// annotation tasks. Documents are stored as whole records and every mutation
// rewrites the full document, so a failed call never leaves a partially
// updated graph behind.
type DocumentStore interface {
	// SaveDocument inserts a new document. It fails with ErrDocumentExists
	// when the doc id is already taken.
	SaveDocument(ctx context.Context, doc *schema.DocumentGraph) error
	// RewriteDocument overwrites an existing document in full.
	RewriteDocument(ctx context.Context, doc *schema.DocumentGraph) error
	GetDocument(ctx context.Context, docID string) (*schema.DocumentGraph, error)
	// ListDocuments returns all documents whose annotation status is in the
	// given set. An empty set matches every document.
	ListDocuments(ctx context.Context, statuses []schema.AnnotationStatus) ([]*schema.DocumentGraph, error)

	SaveTask(ctx context.Context, task *schema.AnnotationTask) error
	GetTask(ctx context.Context, taskID string) (*schema.AnnotationTask, error)

	// SaveNodeFeatures upserts the visual feature vector of one element.
	SaveNodeFeatures(ctx context.Context, docID string, elementID string, embedding []float32) error
	// SimilarNodes returns the nearest stored feature vectors to the given
	// embedding, excluding the element itself.
	SimilarNodes(ctx context.Context, docID string, elementID string, embedding []float32, limit int) ([]SimilarNode, error)

	Ping(ctx context.Context) error
}
