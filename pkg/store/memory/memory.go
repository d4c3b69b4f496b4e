package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/store"
)

type featureKey struct {
	docID     string
	elementID string
}

// DocumentMemoryStorage is an in-memory DocumentStore used by tests and local
// runs without a database. Documents are deep-copied on every read and write
// so callers never share state with the store.
type DocumentMemoryStorage struct {
	mu       sync.RWMutex
	docs     map[string]*schema.DocumentGraph
	order    []string
	tasks    map[string]*schema.AnnotationTask
	features map[featureKey][]float32
}

func NewDocumentMemoryStorage() *DocumentMemoryStorage {
	return &DocumentMemoryStorage{
		docs:     make(map[string]*schema.DocumentGraph),
		tasks:    make(map[string]*schema.AnnotationTask),
		features: make(map[featureKey][]float32),
	}
}

func copyDocument(doc *schema.DocumentGraph) (*schema.DocumentGraph, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to copy document %s: %w", doc.DocID, err)
	}
	var out schema.DocumentGraph
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DocumentMemoryStorage) SaveDocument(_ context.Context, doc *schema.DocumentGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[doc.DocID]; ok {
		return store.ErrDocumentExists
	}
	copied, err := copyDocument(doc)
	if err != nil {
		return err
	}
	s.docs[doc.DocID] = copied
	s.order = append(s.order, doc.DocID)
	return nil
}

func (s *DocumentMemoryStorage) RewriteDocument(_ context.Context, doc *schema.DocumentGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[doc.DocID]; !ok {
		return store.ErrDocumentNotFound
	}
	copied, err := copyDocument(doc)
	if err != nil {
		return err
	}
	s.docs[doc.DocID] = copied
	return nil
}

func (s *DocumentMemoryStorage) GetDocument(_ context.Context, docID string) (*schema.DocumentGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[docID]
	if !ok {
		return nil, store.ErrDocumentNotFound
	}
	return copyDocument(doc)
}

func (s *DocumentMemoryStorage) ListDocuments(_ context.Context, statuses []schema.AnnotationStatus) ([]*schema.DocumentGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []*schema.DocumentGraph
	for _, id := range s.order {
		doc := s.docs[id]
		if len(statuses) > 0 && !slices.Contains(statuses, doc.AnnotationStatus) {
			continue
		}
		copied, err := copyDocument(doc)
		if err != nil {
			return nil, err
		}
		docs = append(docs, copied)
	}
	return docs, nil
}

func (s *DocumentMemoryStorage) SaveTask(_ context.Context, task *schema.AnnotationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *task
	s.tasks[task.TaskID] = &copied
	return nil
}

func (s *DocumentMemoryStorage) GetTask(_ context.Context, taskID string) (*schema.AnnotationTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *DocumentMemoryStorage) SaveNodeFeatures(_ context.Context, docID string, elementID string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.features[featureKey{docID, elementID}] = slices.Clone(embedding)
	return nil
}

func (s *DocumentMemoryStorage) SimilarNodes(_ context.Context, docID string, elementID string, embedding []float32, limit int) ([]store.SimilarNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	var results []store.SimilarNode
	for key, stored := range s.features {
		if key.docID == docID && key.elementID == elementID {
			continue
		}
		results = append(results, store.SimilarNode{
			DocID:     key.docID,
			ElementID: key.elementID,
			Distance:  euclidean(embedding, stored),
		})
	}
	slices.SortFunc(results, func(a, b store.SimilarNode) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func euclidean(a, b []float32) float64 {
	n := min(len(a), len(b))
	sum := 0.0
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	// Dimension mismatches count the missing tail as distance.
	for i := n; i < len(a); i++ {
		sum += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		sum += float64(b[i]) * float64(b[i])
	}
	return math.Sqrt(sum)
}

func (s *DocumentMemoryStorage) Ping(_ context.Context) error {
	return nil
}
