package annotate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
)

var ErrNoPredictor = errors.New("no predictor configured")

// AutoAnnotate runs the configured predictor over the document and writes the
// predicted roles with the predictor's confidences. Nodes already annotated
// by a human (confidence 1.0) are never overwritten. Returns the number of
// nodes that received a predicted role.
func (m *Manager) AutoAnnotate(ctx context.Context, docID string) (*schema.DocumentGraph, int, error) {
	if m.predictor == nil {
		return nil, 0, ErrNoPredictor
	}

	doc, err := m.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, 0, err
	}

	predictions, err := m.predictor.PredictRoles(ctx, doc)
	if err != nil {
		return nil, 0, fmt.Errorf("prediction failed for document %s: %w", docID, err)
	}

	applied := 0
	for _, pred := range predictions {
		node := doc.Node(pred.ElementID)
		if node == nil {
			logger.Warn("[Annotate][AutoAnnotate] Prediction for unknown element", "docId", docID, "elementId", pred.ElementID)
			continue
		}
		if node.HierarchyConfidence != nil && *node.HierarchyConfidence == humanConfidence {
			continue
		}
		node.SetRole(pred.Role, pred.Confidence)
		applied++
	}

	// Machine labels refresh the annotation timestamp but carry no annotator.
	m.touch(doc, "")
	if err := m.store.RewriteDocument(ctx, doc); err != nil {
		return nil, 0, err
	}

	logger.Info("[Annotate][AutoAnnotate] Predicted roles applied", "docId", docID, "applied", applied, "nodes", len(doc.Nodes))
	return doc, applied, nil
}

// Feature vector pairs at or above this cosine similarity get a
// similar_visual edge.
const visualSimilarityThreshold = 0.85

// EnrichVisualEdges stores externally computed per-element feature vectors
// and appends similar_visual edges for node pairs whose vectors are close.
// Existing similar_visual edges are replaced, other edge types untouched.
func (m *Manager) EnrichVisualEdges(ctx context.Context, docID string, features map[string][]float64) (*schema.DocumentGraph, int, error) {
	doc, err := m.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, 0, err
	}

	for elementID := range features {
		if doc.Node(elementID) == nil {
			return nil, 0, fmt.Errorf("%w: %s in document %s", ErrElementNotFound, elementID, docID)
		}
	}

	embeddings := make(map[string][]float32, len(features))
	for elementID, vector := range features {
		node := doc.Node(elementID)
		if node.VisualFeatures == nil {
			node.VisualFeatures = &schema.VisualFeatures{}
		}
		node.VisualFeatures.FeatureVector = slices.Clone(vector)

		embedding := make([]float32, len(vector))
		for i, v := range vector {
			embedding[i] = float32(v)
		}
		embeddings[elementID] = embedding
	}

	doc.Edges = slices.DeleteFunc(doc.Edges, func(e schema.EdgeRelation) bool {
		return e.EdgeType == schema.EdgeSimilarVisual
	})

	added := 0
	for i := range doc.Nodes {
		a := &doc.Nodes[i]
		if a.VisualFeatures == nil || len(a.VisualFeatures.FeatureVector) == 0 {
			continue
		}
		for j := i + 1; j < len(doc.Nodes); j++ {
			b := &doc.Nodes[j]
			if b.VisualFeatures == nil || len(b.VisualFeatures.FeatureVector) == 0 {
				continue
			}
			similarity := cosineSimilarity(a.VisualFeatures.FeatureVector, b.VisualFeatures.FeatureVector)
			if similarity < visualSimilarityThreshold {
				continue
			}
			src, tgt := a.ID, b.ID
			if tgt < src {
				src, tgt = tgt, src
			}
			doc.Edges = append(doc.Edges, schema.EdgeRelation{
				SourceID: src,
				TargetID: tgt,
				EdgeType: schema.EdgeSimilarVisual,
				Weight:   similarity,
			})
			added++
		}
	}

	if err := m.store.RewriteDocument(ctx, doc); err != nil {
		return nil, 0, err
	}

	// The feature table is a derived similarity index over the rewritten
	// graph; a failed upsert degrades SimilarNodes but not the document.
	for elementID, embedding := range embeddings {
		if err := m.store.SaveNodeFeatures(ctx, docID, elementID, embedding); err != nil {
			logger.Warn("[Annotate][EnrichVisualEdges] Failed to index features", "docId", docID, "elementId", elementID, "err", err)
		}
	}

	logger.Info("[Annotate][EnrichVisualEdges] Visual edges refreshed", "docId", docID, "vectors", len(features), "edges", added)
	return doc, added, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
