package predict

import (
	"context"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
)

// Prediction is one node's classification over the closed role set.
type Prediction struct {
	ElementID     string                         `json:"element_id"`
	Role          schema.HierarchyRole           `json:"predicted_role"`
	Confidence    float64                        `json:"confidence"`
	Probabilities map[schema.HierarchyRole]float64 `json:"all_probabilities"`
}

// Predictor classifies every node of a document graph into a hierarchy role.
// Implementations must return exactly one prediction per node, in node order.
type Predictor interface {
	PredictRoles(ctx context.Context, doc *schema.DocumentGraph) ([]Prediction, error)
}

const featureDim = 8

var elementTypeCodes = map[string]float64{
	"text":           0,
	"image_embedded": 1,
	"image_linked":   1,
	"group":          2,
	"path":           3,
}

const unknownTypeCode = 4

// BuildNodeFeatures produces the per-node feature matrix handed to external
// predictors: position and size normalized by the document dimensions,
// nesting depth, element type code, opacity and the replaceable flag.
func BuildNodeFeatures(doc *schema.DocumentGraph) [][]float64 {
	width := doc.DocWidth
	if width == 0 {
		width = 1
	}
	height := doc.DocHeight
	if height == 0 {
		height = 1
	}

	features := make([][]float64, len(doc.Nodes))
	for i := range doc.Nodes {
		node := &doc.Nodes[i]
		code, ok := elementTypeCodes[node.ElementType]
		if !ok {
			code = unknownTypeCode
		}
		replaceable := 0.0
		if node.IsReplaceable {
			replaceable = 1.0
		}
		features[i] = []float64{
			node.Bounds.X / width,
			node.Bounds.Y / height,
			node.Bounds.Width / width,
			node.Bounds.Height / height,
			float64(node.Depth) / 10.0,
			code / 5.0,
			node.Opacity / 100.0,
			replaceable,
		}
	}
	return features
}

// BuildEdgeIndex produces the [2][n] source/target index list for the
// document's edges, resolving element ids to node positions. Edges whose
// endpoints are unknown are dropped. A document without any resolvable edge
// gets per-node self loops so graph models always see a connected input.
func BuildEdgeIndex(doc *schema.DocumentGraph) [2][]int {
	indexOf := make(map[string]int, len(doc.Nodes))
	for i := range doc.Nodes {
		indexOf[doc.Nodes[i].ID] = i
	}

	var sources, targets []int
	for _, edge := range doc.Edges {
		src, okSrc := indexOf[edge.SourceID]
		tgt, okTgt := indexOf[edge.TargetID]
		if !okSrc || !okTgt {
			continue
		}
		sources = append(sources, src)
		targets = append(targets, tgt)
	}

	if len(sources) == 0 {
		for i := range doc.Nodes {
			sources = append(sources, i)
			targets = append(targets, i)
		}
	}

	return [2][]int{sources, targets}
}
