package predict

import (
	"context"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
)

const fallbackDocHeight = 1080

// RulePredictor is the deterministic degraded-mode classifier used when no
// learned predictor is configured. It assigns exactly one role to every node
// from closed-form rules over vertical position, element type, font size and
// relative area, each with a fixed heuristic confidence.
type RulePredictor struct{}

func NewRulePredictor() *RulePredictor {
	return &RulePredictor{}
}

func (p *RulePredictor) PredictRoles(_ context.Context, doc *schema.DocumentGraph) ([]Prediction, error) {
	docHeight := doc.DocHeight
	if docHeight == 0 {
		docHeight = fallbackDocHeight
	}

	predictions := make([]Prediction, len(doc.Nodes))
	for i := range doc.Nodes {
		node := &doc.Nodes[i]
		role, confidence := classify(node, doc.DocWidth, docHeight)
		predictions[i] = Prediction{
			ElementID:     node.ID,
			Role:          role,
			Confidence:    confidence,
			Probabilities: map[schema.HierarchyRole]float64{role: confidence},
		}
	}
	return predictions, nil
}

func classify(node *schema.ElementNode, docWidth, docHeight float64) (schema.HierarchyRole, float64) {
	yRatio := node.Bounds.Y / docHeight
	isImage := node.ElementType == "image_linked" || node.ElementType == "image_embedded"

	switch {
	case yRatio < 0.15:
		if isImage {
			return schema.RoleBranding, 0.6
		}
		return schema.RoleNavigation, 0.6
	case yRatio > 0.85:
		return schema.RoleNavigation, 0.5
	case node.ElementType == "text":
		if node.FontSize != nil && *node.FontSize > 24 {
			return schema.RoleContentPrimary, 0.7
		}
		return schema.RoleContentSecondary, 0.5
	case isImage:
		if node.Bounds.Area() > docWidth*docHeight*0.1 {
			return schema.RoleContentPrimary, 0.6
		}
		return schema.RoleDecoration, 0.4
	case node.ElementType == "group":
		return schema.RoleContentContainer, 0.5
	default:
		return schema.RoleDecoration, 0.3
	}
}
