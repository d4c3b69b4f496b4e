package convert

import (
	"math"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/geometry"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
)

// spatialWindow bounds the pairwise spatial checks: for the node at position
// i in creation order, only nodes at positions i+1 through i+spatialWindow-1
// are tested. Keeps edge generation O(n) at the cost of possibly missing
// relations between elements far apart in the element list.
const spatialWindow = 20

const sizeSimilarityThreshold = 0.8

func (c *Converter) generateEdges(nodes []schema.ElementNode) []schema.EdgeRelation {
	edges := make([]schema.EdgeRelation, 0, len(nodes)*2)

	nodeIDs := make(map[string]struct{}, len(nodes))
	for i := range nodes {
		nodeIDs[nodes[i].ID] = struct{}{}
	}

	// Containment: one directed edge per node whose declared parent resolves
	// within the document.
	for i := range nodes {
		if nodes[i].ParentID == "" {
			continue
		}
		if _, ok := nodeIDs[nodes[i].ParentID]; !ok {
			continue
		}
		edges = append(edges, schema.EdgeRelation{
			SourceID: nodes[i].ParentID,
			TargetID: nodes[i].ID,
			EdgeType: schema.EdgeContains,
			Weight:   1.0,
		})
	}

	// Siblings: one edge per unordered pair sharing a parent (top-level nodes
	// share the empty parent), stored with source id below target id.
	byParent := make(map[string][]string)
	for i := range nodes {
		byParent[nodes[i].ParentID] = append(byParent[nodes[i].ParentID], nodes[i].ID)
	}
	for _, ids := range byParent {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				source, target := ids[i], ids[j]
				if target < source {
					source, target = target, source
				}
				edges = append(edges, schema.EdgeRelation{
					SourceID: source,
					TargetID: target,
					EdgeType: schema.EdgeSibling,
					Weight:   1.0,
				})
			}
		}
	}

	// Spatial relations within the bounded neighborhood.
	for i := range nodes {
		limit := i + spatialWindow
		if limit > len(nodes) {
			limit = len(nodes)
		}
		for j := i + 1; j < limit; j++ {
			edges = append(edges, c.spatialEdges(&nodes[i], &nodes[j])...)
		}
	}

	return edges
}

// spatialEdges computes overlap, alignment and size-similarity edges for one
// pair. The pair is canonicalized by element id first so the stored record
// and its alignment offset are independent of creation order.
func (c *Converter) spatialEdges(a, b *schema.ElementNode) []schema.EdgeRelation {
	if b.ID < a.ID {
		a, b = b, a
	}

	var edges []schema.EdgeRelation

	overlap := geometry.OverlapRatio(a.Bounds, b.Bounds)
	if overlap > c.overlapThreshold {
		ratio := overlap
		edges = append(edges, schema.EdgeRelation{
			SourceID:     a.ID,
			TargetID:     b.ID,
			EdgeType:     schema.EdgeOverlaps,
			Weight:       overlap,
			OverlapRatio: &ratio,
		})
	}

	hAligned, vAligned, offset := geometry.Alignment(a.Bounds, b.Bounds, c.alignmentThreshold)
	if hAligned || vAligned {
		// Weight decays with offset and is deliberately not clamped: a
		// negative weight is the signal for a barely-aligned pair.
		weight := 1.0 - math.Abs(offset)/100
		off := offset
		if hAligned {
			edges = append(edges, schema.EdgeRelation{
				SourceID:        a.ID,
				TargetID:        b.ID,
				EdgeType:        schema.EdgeAlignedH,
				Weight:          weight,
				AlignmentOffset: &off,
			})
		}
		if vAligned {
			edges = append(edges, schema.EdgeRelation{
				SourceID:        a.ID,
				TargetID:        b.ID,
				EdgeType:        schema.EdgeAlignedV,
				Weight:          weight,
				AlignmentOffset: &off,
			})
		}
	}

	if sim := geometry.SizeSimilarity(a.Bounds, b.Bounds); sim > sizeSimilarityThreshold {
		edges = append(edges, schema.EdgeRelation{
			SourceID: a.ID,
			TargetID: b.ID,
			EdgeType: schema.EdgeSimilarSize,
			Weight:   sim,
		})
	}

	return edges
}
