package schema

import (
	"time"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/geometry"
)

// AnnotationStatus is the derived completion state of a document's role
// labeling. It is always recomputed from the node set, never set directly.
type AnnotationStatus string

const (
	StatusPending  AnnotationStatus = "pending"
	StatusPartial  AnnotationStatus = "partial"
	StatusComplete AnnotationStatus = "complete"
)

func (s AnnotationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPartial, StatusComplete:
		return true
	}
	return false
}

// ColorInfo describes a fill or stroke color.
type ColorInfo struct {
	Hex            string   `json:"hex,omitempty"`
	RGB            []int    `json:"rgb,omitempty"`
	DominantColors []string `json:"dominant_colors,omitempty"`
}

// VisualFeatures holds per-element features produced by the external visual
// encoder. All fields are optional; the core only stores them.
type VisualFeatures struct {
	FeatureVector     []float64 `json:"feature_vector,omitempty"`
	EdgeDensity       *float64  `json:"edge_density,omitempty"`
	TextureComplexity *float64  `json:"texture_complexity,omitempty"`
	ColorVariance     *float64  `json:"color_variance,omitempty"`
	ContrastScore     *float64  `json:"contrast_score,omitempty"`
}

// ElementNode is one visual element of a document.
//
// The annotation fields (hierarchy role, confidence, logical group, semantic
// tags) are mutable after conversion; everything else is fixed by the
// converter. HierarchyRole and HierarchyConfidence are either both set or
// both unset.
type ElementNode struct {
	ID          string `json:"id"`
	ElementType string `json:"element_type"`
	Name        string `json:"name,omitempty"`

	LayerIndex  int      `json:"layer_index"`
	LayerName   string   `json:"layer_name"`
	Depth       int      `json:"depth"`
	ParentID    string   `json:"parent_id,omitempty"`
	ChildrenIDs []string `json:"children_ids,omitempty"`

	Bounds geometry.BoundingBox `json:"bounds"`
	ZIndex int                  `json:"z_index"`

	Opacity     float64    `json:"opacity"`
	BlendMode   string     `json:"blend_mode"`
	FillColor   *ColorInfo `json:"fill_color,omitempty"`
	StrokeColor *ColorInfo `json:"stroke_color,omitempty"`

	TextContent string   `json:"text_content,omitempty"`
	FontSize    *float64 `json:"font_size,omitempty"`
	FontName    string   `json:"font_name,omitempty"`

	VisualFeatures *VisualFeatures `json:"visual_features,omitempty"`

	HierarchyRole       *HierarchyRole `json:"hierarchy_role,omitempty"`
	HierarchyConfidence *float64       `json:"hierarchy_confidence,omitempty"`
	LogicalGroupID      string         `json:"logical_group_id,omitempty"`
	SemanticTags        []string       `json:"semantic_tags,omitempty"`

	IsReplaceable bool   `json:"is_replaceable"`
	VariableType  string `json:"variable_type,omitempty"`
}

// Annotated reports whether the node carries a hierarchy role.
func (n *ElementNode) Annotated() bool {
	return n.HierarchyRole != nil
}

// SetRole assigns a role with the given confidence, keeping the role and
// confidence fields in lockstep.
func (n *ElementNode) SetRole(role HierarchyRole, confidence float64) {
	n.HierarchyRole = &role
	n.HierarchyConfidence = &confidence
}

// ClearRole unsets the role and its confidence together.
func (n *ElementNode) ClearRole() {
	n.HierarchyRole = nil
	n.HierarchyConfidence = nil
}

// EdgeRelation is a typed, weighted relation between two nodes. Containment
// edges run parent to child; all other types are stored once with
// SourceID < TargetID.
type EdgeRelation struct {
	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
	EdgeType EdgeType `json:"edge_type"`
	Weight   float64  `json:"weight"`

	Distance        *float64 `json:"distance,omitempty"`
	OverlapRatio    *float64 `json:"overlap_ratio,omitempty"`
	AlignmentOffset *float64 `json:"alignment_offset,omitempty"`
}

// LogicalGroup is a cluster of elements believed to form one structural unit
// (a card, a list row). ElementIDs is always the leaf-element set; nesting is
// expressed through the parent/children group ids, never by transitive
// expansion of membership.
type LogicalGroup struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	ElementIDs []string `json:"element_ids"`

	Pattern           *StructurePattern `json:"pattern,omitempty"`
	PatternConfidence *float64          `json:"pattern_confidence,omitempty"`

	Bounds *geometry.BoundingBox `json:"bounds,omitempty"`

	ParentGroupID    string   `json:"parent_group_id,omitempty"`
	ChildrenGroupIDs []string `json:"children_group_ids,omitempty"`
}

// DocumentGraph is the aggregate root: one converted document with its nodes,
// relations and annotation state. Created once by the converter; afterwards
// mutated in place by the annotation manager and rewritten wholesale on every
// change.
type DocumentGraph struct {
	DocID     string  `json:"doc_id"`
	DocName   string  `json:"doc_name"`
	DocWidth  float64 `json:"doc_width"`
	DocHeight float64 `json:"doc_height"`

	SourceFile    string    `json:"source_file"`
	ExportTime    time.Time `json:"export_time"`
	ParserVersion string    `json:"parser_version"`

	Nodes []ElementNode  `json:"nodes"`
	Edges []EdgeRelation `json:"edges"`

	LogicalGroups []LogicalGroup `json:"logical_groups"`

	Layers []map[string]any `json:"layers"`

	AnnotationStatus AnnotationStatus `json:"annotation_status"`
	Annotator        string           `json:"annotator,omitempty"`
	AnnotationTime   *time.Time       `json:"annotation_time,omitempty"`

	IsValidated     bool   `json:"is_validated"`
	ValidationNotes string `json:"validation_notes,omitempty"`
}

// Node returns a pointer into Nodes for the given element id, or nil.
func (d *DocumentGraph) Node(id string) *ElementNode {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// Group returns a pointer into LogicalGroups for the given group id, or nil.
func (d *DocumentGraph) Group(id string) *LogicalGroup {
	for i := range d.LogicalGroups {
		if d.LogicalGroups[i].ID == id {
			return &d.LogicalGroups[i]
		}
	}
	return nil
}

// AnnotatedCount returns the number of nodes carrying a hierarchy role.
func (d *DocumentGraph) AnnotatedCount() int {
	count := 0
	for i := range d.Nodes {
		if d.Nodes[i].Annotated() {
			count++
		}
	}
	return count
}

// ComputeAnnotationStatus derives the document status from the node set:
// complete iff every node has a role, partial iff some do, pending iff none
// do. A document with no nodes is pending.
func (d *DocumentGraph) ComputeAnnotationStatus() AnnotationStatus {
	if len(d.Nodes) == 0 {
		return StatusPending
	}
	annotated := d.AnnotatedCount()
	switch {
	case annotated == len(d.Nodes):
		return StatusComplete
	case annotated > 0:
		return StatusPartial
	default:
		return StatusPending
	}
}

// RecomputeAnnotationStatus refreshes the stored status field. Callers must
// invoke it after every mutation of node annotations.
func (d *DocumentGraph) RecomputeAnnotationStatus() {
	d.AnnotationStatus = d.ComputeAnnotationStatus()
}

// Task types of an AnnotationTask.
const (
	TaskTypeFull      = "full"
	TaskTypeHierarchy = "hierarchy"
	TaskTypeGrouping  = "grouping"
	TaskTypeReview    = "review"
)

// Task statuses of an AnnotationTask.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// AnnotationTask is a unit-of-work record decoupled from the graph itself so
// task assignment can evolve without touching graph content.
type AnnotationTask struct {
	TaskID   string `json:"task_id"`
	DocID    string `json:"doc_id"`
	TaskType string `json:"task_type"`

	ElementIDs []string `json:"element_ids,omitempty"`

	Status      string     `json:"status"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Annotations map[string]any `json:"annotations"`
}

// CorpusStatistics aggregates counts over an exported training corpus.
type CorpusStatistics struct {
	TotalDocuments      int                      `json:"total_documents"`
	TotalNodes          int                      `json:"total_nodes"`
	TotalEdges          int                      `json:"total_edges"`
	TotalGroups         int                      `json:"total_groups"`
	AnnotatedNodes      int                      `json:"annotated_nodes"`
	RoleDistribution    map[HierarchyRole]int    `json:"role_distribution"`
	PatternDistribution map[StructurePattern]int `json:"pattern_distribution"`
}

// TrainingCorpus is the export format consumed by model training: every
// partially or fully annotated document plus aggregate statistics.
type TrainingCorpus struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Documents  []DocumentGraph  `json:"documents"`
	Statistics CorpusStatistics `json:"statistics"`
}
