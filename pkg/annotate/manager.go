package annotate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/convert"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/geometry"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/predict"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/store"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrGroupExists     = errors.New("group id already exists")
	ErrUnknownElement  = errors.New("group references unknown element")
	ErrEmptyGroup      = errors.New("group needs at least one element")
)

// Human annotations carry full confidence. AutoAnnotate uses this value to
// tell human labels apart from earlier predictor output.
const humanConfidence = 1.0

// Manager is the annotation state machine over persisted document graphs.
// Every mutation loads the full document, validates, mutates in memory,
// recomputes the annotation status and rewrites the whole document. A failed
// operation never leaves a partially updated graph behind.
type Manager struct {
	store     store.DocumentStore
	converter *convert.Converter
	predictor predict.Predictor
}

// NewManagerParams contains configuration for creating a Manager. Predictor
// may be nil when auto annotation is not used.
type NewManagerParams struct {
	Store     store.DocumentStore
	Converter *convert.Converter
	Predictor predict.Predictor
}

func NewManager(params NewManagerParams) *Manager {
	converter := params.Converter
	if converter == nil {
		converter = convert.NewConverter()
	}
	return &Manager{
		store:     params.Store,
		converter: converter,
		predictor: params.Predictor,
	}
}

// Import converts a raw structure document, persists the resulting graph and
// opens a pending whole-document annotation task.
func (m *Manager) Import(ctx context.Context, raw *convert.RawDocument, sourceFile string) (*schema.DocumentGraph, *schema.AnnotationTask, error) {
	doc, err := m.converter.Convert(raw, sourceFile)
	if err != nil {
		return nil, nil, err
	}

	if err := m.store.SaveDocument(ctx, doc); err != nil {
		return nil, nil, err
	}

	taskID, err := gonanoid.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate task id: %w", err)
	}
	task := &schema.AnnotationTask{
		TaskID:      taskID,
		DocID:       doc.DocID,
		TaskType:    schema.TaskTypeFull,
		Status:      schema.TaskStatusPending,
		CreatedAt:   time.Now(),
		Annotations: map[string]any{},
	}
	if err := m.store.SaveTask(ctx, task); err != nil {
		return nil, nil, err
	}

	logger.Info("[Annotate][Import] Document imported", "docId", doc.DocID, "nodes", len(doc.Nodes), "edges", len(doc.Edges))
	return doc, task, nil
}

// GetDocument loads one persisted document graph.
func (m *Manager) GetDocument(ctx context.Context, docID string) (*schema.DocumentGraph, error) {
	return m.store.GetDocument(ctx, docID)
}

// ElementUpdate is a partial update of one node's annotation fields. Nil
// fields are untouched, not cleared.
type ElementUpdate struct {
	Role    *schema.HierarchyRole
	GroupID *string
	Tags    []string
}

// AnnotateElement applies a partial annotation update to one element. Setting
// a role forces the confidence to 1.0.
func (m *Manager) AnnotateElement(ctx context.Context, docID string, elementID string, annotator string, update ElementUpdate) (*schema.DocumentGraph, error) {
	doc, err := m.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	node := doc.Node(elementID)
	if node == nil {
		return nil, fmt.Errorf("%w: %s in document %s", ErrElementNotFound, elementID, docID)
	}

	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, fmt.Errorf("unknown hierarchy role %q", *update.Role)
		}
		node.SetRole(*update.Role, humanConfidence)
	}
	if update.GroupID != nil {
		node.LogicalGroupID = *update.GroupID
	}
	if update.Tags != nil {
		node.SemanticTags = update.Tags
	}

	m.touch(doc, annotator)
	if err := m.store.RewriteDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ClearElementRole unsets a previously assigned role, reverting the document
// status when this was the last annotated node.
func (m *Manager) ClearElementRole(ctx context.Context, docID string, elementID string, annotator string) (*schema.DocumentGraph, error) {
	doc, err := m.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	node := doc.Node(elementID)
	if node == nil {
		return nil, fmt.Errorf("%w: %s in document %s", ErrElementNotFound, elementID, docID)
	}
	node.ClearRole()

	m.touch(doc, annotator)
	if err := m.store.RewriteDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateGroupParams describes a new logical group. Pattern is optional; when
// supplied the group's pattern confidence is set to 1.0.
type CreateGroupParams struct {
	GroupID    string
	Name       string
	ElementIDs []string
	Pattern    *schema.StructurePattern
}

// CreateLogicalGroup validates the full member list before any mutation, then
// appends the group, computes its bounds as the union of member bounds and
// back-fills the group id on every member node.
func (m *Manager) CreateLogicalGroup(ctx context.Context, docID string, annotator string, params CreateGroupParams) (*schema.DocumentGraph, error) {
	if len(params.ElementIDs) == 0 {
		return nil, ErrEmptyGroup
	}

	doc, err := m.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Group(params.GroupID) != nil {
		return nil, fmt.Errorf("%w: %s", ErrGroupExists, params.GroupID)
	}
	if params.Pattern != nil && !params.Pattern.Valid() {
		return nil, fmt.Errorf("unknown structure pattern %q", *params.Pattern)
	}

	members := make([]*schema.ElementNode, 0, len(params.ElementIDs))
	for _, id := range params.ElementIDs {
		node := doc.Node(id)
		if node == nil {
			return nil, fmt.Errorf("%w: %s in document %s", ErrUnknownElement, id, docID)
		}
		members = append(members, node)
	}

	bounds := make([]geometry.BoundingBox, len(members))
	for i, node := range members {
		bounds[i] = node.Bounds
	}
	union := geometry.Union(bounds)

	group := schema.LogicalGroup{
		ID:         params.GroupID,
		Name:       params.Name,
		ElementIDs: params.ElementIDs,
		Bounds:     &union,
	}
	if params.Pattern != nil {
		confidence := humanConfidence
		group.Pattern = params.Pattern
		group.PatternConfidence = &confidence
	}

	doc.LogicalGroups = append(doc.LogicalGroups, group)
	for _, node := range members {
		node.LogicalGroupID = params.GroupID
	}

	m.touch(doc, annotator)
	if err := m.store.RewriteDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Progress summarizes how far a document's annotation has come.
type Progress struct {
	Status            schema.AnnotationStatus `json:"status"`
	TotalElements     int                     `json:"total_elements"`
	AnnotatedElements int                     `json:"annotated_elements"`
	ProgressPercent   float64                 `json:"progress_percent"`
	GroupCount        int                     `json:"group_count"`
}

func (m *Manager) Progress(ctx context.Context, docID string) (*Progress, error) {
	doc, err := m.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	total := len(doc.Nodes)
	annotated := doc.AnnotatedCount()
	percent := 0.0
	if total > 0 {
		percent = math.Round(100*float64(annotated)/float64(total)*10) / 10
	}

	return &Progress{
		Status:            doc.AnnotationStatus,
		TotalElements:     total,
		AnnotatedElements: annotated,
		ProgressPercent:   percent,
		GroupCount:        len(doc.LogicalGroups),
	}, nil
}

// ListPending returns up to limit unannotated nodes in storage order. It is a
// plain work queue without prioritization.
func (m *Manager) ListPending(ctx context.Context, docID string, limit int) ([]schema.ElementNode, error) {
	doc, err := m.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	var pending []schema.ElementNode
	for i := range doc.Nodes {
		if doc.Nodes[i].Annotated() {
			continue
		}
		pending = append(pending, doc.Nodes[i])
		if limit > 0 && len(pending) == limit {
			break
		}
	}
	return pending, nil
}

const corpusVersion = "1.0"

// ExportTrainingData collects every partially or fully annotated document
// into a training corpus with aggregate statistics. Pending documents never
// enter the corpus. The scan is read-only.
func (m *Manager) ExportTrainingData(ctx context.Context) (*schema.TrainingCorpus, error) {
	docs, err := m.store.ListDocuments(ctx, []schema.AnnotationStatus{schema.StatusPartial, schema.StatusComplete})
	if err != nil {
		return nil, err
	}

	stats := schema.CorpusStatistics{
		TotalDocuments:      len(docs),
		RoleDistribution:    make(map[schema.HierarchyRole]int),
		PatternDistribution: make(map[schema.StructurePattern]int),
	}
	corpus := &schema.TrainingCorpus{
		Version:    corpusVersion,
		ExportedAt: time.Now(),
		Documents:  make([]schema.DocumentGraph, 0, len(docs)),
	}

	for _, doc := range docs {
		stats.TotalNodes += len(doc.Nodes)
		stats.TotalEdges += len(doc.Edges)
		stats.TotalGroups += len(doc.LogicalGroups)
		stats.AnnotatedNodes += doc.AnnotatedCount()
		for i := range doc.Nodes {
			if role := doc.Nodes[i].HierarchyRole; role != nil {
				stats.RoleDistribution[*role]++
			}
		}
		for i := range doc.LogicalGroups {
			if pattern := doc.LogicalGroups[i].Pattern; pattern != nil {
				stats.PatternDistribution[*pattern]++
			}
		}
		corpus.Documents = append(corpus.Documents, *doc)
	}
	corpus.Statistics = stats

	logger.Info("[Annotate][Export] Corpus assembled", "documents", stats.TotalDocuments, "nodes", stats.TotalNodes, "annotated", stats.AnnotatedNodes)
	return corpus, nil
}

// Validate marks a document as reviewed.
func (m *Manager) Validate(ctx context.Context, docID string, notes string, annotator string) (*schema.DocumentGraph, error) {
	doc, err := m.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	doc.IsValidated = true
	doc.ValidationNotes = notes

	m.touch(doc, annotator)
	if err := m.store.RewriteDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// touch stamps the document with the acting annotator, refreshes the
// annotation time and rederives the status.
func (m *Manager) touch(doc *schema.DocumentGraph, annotator string) {
	if annotator != "" {
		doc.Annotator = annotator
	}
	now := time.Now()
	doc.AnnotationTime = &now
	doc.RecomputeAnnotationStatus()
}
