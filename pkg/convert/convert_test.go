package convert

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
)

func f64(v float64) *float64 { return &v }

func findEdges(doc *schema.DocumentGraph, edgeType schema.EdgeType, source, target string) []schema.EdgeRelation {
	var found []schema.EdgeRelation
	for _, e := range doc.Edges {
		if e.EdgeType == edgeType && e.SourceID == source && e.TargetID == target {
			found = append(found, e)
		}
	}
	return found
}

func TestConvertOverlappingSiblings(t *testing.T) {
	raw := &RawDocument{
		Document: RawDocumentInfo{Name: "poster", Width: 1000, Height: 1000},
		Elements: []RawElement{
			{ID: "R", Type: "group", Bounds: &RawBounds{Left: 0, Top: 0, Width: 200, Height: 200}},
			{ID: "A", Type: "path", ParentID: "R", Bounds: &RawBounds{Left: 0, Top: 0, Width: 100, Height: 100}},
			{ID: "B", Type: "path", ParentID: "R", Bounds: &RawBounds{Left: 50, Top: 50, Width: 100, Height: 100}},
		},
	}

	doc, err := NewConverter().Convert(raw, "poster/structure.json")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(doc.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(doc.Nodes))
	}

	if got := findEdges(doc, schema.EdgeContains, "R", "A"); len(got) != 1 {
		t.Fatalf("expected one containment edge R->A, got %d", len(got))
	}
	if got := findEdges(doc, schema.EdgeContains, "R", "B"); len(got) != 1 {
		t.Fatalf("expected one containment edge R->B, got %d", len(got))
	}

	siblings := findEdges(doc, schema.EdgeSibling, "A", "B")
	if len(siblings) != 1 {
		t.Fatalf("expected one sibling edge A-B, got %d", len(siblings))
	}
	if got := findEdges(doc, schema.EdgeSibling, "B", "A"); len(got) != 0 {
		t.Fatal("sibling edge stored against the canonical ordering")
	}

	overlaps := findEdges(doc, schema.EdgeOverlaps, "A", "B")
	if len(overlaps) != 1 {
		t.Fatalf("expected one overlap edge A-B, got %d", len(overlaps))
	}
	if math.Abs(overlaps[0].Weight-0.25) > 1e-9 {
		t.Fatalf("overlap weight = %v, want 0.25", overlaps[0].Weight)
	}
	if overlaps[0].OverlapRatio == nil || math.Abs(*overlaps[0].OverlapRatio-0.25) > 1e-9 {
		t.Fatalf("overlap ratio = %v, want 0.25", overlaps[0].OverlapRatio)
	}

	if got := findEdges(doc, schema.EdgeAlignedH, "A", "B"); len(got) != 0 {
		t.Fatal("A and B must not be horizontally aligned at the default threshold")
	}
	if got := findEdges(doc, schema.EdgeAlignedV, "A", "B"); len(got) != 0 {
		t.Fatal("A and B must not be vertically aligned at the default threshold")
	}

	if doc.AnnotationStatus != schema.StatusPending {
		t.Fatalf("fresh conversion status = %q, want pending", doc.AnnotationStatus)
	}
}

func TestConvertSkipsMalformedElements(t *testing.T) {
	raw := &RawDocument{
		Document: RawDocumentInfo{Name: "flyer", Width: 800, Height: 600},
		Elements: []RawElement{
			{ID: "ok", Type: "text", Bounds: &RawBounds{Left: 10, Top: 10, Width: 50, Height: 20}},
			{ID: "", Type: "text", Bounds: &RawBounds{}},                  // no id
			{ID: "ok", Type: "text", Bounds: &RawBounds{}},                // duplicate id
			{ID: "nobox", Type: "path"},                                   // neither bounds nor position/size
			{ID: "pos", Type: "path", Position: &RawPosition{X: 5, Y: 6}}, // position only is acceptable
		},
	}

	doc, err := NewConverter().Convert(raw, "flyer/structure.json")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("expected 2 surviving nodes, got %d", len(doc.Nodes))
	}
	if doc.Nodes[0].ID != "ok" || doc.Nodes[1].ID != "pos" {
		t.Fatalf("unexpected surviving nodes: %s, %s", doc.Nodes[0].ID, doc.Nodes[1].ID)
	}
	if doc.Nodes[1].Bounds.X != 5 || doc.Nodes[1].Bounds.Width != 0 {
		t.Fatalf("position-only bounds wrong: %+v", doc.Nodes[1].Bounds)
	}
}

func TestConvertFailsOnEmptyResult(t *testing.T) {
	raw := &RawDocument{
		Document: RawDocumentInfo{Name: "empty"},
		Elements: []RawElement{
			{ID: "", Type: "text"},
			{ID: "x", Type: "path"}, // no geometry
		},
	}
	if _, err := NewConverter().Convert(raw, "empty.json"); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("want ErrEmptyDocument, got %v", err)
	}
}

func TestConvertGeneratesFreshDocIDs(t *testing.T) {
	raw := &RawDocument{
		Document: RawDocumentInfo{Name: "doc"},
		Elements: []RawElement{
			{ID: "a", Bounds: &RawBounds{Width: 10, Height: 10}},
		},
	}
	c := NewConverter()
	first, err := c.Convert(raw, "doc.json")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	second, err := c.Convert(raw, "doc.json")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if first.DocID == second.DocID {
		t.Fatal("repeated conversion must produce distinct doc ids")
	}
}

func TestSemanticTagExtraction(t *testing.T) {
	elem := RawElement{
		ID:     "e1",
		Bounds: &RawBounds{Width: 1, Height: 1},
		Semantics: &RawSemantics{
			Hints: []string{"headline", "title"},
			Role:  "title",
		},
		PrefixMark: &RawPrefixMark{Role: "headline", Type: "text_slot"},
		Variable:   &RawVariable{PrimaryType: "text", AllTags: []string{"title", "editable"}},
	}

	node, err := convertElement(elem, map[string]struct{}{})
	if err != nil {
		t.Fatalf("convertElement failed: %v", err)
	}

	want := []string{"headline", "title", "text", "editable"}
	if !reflect.DeepEqual(node.SemanticTags, want) {
		t.Fatalf("semantic tags = %v, want %v", node.SemanticTags, want)
	}
	if node.VariableType != "text" {
		t.Fatalf("variable type = %q, want text (variable block wins over prefix marker)", node.VariableType)
	}
}

func TestReplaceableIsLogicalOR(t *testing.T) {
	tests := []struct {
		name string
		elem RawElement
		want bool
	}{
		{"no signal", RawElement{}, false},
		{"top-level flag", RawElement{Replaceable: true}, true},
		{"semantics flag", RawElement{Semantics: &RawSemantics{Replaceable: true}}, true},
		{"image analysis flag", RawElement{ImageAnalysis: &RawImageAnalysis{Replaceable: true}}, true},
		{"prefix marker flag", RawElement{PrefixMark: &RawPrefixMark{Replaceable: true}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkReplaceable(tt.elem); got != tt.want {
				t.Fatalf("checkReplaceable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpatialWindowBoundsPairChecks(t *testing.T) {
	// 25 fully overlapping elements; the first can only relate to the 19
	// that follow it in creation order.
	raw := &RawDocument{Document: RawDocumentInfo{Name: "stack"}}
	for i := 0; i < 25; i++ {
		raw.Elements = append(raw.Elements, RawElement{
			ID:     fmt.Sprintf("n%02d", i),
			Bounds: &RawBounds{Left: 0, Top: 0, Width: 10, Height: 10},
		})
	}

	doc, err := NewConverter().Convert(raw, "stack.json")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if got := findEdges(doc, schema.EdgeOverlaps, "n00", "n19"); len(got) != 1 {
		t.Fatalf("expected overlap edge n00-n19 inside the window, got %d", len(got))
	}
	if got := findEdges(doc, schema.EdgeOverlaps, "n00", "n20"); len(got) != 0 {
		t.Fatal("pair outside the spatial window must not be tested")
	}
	// Sibling edges are windowless: all 25 share the empty parent.
	if got := findEdges(doc, schema.EdgeSibling, "n00", "n24"); len(got) != 1 {
		t.Fatalf("expected sibling edge n00-n24, got %d", len(got))
	}
}

func TestAlignmentWeightNotClamped(t *testing.T) {
	raw := &RawDocument{
		Document: RawDocumentInfo{Name: "wide"},
		Elements: []RawElement{
			// Left edges near-aligned while the horizontal centers sit 147px
			// apart, so the vertical alignment edge gets weight 1 - 147/100.
			{ID: "a", Bounds: &RawBounds{Left: 0, Top: 0, Width: 10, Height: 600}},
			{ID: "b", Bounds: &RawBounds{Left: 2, Top: 500, Width: 300, Height: 10}},
		},
	}

	doc, err := NewConverter().Convert(raw, "wide.json")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	edges := findEdges(doc, schema.EdgeAlignedV, "a", "b")
	if len(edges) != 1 {
		t.Fatalf("expected one vertical alignment edge, got %d", len(edges))
	}
	if edges[0].Weight >= 0 {
		t.Fatalf("expected negative weight for a 147px offset, got %v", edges[0].Weight)
	}
}

func TestParseRawDocumentRepairsDamagedJSON(t *testing.T) {
	damaged := `{"document": {"name": "d", "width": 100, "height": 100}, "elements": [{"id": "a", "bounds": {"left": 0, "top": 0, "width": 5, "height": 5},},],}`

	raw, err := ParseRawDocument([]byte(damaged))
	if err != nil {
		t.Fatalf("ParseRawDocument failed on repairable input: %v", err)
	}
	if raw.Document.Name != "d" || len(raw.Elements) != 1 {
		t.Fatalf("unexpected repaired document: %+v", raw)
	}

	if _, err := ParseRawDocument([]byte("not json at all {{{{")); err == nil {
		t.Fatal("expected error for unrepairable input")
	}
}

func TestBoundsPreferExplicitRecord(t *testing.T) {
	elem := RawElement{
		ID:       "e",
		Bounds:   &RawBounds{Left: 1, Top: 2, Width: 3, Height: 4},
		Position: &RawPosition{X: 9, Y: 9},
		Size:     &RawSize{Width: 9, Height: 9},
		Opacity:  f64(40),
		Path:     "0/1/2",
	}
	node, err := convertElement(elem, map[string]struct{}{})
	if err != nil {
		t.Fatalf("convertElement failed: %v", err)
	}
	if node.Bounds.X != 1 || node.Bounds.Y != 2 || node.Bounds.Width != 3 || node.Bounds.Height != 4 {
		t.Fatalf("bounds = %+v, want explicit record", node.Bounds)
	}
	if node.Opacity != 40 {
		t.Fatalf("opacity = %v, want 40", node.Opacity)
	}
	if node.ZIndex != 2 {
		t.Fatalf("z index = %d, want 2 (path depth)", node.ZIndex)
	}
}
