package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/geometry"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
)

func f64(v float64) *float64 { return &v }

func testDoc() *schema.DocumentGraph {
	return &schema.DocumentGraph{
		DocID:     "doc1",
		DocWidth:  1000,
		DocHeight: 1000,
		Nodes: []schema.ElementNode{
			{ID: "logo", ElementType: "image_linked", Bounds: geometry.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50}},
			{ID: "menu", ElementType: "text", Bounds: geometry.BoundingBox{X: 300, Y: 30, Width: 200, Height: 30}},
			{ID: "headline", ElementType: "text", FontSize: f64(42), Bounds: geometry.BoundingBox{X: 100, Y: 300, Width: 600, Height: 80}},
			{ID: "body", ElementType: "text", FontSize: f64(14), Bounds: geometry.BoundingBox{X: 100, Y: 420, Width: 600, Height: 200}},
			{ID: "hero", ElementType: "image_embedded", Bounds: geometry.BoundingBox{X: 0, Y: 200, Width: 500, Height: 400}},
			{ID: "icon", ElementType: "image_embedded", Bounds: geometry.BoundingBox{X: 900, Y: 500, Width: 20, Height: 20}},
			{ID: "wrap", ElementType: "group", Bounds: geometry.BoundingBox{X: 0, Y: 200, Width: 1000, Height: 600}},
			{ID: "line", ElementType: "path", Bounds: geometry.BoundingBox{X: 0, Y: 700, Width: 1000, Height: 2}},
			{ID: "legal", ElementType: "text", FontSize: f64(9), Bounds: geometry.BoundingBox{X: 100, Y: 950, Width: 600, Height: 20}},
		},
		Edges: []schema.EdgeRelation{
			{SourceID: "wrap", TargetID: "hero", EdgeType: schema.EdgeContains, Weight: 1},
			{SourceID: "body", TargetID: "headline", EdgeType: schema.EdgeSibling, Weight: 1},
		},
	}
}

func TestRulePredictorAssignsEveryNode(t *testing.T) {
	doc := testDoc()
	preds, err := NewRulePredictor().PredictRoles(context.Background(), doc)
	if err != nil {
		t.Fatalf("PredictRoles failed: %v", err)
	}
	if len(preds) != len(doc.Nodes) {
		t.Fatalf("expected %d predictions, got %d", len(doc.Nodes), len(preds))
	}

	want := map[string]schema.HierarchyRole{
		"logo":     schema.RoleBranding,         // image in the top band
		"menu":     schema.RoleNavigation,       // non-image in the top band
		"headline": schema.RoleContentPrimary,   // large text
		"body":     schema.RoleContentSecondary, // small text
		"hero":     schema.RoleContentPrimary,   // image above 10% of doc area
		"icon":     schema.RoleDecoration,       // small image
		"wrap":     schema.RoleContentContainer, // group
		"line":     schema.RoleDecoration,       // everything else
		"legal":    schema.RoleNavigation,       // bottom band
	}

	for _, pred := range preds {
		if pred.Role != want[pred.ElementID] {
			t.Errorf("element %s: role = %q, want %q", pred.ElementID, pred.Role, want[pred.ElementID])
		}
		if pred.Confidence <= 0 || pred.Confidence > 1 {
			t.Errorf("element %s: confidence %v out of range", pred.ElementID, pred.Confidence)
		}
		if !pred.Role.Valid() {
			t.Errorf("element %s: invalid role %q", pred.ElementID, pred.Role)
		}
	}
}

func TestRulePredictorZeroHeightDocument(t *testing.T) {
	doc := &schema.DocumentGraph{
		Nodes: []schema.ElementNode{
			{ID: "a", ElementType: "text", Bounds: geometry.BoundingBox{Y: 50, Width: 10, Height: 10}},
		},
	}
	preds, err := NewRulePredictor().PredictRoles(context.Background(), doc)
	if err != nil {
		t.Fatalf("PredictRoles failed: %v", err)
	}
	// 50 / 1080 falls in the top band.
	if preds[0].Role != schema.RoleNavigation {
		t.Fatalf("role = %q, want navigation", preds[0].Role)
	}
}

func TestBuildNodeFeatures(t *testing.T) {
	doc := &schema.DocumentGraph{
		DocWidth:  200,
		DocHeight: 100,
		Nodes: []schema.ElementNode{
			{
				ID:            "a",
				ElementType:   "group",
				Depth:         3,
				Opacity:       50,
				IsReplaceable: true,
				Bounds:        geometry.BoundingBox{X: 20, Y: 10, Width: 100, Height: 50},
			},
		},
	}

	features := BuildNodeFeatures(doc)
	if len(features) != 1 || len(features[0]) != featureDim {
		t.Fatalf("unexpected feature shape: %d x %d", len(features), len(features[0]))
	}
	want := []float64{0.1, 0.1, 0.5, 0.5, 0.3, 0.4, 0.5, 1.0}
	for i, v := range want {
		if features[0][i] != v {
			t.Fatalf("feature[%d] = %v, want %v", i, features[0][i], v)
		}
	}
}

func TestBuildEdgeIndex(t *testing.T) {
	doc := testDoc()
	index := BuildEdgeIndex(doc)
	if len(index[0]) != 2 || len(index[1]) != 2 {
		t.Fatalf("expected 2 resolvable edges, got %d", len(index[0]))
	}
	// wrap -> hero
	if index[0][0] != 6 || index[1][0] != 4 {
		t.Fatalf("first edge index = (%d, %d), want (6, 4)", index[0][0], index[1][0])
	}

	// No edges: self loops for every node.
	doc.Edges = nil
	index = BuildEdgeIndex(doc)
	if len(index[0]) != len(doc.Nodes) {
		t.Fatalf("expected %d self loops, got %d", len(doc.Nodes), len(index[0]))
	}
	for i := range index[0] {
		if index[0][i] != i || index[1][i] != i {
			t.Fatalf("self loop %d = (%d, %d)", i, index[0][i], index[1][i])
		}
	}
}

func TestRemoteGraphPredictor(t *testing.T) {
	doc := testDoc()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.NodeFeatures) != len(doc.Nodes) {
			t.Errorf("expected %d feature rows, got %d", len(doc.Nodes), len(req.NodeFeatures))
		}

		resp := analyzeResponse{Success: true}
		for _, node := range doc.Nodes {
			resp.Predictions = append(resp.Predictions, Prediction{
				ElementID:  node.ID,
				Role:       schema.RoleContentPrimary,
				Confidence: 0.9,
			})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewRemoteGraphPredictor(NewRemoteGraphPredictorParams{BaseURL: srv.URL})
	preds, err := p.PredictRoles(context.Background(), doc)
	if err != nil {
		t.Fatalf("PredictRoles failed: %v", err)
	}
	if len(preds) != len(doc.Nodes) {
		t.Fatalf("expected %d predictions, got %d", len(doc.Nodes), len(preds))
	}
}

func TestRemoteGraphPredictorRetriesTransientFailures(t *testing.T) {
	doc := testDoc()

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		resp := analyzeResponse{Success: true}
		for _, node := range doc.Nodes {
			resp.Predictions = append(resp.Predictions, Prediction{
				ElementID:  node.ID,
				Role:       schema.RoleDecoration,
				Confidence: 0.4,
			})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewRemoteGraphPredictor(NewRemoteGraphPredictorParams{BaseURL: srv.URL})
	preds, err := p.PredictRoles(context.Background(), doc)
	if err != nil {
		t.Fatalf("PredictRoles failed: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("got %d attempts, want 3", attempts)
	}
	if len(preds) != len(doc.Nodes) {
		t.Fatalf("expected %d predictions, got %d", len(doc.Nodes), len(preds))
	}
}

func TestRemoteGraphPredictorRejectsBadResponses(t *testing.T) {
	doc := testDoc()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "service error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(analyzeResponse{Success: false, Error: "model not loaded"})
			},
		},
		{
			name: "wrong prediction count",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(analyzeResponse{
					Success:     true,
					Predictions: []Prediction{{ElementID: "logo", Role: schema.RoleBranding, Confidence: 1}},
				})
			},
		},
		{
			name: "unknown role",
			handler: func(w http.ResponseWriter, r *http.Request) {
				resp := analyzeResponse{Success: true}
				for _, node := range doc.Nodes {
					resp.Predictions = append(resp.Predictions, Prediction{ElementID: node.ID, Role: "hero", Confidence: 1})
				}
				json.NewEncoder(w).Encode(resp)
			},
		},
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p := NewRemoteGraphPredictor(NewRemoteGraphPredictorParams{BaseURL: srv.URL})
			if _, err := p.PredictRoles(context.Background(), doc); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
