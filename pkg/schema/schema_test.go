package schema

import "testing"

func roleNode(id string, role *HierarchyRole) ElementNode {
	n := ElementNode{ID: id, ElementType: "text"}
	if role != nil {
		n.SetRole(*role, 1.0)
	}
	return n
}

func TestComputeAnnotationStatus(t *testing.T) {
	primary := RoleContentPrimary

	tests := []struct {
		name  string
		nodes []ElementNode
		want  AnnotationStatus
	}{
		{
			name:  "no nodes",
			nodes: nil,
			want:  StatusPending,
		},
		{
			name: "none annotated",
			nodes: []ElementNode{
				roleNode("a", nil),
				roleNode("b", nil),
			},
			want: StatusPending,
		},
		{
			name: "some annotated",
			nodes: []ElementNode{
				roleNode("a", &primary),
				roleNode("b", nil),
			},
			want: StatusPartial,
		},
		{
			name: "all annotated",
			nodes: []ElementNode{
				roleNode("a", &primary),
				roleNode("b", &primary),
			},
			want: StatusComplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := DocumentGraph{Nodes: tt.nodes}
			if got := doc.ComputeAnnotationStatus(); got != tt.want {
				t.Fatalf("ComputeAnnotationStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetRoleKeepsConfidenceInLockstep(t *testing.T) {
	n := ElementNode{ID: "a"}
	if n.Annotated() {
		t.Fatal("fresh node must not be annotated")
	}

	n.SetRole(RoleNavigation, 0.6)
	if n.HierarchyRole == nil || n.HierarchyConfidence == nil {
		t.Fatal("role and confidence must both be set")
	}
	if *n.HierarchyRole != RoleNavigation || *n.HierarchyConfidence != 0.6 {
		t.Fatalf("got role=%v confidence=%v", *n.HierarchyRole, *n.HierarchyConfidence)
	}

	n.ClearRole()
	if n.HierarchyRole != nil || n.HierarchyConfidence != nil {
		t.Fatal("role and confidence must both be unset after clear")
	}
}

func TestClosedSetSizes(t *testing.T) {
	if len(AllHierarchyRoles) != 8 {
		t.Fatalf("expected 8 hierarchy roles, got %d", len(AllHierarchyRoles))
	}
	if len(AllStructurePatterns) != 12 {
		t.Fatalf("expected 12 structure patterns, got %d", len(AllStructurePatterns))
	}
	if len(AllEdgeTypes) != 8 {
		t.Fatalf("expected 8 edge types, got %d", len(AllEdgeTypes))
	}

	for _, r := range AllHierarchyRoles {
		if !r.Valid() {
			t.Fatalf("role %q reported invalid", r)
		}
	}
	for _, p := range AllStructurePatterns {
		if !p.Valid() {
			t.Fatalf("pattern %q reported invalid", p)
		}
	}
	for _, e := range AllEdgeTypes {
		if !e.Valid() {
			t.Fatalf("edge type %q reported invalid", e)
		}
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	if _, err := ParseHierarchyRole("hero"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if _, err := ParseStructurePattern("grid"); err == nil {
		t.Fatal("expected error for unknown pattern")
	}
	if got, err := ParseHierarchyRole("branding"); err != nil || got != RoleBranding {
		t.Fatalf("ParseHierarchyRole(branding) = %v, %v", got, err)
	}
}

func TestOnlyContainsIsDirected(t *testing.T) {
	for _, e := range AllEdgeTypes {
		if e.Directed() != (e == EdgeContains) {
			t.Fatalf("Directed() wrong for %q", e)
		}
	}
}
