package schema

import "fmt"

// HierarchyRole is the closed set of functional positions an element can
// occupy in a document's hierarchy.
type HierarchyRole string

const (
	RoleBackground       HierarchyRole = "background"
	RoleDecoration       HierarchyRole = "decoration"
	RoleContentContainer HierarchyRole = "content_container"
	RoleContentPrimary   HierarchyRole = "content_primary"
	RoleContentSecondary HierarchyRole = "content_secondary"
	RoleNavigation       HierarchyRole = "navigation"
	RoleBranding         HierarchyRole = "branding"
	RoleInteractive      HierarchyRole = "interactive"
)

// AllHierarchyRoles lists every role in its stable class-index order, which
// external predictors use as their output ordering.
var AllHierarchyRoles = []HierarchyRole{
	RoleBackground,
	RoleDecoration,
	RoleContentContainer,
	RoleContentPrimary,
	RoleContentSecondary,
	RoleNavigation,
	RoleBranding,
	RoleInteractive,
}

func (r HierarchyRole) Valid() bool {
	switch r {
	case RoleBackground, RoleDecoration, RoleContentContainer, RoleContentPrimary,
		RoleContentSecondary, RoleNavigation, RoleBranding, RoleInteractive:
		return true
	}
	return false
}

// Description returns a short human readable explanation of the role, used by
// annotation frontends.
func (r HierarchyRole) Description() string {
	switch r {
	case RoleBackground:
		return "Background layer, usually the bottom-most decorative element"
	case RoleDecoration:
		return "Decorative element such as a line, shape or pattern"
	case RoleContentContainer:
		return "Container grouping other content elements"
	case RoleContentPrimary:
		return "Primary content such as a headline or hero image"
	case RoleContentSecondary:
		return "Secondary content such as body or caption text"
	case RoleNavigation:
		return "Navigation element such as a menu, button or link"
	case RoleBranding:
		return "Brand element such as a logo or slogan"
	case RoleInteractive:
		return "Interactive element such as a button or input field"
	}
	return ""
}

// ParseHierarchyRole converts s into a HierarchyRole, failing for values
// outside the closed set.
func ParseHierarchyRole(s string) (HierarchyRole, error) {
	r := HierarchyRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown hierarchy role %q", s)
	}
	return r, nil
}

// StructurePattern is the closed set of layout patterns a logical group can
// be labeled with.
type StructurePattern string

const (
	PatternSingleElement  StructurePattern = "single_element"
	PatternCard           StructurePattern = "card"
	PatternCardGrid       StructurePattern = "card_grid"
	PatternListVertical   StructurePattern = "list_vertical"
	PatternListHorizontal StructurePattern = "list_horizontal"
	PatternForm           StructurePattern = "form"
	PatternTimeline       StructurePattern = "timeline"
	PatternHeroSection    StructurePattern = "hero_section"
	PatternHeader         StructurePattern = "header"
	PatternFooter         StructurePattern = "footer"
	PatternSidebar        StructurePattern = "sidebar"
	PatternGallery        StructurePattern = "gallery"
)

// AllStructurePatterns lists every pattern in stable class-index order.
var AllStructurePatterns = []StructurePattern{
	PatternSingleElement,
	PatternCard,
	PatternCardGrid,
	PatternListVertical,
	PatternListHorizontal,
	PatternForm,
	PatternTimeline,
	PatternHeroSection,
	PatternHeader,
	PatternFooter,
	PatternSidebar,
	PatternGallery,
}

func (p StructurePattern) Valid() bool {
	switch p {
	case PatternSingleElement, PatternCard, PatternCardGrid, PatternListVertical,
		PatternListHorizontal, PatternForm, PatternTimeline, PatternHeroSection,
		PatternHeader, PatternFooter, PatternSidebar, PatternGallery:
		return true
	}
	return false
}

// Description returns a short human readable explanation of the pattern.
func (p StructurePattern) Description() string {
	switch p {
	case PatternSingleElement:
		return "A standalone element"
	case PatternCard:
		return "Card layout"
	case PatternCardGrid:
		return "Grid of cards"
	case PatternListVertical:
		return "Vertical list"
	case PatternListHorizontal:
		return "Horizontal list"
	case PatternForm:
		return "Form layout"
	case PatternTimeline:
		return "Timeline"
	case PatternHeroSection:
		return "Hero / key visual section"
	case PatternHeader:
		return "Page header"
	case PatternFooter:
		return "Page footer"
	case PatternSidebar:
		return "Sidebar"
	case PatternGallery:
		return "Image gallery"
	}
	return ""
}

// ParseStructurePattern converts s into a StructurePattern, failing for
// values outside the closed set.
func ParseStructurePattern(s string) (StructurePattern, error) {
	p := StructurePattern(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown structure pattern %q", s)
	}
	return p, nil
}

// EdgeType is the closed set of relation categories between two nodes.
type EdgeType string

const (
	EdgeContains        EdgeType = "contains"
	EdgeSibling         EdgeType = "sibling"
	EdgeOverlaps        EdgeType = "overlaps"
	EdgeAlignedH        EdgeType = "aligned_h"
	EdgeAlignedV        EdgeType = "aligned_v"
	EdgeSimilarVisual   EdgeType = "similar_visual"
	EdgeSimilarSize     EdgeType = "similar_size"
	EdgeSemanticRelated EdgeType = "semantic_related"
)

// AllEdgeTypes lists every edge type in stable class-index order.
var AllEdgeTypes = []EdgeType{
	EdgeContains,
	EdgeSibling,
	EdgeOverlaps,
	EdgeAlignedH,
	EdgeAlignedV,
	EdgeSimilarVisual,
	EdgeSimilarSize,
	EdgeSemanticRelated,
}

func (e EdgeType) Valid() bool {
	switch e {
	case EdgeContains, EdgeSibling, EdgeOverlaps, EdgeAlignedH, EdgeAlignedV,
		EdgeSimilarVisual, EdgeSimilarSize, EdgeSemanticRelated:
		return true
	}
	return false
}

// Directed reports whether the edge type carries direction. Only containment
// is directed (parent to child); the rest are undirected by convention and
// stored with source id lexicographically below target id.
func (e EdgeType) Directed() bool {
	return e == EdgeContains
}
