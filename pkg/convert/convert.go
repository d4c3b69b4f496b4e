package convert

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/geometry"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
)

const (
	DefaultAlignmentThreshold = 10.0
	DefaultOverlapThreshold   = 0.1

	defaultParserVersion = "3.0"
)

// ErrEmptyDocument is returned when a raw document contains no element that
// survives conversion.
var ErrEmptyDocument = errors.New("document yielded no convertible elements")

// Converter turns a raw structure document into a DocumentGraph. It is
// stateless apart from its geometric tolerances; repeated conversion of the
// same input yields structurally identical graphs under fresh doc ids.
type Converter struct {
	alignmentThreshold float64
	overlapThreshold   float64
}

type ConverterOption func(*Converter)

// WithAlignmentThreshold overrides the pixel tolerance of the alignment test.
func WithAlignmentThreshold(threshold float64) ConverterOption {
	return func(c *Converter) {
		c.alignmentThreshold = threshold
	}
}

// WithOverlapThreshold overrides the minimum overlap ratio for emitting an
// overlap edge.
func WithOverlapThreshold(threshold float64) ConverterOption {
	return func(c *Converter) {
		c.overlapThreshold = threshold
	}
}

func NewConverter(opts ...ConverterOption) *Converter {
	c := &Converter{
		alignmentThreshold: DefaultAlignmentThreshold,
		overlapThreshold:   DefaultOverlapThreshold,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Convert builds an edge-complete DocumentGraph from raw. Malformed elements
// are skipped with a warning; a document in which no element converts is a
// conversion failure. sourceFile records provenance only and is not read.
func (c *Converter) Convert(raw *RawDocument, sourceFile string) (*schema.DocumentGraph, error) {
	docID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate document id: %w", err)
	}

	docName := raw.Document.Name
	if docName == "" {
		docName = "Unknown"
	}

	parserVersion := raw.Meta.Version
	if parserVersion == "" {
		parserVersion = defaultParserVersion
	}

	nodes := c.convertElements(raw.Elements)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("document %q: %w", docName, ErrEmptyDocument)
	}

	doc := &schema.DocumentGraph{
		DocID:            docID,
		DocName:          docName,
		DocWidth:         raw.Document.Width,
		DocHeight:        raw.Document.Height,
		SourceFile:       sourceFile,
		ExportTime:       time.Now(),
		ParserVersion:    parserVersion,
		Nodes:            nodes,
		Edges:            c.generateEdges(nodes),
		LogicalGroups:    []schema.LogicalGroup{},
		Layers:           raw.Layers,
		AnnotationStatus: schema.StatusPending,
	}

	return doc, nil
}

func (c *Converter) convertElements(elements []RawElement) []schema.ElementNode {
	nodes := make([]schema.ElementNode, 0, len(elements))
	seen := make(map[string]struct{}, len(elements))

	for _, elem := range elements {
		node, err := convertElement(elem, seen)
		if err != nil {
			logger.Warn("Skipping malformed element", "element_id", elem.ID, "err", err)
			continue
		}
		seen[node.ID] = struct{}{}
		nodes = append(nodes, node)
	}

	return nodes
}

func convertElement(elem RawElement, seen map[string]struct{}) (schema.ElementNode, error) {
	if elem.ID == "" {
		return schema.ElementNode{}, fmt.Errorf("element has no id")
	}
	if _, dup := seen[elem.ID]; dup {
		return schema.ElementNode{}, fmt.Errorf("duplicate element id")
	}

	bounds, err := resolveBounds(elem)
	if err != nil {
		return schema.ElementNode{}, err
	}

	elementType := elem.Type
	if elementType == "" {
		elementType = "unknown"
	}

	opacity := 100.0
	if elem.Opacity != nil {
		opacity = *elem.Opacity
	}

	blendMode := elem.BlendMode
	if blendMode == "" {
		blendMode = "NORMAL"
	}

	path := elem.Path
	if path == "" {
		path = "0"
	}

	node := schema.ElementNode{
		ID:            elem.ID,
		ElementType:   elementType,
		Name:          elem.Name,
		LayerIndex:    elem.LayerIndex,
		LayerName:     elem.Layer,
		Depth:         elem.Depth,
		ParentID:      elem.ParentID,
		ChildrenIDs:   []string{},
		Bounds:        bounds,
		ZIndex:        strings.Count(path, "/"),
		Opacity:       opacity,
		BlendMode:     blendMode,
		FillColor:     resolveFillColor(elem),
		StrokeColor:   convertColor(elem.StrokeColor),
		TextContent:   elem.Content,
		SemanticTags:  extractSemanticTags(elem),
		IsReplaceable: checkReplaceable(elem),
		VariableType:  extractVariableType(elem),
	}
	if elem.Style != nil {
		node.FontSize = elem.Style.FontSize
		node.FontName = elem.Style.FontName
	}

	return node, nil
}

// resolveBounds prefers an explicit bounds record, falls back to separate
// position/size records, and treats an element carrying neither as a
// structural error. Missing halves of position/size default to zero.
func resolveBounds(elem RawElement) (geometry.BoundingBox, error) {
	if elem.Bounds != nil {
		return geometry.BoundingBox{
			X:      elem.Bounds.Left,
			Y:      elem.Bounds.Top,
			Width:  elem.Bounds.Width,
			Height: elem.Bounds.Height,
		}, nil
	}

	if elem.Position == nil && elem.Size == nil {
		return geometry.BoundingBox{}, fmt.Errorf("element has no bounds and no position/size")
	}

	var box geometry.BoundingBox
	if elem.Position != nil {
		box.X = elem.Position.X
		box.Y = elem.Position.Y
	}
	if elem.Size != nil {
		box.Width = elem.Size.Width
		box.Height = elem.Size.Height
	}
	return box, nil
}

// resolveFillColor reads the top-level fillColor record, falling back to
// style.fillColor.
func resolveFillColor(elem RawElement) *schema.ColorInfo {
	if elem.FillColor != nil {
		return convertColor(elem.FillColor)
	}
	if elem.Style != nil && elem.Style.FillColor != nil {
		return convertColor(elem.Style.FillColor)
	}
	return nil
}

func convertColor(color *RawColor) *schema.ColorInfo {
	if color == nil {
		return nil
	}
	info := &schema.ColorInfo{Hex: color.Hex}
	if len(color.RGB) > 0 {
		info.RGB = []int{color.RGB["r"], color.RGB["g"], color.RGB["b"]}
	}
	return info
}

// extractSemanticTags merges the semantics block, the prefix-marker block and
// the variable-binding block into one deduplicated tag set, preserving
// first-seen order.
func extractSemanticTags(elem RawElement) []string {
	var tags []string
	seen := make(map[string]struct{})
	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	if elem.Semantics != nil {
		for _, hint := range elem.Semantics.Hints {
			add(hint)
		}
		add(elem.Semantics.Role)
	}
	if elem.PrefixMark != nil {
		add(elem.PrefixMark.Role)
	}
	if elem.Variable != nil {
		add(elem.Variable.PrimaryType)
		for _, tag := range elem.Variable.AllTags {
			add(tag)
		}
	}

	return tags
}

// checkReplaceable is a logical OR across the four independent signal
// sources, not a vote.
func checkReplaceable(elem RawElement) bool {
	if elem.Replaceable {
		return true
	}
	if elem.Semantics != nil && elem.Semantics.Replaceable {
		return true
	}
	if elem.ImageAnalysis != nil && elem.ImageAnalysis.Replaceable {
		return true
	}
	if elem.PrefixMark != nil && elem.PrefixMark.Replaceable {
		return true
	}
	return false
}

// extractVariableType takes the first signal that answers: the variable
// binding's primary type, then the prefix marker's type.
func extractVariableType(elem RawElement) string {
	if elem.Variable != nil && elem.Variable.PrimaryType != "" {
		return elem.Variable.PrimaryType
	}
	if elem.PrefixMark != nil {
		return elem.PrefixMark.Type
	}
	return ""
}
