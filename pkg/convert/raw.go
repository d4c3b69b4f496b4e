package convert

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// RawDocument is the loosely-structured structure.json export produced by the
// design-tool parser. Individual elements are duck-typed records; every
// sub-record is optional and modeled as a pointer so presence can be told
// apart from a zero value.
type RawDocument struct {
	Document RawDocumentInfo  `json:"document"`
	Elements []RawElement     `json:"elements"`
	Layers   []map[string]any `json:"layers"`
	Meta     RawMeta          `json:"meta"`
}

type RawDocumentInfo struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type RawMeta struct {
	Version string `json:"version"`
}

// RawBounds uses left/top naming, matching the exporter.
type RawBounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type RawPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type RawSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type RawColor struct {
	Hex string         `json:"hex"`
	RGB map[string]int `json:"rgb"`
}

type RawStyle struct {
	FillColor *RawColor `json:"fillColor"`
	FontSize  *float64  `json:"fontSize"`
	FontName  string    `json:"fontName"`
}

type RawSemantics struct {
	Hints       []string `json:"hints"`
	Role        string   `json:"role"`
	Replaceable bool     `json:"replaceable"`
}

type RawPrefixMark struct {
	Role        string `json:"role"`
	Type        string `json:"type"`
	Replaceable bool   `json:"replaceable"`
}

type RawVariable struct {
	PrimaryType string   `json:"primaryType"`
	AllTags     []string `json:"allTags"`
}

type RawImageAnalysis struct {
	Replaceable bool `json:"replaceable"`
}

type RawElement struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	LayerIndex int    `json:"layerIndex"`
	Layer      string `json:"layer"`
	Depth      int    `json:"depth"`
	ParentID   string `json:"parentId"`
	Path       string `json:"path"`

	Bounds   *RawBounds   `json:"bounds"`
	Position *RawPosition `json:"position"`
	Size     *RawSize     `json:"size"`

	Opacity     *float64  `json:"opacity"`
	BlendMode   string    `json:"blendMode"`
	FillColor   *RawColor `json:"fillColor"`
	StrokeColor *RawColor `json:"strokeColor"`
	Style       *RawStyle `json:"style"`

	Content string `json:"content"`

	Semantics     *RawSemantics     `json:"semantics"`
	PrefixMark    *RawPrefixMark    `json:"prefixMark"`
	Variable      *RawVariable      `json:"variable"`
	ImageAnalysis *RawImageAnalysis `json:"imageAnalysis"`
	Replaceable   bool              `json:"replaceable"`
}

// ParseRawDocument decodes a structure.json payload. Damaged payloads are run
// through jsonrepair once before the parse is declared fatal; design tools
// are known to emit trailing commas and unquoted keys in hand-edited exports.
func ParseRawDocument(data []byte) (*RawDocument, error) {
	var raw RawDocument
	if err := json.Unmarshal(data, &raw); err == nil {
		return &raw, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(data))
	if repairErr != nil {
		return nil, fmt.Errorf("unparseable structure document: %w", repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
		return nil, fmt.Errorf("unparseable structure document: %w", err)
	}
	return &raw, nil
}
