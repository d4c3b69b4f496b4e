package geometry

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name string
		a    BoundingBox
		b    BoundingBox
		want float64
	}{
		{
			name: "identical boxes",
			a:    BoundingBox{0, 0, 100, 100},
			b:    BoundingBox{0, 0, 100, 100},
			want: 1.0,
		},
		{
			name: "quarter overlap of equal boxes",
			a:    BoundingBox{0, 0, 100, 100},
			b:    BoundingBox{50, 50, 100, 100},
			want: 0.25,
		},
		{
			name: "disjoint boxes",
			a:    BoundingBox{0, 0, 10, 10},
			b:    BoundingBox{100, 100, 10, 10},
			want: 0,
		},
		{
			name: "small box nested in large box",
			a:    BoundingBox{0, 0, 1000, 1000},
			b:    BoundingBox{10, 10, 20, 20},
			want: 1.0,
		},
		{
			name: "zero area box",
			a:    BoundingBox{0, 0, 0, 100},
			b:    BoundingBox{0, 0, 100, 100},
			want: 0,
		},
		{
			name: "touching edges",
			a:    BoundingBox{0, 0, 50, 50},
			b:    BoundingBox{50, 0, 50, 50},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OverlapRatio(tt.a, tt.b)
			if !almostEqual(got, tt.want) {
				t.Fatalf("OverlapRatio(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Symmetry must hold for every pair.
			rev := OverlapRatio(tt.b, tt.a)
			if !almostEqual(got, rev) {
				t.Fatalf("OverlapRatio not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestAlignment(t *testing.T) {
	tests := []struct {
		name        string
		a           BoundingBox
		b           BoundingBox
		threshold   float64
		wantH       bool
		wantV       bool
		wantOffset  float64
	}{
		{
			name:       "top edges aligned",
			a:          BoundingBox{0, 100, 50, 20},
			b:          BoundingBox{200, 105, 50, 40},
			threshold:  10,
			wantH:      true,
			wantV:      false,
			wantOffset: -15, // center delta 110 - 125
		},
		{
			name:       "left edges aligned",
			a:          BoundingBox{100, 0, 50, 20},
			b:          BoundingBox{102, 300, 80, 20},
			threshold:  10,
			wantH:      false,
			wantV:      true,
			wantOffset: -17, // center delta 125 - 142
		},
		{
			name:       "both aligned reports horizontal offset",
			a:          BoundingBox{0, 0, 100, 100},
			b:          BoundingBox{2, 4, 100, 100},
			threshold:  10,
			wantH:      true,
			wantV:      true,
			wantOffset: -4,
		},
		{
			name:      "nothing aligned",
			a:         BoundingBox{0, 0, 100, 100},
			b:         BoundingBox{50, 50, 100, 100},
			threshold: 10,
			wantH:     false,
			wantV:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, v, offset := Alignment(tt.a, tt.b, tt.threshold)
			if h != tt.wantH || v != tt.wantV {
				t.Fatalf("Alignment = (%v, %v), want (%v, %v)", h, v, tt.wantH, tt.wantV)
			}
			if (tt.wantH || tt.wantV) && !almostEqual(offset, tt.wantOffset) {
				t.Fatalf("offset = %v, want %v", offset, tt.wantOffset)
			}
		})
	}
}

func TestSizeSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    BoundingBox
		b    BoundingBox
		want float64
	}{
		{
			name: "identical sizes",
			a:    BoundingBox{0, 0, 100, 50},
			b:    BoundingBox{400, 400, 100, 50},
			want: 1.0,
		},
		{
			name: "half width same height",
			a:    BoundingBox{0, 0, 50, 100},
			b:    BoundingBox{0, 0, 100, 100},
			want: 0.75,
		},
		{
			name: "zero area",
			a:    BoundingBox{0, 0, 0, 0},
			b:    BoundingBox{0, 0, 100, 100},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SizeSimilarity(tt.a, tt.b)
			if !almostEqual(got, tt.want) {
				t.Fatalf("SizeSimilarity = %v, want %v", got, tt.want)
			}
			rev := SizeSimilarity(tt.b, tt.a)
			if !almostEqual(got, rev) {
				t.Fatalf("SizeSimilarity not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	got := Union([]BoundingBox{
		{10, 20, 30, 30},
		{0, 40, 20, 10},
		{50, 0, 10, 10},
	})
	want := BoundingBox{0, 0, 60, 50}
	if got != want {
		t.Fatalf("Union = %v, want %v", got, want)
	}

	if zero := Union(nil); zero != (BoundingBox{}) {
		t.Fatalf("Union(nil) = %v, want zero box", zero)
	}
}
