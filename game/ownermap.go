package game

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// OwnerMap accumulates per-point ownership over scoring playouts. Counts are
// the number of playouts in which Black owned the point.
type OwnerMap struct {
	counts   [NumVtx]float64
	playouts int
}

// NewOwnerMap returns an empty map.
func NewOwnerMap() *OwnerMap { return &OwnerMap{} }

// Accumulate records the owner of v for one playout.
func (o *OwnerMap) Accumulate(v Vertex, owner Color) {
	if !v.OnBoard() {
		return
	}
	if owner == Black {
		o.counts[v]++
	}
}

// AddPlayout bumps the playout count the accumulated ownership is scaled by.
func (o *OwnerMap) AddPlayout() { o.playouts++ }

// Playouts returns the number of accumulated playouts.
func (o *OwnerMap) Playouts() int { return o.playouts }

// BlackRate returns the fraction of playouts in which Black owned v.
func (o *OwnerMap) BlackRate(v Vertex) float64 {
	if o.playouts == 0 || !v.OnBoard() {
		return 0.5
	}
	return o.counts[v] / float64(o.playouts)
}

// Owner returns the majority owner of v, or Empty for contested points.
func (o *OwnerMap) Owner(v Vertex) Color {
	r := o.BlackRate(v)
	switch {
	case r > 0.55:
		return Black
	case r < 0.45:
		return White
	}
	return Empty
}

// Render writes the ownership grid and a score summary, top row first.
// Black-owned points show as X, White-owned as O, contested as '.'.
func (o *OwnerMap) Render(w io.Writer, score float64) {
	fmt.Fprintln(w, "owner map:")
	for y := Size; y >= 1; y-- {
		line := make([]byte, 0, 2*Size)
		for x := 1; x <= Size; x++ {
			switch o.Owner(XY(x, y)) {
			case Black:
				line = append(line, 'X', ' ')
			case White:
				line = append(line, 'O', ' ')
			default:
				line = append(line, '.', ' ')
			}
		}
		fmt.Fprintf(w, "  %s\n", line)
	}
	rates := make([]float64, NumVtx)
	for v := 0; v < NumVtx; v++ {
		rates[v] = o.BlackRate(Vertex(v))
	}
	fmt.Fprintf(w, "  playouts=%d black_points=%.1f mean_ownership=%.3f score=%+.1f\n",
		o.playouts, floats.Sum(rates), stat.Mean(rates, nil), score)
}
