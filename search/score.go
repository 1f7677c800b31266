package search

import (
	"gonum.org/v1/gonum/floats"

	"github.com/aqgo/game"
)

const scoreDiffusionRounds = 32

// FinalScore estimates the final margin from Black's view (komi already
// deducted) together with the per-point ownership over the given number of
// scoring playouts.
func (t *Tree) FinalScore(b *game.Position, playouts int) (float64, *game.OwnerMap) {
	if playouts < 1 {
		playouts = 1
	}
	infl := influence(b)

	owner := game.NewOwnerMap()
	rng := t.nextRand()
	for p := 0; p < playouts; p++ {
		owner.AddPlayout()
		for v := 0; v < game.NumVtx; v++ {
			if infl[v]+(rng.Float64()-0.5)*0.1 > 0 {
				owner.Accumulate(game.Vertex(v), game.Black)
			}
		}
	}

	points := make([]float64, game.NumVtx)
	for v := 0; v < game.NumVtx; v++ {
		switch owner.Owner(game.Vertex(v)) {
		case game.Black:
			points[v] = 1
		case game.White:
			points[v] = -1
		}
	}
	return floats.Sum(points) - t.Komi(), owner
}

// influence spreads stone influence across the board, Black positive.
func influence(b *game.Position) []float64 {
	infl := make([]float64, game.NumVtx)
	tmp := make([]float64, game.NumVtx)
	stone := func(v int) game.Color { return b.Stone(game.Vertex(v)) }
	for v := range infl {
		switch stone(v) {
		case game.Black:
			infl[v] = 1
		case game.White:
			infl[v] = -1
		}
	}
	for r := 0; r < scoreDiffusionRounds; r++ {
		copy(tmp, infl)
		for y := 0; y < game.Size; y++ {
			for x := 0; x < game.Size; x++ {
				i := y*game.Size + x
				var sum, cnt float64
				if x > 0 {
					sum += tmp[i-1]
					cnt++
				}
				if x < game.Size-1 {
					sum += tmp[i+1]
					cnt++
				}
				if y > 0 {
					sum += tmp[i-game.Size]
					cnt++
				}
				if y < game.Size-1 {
					sum += tmp[i+game.Size]
					cnt++
				}
				infl[i] = 0.6*tmp[i] + 0.4*sum/cnt
			}
		}
		for v := range infl {
			switch stone(v) {
			case game.Black:
				infl[v] = 1
			case game.White:
				infl[v] = -1
			}
		}
	}
	return infl
}
