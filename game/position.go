package game

import (
	"strconv"
	"strings"
)

// Position tracks occupancy, turn order and move history for a fixed-size
// board. Rule questions (captures, ko, suicide) belong to the search layer's
// evaluation and are not modelled here.
type Position struct {
	stones     [NumVtx]Color
	sideToMove Color
	history    []Vertex
	passes     [3]int // indexed by Color
}

// NewPosition returns an empty board with Black to move.
func NewPosition() *Position {
	return &Position{sideToMove: Black}
}

// Clear resets the position to an empty board with Black to move.
func (p *Position) Clear() {
	p.stones = [NumVtx]Color{}
	p.sideToMove = Black
	p.history = p.history[:0]
	p.passes = [3]int{}
}

// SideToMove returns the color whose turn it is.
func (p *Position) SideToMove() Color { return p.sideToMove }

// Stone returns the occupant of v, or Empty.
func (p *Position) Stone(v Vertex) Color {
	if !v.OnBoard() {
		return Empty
	}
	return p.stones[v]
}

// MakeMove places the side to move's stone on v (or records a pass) and
// hands the turn over.
func (p *Position) MakeMove(v Vertex) {
	if v.OnBoard() {
		p.stones[v] = p.sideToMove
	} else {
		v = Pass
		p.passes[p.sideToMove]++
	}
	p.history = append(p.history, v)
	p.sideToMove = p.sideToMove.Opp()
}

// LastMove returns the most recent move, or Null on a fresh board.
func (p *Position) LastMove() Vertex {
	if len(p.history) == 0 {
		return Null
	}
	return p.history[len(p.history)-1]
}

// GamePly returns the number of moves played.
func (p *Position) GamePly() int { return len(p.history) }

// DoublePass reports whether the last two moves were both passes.
func (p *Position) DoublePass() bool {
	n := len(p.history)
	return n >= 2 && p.history[n-1] == Pass && p.history[n-2] == Pass
}

// History returns a copy of the move sequence.
func (p *Position) History() []Vertex {
	h := make([]Vertex, len(p.history))
	copy(h, p.history)
	return h
}

// NumPasses returns how many times c has passed.
func (p *Position) NumPasses(c Color) int { return p.passes[c] }

// DecrementPasses retracts one recorded pass for c. Handicap placement
// inserts turn-adjusting passes that must not count against the player.
func (p *Position) DecrementPasses(c Color) {
	if p.passes[c] > 0 {
		p.passes[c]--
	}
}

// Clone returns a deep copy, safe to hand to a background search.
func (p *Position) Clone() *Position {
	q := &Position{
		stones:     p.stones,
		sideToMove: p.sideToMove,
		passes:     p.passes,
	}
	q.history = append(q.history, p.history...)
	return q
}

// Planes encodes the position as the evaluation input: side-to-move stones,
// opponent stones, and a constant plane.
func (p *Position) Planes() []float32 {
	planes := make([]float32, 3*NumVtx)
	side := p.sideToMove
	for v := 0; v < NumVtx; v++ {
		switch p.stones[v] {
		case side:
			planes[v] = 1
		case side.Opp():
			planes[NumVtx+v] = 1
		}
		planes[2*NumVtx+v] = 1
	}
	return planes
}

// String renders the board for diagnostic logs, top row first.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for x := 0; x < Size; x++ {
		sb.WriteByte(columns[x])
		sb.WriteByte(' ')
	}
	sb.WriteByte('\n')
	for y := Size; y >= 1; y-- {
		row := strconv.Itoa(y)
		if len(row) < 2 {
			sb.WriteByte(' ')
		}
		sb.WriteString(row)
		sb.WriteByte(' ')
		for x := 1; x <= Size; x++ {
			switch p.stones[XY(x, y)] {
			case Black:
				sb.WriteString("X ")
			case White:
				sb.WriteString("O ")
			default:
				sb.WriteString(". ")
			}
		}
		sb.WriteString(row)
		sb.WriteByte('\n')
	}
	return sb.String()
}
