package game

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Size is the board size this build plays on. The evaluation buffers and the
// GTP front both assume it, so it is fixed at compile time.
const (
	Size   = 19
	NumVtx = Size * Size
)

// Color of a point or a player.
type Color int8

const (
	Empty Color = iota
	Black
	White
)

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	}
	return "empty"
}

// Opp returns the opposing color. Empty is its own opponent.
func (c Color) Opp() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	return Empty
}

// ParseColor interprets a GTP color token. It is prefix-tolerant ("B", "b",
// "black", "White", ...) and returns Empty for anything unrecognized.
func ParseColor(tok string) Color {
	if tok == "" {
		return Empty
	}
	switch tok[0] {
	case 'B', 'b':
		return Black
	case 'W', 'w':
		return White
	}
	return Empty
}

// Vertex is a point on the board, or one of the pseudo moves.
type Vertex int16

const (
	// Pass is the pass move.
	Pass Vertex = -1
	// Null marks the absence of a move.
	Null Vertex = -2
)

// columns skips the letter I, per GTP convention.
const columns = "ABCDEFGHJKLMNOPQRST"

// XY builds a vertex from 1-based board coordinates.
func XY(x, y int) Vertex {
	return Vertex((y-1)*Size + (x - 1))
}

// X returns the 1-based column of an on-board vertex.
func (v Vertex) X() int { return int(v)%Size + 1 }

// Y returns the 1-based row of an on-board vertex.
func (v Vertex) Y() int { return int(v)/Size + 1 }

// OnBoard reports whether v addresses a board point.
func (v Vertex) OnBoard() bool { return v >= 0 && v < NumVtx }

func (v Vertex) String() string {
	switch {
	case v == Pass:
		return "pass"
	case !v.OnBoard():
		return "null"
	}
	return string(columns[v.X()-1]) + strconv.Itoa(v.Y())
}

// ParseVertex reads a GTP vertex such as "D4" or "Q16".
func ParseVertex(s string) (Vertex, error) {
	if len(s) < 2 {
		return Null, errors.Errorf("invalid vertex %q", s)
	}
	x := strings.IndexByte(columns, s[0]&^0x20) // fold to upper case
	if x < 0 {
		return Null, errors.Errorf("invalid vertex column %q", s)
	}
	y, err := strconv.Atoi(s[1:])
	if err != nil || y < 1 || y > Size {
		return Null, errors.Errorf("invalid vertex row %q", s)
	}
	return XY(x+1, y), nil
}
