// Package sgf persists game records. It reads and writes just enough of the
// SGF grammar to save finished games and resume interrupted ones.
package sgf

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/aqgo/game"
)

// Move is one recorded move.
type Move struct {
	C game.Color
	V game.Vertex
}

// Record is an append-only move list.
type Record struct {
	moves []Move
}

// Init empties the record.
func (r *Record) Init() { r.moves = r.moves[:0] }

// Add appends one move.
func (r *Record) Add(c game.Color, v game.Vertex) {
	r.moves = append(r.moves, Move{C: c, V: v})
}

// Moves returns a copy of the recorded moves.
func (r *Record) Moves() []Move {
	m := make([]Move, len(r.moves))
	copy(m, r.moves)
	return m
}

// Len returns the number of recorded moves.
func (r *Record) Len() int { return len(r.moves) }

// Write saves the record to path.
func (r *Record) Write(path string, komi float64) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "(;GM[1]FF[4]CA[UTF-8]SZ[%d]KM[%.1f]", game.Size, komi)
	for _, m := range r.moves {
		tag := "B"
		if m.C == game.White {
			tag = "W"
		}
		fmt.Fprintf(&sb, ";%s[%s]", tag, coords(m.V))
	}
	sb.WriteString(")\n")
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return errors.Wrap(err, "write sgf")
	}
	return nil
}

// Read loads a record from path. Properties other than moves are ignored.
func Read(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read sgf")
	}
	r := &Record{}
	s := string(data)
	for i := 0; i+2 < len(s); i++ {
		if s[i] != ';' {
			continue
		}
		var c game.Color
		switch s[i+1] {
		case 'B':
			c = game.Black
		case 'W':
			c = game.White
		default:
			continue
		}
		if s[i+2] != '[' {
			continue
		}
		end := strings.IndexByte(s[i+3:], ']')
		if end < 0 {
			return nil, errors.Errorf("sgf: unterminated move property in %s", path)
		}
		v, err := parseCoords(s[i+3 : i+3+end])
		if err != nil {
			return nil, err
		}
		r.Add(c, v)
		i += 2 + end
	}
	return r, nil
}

// Replay plays the record onto p, in order.
func (r *Record) Replay(p *game.Position) {
	for _, m := range r.moves {
		p.MakeMove(m.V)
	}
}

// coords renders a vertex in SGF board coordinates; a pass is the empty
// property value.
func coords(v game.Vertex) string {
	if !v.OnBoard() {
		return ""
	}
	return string([]byte{byte('a' + v.X() - 1), byte('a' + game.Size - v.Y())})
}

func parseCoords(s string) (game.Vertex, error) {
	if s == "" || s == "tt" {
		return game.Pass, nil
	}
	if len(s) != 2 {
		return game.Null, errors.Errorf("sgf: bad coordinates %q", s)
	}
	x := int(s[0]-'a') + 1
	y := game.Size - int(s[1]-'a')
	if x < 1 || x > game.Size || y < 1 || y > game.Size {
		return game.Null, errors.Errorf("sgf: coordinates %q off board", s)
	}
	return game.XY(x, y), nil
}
