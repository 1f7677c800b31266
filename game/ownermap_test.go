package game

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerMapEmpty(t *testing.T) {
	o := NewOwnerMap()
	assert.Equal(t, 0.5, o.BlackRate(XY(4, 4)))
	assert.Equal(t, Empty, o.Owner(XY(4, 4)))
}

func TestOwnerMapRates(t *testing.T) {
	o := NewOwnerMap()
	black, white, contested := XY(1, 1), XY(2, 1), XY(3, 1)
	for p := 0; p < 10; p++ {
		o.AddPlayout()
		if p < 9 {
			o.Accumulate(black, Black)
		}
		if p < 2 {
			o.Accumulate(white, Black)
		}
		if p < 5 {
			o.Accumulate(contested, Black)
		}
	}

	assert.Equal(t, 10, o.Playouts())
	assert.InDelta(t, 0.9, o.BlackRate(black), 1e-9)
	assert.Equal(t, Black, o.Owner(black))
	assert.Equal(t, White, o.Owner(white))
	assert.Equal(t, Empty, o.Owner(contested))
}

func TestOwnerMapIgnoresOffBoard(t *testing.T) {
	o := NewOwnerMap()
	o.AddPlayout()
	o.Accumulate(Pass, Black)
	assert.Equal(t, 0.5, o.BlackRate(Pass))
}

func TestOwnerMapRender(t *testing.T) {
	o := NewOwnerMap()
	for p := 0; p < 4; p++ {
		o.AddPlayout()
		o.Accumulate(XY(1, 1), Black)
	}
	var buf bytes.Buffer
	o.Render(&buf, 3.5)
	out := buf.String()
	assert.Contains(t, out, "owner map:")
	assert.Contains(t, out, "playouts=4")
	assert.Contains(t, out, "score=+3.5")
}
