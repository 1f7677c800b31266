package sgf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqgo/game"
)

func TestWriteReadRoundTrip(t *testing.T) {
	rec := &Record{}
	rec.Add(game.Black, game.XY(4, 4))
	rec.Add(game.White, game.XY(16, 16))
	rec.Add(game.Black, game.Pass)

	path := filepath.Join(t.TempDir(), "game.sgf")
	require.NoError(t, rec.Write(path, 7.5))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "SZ[19]")
	assert.Contains(t, string(raw), "KM[7.5]")
	assert.Contains(t, string(raw), ";B[dp];W[pd];B[]")

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, rec.Moves(), got.Moves())
}

func TestRecordInit(t *testing.T) {
	rec := &Record{}
	rec.Add(game.Black, game.XY(4, 4))
	require.Equal(t, 1, rec.Len())
	rec.Init()
	assert.Equal(t, 0, rec.Len())
}

func TestReplay(t *testing.T) {
	rec := &Record{}
	rec.Add(game.Black, game.XY(4, 4))
	rec.Add(game.White, game.XY(16, 16))

	p := game.NewPosition()
	rec.Replay(p)
	assert.Equal(t, game.Black, p.Stone(game.XY(4, 4)))
	assert.Equal(t, game.White, p.Stone(game.XY(16, 16)))
	assert.Equal(t, game.Black, p.SideToMove())
}

func TestReadPassForms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pass.sgf")
	require.NoError(t, os.WriteFile(path, []byte("(;GM[1]SZ[19];B[tt];W[])\n"), 0644))

	rec, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, 2, rec.Len())
	for _, m := range rec.Moves() {
		assert.Equal(t, game.Pass, m.V)
	}
}

func TestReadRejectsBadCoordinates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.sgf")
	require.NoError(t, os.WriteFile(path, []byte("(;GM[1];B[zz])\n"), 0644))
	_, err := Read(path)
	assert.Error(t, err)
}

func TestReadRejectsUnterminatedProperty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trunc.sgf")
	require.NoError(t, os.WriteFile(path, []byte("(;GM[1];B[dp"), 0644))
	_, err := Read(path)
	assert.Error(t, err)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.sgf"))
	assert.Error(t, err)
}
