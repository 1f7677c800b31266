package search

import (
	"bytes"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqgo/game"
)

func testTreeConfig() Config {
	conf := DefaultConfig()
	conf.Workers = 2
	conf.Budget = 64
	return conf
}

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := NewTree(testTreeConfig())
	require.NoError(t, err)
	require.NoError(t, tree.AllocateEvalWorkers())
	t.Cleanup(func() { tree.Close() })
	return tree
}

func TestNewTreeRejectsInvalidConfig(t *testing.T) {
	conf := testTreeConfig()
	conf.Workers = 0
	_, err := NewTree(conf)
	assert.Error(t, err)
}

func TestAllocateEvalWorkersIdempotent(t *testing.T) {
	tree, err := NewTree(testTreeConfig())
	require.NoError(t, err)
	defer tree.Close()

	assert.False(t, tree.HasEvalWorkers())
	require.NoError(t, tree.AllocateEvalWorkers())
	assert.True(t, tree.HasEvalWorkers())
	require.NoError(t, tree.AllocateEvalWorkers())
	assert.Len(t, tree.workers, testTreeConfig().Workers)
}

func TestCloseReleasesWorkers(t *testing.T) {
	tree, err := NewTree(testTreeConfig())
	require.NoError(t, err)
	require.NoError(t, tree.AllocateEvalWorkers())

	require.NoError(t, tree.Close())
	assert.False(t, tree.HasEvalWorkers())
	assert.NoError(t, tree.Close(), "closing an empty tree is harmless")
}

func TestSearchWithoutWorkersPasses(t *testing.T) {
	tree, err := NewTree(testTreeConfig())
	require.NoError(t, err)

	v, wr := tree.Search(game.NewPosition(), 0.1, false)
	assert.Equal(t, game.Pass, v)
	assert.Equal(t, 0.5, wr)
}

func TestSearchReturnsPlayableMove(t *testing.T) {
	tree := newTestTree(t)
	b := game.NewPosition()

	v, wr := tree.Search(b, 0.5, false)
	if v != game.Pass {
		assert.True(t, v.OnBoard())
		assert.Equal(t, game.Empty, b.Stone(v))
	}
	assert.GreaterOrEqual(t, wr, 0.0)
	assert.LessOrEqual(t, wr, 1.0)
	assert.Greater(t, tree.Playouts(), int32(0))
}

func TestSearchAvoidsOccupiedPoints(t *testing.T) {
	tree := newTestTree(t)
	b := game.NewPosition()
	// Occupy most of the board; the chosen move must land on a free point.
	for v := 0; v < game.NumVtx-3; v++ {
		b.MakeMove(game.Vertex(v))
	}

	got, _ := tree.Search(b, 0.3, false)
	if got != game.Pass {
		assert.Equal(t, game.Empty, b.Stone(got))
	}
}

func TestStopThinkIsSynchronous(t *testing.T) {
	tree := newTestTree(t)
	tree.StartPonder(game.NewPosition(), 5, -1)
	time.Sleep(50 * time.Millisecond)
	tree.StopThink()

	// After StopThink returns, no worker may still accumulate playouts.
	before := tree.Playouts()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, tree.Playouts())
	assert.Greater(t, before, int32(0))
}

func TestStopThinkWithoutPonderIsNoop(t *testing.T) {
	tree := newTestTree(t)
	tree.StopThink()
	tree.StopThink()
}

func TestPrepareToThinkResets(t *testing.T) {
	tree := newTestTree(t)
	atomic.StoreInt32(&tree.playouts, 7)
	atomic.StoreInt64(&tree.cands[0].visits, 5)
	atomic.StoreInt64(&tree.cands[0].valueMilli, 500)

	tree.PrepareToThink()
	assert.Equal(t, int32(0), tree.Playouts())
	assert.Equal(t, int64(0), atomic.LoadInt64(&tree.cands[0].visits))
	assert.Equal(t, int64(0), atomic.LoadInt64(&tree.cands[0].valueMilli))
}

func TestThinkTime(t *testing.T) {
	tests := []struct {
		name           string
		main, left, by float64
		want           float64
	}{
		{"untimed", 0, 0, 0, 2},
		{"untimed with byoyomi", 0, 0, 10, 8.5},
		{"absolute time", 600, 600, 0, 15},
		{"canadian style", 600, 600, 30, 37.5},
		{"entering overtime", 600, 10, 30, 25.5},
		{"nearly flagged", 600, 0.5, 0, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := NewTree(testTreeConfig())
			require.NoError(t, err)
			tree.SetMainTime(tt.main)
			tree.SetLeftTime(tt.left)
			tree.SetByoyomi(tt.by)
			assert.InDelta(t, tt.want, tree.thinkTime(), 1e-9)
		})
	}
}

func TestCandWinRate(t *testing.T) {
	tree, err := NewTree(testTreeConfig())
	require.NoError(t, err)

	assert.Equal(t, 0.5, tree.candWinRate(0), "unvisited candidates are even")

	atomic.StoreInt64(&tree.cands[0].visits, 10)
	atomic.StoreInt64(&tree.cands[0].valueMilli, 2000) // mean value 0.2
	assert.InDelta(t, 0.6, tree.candWinRate(0), 1e-9)
}

func TestAnalysisLine(t *testing.T) {
	tree, err := NewTree(testTreeConfig())
	require.NoError(t, err)

	assert.Empty(t, tree.analysisLine(), "nothing to report without visits")

	d4 := int(game.XY(4, 4))
	atomic.StoreInt64(&tree.cands[d4].visits, 10)
	atomic.StoreInt64(&tree.cands[d4].valueMilli, 2000)

	line := tree.analysisLine()
	assert.Equal(t, "info move D4 visits 10 winrate 6000 order 0 pv D4\n", line)
}

func TestFinalScoreAllBlack(t *testing.T) {
	tree, err := NewTree(testTreeConfig())
	require.NoError(t, err)

	b := game.NewPosition()
	for v := 0; v < game.NumVtx; v++ {
		b.MakeMove(game.Vertex(v)) // Black stone
		b.MakeMove(game.Pass)      // White passes
	}

	score, owner := tree.FinalScore(b, 8)
	assert.InDelta(t, float64(game.NumVtx)-tree.Komi(), score, 1e-9)
	assert.Equal(t, 8, owner.Playouts())
	assert.Equal(t, game.Black, owner.Owner(game.XY(1, 1)))
}

func TestFinalScoreClampsPlayouts(t *testing.T) {
	tree, err := NewTree(testTreeConfig())
	require.NoError(t, err)
	_, owner := tree.FinalScore(game.NewPosition(), 0)
	assert.Equal(t, 1, owner.Playouts())
}

func TestWriteDOT(t *testing.T) {
	tree, err := NewTree(testTreeConfig())
	require.NoError(t, err)

	d4 := int(game.XY(4, 4))
	atomic.StoreInt64(&tree.cands[d4].visits, 5)

	var buf bytes.Buffer
	require.NoError(t, tree.WriteDOT(&buf))
	out := buf.String()
	assert.Contains(t, out, "digraph search")
	assert.Contains(t, out, "D4")
	assert.Contains(t, out, "root")
}
