package search

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/aqgo/game"
)

// Search thinks about the position synchronously and returns the chosen move
// with its win rate. A timeLimit <= 0 lets the clock state decide the budget.
func (t *Tree) Search(b *game.Position, timeLimit float64, ponder bool) (game.Vertex, float64) {
	if timeLimit <= 0 {
		timeLimit = t.thinkTime()
	}
	if err := t.think(context.Background(), b.Clone(), timeLimit, ponder, -1); err != nil {
		t.logf("search: %v", err)
		return game.Pass, 0.5
	}
	return t.bestMove(b)
}

// StartPonder begins a background think on a snapshot of b. It returns
// immediately; StopThink halts it.
func (t *Tree) StartPonder(b *game.Position, timeLimit float64, interval int) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.mu.Lock()
	t.cancel, t.done = cancel, done
	t.mu.Unlock()

	snapshot := b.Clone()
	go func() {
		defer close(done)
		if err := t.think(ctx, snapshot, timeLimit, true, interval); err != nil {
			t.logf("ponder: %v", err)
		}
	}()
}

// StopThink halts any background think. It returns only once every search
// worker and the analysis stream have quiesced, so the caller may touch
// shared state immediately afterwards.
func (t *Tree) StopThink() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Tree) infer(b *game.Position) ([]float32, float32, error) {
	t.mu.Lock()
	ch := t.inferers
	t.mu.Unlock()
	if ch == nil {
		return nil, 0, errors.New("search: eval workers not allocated")
	}
	w := <-ch
	policy, value, err := w.Infer(b.Planes())
	ch <- w
	return policy, value, err
}

func (t *Tree) think(ctx context.Context, b *game.Position, limit float64, ponder bool, interval int) error {
	policy, value, err := t.infer(b)
	if err != nil {
		return err
	}

	budget := t.conf.Budget
	if ponder {
		// Pondering is bounded by time or an explicit stop, never by playouts.
		budget = 1 << 30
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(limit*float64(time.Second)))
	defer cancel()

	var adone chan struct{}
	if interval > 0 {
		t.mu.Lock()
		aw := t.analysisw
		t.mu.Unlock()
		if aw != nil {
			adone = make(chan struct{})
			go func() {
				defer close(adone)
				t.streamAnalysis(ctx, aw, time.Duration(interval)*time.Millisecond)
			}()
		}
	}

	var g errgroup.Group
	for i := 0; i < t.conf.Workers; i++ {
		rng := t.nextRand()
		g.Go(func() error {
			return t.playoutLoop(ctx, b, policy, value, budget, rng)
		})
	}
	err = g.Wait()
	cancel()
	if adone != nil {
		<-adone
	}
	t.logf("searched %d playouts (ponder=%v)", t.Playouts(), ponder)
	return err
}

func (t *Tree) playoutLoop(ctx context.Context, b *game.Position, policy []float32, rootValue float32, budget int32, rng *rand.Rand) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if atomic.AddInt32(&t.playouts, 1) > budget {
			atomic.AddInt32(&t.playouts, -1)
			return nil
		}
		i := sampleMove(policy, rng)
		if i < game.NumVtx && b.Stone(game.Vertex(i)) != game.Empty {
			continue
		}
		v := rootValue + float32(rng.Float64()-0.5)*0.2
		c := &t.cands[i]
		atomic.AddInt64(&c.visits, 1)
		atomic.AddInt64(&c.valueMilli, int64(v*1000))
	}
}

// sampleMove draws a move index from the normalized policy.
func sampleMove(policy []float32, rng *rand.Rand) int {
	r := float32(rng.Float64())
	var acc float32
	for i, p := range policy {
		acc += p
		if r <= acc {
			return i
		}
	}
	return len(policy) - 1
}

// bestMove picks the most visited candidate that is still open on b. With no
// visits at all the engine passes.
func (t *Tree) bestMove(b *game.Position) (game.Vertex, float64) {
	bestIdx := game.NumVtx // pass
	bestVisits := atomic.LoadInt64(&t.cands[bestIdx].visits)
	for i := 0; i < game.NumVtx; i++ {
		if b.Stone(game.Vertex(i)) != game.Empty {
			continue
		}
		if v := atomic.LoadInt64(&t.cands[i].visits); v > bestVisits {
			bestVisits, bestIdx = v, i
		}
	}
	wr := t.candWinRate(bestIdx)
	if bestIdx == game.NumVtx {
		return game.Pass, wr
	}
	return game.Vertex(bestIdx), wr
}

// candWinRate maps a candidate's mean value onto [0, 1].
func (t *Tree) candWinRate(i int) float64 {
	visits := atomic.LoadInt64(&t.cands[i].visits)
	if visits == 0 {
		return 0.5
	}
	mean := float64(atomic.LoadInt64(&t.cands[i].valueMilli)) / 1000 / float64(visits)
	wr := (1 + mean) / 2
	switch {
	case wr < 0:
		return 0
	case wr > 1:
		return 1
	}
	return wr
}

// thinkTime derives the per-move budget in seconds from the clock state.
func (t *Tree) thinkTime() float64 {
	t.mu.Lock()
	left, main, byo := t.leftTime, t.mainTime, t.byoyomi
	t.mu.Unlock()
	switch {
	case main <= 0 && byo > 0:
		return byo * 0.85
	case main <= 0:
		return 2
	}
	if byo > 0 && left < byo*2 {
		return byo * 0.85
	}
	tt := left / 40
	if byo > 0 {
		tt += byo * 0.75
	}
	if tt < 0.1 {
		tt = 0.1
	}
	return tt
}

func (t *Tree) streamAnalysis(ctx context.Context, w io.Writer, every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if line := t.analysisLine(); line != "" {
				io.WriteString(w, line)
			}
		}
	}
}

// analysisLine renders the current top candidates in lz-analyze info form.
func (t *Tree) analysisLine() string {
	type entry struct {
		idx    int
		visits int64
	}
	var entries []entry
	for i := range t.cands {
		if v := atomic.LoadInt64(&t.cands[i].visits); v > 0 {
			entries = append(entries, entry{i, v})
		}
	}
	if len(entries) == 0 {
		return ""
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].visits > entries[b].visits })
	if len(entries) > 10 {
		entries = entries[:10]
	}
	var sb strings.Builder
	for order, e := range entries {
		if order > 0 {
			sb.WriteByte(' ')
		}
		name := moveName(e.idx)
		fmt.Fprintf(&sb, "info move %s visits %d winrate %d order %d pv %s",
			name, e.visits, int(t.candWinRate(e.idx)*10000), order, name)
	}
	sb.WriteByte('\n')
	return sb.String()
}

func moveName(i int) string {
	if i >= game.NumVtx {
		return "pass"
	}
	return game.Vertex(i).String()
}
