// Package search runs the move search the GTP front drives. The tree keeps
// per-vertex candidate statistics fed by a pool of evaluation workers; the
// front only ever starts, stops and queries it from a single goroutine.
package search

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/aqgo/eval"
	"github.com/aqgo/game"
)

// Config is the structure to configure the search tree.
type Config struct {
	Workers  int         `json:"workers"`   // parallel playout workers
	Budget   int32       `json:"budget"`    // playout budget per synchronous think
	Komi     float64     `json:"komi"`      // initial compensation
	MainTime float64     `json:"main_time"` // seconds; 0 when untimed
	Byoyomi  float64     `json:"byoyomi"`   // overtime period seconds
	EvalConf eval.Config `json:"eval_conf"`
}

func DefaultConfig() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		Budget:   2000,
		Komi:     7.5,
		EvalConf: eval.DefaultConfig(game.Size),
	}
}

func (c Config) IsValid() bool {
	return c.Workers >= 1 && c.Budget >= 1 && c.EvalConf.IsValid()
}

// candidate carries the accumulated statistics of one move. Workers touch it
// only through atomics.
type candidate struct {
	visits     int64
	valueMilli int64 // summed value, thousandths
}

// Tree implements the engine side of the GTP front.
type Tree struct {
	mu   sync.Mutex
	conf Config

	komi                        float64
	mainTime, leftTime, byoyomi float64

	workers  []*eval.Worker
	inferers chan *eval.Worker

	cands    []candidate // one per board point, plus pass
	playouts int32       // atomic

	cancel context.CancelFunc
	done   chan struct{}

	seed uint64 // atomic; per-worker rng seeds

	logw      io.Writer
	analysisw io.Writer
}

// NewTree builds a tree. Evaluation workers are not allocated yet; that is
// deferred to AllocateEvalWorkers because it can take tens of seconds on a
// real device.
func NewTree(conf Config) (*Tree, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("search: invalid config %+v", conf)
	}
	return &Tree{
		conf:     conf,
		komi:     conf.Komi,
		mainTime: conf.MainTime,
		leftTime: conf.MainTime,
		byoyomi:  conf.Byoyomi,
		cands:    make([]candidate, game.NumVtx+1),
		seed:     uint64(time.Now().UnixNano()),
	}, nil
}

// AllocateEvalWorkers builds the evaluation worker pool. It is idempotent.
func (t *Tree) AllocateEvalWorkers() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inferers != nil {
		return nil
	}
	ch := make(chan *eval.Worker, t.conf.Workers)
	for i := 0; i < t.conf.Workers; i++ {
		w, err := eval.NewWorker(t.conf.EvalConf)
		if err != nil {
			return errors.Wrap(err, "allocate eval workers")
		}
		t.workers = append(t.workers, w)
		ch <- w
	}
	t.inferers = ch
	return nil
}

// HasEvalWorkers reports whether the worker pool has been allocated.
func (t *Tree) HasEvalWorkers() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inferers != nil
}

// Close releases every evaluation worker.
func (t *Tree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var errs error
	for _, w := range t.workers {
		if err := w.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	t.workers = nil
	t.inferers = nil
	return errs
}

// PrepareToThink resets the per-move bookkeeping. The front calls it before
// every command it handles.
func (t *Tree) PrepareToThink() {
	atomic.StoreInt32(&t.playouts, 0)
	for i := range t.cands {
		atomic.StoreInt64(&t.cands[i].visits, 0)
		atomic.StoreInt64(&t.cands[i].valueMilli, 0)
	}
}

// SetLogWriter directs diagnostic search output to w. A nil writer disables it.
func (t *Tree) SetLogWriter(w io.Writer) {
	t.mu.Lock()
	t.logw = w
	t.mu.Unlock()
}

// SetAnalysisWriter directs streaming-analysis lines to w.
func (t *Tree) SetAnalysisWriter(w io.Writer) {
	t.mu.Lock()
	t.analysisw = w
	t.mu.Unlock()
}

func (t *Tree) SetKomi(k float64) {
	t.mu.Lock()
	t.komi = k
	t.mu.Unlock()
}

func (t *Tree) Komi() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.komi
}

// SetMainTime sets the main time and refills the remaining clock.
func (t *Tree) SetMainTime(s float64) {
	t.mu.Lock()
	t.mainTime = s
	t.leftTime = s
	t.mu.Unlock()
}

func (t *Tree) MainTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mainTime
}

func (t *Tree) SetByoyomi(s float64) {
	t.mu.Lock()
	t.byoyomi = s
	t.mu.Unlock()
}

func (t *Tree) Byoyomi() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byoyomi
}

func (t *Tree) SetLeftTime(s float64) {
	t.mu.Lock()
	t.leftTime = s
	t.mu.Unlock()
}

func (t *Tree) LeftTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leftTime
}

// Playouts returns the playouts accumulated since PrepareToThink.
func (t *Tree) Playouts() int32 { return atomic.LoadInt32(&t.playouts) }

func (t *Tree) nextRand() *rand.Rand {
	return rand.New(rand.NewSource(atomic.AddUint64(&t.seed, 0x9e3779b97f4a7c15)))
}

func (t *Tree) logf(format string, args ...interface{}) {
	t.mu.Lock()
	w := t.logw
	t.mu.Unlock()
	if w != nil {
		fmt.Fprintf(w, format+"\n", args...)
	}
}
