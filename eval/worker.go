// Package eval provides the board evaluation workers the search layer pulls
// its policy priors and position values from. A worker owns the device-side
// buffers; allocating one is the expensive step the GTP front defers until a
// search is actually needed.
package eval

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/vecf32"
)

// Worker evaluates positions. It is not safe for concurrent use; callers
// hold at most one worker at a time (the search layer hands them out
// through a channel).
type Worker struct {
	conf    Config
	input   *tensor.Dense // (features, height, width)
	infl    *tensor.Dense // (height, width) influence field
	scratch *tensor.Dense // (height, width) diffusion scratch
}

// NewWorker allocates the evaluation buffers for one worker.
func NewWorker(conf Config) (*Worker, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("eval: invalid config %+v", conf)
	}
	return &Worker{
		conf:    conf,
		input:   tensor.New(tensor.WithShape(conf.Features, conf.Height, conf.Width), tensor.Of(tensor.Float32)),
		infl:    tensor.New(tensor.WithShape(conf.Height, conf.Width), tensor.Of(tensor.Float32)),
		scratch: tensor.New(tensor.WithShape(conf.Height, conf.Width), tensor.Of(tensor.Float32)),
	}, nil
}

// Infer evaluates one position. planes is the flattened feature input, side
// to move first. It returns a normalized policy over the action space (board
// points then pass) and a value in [-1, 1] from the side to move's view.
func (w *Worker) Infer(planes []float32) (policy []float32, value float32, err error) {
	if w.input == nil {
		return nil, 0, errors.New("eval: worker is closed")
	}
	n := w.conf.Height * w.conf.Width
	if len(planes) != w.conf.Features*n {
		return nil, 0, errors.Errorf("eval: want %d inputs, got %d", w.conf.Features*n, len(planes))
	}
	copy(w.input.Data().([]float32), planes)
	own := planes[:n]
	opp := planes[n : 2*n]

	inf := w.infl.Data().([]float32)
	copy(inf, own)
	vecf32.Sub(inf, opp)
	w.diffuse(own, opp)

	policy = make([]float32, w.conf.ActionSpace)
	var total float32
	for i := 0; i < n; i++ {
		total += inf[i]
		if own[i] == 1 || opp[i] == 1 {
			continue
		}
		// Contested points, where influence is weakest, score highest.
		policy[i] = math32.Exp(-2*math32.Abs(inf[i])) + 1e-4
	}
	policy[n] = 1e-3 // pass
	var sum float32
	for _, p := range policy {
		sum += p
	}
	vecf32.Scale(policy, 1/sum)

	value = math32.Tanh(4 * total / float32(n))
	return policy, value, nil
}

// diffuse spreads stone influence over the board, restoring the stones
// themselves to full strength after every round.
func (w *Worker) diffuse(own, opp []float32) {
	h, wd := w.conf.Height, w.conf.Width
	inf := w.infl.Data().([]float32)
	tmp := w.scratch.Data().([]float32)
	for r := 0; r < w.conf.Smoothing; r++ {
		copy(tmp, inf)
		for y := 0; y < h; y++ {
			for x := 0; x < wd; x++ {
				i := y*wd + x
				var sum, cnt float32
				if x > 0 {
					sum += tmp[i-1]
					cnt++
				}
				if x < wd-1 {
					sum += tmp[i+1]
					cnt++
				}
				if y > 0 {
					sum += tmp[i-wd]
					cnt++
				}
				if y < h-1 {
					sum += tmp[i+wd]
					cnt++
				}
				inf[i] = 0.6*tmp[i] + 0.4*sum/cnt
			}
		}
		for i := range inf {
			switch {
			case own[i] == 1:
				inf[i] = 1
			case opp[i] == 1:
				inf[i] = -1
			}
		}
	}
}

// Close releases the worker's buffers. Closing twice is an error.
func (w *Worker) Close() error {
	if w.input == nil {
		return errors.New("eval: worker already closed")
	}
	w.input = nil
	w.infl = nil
	w.scratch = nil
	return nil
}
