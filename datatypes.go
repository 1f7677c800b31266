package aqgo

import (
	"io"
	"time"

	"github.com/aqgo/game"
)

// Name is reported by the name command.
const Name = "AQ"

// Version is reported by the version command.
const Version = "4.0.0"

// lizzieVersion is what streaming-analysis clients expect to see.
const lizzieVersion = "0.16"

// Config for the GTP connector.
type Config struct {
	UsePonder   bool    `json:"use_ponder"`   // think in the opponent's time
	Lizzie      bool    `json:"lizzie"`       // streaming-analysis client mode
	SaveLog     bool    `json:"save_log"`     // keep command/game logs on disk
	SendList    bool    `json:"send_list"`    // announce the command list at startup
	AllocateGPU bool    `json:"allocate_gpu"` // allocate eval workers eagerly
	ResignValue float64 `json:"resign_value"` // resign below this win rate
	Komi        float64 `json:"komi"`
	MainTime    float64 `json:"main_time"`
	Byoyomi     float64 `json:"byoyomi"`
	WorkingDir  string  `json:"working_dir"`
	ResumeFile  string  `json:"resume_file_name"` // record to resume at clear_board

	// CalibrationDelay is inserted before lazy allocation when neither
	// logging nor pondering, so rating harnesses see realistic first-move
	// latency. Zero disables it.
	CalibrationDelay time.Duration `json:"calibration_delay"`

	// FontPath, when set, labels rendered ownership images.
	FontPath string `json:"font_path"`
}

// DefaultConfig returns the connector defaults.
func DefaultConfig() Config {
	return Config{
		UsePonder:        true,
		ResignValue:      0.05,
		Komi:             7.5,
		WorkingDir:       ".",
		CalibrationDelay: 5 * time.Second,
	}
}

// Engine is the search side of the connector. Implementations may be
// internally parallel; the connector only ever starts, stops and queries
// them from its dispatch goroutine.
type Engine interface {
	// Search thinks synchronously and returns the chosen move with its win
	// rate. timeLimit <= 0 lets the engine's clock state pick the budget.
	Search(b *game.Position, timeLimit float64, ponder bool) (game.Vertex, float64)
	// StartPonder begins a background think; it must not block.
	StartPonder(b *game.Position, timeLimit float64, interval int)
	// StopThink halts background thinking and returns only once the engine
	// has fully quiesced.
	StopThink()
	// PrepareToThink normalizes per-move bookkeeping before a command runs.
	PrepareToThink()

	SetKomi(k float64)
	SetMainTime(s float64)
	SetByoyomi(s float64)
	SetLeftTime(s float64)
	MainTime() float64
	Byoyomi() float64
	LeftTime() float64

	// FinalScore returns the margin from Black's view, komi deducted, plus
	// the ownership map backing it.
	FinalScore(b *game.Position, playouts int) (float64, *game.OwnerMap)

	HasEvalWorkers() bool
	AllocateEvalWorkers() error

	SetLogWriter(w io.Writer)
	SetAnalysisWriter(w io.Writer)
}

// DotExporter is implemented by engines that can dump their candidate
// statistics as a Graphviz document.
type DotExporter interface {
	WriteDOT(w io.Writer) error
}
