// Package aqgo is the GTP (Go Text Protocol) front of the AQ engine. It owns
// the command loop: a reader goroutine feeds raw lines through an unbounded
// queue into a single dispatch goroutine, which ponders between commands,
// stops any background search before handling new input, and writes
// protocol responses. Standard output carries protocol bytes only; all
// diagnostics go to the error writer.
//
// See https://www.lysator.liu.se/~gunnar/gtp/gtp2-spec-draft2/gtp2-spec.html
// for the protocol.
package aqgo

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/aqgo/game"
	"github.com/aqgo/sgf"
)

// Connector mediates between the line protocol and the engine. All session
// state is owned by the dispatch goroutine; the reader goroutine only feeds
// the queue.
type Connector struct {
	conf   Config
	engine Engine
	board  *game.Position
	record sgf.Record

	in     io.Reader
	out    io.Writer
	errw   io.Writer
	logger *log.Logger

	// session state, dispatcher-owned
	cEngine          game.Color // color the engine is committed to
	goPonder         bool
	saveLog          bool
	needTimeControl  bool
	analysisInterval int // ms between streaming-analysis updates; negative when inactive

	logFile *os.File
	logPath string
	sgfPath string

	fatalErr error
}

// New builds a connector over the given channels. err is the diagnostic
// writer; out must carry nothing but protocol bytes.
func New(conf Config, engine Engine, in io.Reader, out, errw io.Writer) (*Connector, error) {
	if conf.Lizzie {
		conf.SaveLog = false
	}
	c := &Connector{
		conf:             conf,
		engine:           engine,
		board:            game.NewPosition(),
		in:               in,
		out:              out,
		errw:             errw,
		logger:           log.New(errw, "", 0),
		saveLog:          conf.SaveLog,
		needTimeControl:  true,
		analysisInterval: -1,
	}

	engine.SetKomi(conf.Komi)
	engine.SetByoyomi(conf.Byoyomi)
	engine.SetMainTime(conf.MainTime)
	engine.SetAnalysisWriter(out)

	if c.saveLog {
		if err := c.rotateLogs(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// rotateLogs points the command log and game record at fresh timestamped
// files under the working directory.
func (c *Connector) rotateLogs() error {
	dir := filepath.Join(c.conf.WorkingDir, "log")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "create log dir")
	}
	stamp := time.Now().Format("20060102_150405")
	c.logPath = filepath.Join(dir, stamp+".txt")
	c.sgfPath = filepath.Join(dir, stamp+".sgf")

	if c.logFile != nil {
		c.logFile.Close()
	}
	f, err := os.Create(c.logPath)
	if err != nil {
		return errors.Wrap(err, "open command log")
	}
	c.logFile = f
	c.engine.SetLogWriter(f)
	return nil
}

// Start runs the dispatch loop until quit is handled or the input closes.
// Collaborator setup failures abort the loop and are returned.
func (c *Connector) Start() error {
	if c.conf.SendList {
		io.WriteString(c.out, Response{OK: true, ID: -1, Body: commandList()}.String())
	}
	if c.conf.AllocateGPU {
		if err := c.allocateGPU(); err != nil {
			return err
		}
	}

	queue := newCommandQueue()
	go c.readLoop(queue)

	running := true
	for running {
		pondering := c.shouldPonder()
		if pondering {
			if err := c.allocateGPU(); err != nil {
				return err
			}
			c.engine.StartPonder(c.board, c.ponderBudget(), c.analysisInterval)
		}

		line, ok := <-queue.out
		if !ok {
			// Input closed under us; quiesce and leave.
			c.engine.StopThink()
			break
		}
		if pondering {
			c.engine.StopThink()
		}
		c.engine.PrepareToThink()

		if c.logFile != nil {
			fmt.Fprintln(c.logFile, line)
		}
		cmd := Parse(line)
		if cmd.Verb == "" {
			continue
		}
		running = c.execute(cmd)
		if c.fatalErr != nil {
			return c.fatalErr
		}
	}
	if c.logFile != nil {
		c.logFile.Close()
	}
	return nil
}

// readLoop is the reader goroutine: it blocks on the input channel and
// appends raw lines to the queue until the input closes.
func (c *Connector) readLoop(queue *commandQueue) {
	sc := bufio.NewScanner(c.in)
	// gogui-play_sequence lines can carry a whole game.
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		queue.push(sc.Text())
	}
	queue.close()
}

// shouldPonder reports whether to think in the background while awaiting the
// next command. A live streaming-analysis session always ponders; otherwise
// pondering is only safe when there is no risk of running out the clock.
func (c *Connector) shouldPonder() bool {
	if !c.conf.UsePonder || !c.goPonder {
		return false
	}
	if c.board.LastMove() == game.Pass {
		return false
	}
	if c.analysisInterval > 0 {
		return true
	}
	return c.engine.LeftTime() > 10 || c.engine.Byoyomi() != 0
}

// ponderBudget returns the background think budget in seconds.
func (c *Connector) ponderBudget() float64 {
	if c.conf.Lizzie {
		return 86400
	}
	by := c.engine.Byoyomi()
	if by > 0 && c.engine.MainTime() > 0 && c.engine.LeftTime() < by*2 {
		return by * 2
	}
	return 100
}

// allocateGPU attaches the evaluation workers on first need. Allocation can
// take tens of seconds on a real device, which is why it is deferred past
// startup. Failure is fatal to the session.
func (c *Connector) allocateGPU() error {
	if c.engine.HasEvalWorkers() {
		return nil
	}
	c.logger.Printf("allocating memory...")
	if !c.saveLog && !c.conf.UsePonder && c.conf.CalibrationDelay > 0 {
		time.Sleep(c.conf.CalibrationDelay)
	}
	if err := c.engine.AllocateEvalWorkers(); err != nil {
		c.fatalErr = errors.Wrap(err, "gpu allocation")
		return c.fatalErr
	}
	return nil
}

// stopAnalysis tears down a live streaming-analysis session. It must have
// completed before the next response is written.
func (c *Connector) stopAnalysis() {
	c.engine.StopThink()
	c.analysisInterval = -1
}

// execute runs one parsed command and writes its response. It returns false
// once the loop must terminate.
func (c *Connector) execute(cmd Command) bool {
	if c.analysisInterval > 0 {
		// Close the open streaming response before anything else replies.
		io.WriteString(c.out, "\n")
		c.stopAnalysis()
	}

	body := ""
	ok := true
	if h, known := handlers[cmd.Verb]; known {
		var err error
		body, err = h(c, cmd)
		if err != nil {
			ok = false
			body = err.Error()
		}
	} else {
		ok = false
		body = "unknown command."
	}
	if !ok {
		c.logger.Printf("? %s", body)
		if c.logFile != nil {
			fmt.Fprintf(c.logFile, "? %s\n", body)
		}
	}

	io.WriteString(c.out, Response{
		OK:        ok,
		ID:        cmd.ID,
		Body:      body,
		Streaming: c.analysisInterval > 0,
	}.String())
	return cmd.Verb != "quit"
}

// finalResult scores the finished position, reports the ownership map on the
// diagnostic channel, and returns the margin in result notation.
func (c *Connector) finalResult() string {
	score, owner := c.engine.FinalScore(c.board, 256)
	owner.Render(c.errw, score)
	if c.logFile != nil {
		owner.Render(c.logFile, score)
	}
	if c.saveLog && c.sgfPath != "" {
		if err := owner.RenderImage(c.sgfPath+".png", c.conf.FontPath); err != nil {
			c.logger.Printf("owner map image: %s", err)
		}
	}
	if score == 0 {
		return "0"
	}
	if score > 0 {
		return fmt.Sprintf("B+%.1f", score)
	}
	return fmt.Sprintf("W+%.1f", -score)
}

// logBoard mirrors the position into the command log.
func (c *Connector) logBoard() {
	if c.logFile != nil {
		fmt.Fprint(c.logFile, c.board.String())
	}
}
