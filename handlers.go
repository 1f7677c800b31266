package aqgo

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/aqgo/game"
	"github.com/aqgo/sgf"
)

// handlerFunc runs one verb on the dispatch goroutine. A returned error
// becomes the failure response body; fatal collaborator errors additionally
// mark the connector for termination.
type handlerFunc func(*Connector, Command) (string, error)

var handlers map[string]handlerFunc

func init() {
	handlers = map[string]handlerFunc{
		"protocol_version":    func(*Connector, Command) (string, error) { return "2", nil },
		"name":                func(*Connector, Command) (string, error) { return Name, nil },
		"version":             onVersion,
		"known_command":       onKnownCommand,
		"list_commands":       func(*Connector, Command) (string, error) { return commandList(), nil },
		"boardsize":           onBoardsize,
		"clear_board":         onClearBoard,
		"komi":                onKomi,
		"time_left":           onTimeLeft,
		"genmove":             onGenmove,
		"play":                onPlay,
		"undo":                onUndo,
		"final_score":         onFinalScore,
		"lz-analyze":          onLzAnalyze,
		"time_settings":       onTimeSettings,
		"kgs-time_settings":   onKgsTimeSettings,
		"fixed_handicap":      onFixedHandicap,
		"place_free_handicap": onFixedHandicap,
		"set_free_handicap":   onSetFreeHandicap,
		"gogui-play_sequence": onPlaySequence,
		"kgs-game_over":       onGameOver,
		"quit":                onQuit,
	}
}

// commandList renders the supported verbs, one per line.
func commandList() string {
	verbs := make([]string, 0, len(handlers))
	for v := range handlers {
		verbs = append(verbs, v)
	}
	sort.Strings(verbs)
	return strings.Join(verbs, "\n")
}

func onVersion(c *Connector, _ Command) (string, error) {
	if c.conf.Lizzie {
		return lizzieVersion, nil
	}
	return Version, nil
}

func onKnownCommand(_ *Connector, cmd Command) (string, error) {
	if len(cmd.Args) >= 1 {
		if _, ok := handlers[cmd.Args[0]]; ok {
			return "true", nil
		}
	}
	return "false", nil
}

func onBoardsize(_ *Connector, cmd Command) (string, error) {
	if len(cmd.Args) >= 1 {
		if n, err := strconv.Atoi(cmd.Args[0]); err == nil && n == game.Size {
			return "", nil
		}
	}
	// The leading space is part of the wire format clients match on.
	return "", errors.Errorf(" This build is allowed to play in only %d board.", game.Size)
}

func onClearBoard(c *Connector, _ Command) (string, error) {
	c.board.Clear()
	if err := c.allocateGPU(); err != nil {
		return "", err
	}
	c.record.Init()
	c.cEngine = game.Empty
	c.goPonder = false

	if c.conf.ResumeFile != "" {
		rec, err := sgf.Read(filepath.Join(c.conf.WorkingDir, c.conf.ResumeFile))
		if err != nil {
			return "", err
		}
		rec.Replay(c.board)
		c.record = *rec
		c.conf.ResumeFile = ""
	}

	if c.saveLog {
		if err := c.rotateLogs(); err != nil {
			c.fatalErr = err
			return "", err
		}
	}
	c.logger.Printf("cleared board.")
	return "", nil
}

func onKomi(c *Connector, cmd Command) (string, error) {
	if len(cmd.Args) >= 1 {
		if k, err := strconv.ParseFloat(cmd.Args[0], 64); err == nil {
			c.conf.Komi = k
			c.engine.SetKomi(k)
			c.logger.Printf("set komi=%.1f.", k)
		}
	}
	return "", nil
}

func onTimeLeft(c *Connector, cmd Command) (string, error) {
	if len(cmd.Args) < 2 {
		return "", nil
	}
	col := game.ParseColor(cmd.Args[0])
	left, err := strconv.ParseFloat(cmd.Args[1], 64)
	if col == game.Empty || err != nil {
		// Unrecognized tokens are ignored, not failed: match servers send
		// time_left for both players regardless of who we are.
		return "", nil
	}
	if c.cEngine == game.Empty || c.cEngine == col {
		c.engine.SetLeftTime(left)
	}
	c.needTimeControl = false
	return "", nil
}

func onGenmove(c *Connector, cmd Command) (string, error) {
	t0 := time.Now()
	if err := c.allocateGPU(); err != nil {
		return "", err
	}
	if len(cmd.Args) < 1 || game.ParseColor(cmd.Args[0]) != c.board.SideToMove() {
		return "", errors.New("genmove command passed wrong color.")
	}
	col := c.board.SideToMove()

	c.cEngine = col
	c.goPonder = true

	v, winRate := c.engine.Search(c.board, 0, false)
	resign := v != game.Pass && winRate < c.conf.ResignValue
	if resign {
		v = game.Pass
	}

	c.board.MakeMove(v)
	c.record.Add(col, v)
	if c.saveLog {
		if err := c.record.Write(c.sgfPath, c.conf.Komi); err != nil {
			c.logger.Printf("save record: %s", err)
		}
		c.logBoard()
	}
	if c.board.DoublePass() {
		c.finalResult()
	}

	if c.needTimeControl {
		left := c.engine.LeftTime() - time.Since(t0).Seconds()
		if left < 0 {
			left = 0
		}
		c.engine.SetLeftTime(left)
	}

	switch {
	case resign:
		return "resign", nil
	case v == game.Pass:
		return "pass", nil
	}
	return v.String(), nil
}

func onPlay(c *Connector, cmd Command) (string, error) {
	// genmove follows shortly; no point pondering now.
	c.goPonder = false

	if len(cmd.Args) < 2 {
		return "", errors.New("play command needs a color and a vertex.")
	}
	col := game.ParseColor(cmd.Args[0])
	if col != c.board.SideToMove() {
		return "", errors.New("play command passed wrong color.")
	}
	v, err := parseMove(cmd.Args[1])
	if err != nil {
		return "", err
	}

	c.board.MakeMove(v)
	c.record.Add(col, v)
	if c.saveLog {
		if err := c.record.Write(c.sgfPath, c.conf.Komi); err != nil {
			c.logger.Printf("save record: %s", err)
		}
		c.logBoard()
	}
	if c.board.DoublePass() {
		c.finalResult()
	}
	return "", nil
}

func onUndo(c *Connector, _ Command) (string, error) {
	hist := c.board.History()
	if len(hist) > 0 {
		hist = hist[:len(hist)-1]
	}
	left := c.engine.LeftTime()

	c.board.Clear()
	c.record.Init()
	for _, v := range hist {
		c.record.Add(c.board.SideToMove(), v)
		c.board.MakeMove(v)
	}

	c.engine.SetLeftTime(left)
	if c.saveLog {
		if err := c.record.Write(c.sgfPath, c.conf.Komi); err != nil {
			c.logger.Printf("save record: %s", err)
		}
	}
	c.logBoard()
	return "", nil
}

func onFinalScore(c *Connector, _ Command) (string, error) {
	return c.finalResult(), nil
}

func onLzAnalyze(c *Connector, cmd Command) (string, error) {
	idx := 0
	if len(cmd.Args) > 0 && (strings.EqualFold(cmd.Args[0], "b") || strings.EqualFold(cmd.Args[0], "w")) {
		idx = 1 // player token is accepted and ignored
	}
	interval := 100
	if len(cmd.Args) > idx {
		if n, err := strconv.Atoi(cmd.Args[idx]); err == nil {
			interval = n * 10 // centiseconds on the wire
		}
	}

	if !c.engine.HasEvalWorkers() {
		if err := c.allocateGPU(); err != nil {
			return "", err
		}
		c.board.Clear()
		c.record.Init()
		c.cEngine = game.Empty
	}
	c.analysisInterval = interval
	c.goPonder = true
	return "", nil
}

func onTimeSettings(c *Connector, cmd Command) (string, error) {
	if len(cmd.Args) < 2 {
		return "", errors.New("time_settings needs main time and byo yomi time.")
	}
	main, err := strconv.ParseFloat(cmd.Args[0], 64)
	if err != nil {
		return "", errors.Errorf("invalid main time %q", cmd.Args[0])
	}
	byo, err := strconv.ParseFloat(cmd.Args[1], 64)
	if err != nil {
		return "", errors.Errorf("invalid byo yomi time %q", cmd.Args[1])
	}
	c.engine.SetMainTime(main)
	c.engine.SetByoyomi(byo)
	c.logger.Printf("main time=%.1f[sec], byoyomi=%.1f[sec]", main, byo)
	return "", nil
}

func onKgsTimeSettings(c *Connector, cmd Command) (string, error) {
	if len(cmd.Args) < 2 {
		return "", errors.New("kgs-time_settings needs a system and main time.")
	}
	main, err := strconv.ParseFloat(cmd.Args[1], 64)
	if err != nil {
		return "", errors.Errorf("invalid main time %q", cmd.Args[1])
	}
	c.engine.SetMainTime(main)
	if cmd.Args[0] == "byoyomi" && len(cmd.Args) >= 3 {
		byo, err := strconv.ParseFloat(cmd.Args[2], 64)
		if err != nil {
			return "", errors.Errorf("invalid byo yomi time %q", cmd.Args[2])
		}
		c.engine.SetByoyomi(byo)
	}
	c.logger.Printf("main time=%.1f[sec], byoyomi=%.1f[sec]", c.engine.MainTime(), c.engine.Byoyomi())
	return "", nil
}

// Fixed handicap points, star points first.
var (
	handicapX      = [9]int{4, 16, 4, 16, 4, 16, 10, 10, 10}
	handicapY      = [9]int{4, 16, 16, 4, 10, 10, 4, 16, 10}
	handicapStones = [8][]int{
		{0, 1},
		{0, 1, 2},
		{0, 1, 2, 3},
		{0, 1, 2, 3, 8},
		{0, 1, 2, 3, 4, 5},
		{0, 1, 2, 3, 4, 5, 8},
		{0, 1, 2, 3, 4, 5, 6, 7},
		{0, 1, 2, 3, 4, 5, 6, 7, 8},
	}
)

func onFixedHandicap(c *Connector, cmd Command) (string, error) {
	if len(cmd.Args) < 1 {
		return "", errors.New("handicap command needs a number of stones.")
	}
	n, err := strconv.Atoi(cmd.Args[0])
	if err != nil || n < 2 || n > 9 {
		return "", errors.Errorf("invalid number of handicap stones %q", cmd.Args[0])
	}

	placed := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v := game.XY(handicapX[handicapStones[n-2][i]], handicapY[handicapStones[n-2][i]])
		placed = append(placed, v.String())
		c.placeHandicapStone(v, i == n-1)
	}
	c.logger.Printf("placed handicap stones.")
	return strings.Join(placed, " "), nil
}

func onSetFreeHandicap(c *Connector, cmd Command) (string, error) {
	for i, arg := range cmd.Args {
		v, err := game.ParseVertex(arg)
		if err != nil {
			return "", err
		}
		c.placeHandicapStone(v, i == len(cmd.Args)-1)
	}
	c.logger.Printf("set free handicap.")
	return "", nil
}

// placeHandicapStone plays a Black stone and, unless it is the last one,
// inserts a White pass so Black keeps placing. Handicap games then open with
// White to move; the adjusting pass must not count against White.
func (c *Connector) placeHandicapStone(v game.Vertex, last bool) {
	c.board.MakeMove(v)
	c.record.Add(game.Black, v)
	if !last {
		c.board.MakeMove(game.Pass)
		c.record.Add(game.White, game.Pass)
		c.board.DecrementPasses(game.White)
	}
}

func onPlaySequence(c *Connector, cmd Command) (string, error) {
	for i := 1; i < len(cmd.Args); i += 2 {
		col := game.ParseColor(cmd.Args[i-1])
		if col == game.Empty {
			return "", errors.Errorf("invalid color %q", cmd.Args[i-1])
		}
		if c.board.SideToMove() != col {
			// Turn-adjusting pass for the side that is skipped.
			c.board.MakeMove(game.Pass)
			c.record.Add(col.Opp(), game.Pass)
			c.board.DecrementPasses(col.Opp())
		}
		v, err := parseMove(cmd.Args[i])
		if err != nil {
			return "", err
		}
		c.board.MakeMove(v)
		c.record.Add(col, v)
	}
	if c.saveLog {
		if err := c.record.Write(c.sgfPath, c.conf.Komi); err != nil {
			c.logger.Printf("save record: %s", err)
		}
	}
	c.logger.Printf("sequence loaded.")
	return "", nil
}

func onGameOver(c *Connector, _ Command) (string, error) {
	c.goPonder = false
	if c.saveLog {
		if err := c.record.Write(c.sgfPath, c.conf.Komi); err != nil {
			c.logger.Printf("save record: %s", err)
		}
	}
	return "", nil
}

func onQuit(c *Connector, _ Command) (string, error) {
	c.finalResult()
	if c.saveLog {
		if err := c.record.Write(c.sgfPath, c.conf.Komi); err != nil {
			c.logger.Printf("save record: %s", err)
		}
		if de, ok := c.engine.(DotExporter); ok {
			c.exportDOT(de)
		}
	}
	return "", nil
}

func (c *Connector) exportDOT(de DotExporter) {
	path := strings.TrimSuffix(c.sgfPath, ".sgf") + ".dot"
	f, err := os.Create(path)
	if err != nil {
		c.logger.Printf("dot export: %s", err)
		return
	}
	defer f.Close()
	if err := de.WriteDOT(f); err != nil {
		c.logger.Printf("dot export: %s", err)
	}
}

// parseMove reads a GTP move argument, accepting pass and resign.
func parseMove(s string) (game.Vertex, error) {
	if strings.EqualFold(s, "pass") || strings.EqualFold(s, "resign") {
		return game.Pass, nil
	}
	return game.ParseVertex(s)
}
