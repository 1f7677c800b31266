package main

import (
	"flag"
	"log"
	"os"

	"github.com/aqgo"
	"github.com/aqgo/search"
)

func main() {
	conf := aqgo.DefaultConfig()
	sconf := search.DefaultConfig()

	flag.BoolVar(&conf.UsePonder, "ponder", conf.UsePonder, "think in the opponent's time")
	flag.BoolVar(&conf.Lizzie, "lizzie", conf.Lizzie, "streaming-analysis client mode")
	flag.BoolVar(&conf.SaveLog, "save_log", conf.SaveLog, "keep command and game logs on disk")
	flag.BoolVar(&conf.SendList, "send_list", conf.SendList, "announce the command list at startup")
	flag.BoolVar(&conf.AllocateGPU, "allocate_gpu", conf.AllocateGPU, "allocate eval workers before the first command")
	flag.Float64Var(&conf.ResignValue, "resign_value", conf.ResignValue, "resign below this win rate")
	flag.Float64Var(&conf.Komi, "komi", conf.Komi, "default komi")
	flag.Float64Var(&conf.MainTime, "main_time", conf.MainTime, "main time in seconds")
	flag.Float64Var(&conf.Byoyomi, "byoyomi", conf.Byoyomi, "byo yomi time in seconds")
	flag.StringVar(&conf.WorkingDir, "working_dir", conf.WorkingDir, "directory for logs and records")
	flag.StringVar(&conf.ResumeFile, "resume_file_name", conf.ResumeFile, "record to resume at clear_board")
	flag.DurationVar(&conf.CalibrationDelay, "calibration_delay", conf.CalibrationDelay, "startup delay before lazy allocation")
	flag.StringVar(&conf.FontPath, "font", conf.FontPath, "TTF font for rendered ownership maps")
	workers := flag.Int("workers", sconf.Workers, "parallel search workers")
	budget := flag.Int("playouts", int(sconf.Budget), "playout budget per move")
	flag.Parse()

	sconf.Workers = *workers
	sconf.Budget = int32(*budget)
	sconf.Komi = conf.Komi
	sconf.MainTime = conf.MainTime
	sconf.Byoyomi = conf.Byoyomi

	tree, err := search.NewTree(sconf)
	if err != nil {
		log.Fatalf("engine setup: %s", err)
	}
	defer func() {
		if err := tree.Close(); err != nil {
			log.Printf("engine shutdown: %s", err)
		}
	}()

	conn, err := aqgo.New(conf, tree, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		log.Fatalf("connector setup: %s", err)
	}
	if err := conn.Start(); err != nil {
		log.Fatalf("connector: %s", err)
	}
}
