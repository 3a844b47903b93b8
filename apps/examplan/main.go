// examplan is the operator CLI for the exam-scheduling client: it assembles
// config documents, requests schedule generation from the solver and publishes
// the result for general viewing.
package main

import (
	"log"
	"os"

	"github.com/trezcool/examplan/core"
	"github.com/trezcool/examplan/core/schedule"
	"github.com/trezcool/examplan/core/session"
	logsvc "github.com/trezcool/examplan/services/logger"
	"github.com/trezcool/examplan/services/solver"
)

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()

	std := log.New(os.Stdout, "EXAMPLAN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	store := schedule.NewStore()
	view := schedule.NewView()
	api := solver.NewClient(
		conf.Solver.BaseURL,
		solver.WithTimeout(conf.Solver.RequestTimeout),
		solver.WithLogger(logger),
	)

	cli := commandLine{
		conf:  conf,
		log:   logger,
		store: store,
		view:  view,
		codec: schedule.NewCodec(store, view),
		ctrl:  session.NewController(api, store, view, conf.Solver.Algorithm, logger),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		os.Exit(1)
	}
}
