package main

import (
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core"
	logsvc "github.com/trezcool/cuaderno/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// start CLI
	cli := newCommandLine(conf, logger)
	if err := newRootCmd(cli).Execute(); err != nil {
		if errors.Cause(err) != errHelp {
			logger.Error("\nerror: "+err.Error(), err)
		}
		os.Exit(1)
	}
}
