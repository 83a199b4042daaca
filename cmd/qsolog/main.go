package main

import (
	"os"

	"github.com/jask/qsolog/internal/cli"
	"github.com/jask/qsolog/internal/logging"
)

var version = "dev"

func main() {
	logging.InitConsole()
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
