package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func newCLI() *cli.App {
	return &cli.App{
		Name:  "perishable",
		Usage: "simulate perishable batch allocation and optimize production",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env", Usage: "path to a .env file"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, error or dev (overrides PERISHABLE_LOG_LEVEL)"},
		},
		Commands: []*cli.Command{
			simulateCommand(),
			optimizeCommand(),
			compareCommand(),
			serveCommand(),
		},
	}
}

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
