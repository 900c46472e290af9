package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"flixgo-client/internal/domain"
)

var version = "dev"

func main() {
	runner := NewRunner(RunnerOpts{})
	defer runner.Close()

	app := &cli.Command{
		Name:    "flixctl",
		Usage:   "Operate a FlixGo account from the terminal: plans, M-Pesa checkout, watch progress",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "config.yaml",
			},
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "Developer mode (console logs, unmasked phone numbers)",
			},
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "flixctl: %v\n", err)
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrInvalidArgument) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
