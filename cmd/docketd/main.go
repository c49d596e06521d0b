package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "docketd",
		EnableShellCompletion: true,
		Usage:                 "Run and manage the case workflow orchestration daemon",
		Commands: []*cli.Command{
			NewWorkerCommand(),
			NewValidateCommand(),
			NewTransitionCommand(),
			NewCompleteCommand(),
			NewStatusCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
