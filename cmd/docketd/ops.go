package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/docket-io/docket/pkg/cmd"
	"github.com/docket-io/docket/pkg/log"
	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/orchestrator"
)

func databaseURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "database-url",
		Usage:    "Database connection URL for persistence",
		Required: true,
		Sources:  cli.EnvVars("DATABASE_URL"),
	}
}

// opWorker builds a worker wired to persistence only, for one-shot
// operational commands that run an orchestration step and exit.
func opWorker(ctx context.Context, command *cli.Command, action string) (*Worker, func(), error) {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("docketd").With("action", action)

	store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create persistence: %w", err)
	}

	cleanup := func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}

	worker, err := NewWorker(ctx, "docketd-cli", logger, store, nil, nil)
	if err != nil {
		cleanup()

		return nil, nil, err
	}

	return worker, cleanup, nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

func NewTransitionCommand() *cli.Command {
	return &cli.Command{
		Name:  "transition",
		Usage: "Move a case to a new phase and run the workflow pipeline",
		Flags: []cli.Flag{
			databaseURLFlag(),
			&cli.StringFlag{
				Name:     "case-id",
				Usage:    "Case to transition",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "phase",
				Usage:    "Target phase (e.g. PRE_PROCEEDING_PREPARATION)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "user-id",
				Usage:    "Acting user",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "role",
				Usage:    "Acting user's role (e.g. ATTORNEY)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Optional target case status (e.g. PENDING_REVIEW)",
			},
			&cli.StringFlag{
				Name:  "reason",
				Usage: "Reason recorded in the audit trail",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			worker, cleanup, err := opWorker(ctx, command, "transition")
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := worker.orchestrator.HandleCasePhaseTransition(ctx, orchestrator.TransitionRequest{
				CaseID:       command.String("case-id"),
				TargetPhase:  models.CasePhase(strings.ToUpper(command.String("phase"))),
				TargetStatus: models.CaseStatus(strings.ToUpper(command.String("status"))),
				UserID:       command.String("user-id"),
				Role:         models.Role(strings.ToUpper(command.String("role"))),
				Reason:       command.String("reason"),
			})
			if err != nil {
				return err
			}

			return printJSON(result)
		},
	}
}

func NewCompleteCommand() *cli.Command {
	return &cli.Command{
		Name:  "complete",
		Usage: "Complete a task and run its follow-up rules",
		Flags: []cli.Flag{
			databaseURLFlag(),
			&cli.StringFlag{
				Name:     "case-id",
				Usage:    "Case the task belongs to",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "task-id",
				Usage:    "Task to complete",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "user-id",
				Usage:    "Acting user",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			worker, cleanup, err := opWorker(ctx, command, "complete")
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := worker.orchestrator.HandleTaskCompletion(ctx,
				command.String("case-id"),
				command.String("task-id"),
				command.String("user-id"),
			)
			if err != nil {
				return err
			}

			return printJSON(result)
		},
	}
}

func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Summarize a case's workflow state",
		Flags: []cli.Flag{
			databaseURLFlag(),
			&cli.StringFlag{
				Name:     "case-id",
				Usage:    "Case to inspect",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "role",
				Usage: "Role whose available transitions to report",
				Value: string(models.RoleAttorney),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			worker, cleanup, err := opWorker(ctx, command, "status")
			if err != nil {
				return err
			}
			defer cleanup()

			status, err := worker.orchestrator.GetTaskWorkflowOrchestration(ctx,
				command.String("case-id"),
				models.Role(strings.ToUpper(command.String("role"))),
			)
			if err != nil {
				return err
			}

			return printJSON(status)
		},
	}
}
