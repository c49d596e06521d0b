package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	cli "github.com/urfave/cli/v3"

	"github.com/docket-io/docket/pkg/cmd"
	"github.com/docket-io/docket/pkg/log"
	"github.com/docket-io/docket/pkg/rules"
)

// Static error variables for linter compliance.
var (
	ErrInvalidRules     = errors.New("invalid rules found")
	ErrInvalidTemplates = errors.New("invalid templates found")
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate stored business rules and task templates",
		Flags: []cli.Flag{
			databaseURLFlag(),
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			validate := validator.New(validator.WithRequiredStructEnabled())

			logger := log.WithModule("docketd").With("action", "validate")

			store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return fmt.Errorf("failed to create persistence: %w", err)
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					return
				}
			}()

			storedRules, err := store.RuleRepository().Rules(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch rules: %w", err)
			}

			templates, err := store.TemplateRepository().Templates(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch templates: %w", err)
			}

			logger.Info("Validating rules and templates",
				"rules", len(storedRules), "templates", len(templates))

			_, _ = fmt.Fprintln(os.Stdout, "Rule and Template Validation Results:")
			_, _ = fmt.Fprintln(os.Stdout, "========================================")

			validRules := 0
			invalidRules := 0
			validTemplates := 0
			invalidTemplates := 0

			for _, rule := range storedRules {
				_, _ = fmt.Fprintf(os.Stdout, "\nRule: %s (%s)\n", rule.Name, rule.ID)

				if err := validate.Struct(rule); err != nil {
					var validationErrors validator.ValidationErrors
					if errors.As(err, &validationErrors) {
						_, _ = fmt.Fprintf(os.Stdout, "  ❌ INVALID: %v\n", validationErrors)
					} else {
						_, _ = fmt.Fprintf(os.Stdout, "  ❌ INVALID: %v\n", err)
					}

					invalidRules++

					continue
				}

				ruleOK := true

				for _, action := range rule.Actions {
					if err := rules.ValidateActionParameters(action); err != nil {
						_, _ = fmt.Fprintf(os.Stdout, "  ❌ INVALID: action %s: %v\n", action.ID, err)

						ruleOK = false
					}
				}

				if !ruleOK {
					invalidRules++

					continue
				}

				_, _ = fmt.Fprintf(os.Stdout, "  ✅ VALID\n")
				validRules++
			}

			for _, tpl := range templates {
				_, _ = fmt.Fprintf(os.Stdout, "\nTemplate: %s (%s/%s)\n", tpl.ID, tpl.CaseType, tpl.Phase)

				if err := validate.Struct(tpl); err != nil {
					var validationErrors validator.ValidationErrors
					if errors.As(err, &validationErrors) {
						_, _ = fmt.Fprintf(os.Stdout, "  ❌ INVALID: %v\n", validationErrors)
					} else {
						_, _ = fmt.Fprintf(os.Stdout, "  ❌ INVALID: %v\n", err)
					}

					invalidTemplates++

					continue
				}

				_, _ = fmt.Fprintf(os.Stdout, "  ✅ VALID\n")
				validTemplates++
			}

			_, _ = fmt.Fprintf(os.Stdout, "\nValidation Summary:\n")
			_, _ = fmt.Fprintf(os.Stdout, "  Total rules: %d\n", validRules+invalidRules)
			_, _ = fmt.Fprintf(os.Stdout, "  Valid rules: %d\n", validRules)
			_, _ = fmt.Fprintf(os.Stdout, "  Invalid rules: %d\n", invalidRules)
			_, _ = fmt.Fprintf(os.Stdout, "  Total templates: %d\n", validTemplates+invalidTemplates)
			_, _ = fmt.Fprintf(os.Stdout, "  Valid templates: %d\n", validTemplates)
			_, _ = fmt.Fprintf(os.Stdout, "  Invalid templates: %d\n", invalidTemplates)

			if invalidRules > 0 {
				return fmt.Errorf("%w: %d", ErrInvalidRules, invalidRules)
			}

			if invalidTemplates > 0 {
				return fmt.Errorf("%w: %d", ErrInvalidTemplates, invalidTemplates)
			}

			_, _ = fmt.Fprintln(os.Stdout, "All rules and templates are valid! ✅")

			return nil
		},
	}
}
