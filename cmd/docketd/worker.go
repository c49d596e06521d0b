package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/docket-io/docket/pkg/cmd"
	"github.com/docket-io/docket/pkg/eventbus"
	"github.com/docket-io/docket/pkg/events"
	"github.com/docket-io/docket/pkg/log"
	"github.com/docket-io/docket/pkg/models"
	"github.com/docket-io/docket/pkg/orchestrator"
	"github.com/docket-io/docket/pkg/otelhelper"
	"github.com/docket-io/docket/pkg/persistence"
	"github.com/docket-io/docket/pkg/priority"
	"github.com/docket-io/docket/pkg/protocol"
	"github.com/docket-io/docket/pkg/rules"
	"github.com/docket-io/docket/pkg/scheduling"
	"github.com/docket-io/docket/pkg/statemachine"
	"github.com/docket-io/docket/pkg/workflow"
)

func NewWorkerCommand() *cli.Command {
	return &cli.Command{
		Name:    "worker",
		Aliases: []string{"w"},
		Usage:   "Run the case workflow orchestration worker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "poll-schedule",
				Usage:   "Cron schedule for recurrence expansion and overdue scans",
				Value:   "@every 5m",
				Sources: cli.EnvVars("POLL_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "docketd-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("docketd-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing orchestration worker")

			bus, err := eventbus.New(command.String("event-bus"), logger)
			if err != nil {
				return fmt.Errorf("failed to create event bus: %w", err)
			}

			defer func() {
				if err := bus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return fmt.Errorf("failed to create persistence: %w", err)
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			var tracer trace.Tracer

			if command.Bool("tracing") {
				tracer, err = otelhelper.NewTracer(ctx, "docketd-worker")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}
			}

			worker, err := NewWorker(ctx, workerID, logger, store, bus, tracer)
			if err != nil {
				return err
			}

			return worker.Start(ctx, command.String("poll-schedule"))
		},
	}
}

// Worker hosts the orchestration engines for one daemon process: it
// rebuilds in-memory state from persistence, runs the scheduling poller
// and consumes the events the pipeline publishes.
type Worker struct {
	id           string
	logger       *slog.Logger
	store        persistence.Persistence
	bus          eventbus.EventBus
	notifier     protocol.Notifier
	orchestrator *orchestrator.Orchestrator
	scheduler    *scheduling.Engine
	poller       *scheduling.Poller
}

// logNotifier records dispatch requests. Real delivery transports plug in
// behind the same port.
type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) Notify(ctx context.Context, notification models.NotificationRequest) error {
	n.logger.InfoContext(ctx, "Notification dispatched",
		"type", notification.Type,
		"recipients", notification.Recipients,
		"template", notification.Template,
		"urgency", notification.Urgency)

	return nil
}

// storeCaseSource adapts the persistence layer to the scorer's read view.
type storeCaseSource struct {
	store persistence.Persistence
}

func (s *storeCaseSource) Case(id string) (*models.Case, bool) {
	c, err := s.store.CaseRepository().CaseByID(context.Background(), id)
	if err != nil {
		return nil, false
	}

	return c, true
}

// NewWorker assembles the engines and loads rules, templates and tasks
// from persistence.
func NewWorker(
	ctx context.Context,
	id string,
	logger *slog.Logger,
	store persistence.Persistence,
	bus eventbus.EventBus,
	tracer trace.Tracer,
) (*Worker, error) {
	clock := protocol.SystemClock{}

	scheduler := scheduling.NewEngine(logger, clock)
	ruleEngine := rules.NewEngine(logger, clock)
	generator := workflow.NewGenerator(logger, clock)
	scorer := priority.NewScorer(logger, clock, scheduler, &storeCaseSource{store: store})

	storedRules, err := store.RuleRepository().Rules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	for _, rule := range storedRules {
		if err := ruleEngine.AddRule(rule); err != nil {
			logger.WarnContext(ctx, "Skipping invalid stored rule", "rule_id", rule.ID, "error", err)
		}
	}

	templates, err := store.TemplateRepository().Templates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	for _, tpl := range templates {
		if err := generator.AddTemplate(tpl); err != nil {
			logger.WarnContext(ctx, "Skipping invalid stored template", "template_id", tpl.ID, "error", err)
		}
	}

	tasks, err := store.TaskRepository().Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	scheduler.Restore(tasks)

	logger.InfoContext(ctx, "Worker state restored",
		"rules", len(storedRules),
		"templates", len(templates),
		"tasks", len(tasks))

	o := orchestrator.New(orchestrator.Config{
		Logger:    logger,
		Clock:     clock,
		Tracer:    tracer,
		Machine:   statemachine.New(),
		Generator: generator,
		Rules:     ruleEngine,
		Scheduler: scheduler,
		Scorer:    scorer,
		Store:     store,
		Bus:       bus,
	})

	return &Worker{
		id:           id,
		logger:       logger,
		store:        store,
		bus:          bus,
		notifier:     &logNotifier{logger: logger},
		orchestrator: o,
		scheduler:    scheduler,
		poller:       scheduling.NewPoller(logger, scheduler, nil, nil),
	}, nil
}

// Start wires the poller callbacks and event subscriptions, then blocks
// until the process receives SIGINT or SIGTERM.
func (w *Worker) Start(ctx context.Context, pollSchedule string) error {
	w.poller = scheduling.NewPoller(w.logger, w.scheduler,
		func(spawned []*models.ScheduledTask) { w.handleSpawned(ctx, spawned) },
		func(late []*models.ScheduledTask) { w.handleOverdue(ctx, late) },
	)

	if err := w.bus.Handle(events.TaskOverdueEvent, w.handleTaskOverdueEvent); err != nil {
		return fmt.Errorf("failed to register overdue handler: %w", err)
	}

	if err := w.bus.Handle(events.NotificationRequestedEvent, w.handleNotificationEvent); err != nil {
		return fmt.Errorf("failed to register notification handler: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := w.bus.Subscribe(subCtx); err != nil {
			w.logger.ErrorContext(subCtx, "Event subscription stopped", "error", err)
		}
	}()

	if err := w.poller.Start(pollSchedule); err != nil {
		return fmt.Errorf("failed to start scheduling poller: %w", err)
	}

	w.logger.InfoContext(ctx, "Worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan

	w.logger.InfoContext(ctx, "Shutting down worker")
	w.poller.Stop()

	return nil
}

// handleSpawned persists recurrence-spawned tasks and announces them on
// the bus.
func (w *Worker) handleSpawned(ctx context.Context, spawned []*models.ScheduledTask) {
	for _, task := range spawned {
		if err := w.store.TaskRepository().SaveTask(ctx, task); err != nil {
			w.logger.ErrorContext(ctx, "Failed to persist spawned task",
				"task_id", task.ID, "error", err)

			continue
		}

		event := events.TaskCreated{
			BaseEvent:  events.NewBaseEvent(events.TaskCreatedEvent, task.CaseID),
			TaskID:     task.ID,
			Title:      task.Title,
			Priority:   task.Priority,
			AssignedTo: task.AssignedTo,
			DueDate:    task.DueDate,
		}

		if err := w.bus.Publish(ctx, task.CaseID, event); err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish task created event",
				"task_id", task.ID, "error", err)
		}
	}
}

// handleOverdue publishes an overdue event per late task.
func (w *Worker) handleOverdue(ctx context.Context, late []*models.ScheduledTask) {
	now := protocol.SystemClock{}.Now()

	for _, task := range late {
		var daysOverdue float64
		if task.DueDate != nil {
			daysOverdue = now.Sub(*task.DueDate).Hours() / 24
		}

		event := events.TaskOverdue{
			BaseEvent:   events.NewBaseEvent(events.TaskOverdueEvent, task.CaseID),
			TaskID:      task.ID,
			AssignedTo:  task.AssignedTo,
			DueDate:     task.DueDate,
			DaysOverdue: daysOverdue,
		}

		if err := w.bus.Publish(ctx, task.CaseID, event); err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish overdue event",
				"task_id", task.ID, "error", err)
		}
	}
}

func (w *Worker) handleTaskOverdueEvent(ctx context.Context, event any) error {
	overdue, ok := event.(*events.TaskOverdue)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event payload for task overdue")

		return nil
	}

	w.logger.WarnContext(ctx, "Task overdue",
		"task_id", overdue.TaskID,
		"assigned_to", overdue.AssignedTo,
		"days_overdue", overdue.DaysOverdue)

	return nil
}

func (w *Worker) handleNotificationEvent(ctx context.Context, event any) error {
	notification, ok := event.(*events.NotificationRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event payload for notification request")

		return nil
	}

	return w.notifier.Notify(ctx, models.NotificationRequest{
		Type:       models.NotificationInApp,
		Recipients: notification.Recipients,
		Template:   notification.Template,
		Urgency:    notification.Urgency,
		Data:       notification.Data,
	})
}
