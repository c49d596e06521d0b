package scheduling

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/docket-io/docket/pkg/models"
)

// Poller runs the periodic scheduling chores: recurrence expansion and
// overdue detection. Spawned and overdue tasks are handed to the callbacks
// so the caller can publish events or notifications.
type Poller struct {
	cron    *cron.Cron
	engine  *Engine
	logger  *slog.Logger
	spawned func([]*models.ScheduledTask)
	overdue func([]*models.ScheduledTask)
}

// NewPoller builds a poller on the engine. Either callback may be nil.
func NewPoller(logger *slog.Logger, engine *Engine, spawned, overdue func([]*models.ScheduledTask)) *Poller {
	return &Poller{
		cron:    cron.New(),
		engine:  engine,
		logger:  logger.With("module", "scheduling_poller"),
		spawned: spawned,
		overdue: overdue,
	}
}

// Start registers the chores on the cron schedule and begins running them.
// schedule is a standard five-field cron expression.
func (p *Poller) Start(schedule string) error {
	if _, err := p.cron.AddFunc(schedule, p.tick); err != nil {
		return err
	}

	p.cron.Start()
	p.logger.Info("Scheduling poller started", "schedule", schedule)

	return nil
}

// Stop halts the cron scheduler, waiting for a running tick to finish.
func (p *Poller) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
	p.logger.Info("Scheduling poller stopped")
}

func (p *Poller) tick() {
	created := p.engine.ProcessRecurringTasks()
	if len(created) > 0 {
		p.logger.Info("Recurrence expansion", "spawned", len(created))

		if p.spawned != nil {
			p.spawned(created)
		}
	}

	now := p.engine.clock.Now()
	late := make([]*models.ScheduledTask, 0)

	for _, task := range p.engine.Tasks() {
		if task.Overdue(now) {
			late = append(late, task)
		}
	}

	if len(late) > 0 && p.overdue != nil {
		p.overdue(late)
	}
}
