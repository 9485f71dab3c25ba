package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"ControlPagos/internal/calendar"
	"ControlPagos/internal/config"
	"ControlPagos/internal/logger"
	"ControlPagos/internal/pipeline"
	"ControlPagos/internal/serviceiface"
	"ControlPagos/internal/workbook"
)

var _ serviceiface.Service = (*CronService)(nil)

// ScheduleConfig controls the unattended weekly projection.
type ScheduleConfig struct {
	Enabled       bool
	Schedule      string
	TimeZone      string
	RetryAttempts int
	RetryDelay    time.Duration
}

// NewScheduleConfig reads the scheduler block of services.yaml. The
// CONTROL_PAGOS_SCHEDULE variable overrides the cron expression.
func NewScheduleConfig(cfg map[string]interface{}) ScheduleConfig {
	sc := ScheduleConfig{
		Enabled:       config.Bool(cfg, "enabled", true),
		Schedule:      config.String(cfg, "schedule", config.DefaultSchedule),
		TimeZone:      config.String(cfg, "timezone", config.DefaultTimeZone),
		RetryAttempts: config.Int(cfg, "retry_attempts", config.DefaultRetryAttempts),
		RetryDelay:    config.Duration(cfg, "retry_delay", config.DefaultRetryDelay),
	}
	if s := os.Getenv(config.EnvPrefix + "SCHEDULE"); s != "" {
		sc.Schedule = s
	}
	return sc
}

// CronService runs the pipeline for the upcoming Wednesday on a cron schedule.
type CronService struct {
	cfg    ScheduleConfig
	runner *pipeline.Runner
	cron   *cron.Cron
	loc    *time.Location
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func NewCronService(cfg map[string]interface{}, runner *pipeline.Runner) *CronService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronService{
		cfg:    NewScheduleConfig(cfg),
		runner: runner,
		loc:    time.UTC,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *CronService) Name() string {
	return "scheduler"
}

func (s *CronService) Start() error {
	if !s.cfg.Enabled || s.cfg.Schedule == "" {
		log.Println("[Scheduler] Disabled")
		return nil
	}

	loc, err := time.LoadLocation(s.cfg.TimeZone)
	if err != nil {
		loc = time.UTC
		logger.Audit("Invalid timezone %s, falling back to UTC: %v", s.cfg.TimeZone, err)
	}
	s.loc = loc

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(s.cfg.Schedule, func() {
		s.RunTick()
	})
	if err != nil {
		return fmt.Errorf("unable to schedule projection run: %v", err)
	}
	s.cron = c
	c.Start()

	logger.Audit("Projection scheduler started with schedule: %s (timezone: %s)", s.cfg.Schedule, s.cfg.TimeZone)
	log.Printf("[Scheduler] Started: %s (%s)", s.cfg.Schedule, s.cfg.TimeZone)
	return nil
}

// Stop cancels a scheduled run in progress and waits for it to return.
func (s *CronService) Stop() error {
	s.cancel()
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	log.Println("[Scheduler] Stopped")
	return nil
}

// RunTick runs the projection for the Wednesday after now. It reports false
// when another run held the gate.
func (s *CronService) RunTick() (pipeline.Outcome, bool) {
	date := calendar.NextWednesday(s.now().In(s.loc))
	policy := workbook.RetryPolicy{MaxAttempts: s.cfg.RetryAttempts, Delay: s.cfg.RetryDelay}

	logger.Audit("Scheduled projection for %s starting", calendar.FormatDMY(date))
	out, err := s.runner.Run(s.ctx, pipeline.Request{
		Date:    date,
		Trigger: "scheduler",
		Policy:  &policy,
	})
	if errors.Is(err, pipeline.ErrRunInProgress) {
		log.Printf("[Scheduler] Skipped %s: a run is already in progress", calendar.FormatDMY(date))
		return out, false
	}
	logger.Audit("Scheduled projection %s finished: %s %s", out.RunID, out.Status, out.Error)
	return out, true
}
