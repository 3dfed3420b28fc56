package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/maziwa/internal/config"
	settlementdomain "github.com/smallbiznis/maziwa/internal/settlement/domain"
)

const jobTimeout = 5 * time.Minute

type Params struct {
	fx.In

	Log           *zap.Logger
	Config        config.Config
	SettlementSvc settlementdomain.Service
}

// Scheduler runs the periodic deduction-application sweep.
type Scheduler struct {
	cron          *cron.Cron
	log           *zap.Logger
	spec          string
	settlementSvc settlementdomain.Service
}

func New(p Params) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		log:           p.Log.Named("scheduler"),
		spec:          p.Config.AutoApplyCron,
		settlementSvc: p.SettlementSvc,
	}
}

// Start registers the sweep job and starts the cron loop. An empty
// schedule disables the job.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.log.Info("auto-apply schedule not configured, scheduler disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.runAutoApply); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("schedule", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runAutoApply() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	s.log.Info("running scheduled deduction sweep")
	result, err := s.settlementSvc.AutoApplyDeductions(ctx)
	if err != nil {
		s.log.Error("scheduled deduction sweep failed", zap.Error(err))
		return
	}
	s.log.Info("scheduled deduction sweep complete",
		zap.Int("farmers_processed", result.FarmersProcessed),
		zap.String("total_applied", result.TotalApplied.String()),
	)
}
