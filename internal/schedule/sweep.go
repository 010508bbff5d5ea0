package schedule

import (
	"context"

	"go.uber.org/zap"

	"github.com/eluia/eluia-api/pkg/logger"
)

// Sweeper drops expired per-day state and reports how many entries went.
type Sweeper interface {
	Sweep() int
}

// SweepJob releases memory held by previous days' quota and cost ledgers.
// Daily windows are keyed by date, so the sweep affects footprint only,
// never enforcement.
type SweepJob struct {
	sweepers map[string]Sweeper
	logger   *logger.Logger
}

// NewSweepJob creates the daily ledger sweep over the named sweepers.
func NewSweepJob(sweepers map[string]Sweeper, log *logger.Logger) *SweepJob {
	return &SweepJob{sweepers: sweepers, logger: log}
}

func (j *SweepJob) Name() string { return "ledger-sweep" }

func (j *SweepJob) Run(ctx context.Context) error {
	for name, s := range j.sweepers {
		removed := s.Sweep()
		j.logger.Info("ledger swept", zap.String("ledger", name), zap.Int("removed", removed))
	}
	return nil
}
