package job

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ChartStore is the part of chart.Registry the sweeper needs.
type ChartStore interface {
	Sweep(idle time.Duration) int
}

// ChartSweeper frees per-session charts whose session has been idle longer
// than the session TTL.
type ChartSweeper struct {
	log      logrus.FieldLogger
	charts   ChartStore
	idle     time.Duration
	interval time.Duration
}

func NewChartSweeper(log logrus.FieldLogger, charts ChartStore, idle time.Duration) *ChartSweeper {
	interval := idle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return &ChartSweeper{
		log:      log.WithField("component", "chart-sweeper"),
		charts:   charts,
		idle:     idle,
		interval: interval,
	}
}

func (s *ChartSweeper) Start(ctx context.Context) {
	pollLoop(ctx, s.log, "chart-sweeper", s.interval, s.SweepOnce)
}

func (s *ChartSweeper) SweepOnce(ctx context.Context) error {
	if n := s.charts.Sweep(s.idle); n > 0 {
		s.log.WithField("removed", n).Debug("dropped idle charts")
	}
	return nil
}
