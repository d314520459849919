package services

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/scheduling/modules/scheduling/domain/aggregates/assignment"
	"github.com/iota-uz/scheduling/pkg/composables"
)

type SweeperOptions struct {
	Enabled  bool
	Interval time.Duration
	Logger   logrus.FieldLogger
	Clock    clockwork.Clock
}

func (o *SweeperOptions) setDefaults() {
	if o.Interval <= 0 {
		o.Interval = 24 * time.Hour
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		nop := logrus.New()
		nop.SetLevel(logrus.PanicLevel)
		o.Logger = nop
	}
}

// ExpirationSweeper is the request-independent half of status maintenance:
// on a fixed cadence it bulk-flips every assignment whose end date has
// passed to expired, regardless of whether any read ever touches it.
type ExpirationSweeper struct {
	repo assignment.Repository
	opts SweeperOptions
}

func NewExpirationSweeper(repo assignment.Repository, opts SweeperOptions) *ExpirationSweeper {
	opts.setDefaults()
	return &ExpirationSweeper{repo: repo, opts: opts}
}

// Run blocks until ctx is cancelled. A failed cycle is logged and retried
// on the next tick; it never takes the process down.
func (s *ExpirationSweeper) Run(ctx context.Context) error {
	if !s.opts.Enabled {
		return nil
	}

	ticker := s.opts.Clock.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}

		if err := s.sweepOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.opts.Logger.WithError(err).Warn("scheduling: expiration sweep failed")
		}
	}
}

func (s *ExpirationSweeper) sweepOnce(ctx context.Context) error {
	now := s.opts.Clock.Now().UTC()
	return composables.InTx(ctx, func(txCtx context.Context) error {
		expired, err := s.repo.ExpireEnded(txCtx, now)
		if err != nil {
			return err
		}
		if expired > 0 {
			s.opts.Logger.WithField("expired", expired).Info("scheduling: swept lapsed assignments")
		}
		return nil
	})
}
