package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AGmitmanipal/BACKEND/internal/clock"
	"github.com/AGmitmanipal/BACKEND/internal/domain"
	"github.com/aws/aws-xray-sdk-go/xray"
)

type SweepRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ListLapsedForUpdate(ctx context.Context, now time.Time) ([]domain.Reservation, error)
	ExpireReservations(ctx context.Context, ids []string, now time.Time) (int, error)
}

type ExpirySweeper struct {
	repo     SweepRepository
	clock    clock.Clock
	logger   *log.Logger
	interval time.Duration
	timeout  time.Duration
	tracing  bool
}

const (
	defaultSweepInterval = time.Minute
	defaultSweepTimeout  = 30 * time.Second
)

func NewExpirySweeper(repo SweepRepository, clk clock.Clock, logger *log.Logger, opts ...SweeperOption) *ExpirySweeper {
	if logger == nil {
		logger = log.Default()
	}
	s := &ExpirySweeper{
		repo:     repo,
		clock:    clk,
		logger:   logger,
		interval: defaultSweepInterval,
		timeout:  defaultSweepTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SweeperOption func(*ExpirySweeper)

func WithSweepInterval(d time.Duration) SweeperOption {
	return func(s *ExpirySweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSweepTimeout bounds a single tick.
func WithSweepTimeout(d time.Duration) SweeperOption {
	return func(s *ExpirySweeper) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTracing wraps every tick in an X-Ray segment. xray must be configured by the caller.
func WithTracing(enabled bool) SweeperOption {
	return func(s *ExpirySweeper) {
		s.tracing = enabled
	}
}

type SweepResult struct {
	Expired int
}

// RunExpirySweep expires every active record whose window ended before now.
// The whole batch commits or none of it does.
func (s *ExpirySweeper) RunExpirySweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		lapsed, err := s.repo.ListLapsedForUpdate(txCtx, now)
		if err != nil {
			return err
		}
		if len(lapsed) == 0 {
			result = SweepResult{}
			return nil
		}

		ids := make([]string, 0, len(lapsed))
		for _, r := range lapsed {
			if err := domain.ValidateTransition(r.Status, domain.StatusExpired); err != nil {
				return fmt.Errorf("reservation %s: %w", r.ID, err)
			}
			ids = append(ids, r.ID)
		}

		n, err := s.repo.ExpireReservations(txCtx, ids, now)
		if err != nil {
			return err
		}
		result = SweepResult{Expired: n}
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}
	return result, nil
}

// Run ticks until ctx is done. Failed ticks are logged and retried on the next interval.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Printf("expiry sweeper started interval=%s", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Printf("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ExpirySweeper) tick(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	var seg *xray.Segment
	if s.tracing {
		ctx, seg = xray.BeginSegment(ctx, "ExpirySweeper.Tick")
	}

	res, err := s.RunExpirySweep(ctx, s.clock.Now())

	if seg != nil {
		if err == nil {
			if mdErr := seg.AddMetadata("expired", res.Expired); mdErr != nil {
				s.logger.Printf("WARN: failed to add sweep metadata: %v", mdErr)
			}
		}
		seg.Close(err)
	}

	if err != nil {
		s.logger.Printf("sweep failed: %v", err)
		return
	}
	if res.Expired > 0 {
		s.logger.Printf("sweep expired=%d", res.Expired)
	}
}
