package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/pharos-hq/pharosbot/pkg/circuitbreaker"
	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/metrics"
	"github.com/pharos-hq/pharosbot/pkg/proxy"
	"github.com/pharos-hq/pharosbot/pkg/skills"
)

const (
	// pause between AquaFlux mints for the same wallet
	mintPacing = 5 * time.Second

	// pause between repeated liquidity adds and tips
	taskPacing = 2 * time.Second

	// pause between wallets in a pass
	walletPacing = 10 * time.Second

	// countdown log cadence while waiting for the next daily cycle
	countdownTick = time.Second
)

// SkillSet bundles the executors for one wallet pass. Sets are built per pass
// so each wallet's API traffic can go through a freshly picked proxy.
type SkillSet struct {
	NFTFlow   NFTFlowRunner
	Swaps     SwapRunner
	Liquidity LiquidityRunner
	Tip       TipRunner
}

// NFTFlowRunner runs the AquaFlux claim-craft-mint sequence
type NFTFlowRunner interface {
	Run(ctx context.Context, s *skills.Session) error
}

// SwapRunner runs daily swap cycles
type SwapRunner interface {
	Run(ctx context.Context, s *skills.Session, cycles int) error
}

// LiquidityRunner runs one DVM pool deposit
type LiquidityRunner interface {
	Run(ctx context.Context, s *skills.Session) error
}

// TipRunner sends one tip
type TipRunner interface {
	Run(ctx context.Context, s *skills.Session, username string) error
}

// SkillFactory builds a skill set whose off-chain calls route through the
// given proxy URL. Empty means a direct connection.
type SkillFactory func(proxyURL string) (*SkillSet, error)

// Scheduler drives the daily cycle: every wallet runs its configured skills
// in order, then the scheduler sleeps until the next UTC midnight.
type Scheduler struct {
	sessions []*skills.Session
	proxies  *proxy.Rotator
	factory  SkillFactory
	run      config.RunConfig
	breaker  *circuitbreaker.CircuitBreaker
	logger   logger.Logger

	now          func() time.Time
	mintPacing   time.Duration
	taskPacing   time.Duration
	walletPacing time.Duration
}

// New creates a scheduler over the given wallet sessions
func New(
	sessions []*skills.Session,
	proxies *proxy.Rotator,
	factory SkillFactory,
	run config.RunConfig,
	breaker *circuitbreaker.CircuitBreaker,
	log logger.Logger,
) *Scheduler {
	return &Scheduler{
		sessions:     sessions,
		proxies:      proxies,
		factory:      factory,
		run:          run,
		breaker:      breaker,
		logger:       log,
		now:          time.Now,
		mintPacing:   mintPacing,
		taskPacing:   taskPacing,
		walletPacing: walletPacing,
	}
}

// Run loops daily passes until the context is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.runPass(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		s.logger.InfoWithScope(logger.Sched, "all wallets processed for this cycle")
		if err := s.waitForNextCycle(ctx); err != nil {
			return err
		}
	}
}

// runPass processes every wallet once
func (s *Scheduler) runPass(ctx context.Context) {
	for i, session := range s.sessions {
		if ctx.Err() != nil {
			return
		}

		if s.breaker.IsOpen() {
			s.logger.NoticeWithScope(logger.Sched, "circuit breaker open, skipping wallet %d/%d", i+1, len(s.sessions))
			metrics.WalletsProcessed.WithLabelValues("skipped").Inc()
			continue
		}

		s.logger.InfoWithScope(logger.Sched, "processing wallet %d/%d: %s", i+1, len(s.sessions), session.Wallet.Address().Hex())
		if err := s.processWallet(ctx, session); err != nil {
			s.logger.ErrorWithScope(logger.Sched, "wallet %s failed: %v", session.Wallet.Address().Hex(), err)
			metrics.WalletsProcessed.WithLabelValues("failure").Inc()
			if s.breaker.RecordFailure() {
				metrics.CircuitBreakerTripped.Inc()
			}
		} else {
			metrics.WalletsProcessed.WithLabelValues("success").Inc()
		}

		if i < len(s.sessions)-1 {
			s.logger.DebugWithScope(logger.Sched, "waiting before next wallet")
			if !s.sleep(ctx, s.walletPacing) {
				return
			}
		}
	}
}

// processWallet runs the wallet's skills in a fixed order. Individual skill
// failures are logged and counted but do not stop the remaining skills. A
// panic inside a skill is recovered and reported as this wallet's failure so
// the pass continues with the next wallet.
func (s *Scheduler) processWallet(ctx context.Context, session *skills.Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorWithScope(logger.Sched, "panic while processing wallet %s: %v", session.Wallet.Address().Hex(), r)
			err = fmt.Errorf("panic while processing wallet: %v", r)
		}
	}()

	proxyURL := s.proxies.Pick()
	set, err := s.factory(proxyURL)
	if err != nil {
		return fmt.Errorf("failed to build skill set: %v", err)
	}

	var failed int

	for i := 0; i < s.run.NFTMints; i++ {
		s.logger.InfoWithScope(logger.Sched, "AquaFlux mint %d/%d", i+1, s.run.NFTMints)
		if err := set.NFTFlow.Run(ctx, session); err != nil {
			s.logger.ErrorWithScope(logger.NFT, "mint %d failed, stopping mints for this wallet: %v", i+1, err)
			failed++
			break
		}
		if i < s.run.NFTMints-1 {
			if !s.sleep(ctx, s.mintPacing) {
				return ctx.Err()
			}
		}
	}

	if s.run.SwapCycles > 0 {
		if err := set.Swaps.Run(ctx, session, s.run.SwapCycles); err != nil {
			s.logger.ErrorWithScope(logger.Swap, "swap cycles aborted: %v", err)
			failed++
		}
	}

	for i := 0; i < s.run.LiquidityAdds; i++ {
		s.logger.InfoWithScope(logger.Sched, "add liquidity %d/%d", i+1, s.run.LiquidityAdds)
		if err := set.Liquidity.Run(ctx, session); err != nil {
			s.logger.ErrorWithScope(logger.Liquidity, "liquidity add %d failed: %v", i+1, err)
			failed++
		}
		if !s.sleep(ctx, s.taskPacing) {
			return ctx.Err()
		}
	}

	if s.run.TipUsername != "" {
		for i := 0; i < s.run.TipCount; i++ {
			s.logger.InfoWithScope(logger.Sched, "tip %d/%d to %s", i+1, s.run.TipCount, s.run.TipUsername)
			if err := set.Tip.Run(ctx, session, s.run.TipUsername); err != nil {
				s.logger.ErrorWithScope(logger.Tip, "tip %d failed: %v", i+1, err)
				failed++
			}
			if i < s.run.TipCount-1 {
				if !s.sleep(ctx, s.taskPacing) {
					return ctx.Err()
				}
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d skill(s) failed", failed)
	}
	s.logger.InfoWithScope(logger.Sched, "all tasks finished for wallet %s", session.Wallet.Address().Hex())
	return nil
}

// waitForNextCycle sleeps until the next UTC midnight, logging a countdown
func (s *Scheduler) waitForNextCycle(ctx context.Context) error {
	remaining := UntilNextUTCMidnight(s.now())
	deadline := s.now().Add(remaining)

	ticker := time.NewTicker(countdownTick)
	defer ticker.Stop()

	var lastLogged time.Duration = -1
	for {
		remaining = deadline.Sub(s.now())
		if remaining <= 0 {
			return nil
		}
		metrics.CycleCountdownSeconds.Set(remaining.Seconds())

		// log at most once a minute to keep the output readable
		if rounded := remaining.Truncate(time.Minute); rounded != lastLogged {
			h := int(remaining.Hours())
			m := int(remaining.Minutes()) % 60
			sec := int(remaining.Seconds()) % 60
			s.logger.InfoWithScope(logger.Sched, "next cycle in %dh %dm %ds", h, m, sec)
			lastLogged = rounded
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// sleep pauses for d, returning false if the context ended first
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// UntilNextUTCMidnight returns how long remains until the next UTC day starts
func UntilNextUTCMidnight(now time.Time) time.Duration {
	utc := now.UTC()
	next := time.Date(utc.Year(), utc.Month(), utc.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(utc)
}
