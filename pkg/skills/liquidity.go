package skills

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/pharos-hq/pharosbot/pkg/approval"
	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/contracts"
	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/metrics"
)

// liquidityDeadline bounds how long a deposit may sit in the mempool
const liquidityDeadline = 10 * time.Minute

// MinDepositOut floors the acceptable deposit amount at 99.9% of the input
func MinDepositOut(amount *big.Int) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(999))
	return out.Div(out, big.NewInt(1000))
}

// LiquidityAdd deposits USDC and USDT into the DVM pool
type LiquidityAdd struct {
	chain    TxSender
	approver Approver
	usdc     approval.Token
	usdt     approval.Token
	now      func() time.Time
	logger   logger.Logger
}

// NewLiquidityAdd creates the liquidity executor
func NewLiquidityAdd(chain TxSender, approver Approver, usdc, usdt approval.Token, log logger.Logger) *LiquidityAdd {
	return &LiquidityAdd{
		chain:    chain,
		approver: approver,
		usdc:     usdc,
		usdt:     usdt,
		now:      time.Now,
		logger:   log,
	}
}

// Run executes one deposit for the session's wallet
func (l *LiquidityAdd) Run(ctx context.Context, s *Session) error {
	start := time.Now()
	err := l.run(ctx, s)
	metrics.SkillDuration.WithLabelValues("liquidity").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SkillRuns.WithLabelValues("liquidity", "failure").Inc()
		return err
	}
	metrics.SkillRuns.WithLabelValues("liquidity", "success").Inc()
	return nil
}

func (l *LiquidityAdd) run(ctx context.Context, s *Session) error {
	owner := s.Wallet.Address()

	if _, err := l.approver.Ensure(ctx, l.usdc, s.Auth, owner, config.LiquidityAddress, config.USDCLiquidityAmount, false); err != nil {
		return fmt.Errorf("USDC approval failed: %w", err)
	}
	if _, err := l.approver.Ensure(ctx, l.usdt, s.Auth, owner, config.LiquidityAddress, config.USDTLiquidityAmount, false); err != nil {
		return fmt.Errorf("USDT approval failed: %w", err)
	}

	baseIn := config.USDCLiquidityAmount
	quoteIn := config.USDTLiquidityAmount
	deadline := big.NewInt(l.now().Add(liquidityDeadline).Unix())

	data, err := contracts.PackAddDVMLiquidity(
		config.DVMPoolAddress,
		baseIn, quoteIn,
		MinDepositOut(baseIn), MinDepositOut(quoteIn),
		0, deadline,
	)
	if err != nil {
		return err
	}

	receipt, err := l.chain.SendCall(ctx, s.Wallet, config.LiquidityAddress, nil, data, config.LiquidityGasLimit)
	if err != nil {
		return err
	}

	metrics.GasUsed.WithLabelValues("liquidity").Observe(float64(receipt.GasUsed))
	l.logger.InfoWithScope(logger.Liquidity, "liquidity added for %s (tx %s)", owner.Hex(), receipt.TxHash.Hex())
	return nil
}
