package skills

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pharos-hq/pharosbot/pkg/approval"
	"github.com/pharos-hq/pharosbot/pkg/aquaflux"
	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/contracts"
	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/metrics"
	"github.com/pharos-hq/pharosbot/pkg/wallet"
)

// ErrCraftIncomplete is returned when crafting mints fewer CS tokens than requested
var ErrCraftIncomplete = errors.New("craft produced fewer tokens than required")

// craftAmount is the fixed amount of CS tokens crafted per flow (100 tokens, 18 decimals)
var craftAmount = new(big.Int).Mul(big.NewInt(100), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// MintService is the AquaFlux API surface the flow needs
type MintService interface {
	WalletLogin(ctx context.Context, w *wallet.Wallet) (string, error)
	CheckTokenHolding(ctx context.Context, accessToken string) (bool, error)
	GetSignature(ctx context.Context, accessToken string, walletAddress string, nftType int64) (*aquaflux.SignatureGrant, error)
}

// NFTFlow runs the full AquaFlux sequence for one wallet: authenticate, claim
// the free C and S tokens, craft CS from them, then mint the NFT with a
// server-issued signature grant.
type NFTFlow struct {
	chain    TxSender
	api      MintService
	approver Approver
	cToken   approval.Token
	sToken   approval.Token
	csToken  approval.Token
	now      func() time.Time
	logger   logger.Logger
}

// NewNFTFlow creates the AquaFlux flow executor
func NewNFTFlow(chain TxSender, api MintService, approver Approver, cToken, sToken, csToken approval.Token, log logger.Logger) *NFTFlow {
	return &NFTFlow{
		chain:    chain,
		api:      api,
		approver: approver,
		cToken:   cToken,
		sToken:   sToken,
		csToken:  csToken,
		now:      time.Now,
		logger:   log,
	}
}

// Run executes the flow once for the session's wallet
func (f *NFTFlow) Run(ctx context.Context, s *Session) error {
	start := time.Now()
	err := f.run(ctx, s)
	metrics.SkillDuration.WithLabelValues("nftflow").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SkillRuns.WithLabelValues("nftflow", "failure").Inc()
		return err
	}
	metrics.SkillRuns.WithLabelValues("nftflow", "success").Inc()
	return nil
}

func (f *NFTFlow) run(ctx context.Context, s *Session) error {
	accessToken, err := f.api.WalletLogin(ctx, s.Wallet)
	if err != nil {
		return fmt.Errorf("login failed: %v", err)
	}

	if err := f.claim(ctx, s); err != nil {
		return fmt.Errorf("claim failed: %v", err)
	}

	if err := f.craft(ctx, s); err != nil {
		return fmt.Errorf("craft failed: %w", err)
	}

	// the holding check is informational, the contract enforces the real requirement
	holding, err := f.api.CheckTokenHolding(ctx, accessToken)
	if err != nil {
		f.logger.NoticeWithScope(logger.NFT, "token holding check failed: %v", err)
	} else {
		f.logger.InfoWithScope(logger.NFT, "token holding check: %t", holding)
	}

	grant, err := f.api.GetSignature(ctx, accessToken, s.Wallet.Address().Hex(), 0)
	if err != nil {
		return fmt.Errorf("signature request failed: %v", err)
	}

	if err := f.mint(ctx, s, grant); err != nil {
		return fmt.Errorf("mint failed: %w", err)
	}

	f.logger.InfoWithScope(logger.NFT, "AquaFlux flow completed for %s", s.Wallet.Address().Hex())
	return nil
}

// claim requests the free C and S tokens. A claim that already happened today
// counts as success.
func (f *NFTFlow) claim(ctx context.Context, s *Session) error {
	receipt, err := f.chain.SendCall(ctx, s.Wallet, config.AquaFluxNFTAddress, nil, contracts.PackClaimTokens(), config.ClaimGasLimit)
	if err != nil {
		if strings.Contains(err.Error(), "already claimed") {
			f.logger.NoticeWithScope(logger.NFT, "tokens already claimed today for %s", s.Wallet.Address().Hex())
			return nil
		}
		return err
	}

	metrics.GasUsed.WithLabelValues("nftflow").Observe(float64(receipt.GasUsed))
	f.logger.InfoWithScope(logger.NFT, "claimed C and S tokens (tx %s)", receipt.TxHash.Hex())
	return nil
}

// craft burns C and S tokens into CS and verifies the minted amount by
// comparing CS balances around the call.
func (f *NFTFlow) craft(ctx context.Context, s *Session) error {
	owner := s.Wallet.Address()

	for _, token := range []approval.Token{f.cToken, f.sToken} {
		if _, err := f.approver.Ensure(ctx, token, s.Auth, owner, config.AquaFluxNFTAddress, craftAmount, true); err != nil {
			return err
		}
	}

	callOpts := &bind.CallOpts{Context: ctx}
	before, err := f.csToken.BalanceOf(callOpts, owner)
	if err != nil {
		return fmt.Errorf("failed to read CS balance: %v", err)
	}

	data, err := contracts.PackCraft(craftAmount)
	if err != nil {
		return err
	}
	receipt, err := f.chain.SendCall(ctx, s.Wallet, config.AquaFluxNFTAddress, nil, data, config.CraftGasLimit)
	if err != nil {
		return err
	}
	metrics.GasUsed.WithLabelValues("nftflow").Observe(float64(receipt.GasUsed))

	after, err := f.csToken.BalanceOf(callOpts, owner)
	if err != nil {
		return fmt.Errorf("failed to read CS balance: %v", err)
	}

	crafted := new(big.Int).Sub(after, before)
	if crafted.Cmp(craftAmount) < 0 {
		return fmt.Errorf("%w: expected %s, got %s", ErrCraftIncomplete, craftAmount.String(), crafted.String())
	}

	f.logger.InfoWithScope(logger.NFT, "crafted %s CS tokens (tx %s)", crafted.String(), receipt.TxHash.Hex())
	return nil
}

// mint submits the signature-gated mint transaction
func (f *NFTFlow) mint(ctx context.Context, s *Session, grant *aquaflux.SignatureGrant) error {
	owner := s.Wallet.Address()

	if _, err := f.approver.Ensure(ctx, f.csToken, s.Auth, owner, config.AquaFluxNFTAddress, craftAmount, true); err != nil {
		return err
	}

	if grant.Expired(f.now()) {
		return fmt.Errorf("%w: grant expired at %d", aquaflux.ErrSignatureExpired, grant.ExpiresAt)
	}

	signature, err := hexutil.Decode(grant.Signature)
	if err != nil {
		return fmt.Errorf("invalid grant signature: %v", err)
	}

	data, err := contracts.PackMint(grant.NftTypeBig(), grant.ExpiresAtBig(), signature)
	if err != nil {
		return err
	}
	receipt, err := f.chain.SendCall(ctx, s.Wallet, config.AquaFluxNFTAddress, nil, data, config.MintGasLimit)
	if err != nil {
		return err
	}

	metrics.GasUsed.WithLabelValues("nftflow").Observe(float64(receipt.GasUsed))
	f.logger.InfoWithScope(logger.NFT, "minted AquaFlux NFT (tx %s)", receipt.TxHash.Hex())
	return nil
}
