package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pharos-hq/pharosbot/pkg/approval"
	"github.com/pharos-hq/pharosbot/pkg/aquaflux"
	"github.com/pharos-hq/pharosbot/pkg/chainclient"
	"github.com/pharos-hq/pharosbot/pkg/circuitbreaker"
	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/contracts"
	"github.com/pharos-hq/pharosbot/pkg/dodo"
	"github.com/pharos-hq/pharosbot/pkg/health"
	"github.com/pharos-hq/pharosbot/pkg/logger"
	"github.com/pharos-hq/pharosbot/pkg/proxy"
	"github.com/pharos-hq/pharosbot/pkg/scheduler"
	"github.com/pharos-hq/pharosbot/pkg/skills"
	"github.com/pharos-hq/pharosbot/pkg/wallet"
)

// apiClientTimeout bounds each off-chain API request
const apiClientTimeout = 15 * time.Second

// Service owns the farming bot's long-lived components
type Service struct {
	cfg       *config.Config
	chain     *chainclient.Client
	breaker   *circuitbreaker.CircuitBreaker
	scheduler *scheduler.Scheduler
	health    *health.Server
	logger    logger.Logger
}

// NewService connects to the chain and assembles the scheduler
func NewService(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, error) {
	failover := chainclient.NewFailover([]string{cfg.RPCURL}, log)
	chain, err := chainclient.New(ctx, failover, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain: %w", err)
	}

	rotator, err := proxy.LoadFromFile(cfg.ProxyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load proxies: %v", err)
	}
	if rotator.Size() > 0 {
		log.Info("loaded %d proxies from %s", rotator.Size(), cfg.ProxyFile)
	}

	sessions, err := buildSessions(chain, cfg.PrivateKeys, log)
	if err != nil {
		return nil, err
	}
	log.Info("%d wallet(s) loaded", len(sessions))

	breaker := circuitbreaker.NewCircuitBreaker(
		cfg.CircuitBreaker.Enabled,
		cfg.CircuitBreaker.Threshold,
		cfg.CircuitBreaker.WindowDuration,
		cfg.CircuitBreaker.ResetTimeout,
		log,
	)

	factory, err := newSkillFactory(chain, cfg, log)
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(sessions, rotator, factory, cfg.Run, breaker, log)

	addresses := make([]common.Address, len(sessions))
	for i, session := range sessions {
		addresses[i] = session.Wallet.Address()
	}
	healthServer := health.NewServer(cfg.MetricsPort, chain, breaker, addresses, log)

	return &Service{
		cfg:       cfg,
		chain:     chain,
		breaker:   breaker,
		scheduler: sched,
		health:    healthServer,
		logger:    log,
	}, nil
}

// Start runs the health server and the daily cycle until ctx ends
func (s *Service) Start(ctx context.Context) error {
	go s.health.Start()
	defer s.chain.Close()
	return s.scheduler.Run(ctx)
}

// buildSessions derives a transactor-backed session for each private key
func buildSessions(chain *chainclient.Client, keys []string, log logger.Logger) ([]*skills.Session, error) {
	var sessions []*skills.Session
	for _, key := range keys {
		w, err := wallet.FromPrivateKey(key)
		if err != nil {
			log.Notice("skipping unparsable private key: %v", err)
			continue
		}
		auth, err := chain.NewAuth(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create transactor for %s: %v", w.Address().Hex(), err)
		}
		sessions = append(sessions, skills.NewSession(w, auth))
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no usable wallets configured")
	}
	return sessions, nil
}

// newSkillFactory binds the on-chain contracts once and rebuilds the
// proxy-routed API clients per wallet pass.
func newSkillFactory(chain *chainclient.Client, cfg *config.Config, log logger.Logger) (scheduler.SkillFactory, error) {
	tokens := make(map[common.Address]*contracts.ERC20)
	for _, addr := range []common.Address{
		config.TokenUSDT,
		config.TokenUSDC,
		config.AquaFluxTokenC,
		config.AquaFluxTokenS,
		config.AquaFluxTokenCS,
	} {
		token, err := contracts.NewERC20(addr, chain.Eth())
		if err != nil {
			return nil, fmt.Errorf("failed to bind token %s: %v", addr.Hex(), err)
		}
		tokens[addr] = token
	}

	approver := approval.NewManager(chain.Eth(), log)

	swapTokens := map[common.Address]approval.Token{
		config.TokenUSDT: tokens[config.TokenUSDT],
		config.TokenUSDC: tokens[config.TokenUSDC],
	}

	return func(proxyURL string) (*scheduler.SkillSet, error) {
		httpClient, err := proxy.NewHTTPClient(proxyURL, apiClientTimeout)
		if err != nil {
			// a broken proxy entry falls back to a direct connection
			log.Notice("invalid proxy %s, connecting directly: %v", proxyURL, err)
			httpClient = &http.Client{Timeout: apiClientTimeout}
		}

		quotes := dodo.NewClient(cfg.DodoAPIEndpoint, cfg.DodoAPIKey, httpClient, log)
		mintAPI := aquaflux.NewClient(cfg.AquaFluxAPIEndpoint, httpClient, log)

		return &scheduler.SkillSet{
			NFTFlow: skills.NewNFTFlow(chain, mintAPI, approver,
				tokens[config.AquaFluxTokenC],
				tokens[config.AquaFluxTokenS],
				tokens[config.AquaFluxTokenCS],
				log),
			Swaps:     skills.NewSwapCycle(chain, quotes, approver, swapTokens, log),
			Liquidity: skills.NewLiquidityAdd(chain, approver, tokens[config.TokenUSDC], tokens[config.TokenUSDT], log),
			Tip:       skills.NewTip(chain, log),
		}, nil
	}, nil
}
