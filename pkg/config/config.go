package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/pharos-hq/pharosbot/pkg/logger"
)

// Config holds the configuration for the farming service
type Config struct {
	RPCURL              string
	PrivateKeys         []string
	ProxyFile           string
	MetricsPort         string
	DodoAPIEndpoint     string
	DodoAPIKey          string
	AquaFluxAPIEndpoint string
	Run                 RunConfig
	CircuitBreaker      CircuitBreakerConfig
	LoggerConfig        LoggerConfig
}

// RunConfig holds the per-wallet daily task counts
type RunConfig struct {
	SwapCycles    int
	LiquidityAdds int
	NFTMints      int
	TipUsername   string
	TipCount      int
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowDuration time.Duration
	ResetTimeout   time.Duration
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables
func LoadConfig(log logger.Logger) (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Notice("no .env file found, using environment variables")
	}

	rpcURL, err := GetEnvRPCURL()
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	dodoEndpoint, err := GetEnvDodoAPIEndpoint()
	if err != nil {
		return nil, err
	}

	aquafluxEndpoint, err := GetEnvAquaFluxAPIEndpoint()
	if err != nil {
		return nil, err
	}

	swapCycles, err := GetEnvSwapCycles()
	if err != nil {
		return nil, err
	}

	liquidityAdds, err := GetEnvLiquidityAdds()
	if err != nil {
		return nil, err
	}

	nftMints, err := GetEnvNFTMints()
	if err != nil {
		return nil, err
	}

	tipCount, err := GetEnvTipCount()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCircuitBreakerThreshold()
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvCircuitBreakerWindow()
	if err != nil {
		return nil, err
	}

	cbReset, err := GetEnvCircuitBreakerReset()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCURL:              rpcURL,
		PrivateKeys:         GetEnvPrivateKeys(log),
		ProxyFile:           GetEnvProxyFile(),
		MetricsPort:         metricsPort,
		DodoAPIEndpoint:     dodoEndpoint,
		DodoAPIKey:          GetEnvDodoAPIKey(),
		AquaFluxAPIEndpoint: aquafluxEndpoint,
		Run: RunConfig{
			SwapCycles:    swapCycles,
			LiquidityAdds: liquidityAdds,
			NFTMints:      nftMints,
			TipUsername:   GetEnvTipUsername(),
			TipCount:      tipCount,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        cbEnabled,
			Threshold:      cbThreshold,
			WindowDuration: cbWindow,
			ResetTimeout:   cbReset,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}

	// Validate required environment variables
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if len(cfg.PrivateKeys) == 0 {
		return fmt.Errorf("at least one valid PRIVATE_KEY_N environment variable is required")
	}
	if cfg.Run.TipCount > 0 && cfg.Run.TipUsername == "" {
		return fmt.Errorf("TIP_USERNAME is required when TIP_COUNT is greater than 0")
	}
	return nil
}
