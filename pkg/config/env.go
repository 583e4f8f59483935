package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pharos-hq/pharosbot/pkg/logger"
)

const (
	// DefaultMetricsPort defines the default port for the metrics server
	DefaultMetricsPort = "8080"

	// DefaultProxyFile defines the default path of the newline-delimited proxy list
	DefaultProxyFile = "proxies.txt"

	// DefaultDodoAPIEndpoint defines the default DODO route-service endpoint
	DefaultDodoAPIEndpoint = "https://api.dodoex.io"

	// DefaultDodoAPIKey is the public widget key sent with route-service requests
	DefaultDodoAPIKey = "a37546505892e1a952"

	// DefaultAquaFluxAPIEndpoint defines the default AquaFlux mint-service endpoint
	DefaultAquaFluxAPIEndpoint = "https://api.aquaflux.pro"

	// DefaultSwapCycles defines the default number of daily swap cycles per wallet
	DefaultSwapCycles = 1

	// DefaultLiquidityAdds defines the default number of add-liquidity transactions per wallet
	DefaultLiquidityAdds = 1

	// DefaultNFTMints defines the default number of AquaFlux mints per wallet
	DefaultNFTMints = 1

	// DefaultTipCount defines the default number of tips per wallet, 0 disables tipping
	DefaultTipCount = 0

	// DefaultCircuitBreakerEnabled defines whether the circuit breaker is enabled
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold defines the number of chain failures before the circuit trips
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow defines the time window for the circuit breaker in seconds
	DefaultCircuitBreakerWindow = 60

	// DefaultCircuitBreakerReset defines the reset timeout for the circuit breaker in seconds
	DefaultCircuitBreakerReset = 120
)

// GetEnvRPCURL returns the Pharos RPC URL from environment variables
func GetEnvRPCURL() (string, error) {
	rpcURL := os.Getenv("PHAROS_RPC_URL")
	if rpcURL == "" {
		return DefaultPharosRPCURL, nil
	}

	if _, err := url.ParseRequestURI(rpcURL); err != nil {
		return "", fmt.Errorf("invalid PHAROS_RPC_URL value: %s, must be a valid URL", rpcURL)
	}
	return rpcURL, nil
}

// GetEnvMetricsPort returns the metrics server port from environment variables
func GetEnvMetricsPort() (string, error) {
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		return DefaultMetricsPort, nil
	}

	// Validate port format
	if _, err := strconv.Atoi(metricsPort); err != nil {
		return "", fmt.Errorf("invalid METRICS_PORT value: %s, must be a valid integer", metricsPort)
	}
	return metricsPort, nil
}

// GetEnvProxyFile returns the proxy list file path from environment variables
func GetEnvProxyFile() string {
	proxyFile := os.Getenv("PROXY_FILE")
	if proxyFile == "" {
		return DefaultProxyFile
	}
	return proxyFile
}

// GetEnvDodoAPIEndpoint returns the DODO route-service endpoint from environment variables
func GetEnvDodoAPIEndpoint() (string, error) {
	endpoint := os.Getenv("DODO_API_ENDPOINT")
	if endpoint == "" {
		return DefaultDodoAPIEndpoint, nil
	}

	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return "", fmt.Errorf("invalid DODO_API_ENDPOINT value: %s, must be a valid URL", endpoint)
	}
	return endpoint, nil
}

// GetEnvDodoAPIKey returns the DODO route-service API key from environment variables
func GetEnvDodoAPIKey() string {
	apiKey := os.Getenv("DODO_API_KEY")
	if apiKey == "" {
		return DefaultDodoAPIKey
	}
	return apiKey
}

// GetEnvAquaFluxAPIEndpoint returns the AquaFlux mint-service endpoint from environment variables
func GetEnvAquaFluxAPIEndpoint() (string, error) {
	endpoint := os.Getenv("AQUAFLUX_API_ENDPOINT")
	if endpoint == "" {
		return DefaultAquaFluxAPIEndpoint, nil
	}

	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return "", fmt.Errorf("invalid AQUAFLUX_API_ENDPOINT value: %s, must be a valid URL", endpoint)
	}
	return endpoint, nil
}

// getEnvCount parses a non-negative repetition count from an environment variable
func getEnvCount(name string, def int) (int, error) {
	value := os.Getenv(name)
	if value == "" {
		return def, nil
	}

	count, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s, must be an integer", name, value)
	}
	if count < 0 {
		return 0, fmt.Errorf("%s must be greater than or equal to 0", name)
	}
	return count, nil
}

// GetEnvSwapCycles returns the number of daily swap cycles per wallet
func GetEnvSwapCycles() (int, error) {
	return getEnvCount("SWAP_CYCLES", DefaultSwapCycles)
}

// GetEnvLiquidityAdds returns the number of add-liquidity transactions per wallet
func GetEnvLiquidityAdds() (int, error) {
	return getEnvCount("LIQUIDITY_ADDS", DefaultLiquidityAdds)
}

// GetEnvNFTMints returns the number of AquaFlux mints per wallet
func GetEnvNFTMints() (int, error) {
	return getEnvCount("NFT_MINTS", DefaultNFTMints)
}

// GetEnvTipCount returns the number of tips to send from each wallet
func GetEnvTipCount() (int, error) {
	return getEnvCount("TIP_COUNT", DefaultTipCount)
}

// GetEnvTipUsername returns the X username to tip, empty disables tipping
func GetEnvTipUsername() string {
	return strings.TrimSpace(os.Getenv("TIP_USERNAME"))
}

// GetEnvCircuitBreakerEnabled returns whether the circuit breaker is enabled from environment variables
func GetEnvCircuitBreakerEnabled() (bool, error) {
	enabled := os.Getenv("CIRCUIT_BREAKER_ENABLED")
	if enabled == "" {
		return DefaultCircuitBreakerEnabled, nil
	}

	if enabled == "true" {
		return true, nil
	} else if enabled == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid CIRCUIT_BREAKER_ENABLED value: %s, must be 'true' or 'false'", enabled)
}

// GetEnvCircuitBreakerThreshold returns the circuit breaker threshold from environment variables
func GetEnvCircuitBreakerThreshold() (int, error) {
	threshold := os.Getenv("CIRCUIT_BREAKER_THRESHOLD")
	if threshold == "" {
		return DefaultCircuitBreakerThreshold, nil
	}

	thresholdInt, err := strconv.Atoi(threshold)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_THRESHOLD value: %s, must be an integer", threshold)
	}
	if thresholdInt <= 0 {
		return 0, fmt.Errorf("CIRCUIT_BREAKER_THRESHOLD must be greater than 0")
	}
	return thresholdInt, nil
}

// GetEnvCircuitBreakerWindow returns the circuit breaker window duration from environment variables
func GetEnvCircuitBreakerWindow() (time.Duration, error) {
	window := os.Getenv("CIRCUIT_BREAKER_WINDOW")
	if window == "" {
		return DefaultCircuitBreakerWindow * time.Second, nil
	}

	parsed, err := time.ParseDuration(window)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_WINDOW value: %s, must be a valid duration string", window)
	}
	return parsed, nil
}

// GetEnvCircuitBreakerReset returns the circuit breaker reset timeout from environment variables
func GetEnvCircuitBreakerReset() (time.Duration, error) {
	reset := os.Getenv("CIRCUIT_BREAKER_RESET")
	if reset == "" {
		return DefaultCircuitBreakerReset * time.Second, nil
	}

	parsed, err := time.ParseDuration(reset)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_RESET value: %s, must be a valid duration string", reset)
	}
	return parsed, nil
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level := strings.ToLower(os.Getenv("LOG_LEVEL"))
	switch level {
	case "":
		return logger.InfoLevel, nil
	case "debug":
		return logger.DebugLevel, nil
	case "info":
		return logger.InfoLevel, nil
	case "notice":
		return logger.NoticeLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	}
	return 0, fmt.Errorf("invalid LOG_LEVEL value: %s, must be 'debug', 'info', 'notice' or 'error'", level)
}

// GetEnvLogColoring returns whether log coloring is enabled from environment variables
func GetEnvLogColoring() (bool, error) {
	coloring := os.Getenv("LOG_COLORING")
	if coloring == "" {
		return true, nil
	}

	if coloring == "true" {
		return true, nil
	} else if coloring == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid LOG_COLORING value: %s, must be 'true' or 'false'", coloring)
}

// GetEnvPrivateKeys returns the ordered list of well-formed private keys from
// PRIVATE_KEY_1, PRIVATE_KEY_2, ... environment variables. Malformed entries
// are skipped with a warning and enumeration stops at the first unset slot.
func GetEnvPrivateKeys(log logger.Logger) []string {
	var keys []string
	for i := 1; ; i++ {
		pk, ok := os.LookupEnv(fmt.Sprintf("PRIVATE_KEY_%d", i))
		if !ok {
			break
		}
		if IsWellFormedKey(pk) {
			keys = append(keys, pk)
		} else {
			log.Notice("invalid PRIVATE_KEY_%d, skipping", i)
		}
	}
	return keys
}

// IsWellFormedKey reports whether s looks like a 0x-prefixed 32-byte hex key
func IsWellFormedKey(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != 66 {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
