package health

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pharos-hq/pharosbot/pkg/chainclient"
	"github.com/pharos-hq/pharosbot/pkg/config"
	"github.com/pharos-hq/pharosbot/pkg/circuitbreaker"
	"github.com/pharos-hq/pharosbot/pkg/logger"
)

// Server represents a health check HTTP server
type Server struct {
	port          string
	chain         *chainclient.Client
	breaker       *circuitbreaker.CircuitBreaker
	wallets       []common.Address
	metricsAPIKey string
	logger        logger.Logger
}

// NewServer creates a new health check server
func NewServer(port string, chain *chainclient.Client, breaker *circuitbreaker.CircuitBreaker, wallets []common.Address, log logger.Logger) *Server {
	return &Server{
		port:          port,
		chain:         chain,
		breaker:       breaker,
		wallets:       wallets,
		metricsAPIKey: os.Getenv("METRICS_API_KEY"),
		logger:        log,
	}
}

// metricsAuthMiddleware is a middleware that checks for a valid API key
func (s *Server) metricsAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if no API key is configured
		if s.metricsAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Get API key from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		// Check if the header has the correct format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		// Validate API key
		if parts[1] != s.metricsAPIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler builds the server's route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness check probes the RPC connection
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if s.chain == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Chain client not connected"))
			return
		}
		if _, err := s.chain.LatestBlockNumber(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("RPC probe failed"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ready"))
	})

	// Service status endpoint
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		circuitStatus := "closed"
		if s.breaker != nil && s.breaker.IsOpen() {
			circuitStatus = "open"
		}

		status := map[string]interface{}{
			"network": config.PharosNetworkName,
			"wallets": len(s.wallets),
			"circuit": circuitStatus,
		}

		if s.chain != nil {
			status["rpc_url"] = s.chain.RPCURL()
			status["chain_id"] = s.chain.ChainID().Int64()
			if blockNumber, err := s.chain.LatestBlockNumber(r.Context()); err == nil {
				status["latest_block"] = blockNumber
			}

			balances := make(map[string]string, len(s.wallets))
			for _, addr := range s.wallets {
				balance, err := s.chain.NativeBalance(r.Context(), addr)
				if err != nil {
					s.logger.Error("error reading balance of %s: %v", addr.Hex(), err)
					continue
				}
				balances[addr.Hex()] = balance.String()
			}
			status["balances"] = balances
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			s.logger.Error("error encoding status JSON: %v", err)
		}
	})

	// Circuit breaker admin control endpoint
	mux.HandleFunc("/circuit/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if s.breaker == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("No circuit breaker configured"))
			return
		}
		s.breaker.Reset()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Circuit breaker reset"))
	})

	// Expose Prometheus metrics with API key authentication
	mux.Handle("/metrics", s.metricsAuthMiddleware(promhttp.Handler()))

	return mux
}

// Start starts the health check server
func (s *Server) Start() {
	s.logger.Info("starting health and metrics server on port %s", s.port)
	if err := http.ListenAndServe(":"+s.port, s.Handler()); err != nil {
		s.logger.Error("health server error: %v", err)
	}
}
