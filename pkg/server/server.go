package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Layr-Labs/multisig-account-go/pkg/account"
	"github.com/Layr-Labs/multisig-account-go/pkg/persistence"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

/*
Server exposes one account over HTTP.

Read endpoints run as discarded calls against committed state:
  GET  /owners                owners and threshold
  GET  /modules               enabled modules
  GET  /nonce                 current transaction nonce
  POST /messages/hash         digest owners sign for a raw message
  POST /transactions/hash     digest owners sign for a transaction
  POST /signatures/validate   EIP-1271 check in the bytes or bytes32 form
  POST /simulate              isolated simulation; never changes state

State-changing endpoints are single atomic host transactions:
  POST /transactions/execute  execTransaction with a packed signature blob
  POST /hashes/approve        approveHash on behalf of an owner (dev mode only)

  GET  /health                store health check
*/

// Config configures the HTTP layer
type Config struct {
	Port int

	// RateLimit is requests per second across all clients; 0 disables it
	RateLimit float64
	RateBurst int

	DevMode bool
}

// Server handles HTTP requests for an account
type Server struct {
	caller     *account.Caller
	store      persistence.IStateStore
	logger     *zap.Logger
	devMode    bool
	httpServer *http.Server
}

// NewServer creates a server for the account behind caller
func NewServer(cfg *Config, caller *account.Caller, store persistence.IStateStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		caller:  caller,
		store:   store,
		logger:  logger,
		devMode: cfg.DevMode,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/owners", s.handleGetOwners)
	mux.HandleFunc("/modules", s.handleGetModules)
	mux.HandleFunc("/nonce", s.handleGetNonce)
	mux.HandleFunc("/messages/hash", s.handleMessageHash)
	mux.HandleFunc("/transactions/hash", s.handleTransactionHash)
	mux.HandleFunc("/transactions/execute", s.handleExecuteTransaction)
	mux.HandleFunc("/signatures/validate", s.handleValidateSignature)
	mux.HandleFunc("/simulate", s.handleSimulate)
	mux.HandleFunc("/hashes/approve", s.handleApproveHash)
	mux.HandleFunc("/health", s.handleHealth)

	var handler http.Handler = mux
	if cfg.RateLimit > 0 {
		handler = rateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst), handler)
	}
	handler = requestID(logger, handler)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}
	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server", "account", s.caller.Address().Hex(), "port", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "account", s.caller.Address().Hex(), "error", err)
		}
	}()
	return nil
}

// Stop drains in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
