package web

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

// RebalanceExecutor is the retry-wrapped rebalance operation the server
// exposes.
type RebalanceExecutor interface {
	Execute(ctx context.Context, req domain.RebalanceRequest) (*domain.RebalanceResult, error)
}

type Server struct {
	router    *http.ServeMux
	server    *http.Server
	service   RebalanceExecutor
	secretKey string
	logger    *zap.Logger
}

func NewServer(port int, service RebalanceExecutor, secretKey string, logger *zap.Logger) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		service:   service,
		secretKey: secretKey,
		logger:    logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Health
	s.router.HandleFunc("GET /", s.handleHealth)

	// Rebalance
	s.router.HandleFunc("POST /executeOrder", s.requireAuth(s.handleExecuteOrder))
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
