package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vitos/perp_screener/internal/domain"
	"go.uber.org/zap"
)

// Jobs is what the HTTP layer can trigger and inspect.
type Jobs interface {
	RunScreen(ctx context.Context) (string, error)
	RunPnLUpdate(ctx context.Context) (string, error)
	RunSwingScreen(ctx context.Context) (string, error)
	RunSwingPnLUpdate(ctx context.Context) (string, error)
	Assess(ctx context.Context, symbol string) domain.SymbolAssessment
}

type PositionReader interface {
	Positions(ctx context.Context) ([]domain.Position, error)
}

type Server struct {
	router  chi.Router
	server  *http.Server
	jobs    Jobs
	primary PositionReader
	swing   PositionReader
	history domain.PositionArchiver
	logger  *zap.Logger
	started time.Time
}

// NewServer wires the trigger and ledger routes. history may be nil when the
// ledger store keeps no archive.
func NewServer(
	port int,
	jobs Jobs,
	primary PositionReader,
	swing PositionReader,
	history domain.PositionArchiver,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		jobs:    jobs,
		primary: primary,
		swing:   swing,
		history: history,
		logger:  logger,
		started: time.Now(),
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)

	// Triggers
	s.router.Route("/run", func(r chi.Router) {
		r.HandleFunc("/screen", s.trigger("screen", s.jobs.RunScreen))
		r.HandleFunc("/pnl", s.trigger("pnl", s.jobs.RunPnLUpdate))
		r.HandleFunc("/swing", s.trigger("swing", s.jobs.RunSwingScreen))
		r.HandleFunc("/swing-pnl", s.trigger("swing-pnl", s.jobs.RunSwingPnLUpdate))
	})

	// Ledgers
	s.router.Get("/positions", s.handlePositions(domain.LedgerPrimary, s.primary))
	s.router.Get("/positions/swing", s.handlePositions(domain.LedgerSwing, s.swing))
	s.router.Get("/history", s.handleHistory)
	s.router.Get("/history/stats", s.handleHistoryStats)

	s.router.Get("/assess/{symbol}", s.handleAssess)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
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

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
