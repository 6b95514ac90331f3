package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/teemow/replyd/internal/config"
	"github.com/teemow/replyd/internal/gmail"
	"github.com/teemow/replyd/internal/instrumentation"
	"github.com/teemow/replyd/internal/logging"
	"github.com/teemow/replyd/internal/ollama"
)

const (
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 180 * time.Second // suggestion requests wait on generation
	defaultIdleTimeout  = 60 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// Mailbox is the slice of the Gmail client the HTTP layer depends on.
type Mailbox interface {
	ListMessages(ctx context.Context, labelID, threadID string, maxResults int64) ([]string, error)
	GetMessageDetails(ctx context.Context, messageID string) (*gmail.Message, error)
	GetMultipleMessagesMetadata(ctx context.Context, messageIDs []string) map[string]*gmail.Metadata
	ArchiveMessage(ctx context.Context, messageID string) error
	TrashMessage(ctx context.Context, messageID string) error
	ModifyLabels(ctx context.Context, messageID string, addLabels, removeLabels []string) error
	SendEmail(ctx context.Context, to, subject, body, replyToID string) (string, error)
}

// Suggester produces reply suggestions for a message.
type Suggester interface {
	SuggestReplies(ctx context.Context, messageID string) ([]string, error)
}

// BackendProber reports generation-backend availability.
type BackendProber interface {
	Status(ctx context.Context) ollama.StatusInfo
}

// Server is the replyd HTTP API.
type Server struct {
	cfg       config.Config
	mailbox   Mailbox
	suggester Suggester
	prober    BackendProber
	authed    func() bool
	health    *HealthChecker
	logger    *slog.Logger
	metrics   *instrumentation.Metrics

	httpServer *http.Server
}

// NewServer assembles the HTTP API around its collaborators. authed reports
// whether a Google token is present, used by the status endpoint.
func NewServer(cfg config.Config, mailbox Mailbox, suggester Suggester, prober BackendProber, authed func() bool, logger *slog.Logger, metrics *instrumentation.Metrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if authed == nil {
		authed = func() bool { return false }
	}
	return &Server{
		cfg:       cfg,
		mailbox:   mailbox,
		suggester: suggester,
		prober:    prober,
		authed:    authed,
		health:    NewHealthChecker(),
		logger:    logging.WithService(logger, "http"),
		metrics:   metrics,
	}
}

// Health exposes the readiness toggle for the serve command.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Router builds the chi router with all API routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.recordMetrics)

	r.Route("/emails", func(r chi.Router) {
		r.Get("/", s.handleListEmails)
		r.Post("/send", s.handleSendEmail)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetEmail)
			r.Get("/suggestions", s.handleSuggestions)
			r.Post("/archive", s.handleArchive)
			r.Delete("/delete", s.handleDelete)
			r.Post("/modify", s.handleModify)
		})
	})

	r.Get("/status", s.handleStatus)
	r.Handle("/healthz", s.health.LivenessHandler())
	r.Handle("/readyz", s.health.ReadinessHandler())

	return r
}

// Start runs the API listener until the context is canceled or the listener
// fails, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Router(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", slog.String("addr", s.cfg.Server.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(shutdownCtx)
}
