// Package api exposes the admin HTTP surface: health, a manual job
// trigger, a solutions search proxy and a mail test endpoint. These are
// thin adapters over the monitoring core, never core behavior.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AndreaCasaluci/train-scraper/internal/monitor"
	"github.com/AndreaCasaluci/train-scraper/internal/trenitalia"
	logx "github.com/AndreaCasaluci/train-scraper/pkg/logx"
)

const DefaultAddr = "127.0.0.1:8080"

type Config struct {
	Enabled bool
	Addr    string
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Dispatcher *monitor.Dispatcher
	Search     monitor.Searcher
	Mail       monitor.MailSender
	SeenLen    func() int
}

type Server struct {
	cfg  Config
	deps Deps
	log  logx.Logger
	srv  *http.Server
}

func New(cfg Config, deps Deps, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{cfg: cfg, deps: deps, log: log}
}

// Start runs the server until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Post("/api/run", s.handleRun)
	r.Post("/api/solutions", s.handleSolutions)
	r.Get("/api/mail/test", s.handleMailTest)

	s.srv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin api listening", logx.String("addr", s.cfg.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"running": s.deps.Dispatcher.Running(),
		"history": s.deps.Dispatcher.History(),
	}
	if s.deps.SeenLen != nil {
		resp["cache_entries"] = s.deps.SeenLen()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Dispatcher.Run(r.Context())
	switch {
	case errors.Is(err, monitor.ErrRunInProgress):
		writeError(w, http.StatusConflict, "run already in progress")
	case errors.Is(err, monitor.ErrConfigIncomplete):
		writeError(w, http.StatusUnprocessableEntity, "missing configuration data")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleSolutions(w http.ResponseWriter, r *http.Request) {
	var req trenitalia.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.deps.Search.Search(r.Context(), req)
	if err != nil {
		var apiErr *trenitalia.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusBadGateway, apiErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMailTest(w http.ResponseWriter, r *http.Request) {
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if to == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'to' is required")
		return
	}
	if err := s.deps.Mail.Send(r.Context(), to, "Test Email", "This is a test email", ""); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
