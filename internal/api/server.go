package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcampedelli/riposte/internal/logging"
	"github.com/lcampedelli/riposte/internal/runtime"
	"github.com/lcampedelli/riposte/pkg/domain"
)

// Server exposes a runner over HTTP. Facts pushed to it behave exactly like
// facts observed by the polling loop: rules fire, guarded transitions are
// followed and the machine is persisted through the runner.
type Server struct {
	runner   *runtime.Runner
	logger   *slog.Logger
	registry *prometheus.Registry
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRegistry exposes the given registry on GET /metrics.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// NewServer creates an HTTP server around the runner.
func NewServer(runner *runtime.Runner, opts ...Option) *Server {
	s := &Server{
		runner: runner,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/machine", s.handleMachine)
	r.Post("/facts", s.handleFacts)
	r.Post("/transition", s.handleTransition)
	r.Post("/reset", s.handleReset)

	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	s.runner.Read(func(m *domain.Machine) {
		body = map[string]any{
			"status":  "ok",
			"machine": m.Name,
			"state":   m.CurrentState().Name,
			"version": m.Version,
		}
	})
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleMachine(w http.ResponseWriter, r *http.Request) {
	var snap domain.MachineSnapshot
	s.runner.Read(func(m *domain.Machine) {
		snap = m.Snapshot()
	})
	s.writeJSON(w, http.StatusOK, snap)
}

// triggeredRule is the wire form of a rule that fired during a pass.
type triggeredRule struct {
	Rule     string `json:"rule"`
	Action   string `json:"action"`
	Priority int    `json:"priority"`
}

type factsResponse struct {
	Triggered []triggeredRule `json:"triggered"`
	State     string          `json:"state"`
	Version   uint64          `json:"version"`
}

func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	var facts domain.Facts
	if err := json.NewDecoder(r.Body).Decode(&facts); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.logger.Warn("facts: invalid request body", "error", err)
		return
	}

	triggered, err := s.runner.EvaluateOnce(r.Context(), facts)
	if err != nil {
		http.Error(w, fmt.Sprintf("evaluation error: %v", err), http.StatusInternalServerError)
		s.logger.Error("evaluation failed", "error", err)
		return
	}

	resp := factsResponse{Triggered: make([]triggeredRule, 0, len(triggered))}
	for _, rule := range triggered {
		resp.Triggered = append(resp.Triggered, triggeredRule{
			Rule:     rule.Name,
			Action:   rule.Action,
			Priority: rule.Priority,
		})
	}
	s.runner.Read(func(m *domain.Machine) {
		resp.State = m.CurrentState().Name
		resp.Version = m.Version
	})
	s.writeJSON(w, http.StatusOK, resp)
}

type transitionRequest struct {
	To          string `json:"to"`
	Description string `json:"description"`
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var body transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.logger.Warn("transition: invalid request body", "error", err)
		return
	}
	if body.To == "" {
		http.Error(w, "missing target state", http.StatusBadRequest)
		return
	}

	var state string
	var version uint64
	err := s.runner.Apply(r.Context(), func(m *domain.Machine) error {
		target := body.To
		if st := m.StateByName(body.To); st != nil {
			target = st.ID
		}
		if err := m.TransitionTo(target, body.Description); err != nil {
			return err
		}
		state = m.CurrentState().Name
		version = m.Version
		return nil
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"state":   state,
		"version": version,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var state string
	var version uint64
	err := s.runner.Apply(r.Context(), func(m *domain.Machine) error {
		m.Reset()
		state = m.CurrentState().Name
		version = m.Version
		return nil
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"state":   state,
		"version": version,
	})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidationError(err):
		status = http.StatusBadRequest
	case domain.IsBusinessRuleError(err):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
