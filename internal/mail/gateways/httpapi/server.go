package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	logpkg "github.com/mailscreen/mailscreen/internal/mail/common/log"
	"github.com/mailscreen/mailscreen/internal/mail/domain"
)

const shutdownTimeout = 10 * time.Second

// ValidationService is the service surface the API exposes.
// Implemented by the validator service.
type ValidationService interface {
	ValidateWithDetails(ctx context.Context, email string, checkMX bool) domain.ValidationResult
	ValidateMany(ctx context.Context, emails []string, checkMX bool) map[string]domain.ValidationResult
	Statistics(ctx context.Context, emails []string, checkMX bool) domain.Stats
	SuggestDomain(dom string) (string, bool)
}

// Server exposes validation over HTTP. It owns socket lifecycle and JSON
// encoding; all decisions are delegated to the service layer.
type Server struct {
	addr   string
	svc    ValidationService
	logger logpkg.Logger

	mu      sync.Mutex
	running bool
	srv     *http.Server
}

// NewServer creates an HTTP API server bound to addr.
func NewServer(addr string, svc ValidationService, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	return &Server{addr: addr, svc: svc, logger: logger}
}

// Router builds the route table. Exposed for handler tests.
func (s *Server) Router() http.Handler {
	router := httprouter.New()
	router.GET("/healthz", s.handleHealth)
	router.GET("/v1/validate/:email", s.handleValidateOne)
	router.POST("/v1/validate", s.handleValidateBatch)
	return router
}

// Start begins serving requests. It returns once the listener is active;
// serve errors other than a clean shutdown are logged.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("http api already running")
	}

	s.srv = &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}
	s.running = true

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(map[string]any{"error": err.Error()}, "http api serve failed")
		}
	}()

	s.logger.Info(map[string]any{"address": s.addr}, "http api started")
	return nil
}

// Stop gracefully shuts the server down, bounded by the shutdown timeout.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	s.logger.Info(map[string]any{"address": s.addr}, "http api stopped")
	return err
}

// Address returns the configured listen address.
func (s *Server) Address() string { return s.addr }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// singleResponse wraps a ValidationResult with an optional typo suggestion.
type singleResponse struct {
	domain.ValidationResult
	Suggestion string `json:"suggestion,omitempty"`
}

func (s *Server) handleValidateOne(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := ps.ByName("email")
	checkMX := parseBoolParam(r, "mx")

	res := s.svc.ValidateWithDetails(r.Context(), email, checkMX)
	out := singleResponse{ValidationResult: res}
	if !res.Valid && res.Domain != "" {
		if suggestion, ok := s.svc.SuggestDomain(res.Domain); ok {
			out.Suggestion = suggestion
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// batchRequest is the POST /v1/validate body.
type batchRequest struct {
	Emails  []string `json:"emails"`
	CheckMX bool     `json:"check_mx"`
}

// batchResponse carries per-address results plus aggregate counts.
type batchResponse struct {
	Results map[string]domain.ValidationResult `json:"results"`
	Stats   domain.Stats                       `json:"stats"`
}

func (s *Server) handleValidateBatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Emails) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "emails must not be empty"})
		return
	}

	resp := batchResponse{
		Results: s.svc.ValidateMany(r.Context(), req.Emails, req.CheckMX),
		Stats:   s.svc.Statistics(r.Context(), req.Emails, req.CheckMX),
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseBoolParam(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
