package control

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"syscall"

	"newsdesk/domain"
)

var ErrAlreadyRunning = errors.New("already running")

// TryListen tries to bind the control address. If it's already in use, we assume an instance is running.
// Other bind failures (bad address, permission) surface as themselves.
func TryListen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

// Authorizer gates the manual update trigger.
type Authorizer interface {
	Authorize(r *http.Request) bool
}

// SecretKey authorizes requests carrying the shared secret in the "key"
// query parameter. An empty configured secret rejects everything; the
// scheduled trigger never passes through this gate.
type SecretKey struct{ Secret string }

func (a SecretKey) Authorize(r *http.Request) bool {
	if a.Secret == "" {
		return false
	}
	got := r.URL.Query().Get("key")
	return subtle.ConstantTimeCompare([]byte(got), []byte(a.Secret)) == 1
}

type Server struct {
	ing  domain.Ingestor
	repo domain.NewsRepository
	auth Authorizer
	log  *slog.Logger
}

func NewServer(ing domain.Ingestor, repo domain.NewsRepository, auth Authorizer, log *slog.Logger) *Server {
	return &Server{ing: ing, repo: repo, auth: auth, log: log}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/update_news":
		s.handleUpdate(w, r)
	case "/healthz":
		s.handleHealth(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	// Rejected before any fetch/parse/store work begins.
	if !s.auth.Authorize(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	report, err := s.ing.Run(r.Context())
	if err != nil {
		s.log.Error("manual ingest failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"fetched":   report.Fetched,
		"processed": report.Processed,
		"inserted":  report.Inserted,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.repo.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rows": n})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
