package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/serbi2012/time-manager/internal/rpc"
)

// Dispatcher executes one wire method.
type Dispatcher interface {
	Handle(ctx context.Context, method string, params json.RawMessage) (any, error)
}

// Server wires HTTP handlers.
type Server struct {
	dispatch Dispatcher
	logger   *slog.Logger
}

// NewServer creates the HTTP router. All methods go through a single
// JSON-RPC endpoint; /health answers liveness probes.
func NewServer(dispatch Dispatcher, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	srv := &Server{dispatch: dispatch, logger: logger}

	r.Post("/rpc", srv.handleRPC)
	r.Get("/health", srv.handleHealth)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	result, err := s.dispatch.Handle(r.Context(), req.Method, req.Params)
	if err != nil {
		switch {
		case errors.Is(err, rpc.ErrMethodNotFound):
			WriteError(w, req.ID, ErrMethodNotFound, err.Error(), nil)
		case errors.Is(err, rpc.ErrInvalidParams):
			WriteError(w, req.ID, ErrInvalidParams, err.Error(), nil)
		default:
			s.logger.Error("method failed", "method", req.Method, "error", err)
			WriteError(w, req.ID, ErrInternal, err.Error(), nil)
		}
		return
	}

	WriteResult(w, req.ID, result)
}
