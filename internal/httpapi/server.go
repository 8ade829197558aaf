// Package httpapi is the HTTP front end for a single ignite store: one
// *ignite.Instance per process, shared across every request. It does not
// attempt any serialization beyond what the engine itself already does —
// concurrent requests rely on Go's default net/http per-request goroutines
// landing on the engine's own internal mutex.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ignitedb/ignitedb/pkg/errors"
	"github.com/ignitedb/ignitedb/pkg/ignite"
)

// Server exposes PUT/GET/DELETE /keys/{key} over a single store instance.
type Server struct {
	store *ignite.Instance
	log   *zap.SugaredLogger
}

// New builds the router, wrapping every handler with request-id logging
// middleware.
func New(store *ignite.Instance, log *zap.SugaredLogger) *http.Server {
	s := &Server{store: store, log: log}

	r := mux.NewRouter()
	r.Use(s.requestID)
	r.HandleFunc("/keys/{key}", s.handlePut).Methods(http.MethodPut)
	r.HandleFunc("/keys/{key}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/keys/{key}", s.handleDelete).Methods(http.MethodDelete)

	return &http.Server{Handler: r}
}

// requestID tags every request with a uuid and logs its arrival, so
// individual requests can be correlated across a server's log lines. Only
// failed requests log again, from writeError.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)

		log := s.log.With("requestId", id, "method", r.Method, "path", r.URL.Path)
		log.Infow("request received")
		next.ServeHTTP(w, r.WithContext(withLogger(r.Context(), log)))
	})
}

type setRequest struct {
	Value []byte `json:"value"`
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := s.store.Set(r.Context(), key, req.Value); err != nil {
		writeError(w, loggerFrom(r.Context(), s.log), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	value, err := s.store.Get(r.Context(), key)
	if err != nil {
		writeError(w, loggerFrom(r.Context(), s.log), err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(setRequest{Value: value})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	if err := s.store.Remove(r.Context(), key); err != nil {
		writeError(w, loggerFrom(r.Context(), s.log), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeError maps a store error's kind onto an HTTP status and logs it with
// the request's correlation id.
func writeError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	code := errors.GetErrorCode(err)
	log.Warnw("request failed", "error", err, "errorCode", code)

	status := http.StatusInternalServerError
	if code == errors.ErrorCodeKeyNotFound {
		status = http.StatusNotFound
	}

	http.Error(w, err.Error(), status)
}
