// Package api serves scanning, history and community state over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ppiankov/safelink/internal/attach"
	"github.com/ppiankov/safelink/internal/community"
	"github.com/ppiankov/safelink/internal/pipeline"
	"github.com/ppiankov/safelink/internal/reconcile"
	"github.com/ppiankov/safelink/internal/store"
)

// maxBodyBytes covers a comment with the maximum number of inline images
const maxBodyBytes = 4 << 20

// Server exposes a Pipeline and its community service
type Server struct {
	pipeline  *pipeline.Pipeline
	community *community.Service
	logOut    io.Writer

	// keepAlive is the interval between stream heartbeats
	keepAlive time.Duration
}

// New creates a server. Request logs go to logOut (stderr when nil).
func New(p *pipeline.Pipeline, logOut io.Writer) *Server {
	if logOut == nil {
		logOut = os.Stderr
	}
	return &Server{
		pipeline:  p,
		community: p.Community(),
		logOut:    logOut,
		keepAlive: 15 * time.Second,
	}
}

// Routes returns the router for every endpoint
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(s.logOut, "", log.LstdFlags),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Get("/healthz", s.healthz)
	r.Post("/scan", s.scan)

	r.Route("/results/{id}", func(r chi.Router) {
		r.Get("/", s.getResult)
		r.Post("/recheck", s.recheck)
	})
	r.Get("/history", s.history)

	r.Route("/links", func(r chi.Router) {
		r.Get("/", s.getLink)
		r.Post("/react", s.react)
		r.Post("/comments", s.comment)
		r.Get("/stream", s.stream)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput),
		errors.Is(err, community.ErrEmptyComment),
		errors.Is(err, community.ErrLongComment),
		errors.Is(err, community.ErrMissingViewer),
		errors.Is(err, community.ErrBadReaction),
		errors.Is(err, attach.ErrMalformed),
		errors.Is(err, attach.ErrTooMany),
		errors.Is(err, attach.ErrTooLarge),
		errors.Is(err, attach.ErrUnsupportedType):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, reconcile.ErrSuppressed):
		status = http.StatusConflict
	case errors.Is(err, pipeline.ErrUnreachable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrNoProvider):
		status = http.StatusNotImplemented
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
