package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ppiankov/safelink/internal/community"
	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/pipeline"
	"github.com/ppiankov/safelink/internal/rank"
	"github.com/ppiankov/safelink/internal/store"
)

type scanRequest struct {
	URL      string `json:"url"`
	SkipGate bool   `json:"skipGate,omitempty"`
	Check    bool   `json:"check,omitempty"`
}

func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.pipeline.Scan(r.Context(), req.URL, pipeline.Options{
		SkipGate:   req.SkipGate,
		ForceCheck: req.Check,
		PublicOnly: true,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	if s.community == nil {
		writeError(w, store.ErrNotFound)
		return
	}
	result, err := s.community.Result(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("viewer"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) recheck(w http.ResponseWriter, r *http.Request) {
	result, err := s.pipeline.Recheck(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	results := []model.ScanResult{}
	if s.community != nil {
		var err error
		q := r.URL.Query()
		results, err = s.community.History(r.Context(), rank.ParseView(q.Get("view")), q.Get("viewer"))
		if err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) getLink(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("url")) == "" {
		writeError(w, fmt.Errorf("%w: url query parameter is required", pipeline.ErrInvalidInput))
		return
	}
	if s.community == nil {
		writeError(w, store.ErrNotFound)
		return
	}

	link, err := s.community.Link(r.Context(), q.Get("url"), q.Get("viewer"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

type reactRequest struct {
	URL      string         `json:"url"`
	ViewerID string         `json:"viewerId"`
	Reaction model.Reaction `json:"reaction"`
}

func (s *Server) react(w http.ResponseWriter, r *http.Request) {
	var req reactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if s.community == nil {
		writeError(w, store.ErrNotFound)
		return
	}

	link, err := s.community.React(r.Context(), req.URL, req.ViewerID, req.Reaction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

type commentRequest struct {
	URL    string   `json:"url"`
	UserID string   `json:"userId"`
	Text   string   `json:"text"`
	Images []string `json:"images,omitempty"`
}

func (s *Server) comment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if s.community == nil {
		writeError(w, store.ErrNotFound)
		return
	}

	c, err := s.community.AddComment(r.Context(), req.URL, community.NewComment{
		UserID: req.UserID,
		Text:   req.Text,
		Images: req.Images,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// stream sends the link's state, then every change, as server-sent events
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawURL, viewer := q.Get("url"), q.Get("viewer")
	if strings.TrimSpace(rawURL) == "" {
		writeError(w, fmt.Errorf("%w: url query parameter is required", pipeline.ErrInvalidInput))
		return
	}
	if s.community == nil {
		writeError(w, store.ErrNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	ctx := r.Context()
	updates, err := s.community.Watch(ctx, rawURL, viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	initial, err := s.community.Link(ctx, rawURL, viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, initial); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case link, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, link); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, link community.Link) error {
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: link\ndata: %s\n\n", data)
	return err
}
