package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mediaroll/mediaroll/constant"
	"github.com/mediaroll/mediaroll/download"
	"github.com/mediaroll/mediaroll/media"
	"github.com/mediaroll/mediaroll/stream"
)

const maxRequestBody = 1 << 20

type fetchResponse struct {
	Kind media.Kind `json:"kind"`
	URL  string     `json:"url"`
	// Stream is set when URL is a stream URI; it is the HTTP path serving it.
	Stream string `json:"stream,omitempty"`
}

type downloadRequest struct {
	URL string `json:"url"`
}

type preloadResponse struct {
	Count int `json:"count"`
}

type nextResponse struct {
	URI    string `json:"uri"`
	Stream string `json:"stream"`
}

type clearResponse struct {
	Cleared int `json:"cleared"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

type endpointRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type selectionBody struct {
	Kind     media.Kind `json:"kind,omitempty"`
	Category string     `json:"category"`
}

func pathKind(r *http.Request) (media.Kind, error) {
	return media.ParseKind(r.PathValue("kind"))
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", media.ErrInvalidInput, err)
	}
	return nil
}

// streamPath maps a stream URI onto the HTTP path that serves it.
func streamPath(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != constant.StreamScheme {
		return "", false
	}
	kind, id, ok := stream.ParseURI(u)
	if !ok {
		return "", false
	}
	return "/stream/" + kind.String() + "/" + id, true
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		fail(w, err)
		return
	}

	u, err := s.app.Fetch(r.Context(), kind)
	if err != nil {
		fail(w, err)
		return
	}

	resp := fetchResponse{Kind: kind, URL: u}
	if p, ok := streamPath(u); ok {
		resp.Stream = p
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDownload answers with the payload itself.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		fail(w, err)
		return
	}

	var req downloadRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		fail(w, fmt.Errorf("%w: url is required", media.ErrInvalidInput))
		return
	}

	payload, err := s.app.Download(r.Context(), kind, strings.TrimSpace(req.URL))
	if err != nil {
		fail(w, err)
		return
	}

	name := download.Filename(kind, uuid.NewString(), payload)

	h := w.Header()
	h.Set("Content-Type", payload.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(payload.Data)))
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload.Data)
}

func (s *Server) handlePreloadCount(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, preloadResponse{Count: s.app.PreloadCount()})
}

func (s *Server) handlePreload(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, preloadResponse{Count: s.app.Preload(r.Context())})
}

func (s *Server) handlePreloadNext(w http.ResponseWriter, r *http.Request) {
	uri, err := s.app.PopNext(r.Context())
	if err != nil {
		fail(w, err)
		return
	}

	p, _ := streamPath(uri)
	writeJSON(w, http.StatusOK, nextResponse{URI: uri, Stream: p})
}

func (s *Server) handlePreloadClear(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, clearResponse{Cleared: s.app.ClearPreload()})
}

// handleCategories lists every category, or ranks them when ?q= is given.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		fail(w, err)
		return
	}

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		writeJSON(w, http.StatusOK, s.app.FindCategories(kind, q))
		return
	}
	writeJSON(w, http.StatusOK, s.app.Categories(kind))
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		fail(w, err)
		return
	}

	var req categoryRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, err)
		return
	}

	category, err := s.app.AddCategory(kind, req.Name)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		fail(w, err)
		return
	}

	if err := s.app.DeleteCategory(kind, r.PathValue("id")); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddEndpoint(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		fail(w, err)
		return
	}

	var req endpointRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, err)
		return
	}

	endpoint, err := s.app.AddEndpoint(kind, r.PathValue("id"), req.Name, req.URL)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, endpoint)
}

func (s *Server) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		fail(w, err)
		return
	}

	if err := s.app.DeleteEndpoint(kind, r.PathValue("id")); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionBody{Kind: kind, Category: s.app.Selection(kind)})
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		fail(w, err)
		return
	}

	var req selectionBody
	if err := decode(w, r, &req); err != nil {
		fail(w, err)
		return
	}

	if err := s.app.SetSelection(kind, strings.TrimSpace(req.Category)); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionBody{Kind: kind, Category: s.app.Selection(kind)})
}
