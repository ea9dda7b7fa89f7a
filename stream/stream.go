// Package stream serves media bytes with HTTP byte-range semantics.
//
// A request names a kind and an item id. Each kind has its own playing slot:
// the video slot holds the item taken from the preload queue, the image slot
// holds the last image that arrived inline. When the id matches the slot of
// its kind, the bytes come from memory. Otherwise the request is relayed to
// the last URL resolved for that kind, Range header included.
package stream

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/mediaroll/mediaroll/constant"
	"github.com/mediaroll/mediaroll/log"
	"github.com/mediaroll/mediaroll/media"
	"github.com/mediaroll/mediaroll/network"
)

// Path labels used when reporting served requests.
const (
	PathLocal = "local"
	PathProxy = "proxy"
)

// Observer is told about every served request.
type Observer interface {
	StreamServed(path string, status int)
}

// Server is an http.Handler expecting paths of the form /{kind}/{id}.
type Server struct {
	client   *network.Client
	observer Observer

	playMu  sync.RWMutex
	playing map[media.Kind]*media.Item

	urlMu   sync.RWMutex
	lastURL map[media.Kind]string
}

// New returns a Server relaying fallback requests through client.
// observer may be nil.
func New(client *network.Client, observer Observer) *Server {
	return &Server{
		client:   client,
		observer: observer,
		playing:  make(map[media.Kind]*media.Item),
		lastURL:  make(map[media.Kind]string),
	}
}

// Promote makes item the one of its kind served from memory, releasing the
// previous item of that kind. Other kinds are untouched.
func (s *Server) Promote(item *media.Item) {
	s.playMu.Lock()
	s.playing[item.Kind] = item
	s.playMu.Unlock()
}

// Demote releases the playing item of kind.
func (s *Server) Demote(kind media.Kind) {
	s.playMu.Lock()
	delete(s.playing, kind)
	s.playMu.Unlock()
}

// Playing returns the item of kind served from memory, if any.
func (s *Server) Playing(kind media.Kind) (*media.Item, bool) {
	s.playMu.RLock()
	defer s.playMu.RUnlock()

	item, ok := s.playing[kind]
	return item, ok
}

// SetLastURL records the most recently resolved URL for kind. Concurrent
// callers race and the last writer wins; kinds never share state.
func (s *Server) SetLastURL(kind media.Kind, u string) {
	s.urlMu.Lock()
	s.lastURL[kind] = u
	s.urlMu.Unlock()
}

// LastURL returns the most recently resolved URL for kind.
func (s *Server) LastURL(kind media.Kind) (string, bool) {
	s.urlMu.RLock()
	defer s.urlMu.RUnlock()

	u, ok := s.lastURL[kind]
	return u, ok && u != ""
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	kind, id, ok := ParseURI(r.URL)
	if !ok {
		s.done(PathProxy, http.StatusNotFound)
		http.NotFound(w, r)
		return
	}

	if item, ok := s.Playing(kind); ok && item.ID == id {
		s.serveLocal(w, r, item)
		return
	}

	s.serveProxy(w, r, kind)
}

func (s *Server) serveLocal(w http.ResponseWriter, r *http.Request, item *media.Item) {
	data := item.Data
	total := len(data)

	contentType := item.ContentType
	if contentType == "" {
		contentType = item.Kind.DefaultContentType()
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Accept-Ranges", "bytes")

	status := http.StatusOK
	if start, end, ok := ParseRange(r.Header.Get("Range"), total); ok {
		data = data[start : end+1]
		status = http.StatusPartialContent
		h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, total))
	}

	h.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	s.done(PathLocal, status)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		log.WithFields(log.Fields{"id": item.ID, "error": err}).Debug("local stream interrupted")
	}
}

func (s *Server) serveProxy(w http.ResponseWriter, r *http.Request, kind media.Kind) {
	target, ok := s.LastURL(kind)
	if !ok {
		s.done(PathProxy, http.StatusNotFound)
		http.NotFound(w, r)
		return
	}

	header := make(http.Header)
	if rng := r.Header.Get("Range"); rng != "" {
		header.Set("Range", rng)
	}

	resp, err := s.client.Get(r.Context(), target, header)
	if err != nil {
		log.WithFields(log.Fields{"target": target, "error": err}).Warn("proxy request failed")
		s.done(PathProxy, http.StatusInternalServerError)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = kind.DefaultContentType()
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Accept-Ranges", "bytes")
	for _, name := range []string{"Content-Range", "Content-Length"} {
		if v := resp.Header.Get(name); v != "" {
			h.Set(name, v)
		}
	}

	w.WriteHeader(resp.StatusCode)
	s.done(PathProxy, resp.StatusCode)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.WithFields(log.Fields{"target": target, "error": err}).Debug("proxy stream interrupted")
	}
}

func (s *Server) done(path string, status int) {
	if s.observer != nil {
		s.observer.StreamServed(path, status)
	}
}

// ParseRange parses "bytes=start[-end]" against a body of total bytes.
// An empty or non-numeric end means the last byte. The header is rejected
// when the prefix is missing, start is not a number, start > end or
// end >= total.
func ParseRange(header string, total int) (start, end int, ok bool) {
	spec, found := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !found {
		return 0, 0, false
	}

	first, rest, _ := strings.Cut(spec, "-")
	s, err := strconv.ParseUint(first, 10, 63)
	if err != nil {
		return 0, 0, false
	}
	start = int(s)

	end = total - 1
	if rest != "" {
		if e, err := strconv.ParseUint(rest, 10, 63); err == nil {
			end = int(e)
		}
	}

	if start > end || end >= total {
		return 0, 0, false
	}
	return start, end, true
}

// ParseURI extracts the kind and id from stream:///video/{id}, the legacy
// stream://video/{id}, or a plain request path /video/{id}.
func ParseURI(u *url.URL) (kind media.Kind, id string, ok bool) {
	p := u.Path
	if u.Host != "" {
		if k, err := media.ParseKind(u.Host); err == nil {
			id = strings.TrimPrefix(p, "/")
			return k, id, id != "" && !strings.Contains(id, "/")
		}
		return "", "", false
	}

	head, id, found := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	if !found || id == "" || strings.Contains(id, "/") {
		return "", "", false
	}

	k, err := media.ParseKind(head)
	if err != nil {
		return "", "", false
	}
	return k, id, true
}

// URI returns the canonical stream URI for an item.
func URI(kind media.Kind, id string) string {
	return fmt.Sprintf("%s:///%s/%s", constant.StreamScheme, kind, id)
}
