package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mediaroll/mediaroll/app"
	"github.com/mediaroll/mediaroll/catalog"
	"github.com/mediaroll/mediaroll/events"
	"github.com/mediaroll/mediaroll/filesystem"
	"github.com/mediaroll/mediaroll/media"
	"github.com/mediaroll/mediaroll/network"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

var seq atomic.Int64

func newUpstream() *httptest.Server {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/video-api", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"code":200,"data":"%s/clip.mp4"}`, srv.URL)
	})
	mux.HandleFunc("/broken-api", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":403,"msg":"denied"}`)
	})
	mux.HandleFunc("/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = io.WriteString(w, "0123456789")
	})
	srv = httptest.NewServer(mux)
	return srv
}

func newServer() (*Server, *app.App) {
	client := network.Options{Timeout: 5 * time.Second, ConnectTimeout: time.Second}
	a := lo.Must(app.New(app.Options{
		Resolve:         client,
		Download:        client,
		Proxy:           client,
		VideoLimit:      1 << 20,
		ImageLimit:      1 << 20,
		PreloadCapacity: 2,
		Metrics:         true,
		Events:          true,
		Store:           catalog.NewGacheStore(fmt.Sprintf("/server/catalog-%d.json", seq.Add(1))),
	}))
	return New(a, Options{Host: "127.0.0.1", Port: 0, CORSOrigin: "*"}), a
}

func do(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(lo.Must(json.Marshal(body)))
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](rec *httptest.ResponseRecorder) T {
	var v T
	lo.Must0(json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// selectEndpoint creates a custom category holding one endpoint and selects it.
func selectEndpoint(h http.Handler, kind, endpointURL string) (categoryID, endpointID string) {
	rec := do(h, http.MethodPost, "/api/"+kind+"/categories", map[string]string{"name": "test"})
	So(rec.Code, ShouldEqual, http.StatusCreated)
	category := decodeBody[media.Category](rec)

	rec = do(h, http.MethodPost, "/api/"+kind+"/categories/"+category.ID+"/endpoints", map[string]string{"name": "ep", "url": endpointURL})
	So(rec.Code, ShouldEqual, http.StatusCreated)
	endpoint := decodeBody[media.Endpoint](rec)

	rec = do(h, http.MethodPut, "/api/"+kind+"/selection", map[string]string{"category": category.ID})
	So(rec.Code, ShouldEqual, http.StatusOK)

	return category.ID, endpoint.ID
}

func TestCatalogRoutes(t *testing.T) {
	Convey("Given a server", t, func() {
		s, a := newServer()
		defer a.Close()
		h := s.Handler()

		Convey("categories are listed per kind", func() {
			rec := do(h, http.MethodGet, "/api/video/categories", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			categories := decodeBody[[]media.Category](rec)
			So(categories[0].ID, ShouldEqual, "taozi")
		})

		Convey("an unknown kind is a bad request", func() {
			rec := do(h, http.MethodGet, "/api/audio/categories", nil)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeBody[errorBody](rec).Error, ShouldContainSubstring, "unknown media kind")
		})

		Convey("selection starts as random", func() {
			rec := do(h, http.MethodGet, "/api/image/selection", nil)
			So(decodeBody[selectionBody](rec), ShouldResemble, selectionBody{Kind: media.Image, Category: media.RandomCategory})
		})

		Convey("deleting the last custom endpoint resets the selection", func() {
			categoryID, endpointID := selectEndpoint(h, "video", "https://v.example/api")
			So(a.Selection(media.Video), ShouldEqual, categoryID)

			rec := do(h, http.MethodDelete, "/api/video/endpoints/"+endpointID, nil)
			So(rec.Code, ShouldEqual, http.StatusNoContent)

			rec = do(h, http.MethodGet, "/api/video/selection", nil)
			So(decodeBody[selectionBody](rec).Category, ShouldEqual, media.RandomCategory)
		})

		Convey("builtin categories cannot be deleted", func() {
			So(do(h, http.MethodDelete, "/api/video/categories/taozi", nil).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("unknown ids are not found", func() {
			So(do(h, http.MethodDelete, "/api/video/categories/custom_cat_1", nil).Code, ShouldEqual, http.StatusNotFound)
			So(do(h, http.MethodPut, "/api/video/selection", map[string]string{"category": "nope"}).Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("malformed bodies are bad requests", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/video/categories", strings.NewReader("{"))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("categories can be searched", func() {
			do(h, http.MethodPost, "/api/video/categories", map[string]string{"name": "Sunsets"})
			rec := do(h, http.MethodGet, "/api/video/categories?q=sunst", nil)
			found := decodeBody[[]media.Category](rec)
			So(found, ShouldNotBeEmpty)
			So(found[0].Name, ShouldEqual, "Sunsets")
		})
	})
}

func TestMediaRoutes(t *testing.T) {
	upstream := newUpstream()
	defer upstream.Close()

	Convey("Given a server", t, func() {
		s, a := newServer()
		defer a.Close()
		h := s.Handler()

		Convey("fetch returns the resolved URL", func() {
			selectEndpoint(h, "video", upstream.URL+"/video-api")

			rec := do(h, http.MethodGet, "/api/video/fetch", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decodeBody[fetchResponse](rec).URL, ShouldEqual, upstream.URL+"/clip.mp4")
		})

		Convey("an empty category is a conflict", func() {
			rec := do(h, http.MethodPost, "/api/video/categories", map[string]string{"name": "empty"})
			category := decodeBody[media.Category](rec)
			do(h, http.MethodPut, "/api/video/selection", map[string]string{"category": category.ID})

			So(do(h, http.MethodGet, "/api/video/fetch", nil).Code, ShouldEqual, http.StatusConflict)
		})

		Convey("upstream failures are bad gateways", func() {
			selectEndpoint(h, "video", upstream.URL+"/broken-api")

			rec := do(h, http.MethodGet, "/api/video/fetch", nil)
			So(rec.Code, ShouldEqual, http.StatusBadGateway)
			So(decodeBody[errorBody](rec).Error, ShouldContainSubstring, "denied")
		})

		Convey("download answers with the payload", func() {
			rec := do(h, http.MethodPost, "/api/video/download", map[string]string{"url": upstream.URL + "/clip.mp4"})
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "0123456789")
			So(rec.Header().Get("Content-Disposition"), ShouldContainSubstring, ".mp4")
		})

		Convey("download requires a url", func() {
			So(do(h, http.MethodPost, "/api/video/download", map[string]string{}).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("popping an empty queue is not found", func() {
			So(do(h, http.MethodPost, "/api/preload/next", nil).Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("a preloaded item is served through the stream route", func() {
			selectEndpoint(h, "video", upstream.URL+"/video-api")

			rec := do(h, http.MethodPost, "/api/preload", nil)
			So(decodeBody[preloadResponse](rec).Count, ShouldEqual, 1)
			So(decodeBody[preloadResponse](do(h, http.MethodGet, "/api/preload", nil)).Count, ShouldEqual, 1)

			next := decodeBody[nextResponse](do(h, http.MethodPost, "/api/preload/next", nil))
			So(next.URI, ShouldStartWith, "stream:///video/")
			So(next.Stream, ShouldStartWith, "/stream/video/")

			req := httptest.NewRequest(http.MethodGet, next.Stream, nil)
			req.Header.Set("Range", "bytes=2-4")
			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusPartialContent)
			So(rec.Body.String(), ShouldEqual, "234")
			So(rec.Header().Get("Content-Range"), ShouldEqual, "bytes 2-4/10")

			cleared := decodeBody[clearResponse](do(h, http.MethodDelete, "/api/preload", nil))
			So(cleared.Cleared, ShouldEqual, 0)
			So(do(h, http.MethodGet, next.Stream, nil).Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAmbientRoutes(t *testing.T) {
	Convey("Given a server", t, func() {
		s, a := newServer()
		defer a.Close()
		h := s.Handler()

		Convey("preflight requests are answered with CORS headers", func() {
			rec := do(h, http.MethodOptions, "/api/video/fetch", nil)
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})

		Convey("metrics are exposed", func() {
			do(h, http.MethodGet, "/stream/video/none", nil)
			rec := do(h, http.MethodGet, "/metrics", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `mediaroll_stream_requests_total{path="proxy",status="404"} 1`)
		})

		Convey("selection changes reach websocket subscribers", func() {
			srv := httptest.NewServer(h)
			defer srv.Close()

			conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/events", nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			deadline := time.Now().Add(2 * time.Second)
			for a.Events().Len() == 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(a.Events().Len(), ShouldEqual, 1)

			So(do(h, http.MethodPut, "/api/image/selection", map[string]string{"category": "btstu"}).Code, ShouldEqual, http.StatusOK)

			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var msg events.Message
			So(conn.ReadJSON(&msg), ShouldBeNil)
			So(msg.Type, ShouldEqual, events.TypeSelection)
			So(string(msg.Payload), ShouldEqual, `{"kind":"image","category":"btstu"}`)
		})

		Convey("Run stops when its context ends", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- s.Run(ctx) }()

			time.Sleep(50 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				So(err, ShouldBeNil)
			case <-time.After(5 * time.Second):
				So("Run did not return", ShouldBeEmpty)
			}
		})
	})
}

func TestStatusFor(t *testing.T) {
	Convey("statusFor", t, func() {
		cases := map[error]int{
			media.ErrCategoryNotFound:                    http.StatusNotFound,
			media.ErrQueueEmpty:                          http.StatusNotFound,
			media.ErrInvalidInput:                        http.StatusBadRequest,
			media.ErrNoEndpoints:                         http.StatusConflict,
			media.TooLarge(10, 5):                        http.StatusRequestEntityTooLarge,
			&media.UpstreamError{Code: 500}:              http.StatusBadGateway,
			&media.UnknownFormatError{Status: 200}:       http.StatusBadGateway,
			&media.NetworkError{Err: errors.New("dial")}: http.StatusBadGateway,
			media.ErrTooManyRedirects:                    http.StatusBadGateway,
			errors.New("other"):                          http.StatusInternalServerError,
		}
		for err, status := range cases {
			So(statusFor(fmt.Errorf("wrapped: %w", err)), ShouldEqual, status)
		}
	})
}
