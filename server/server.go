// Package server exposes the application over HTTP: a JSON API, the
// range-aware stream endpoint, the websocket event feed and metrics.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mediaroll/mediaroll/app"
	"github.com/mediaroll/mediaroll/key"
	"github.com/mediaroll/mediaroll/log"
	"github.com/spf13/viper"
)

const shutdownTimeout = 5 * time.Second

// Options configures the listener.
type Options struct {
	Host       string
	Port       int
	CORSOrigin string
}

func OptionsFromConfig() Options {
	return Options{
		Host:       viper.GetString(key.ServerHost),
		Port:       viper.GetInt(key.ServerPort),
		CORSOrigin: viper.GetString(key.ServerCORSOrigin),
	}
}

// Addr returns host:port.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

type Server struct {
	app     *app.App
	opts    Options
	handler http.Handler
}

func New(a *app.App, opts Options) *Server {
	s := &Server{app: a, opts: opts}
	s.handler = recoverer(cors(opts.CORSOrigin, logRequests(s.routes())))
	return s
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/{kind}/fetch", s.handleFetch)
	mux.HandleFunc("POST /api/{kind}/download", s.handleDownload)

	mux.HandleFunc("GET /api/preload", s.handlePreloadCount)
	mux.HandleFunc("POST /api/preload", s.handlePreload)
	mux.HandleFunc("POST /api/preload/next", s.handlePreloadNext)
	mux.HandleFunc("DELETE /api/preload", s.handlePreloadClear)

	mux.HandleFunc("GET /api/{kind}/categories", s.handleCategories)
	mux.HandleFunc("POST /api/{kind}/categories", s.handleAddCategory)
	mux.HandleFunc("DELETE /api/{kind}/categories/{id}", s.handleDeleteCategory)
	mux.HandleFunc("POST /api/{kind}/categories/{id}/endpoints", s.handleAddEndpoint)
	mux.HandleFunc("DELETE /api/{kind}/endpoints/{id}", s.handleDeleteEndpoint)

	mux.HandleFunc("GET /api/{kind}/selection", s.handleSelection)
	mux.HandleFunc("PUT /api/{kind}/selection", s.handleSetSelection)

	if hub := s.app.Events(); hub != nil {
		mux.Handle("GET /api/events", hub)
	}
	if m := s.app.Metrics(); m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	mux.Handle("/stream/", http.StripPrefix("/stream", s.app.Stream()))

	return mux
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
