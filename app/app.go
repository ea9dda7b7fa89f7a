// Package app wires the catalog, resolver, downloader, preload pipeline and
// stream server into the operations exposed by the CLI and the HTTP API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/mediaroll/mediaroll/catalog"
	"github.com/mediaroll/mediaroll/download"
	"github.com/mediaroll/mediaroll/events"
	"github.com/mediaroll/mediaroll/log"
	"github.com/mediaroll/mediaroll/media"
	"github.com/mediaroll/mediaroll/metrics"
	"github.com/mediaroll/mediaroll/network"
	"github.com/mediaroll/mediaroll/preload"
	"github.com/mediaroll/mediaroll/resolver"
	"github.com/mediaroll/mediaroll/selector"
	"github.com/mediaroll/mediaroll/stream"
)

// App is constructed once per process and is safe for concurrent use.
type App struct {
	opts Options

	catalog    *catalog.Catalog
	selector   *selector.Selector
	resolver   *resolver.Resolver
	downloader *download.Downloader
	pipeline   *preload.Pipeline
	stream     *stream.Server

	metrics *metrics.Metrics
	events  *events.Hub

	background sync.WaitGroup
}

// New loads the catalog and builds every component.
func New(opts Options) (*App, error) {
	c, err := catalog.New(opts.store())
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	a := &App{
		opts:     opts,
		catalog:  c,
		selector: selector.New(),
	}

	if opts.Metrics {
		a.metrics = metrics.New()
	}
	if opts.Events {
		a.events = events.NewHub()
	}

	a.resolver = resolver.New(network.New(opts.Resolve), opts.ImageLimit)
	a.downloader = download.New(network.New(opts.Download), a)
	a.stream = stream.New(network.New(opts.Proxy), a)
	a.pipeline = preload.New(a.preloadOne, opts.PreloadCapacity, preload.WithObserver(a))

	return a, nil
}

// Close waits for background preloads and disconnects event subscribers.
func (a *App) Close() {
	a.background.Wait()
	if a.events != nil {
		a.events.Close()
	}
}

// Stream returns the range-aware media handler.
func (a *App) Stream() http.Handler {
	return a.stream
}

// Metrics returns nil when metrics are disabled.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Events returns nil when the event feed is disabled.
func (a *App) Events() *events.Hub {
	return a.events
}

// resolve picks an endpoint of the selected category and resolves it.
func (a *App) resolve(ctx context.Context, kind media.Kind) (*media.Reference, error) {
	endpoint, err := a.selector.Select(a.catalog.List(kind), a.catalog.Selection(kind))
	if err != nil {
		a.observeResolution(kind, err)
		return nil, err
	}

	ref, err := a.resolver.Resolve(ctx, kind, endpoint.URL)
	a.observeResolution(kind, err)
	if err != nil {
		log.WithFields(log.Fields{"kind": kind, "endpoint": endpoint.ID, "error": err}).Warn("resolution failed")
		return nil, err
	}

	log.WithFields(log.Fields{"kind": kind, "endpoint": endpoint.ID, "url": ref.URL}).Info("resolved")
	return ref, nil
}

// Resolve resolves a media reference for kind and records its URL as the
// stream fallback for that kind.
func (a *App) Resolve(ctx context.Context, kind media.Kind) (*media.Reference, error) {
	ref, err := a.resolve(ctx, kind)
	if err != nil {
		return nil, err
	}

	a.stream.SetLastURL(kind, ref.URL)
	return ref, nil
}

// Fetch resolves a media URL for kind. An image whose bytes arrived with the
// resolution is promoted into the image slot and its stream URI is returned
// instead; the playing video is left alone.
func (a *App) Fetch(ctx context.Context, kind media.Kind) (string, error) {
	ref, err := a.Resolve(ctx, kind)
	if err != nil {
		return "", err
	}

	if ref.Inline() {
		item := &media.Item{
			ID:          uuid.NewString(),
			Kind:        kind,
			URL:         ref.URL,
			ContentType: ref.ContentType,
			Data:        ref.Data,
		}
		a.stream.Promote(item)
		return stream.URI(kind, item.ID), nil
	}

	return ref.URL, nil
}

// Download reads the whole body at rawURL under the size cap of kind.
func (a *App) Download(ctx context.Context, kind media.Kind, rawURL string) (*download.Payload, error) {
	return a.downloader.Fetch(ctx, kind, rawURL, a.limit(kind))
}

func (a *App) limit(kind media.Kind) int64 {
	if kind == media.Image {
		return a.opts.ImageLimit
	}
	return a.opts.VideoLimit
}

func (a *App) preloadOne(ctx context.Context) (*media.Item, error) {
	ref, err := a.resolve(ctx, media.Video)
	if err != nil {
		return nil, err
	}

	payload, err := a.Download(ctx, media.Video, ref.URL)
	if err != nil {
		return nil, err
	}

	return &media.Item{
		Kind:        media.Video,
		URL:         payload.URL,
		ContentType: payload.ContentType,
		Data:        payload.Data,
	}, nil
}

// Preload runs one preload cycle and returns the queue length. The cycle is
// not cancelled when ctx is; it runs until it completes or times out.
func (a *App) Preload(ctx context.Context) int {
	return a.pipeline.Request(context.WithoutCancel(ctx))
}

// PreloadCount returns the number of ready items.
func (a *App) PreloadCount() int {
	return a.pipeline.Len()
}

// PopNext promotes the oldest preloaded video and returns its stream URI.
// Its source URL becomes the proxy target once the buffer is released.
func (a *App) PopNext(ctx context.Context) (string, error) {
	item, ok := a.pipeline.Pop()
	if !ok {
		return "", media.ErrQueueEmpty
	}

	a.stream.Promote(item)
	a.stream.SetLastURL(item.Kind, item.URL)

	if a.opts.PreloadOnPop {
		bg := context.WithoutCancel(ctx)
		a.background.Add(1)
		go func() {
			defer a.background.Done()
			a.pipeline.Request(bg)
		}()
	}

	return stream.URI(item.Kind, item.ID), nil
}

// ClearPreload drops every ready item and releases the playing video.
func (a *App) ClearPreload() int {
	n := a.pipeline.Clear()
	a.stream.Demote(media.Video)
	return n
}

// Categories lists builtin then custom categories of kind.
func (a *App) Categories(kind media.Kind) []media.Category {
	return a.catalog.List(kind)
}

// FindCategories ranks categories of kind against query.
func (a *App) FindCategories(kind media.Kind, query string) []media.Category {
	return a.catalog.Find(kind, query)
}

func (a *App) Selection(kind media.Kind) string {
	return a.catalog.Selection(kind)
}

func (a *App) SetSelection(kind media.Kind, id string) error {
	if err := a.catalog.SetSelection(kind, id); err != nil {
		return err
	}
	a.publishSelection(kind)
	return nil
}

func (a *App) AddCategory(kind media.Kind, name string) (media.Category, error) {
	category, err := a.catalog.AddCategory(kind, name)
	if err != nil {
		return category, err
	}
	a.publishCatalog(kind)
	return category, nil
}

func (a *App) AddEndpoint(kind media.Kind, categoryID, name, rawURL string) (media.Endpoint, error) {
	endpoint, err := a.catalog.AddEndpoint(kind, categoryID, name, rawURL)
	if err != nil {
		return endpoint, err
	}
	a.publishCatalog(kind)
	return endpoint, nil
}

// DeleteEndpoint removes a custom endpoint. The selection may fall back to
// random as a side effect; subscribers are told when it does.
func (a *App) DeleteEndpoint(kind media.Kind, id string) error {
	before := a.catalog.Selection(kind)
	if err := a.catalog.DeleteEndpoint(kind, id); err != nil {
		return err
	}
	a.publishCatalog(kind)
	if a.catalog.Selection(kind) != before {
		a.publishSelection(kind)
	}
	return nil
}

func (a *App) DeleteCategory(kind media.Kind, id string) error {
	before := a.catalog.Selection(kind)
	if err := a.catalog.DeleteCategory(kind, id); err != nil {
		return err
	}
	a.publishCatalog(kind)
	if a.catalog.Selection(kind) != before {
		a.publishSelection(kind)
	}
	return nil
}

func (a *App) publishCatalog(kind media.Kind) {
	if a.events != nil {
		a.events.Catalog(kind)
	}
}

func (a *App) publishSelection(kind media.Kind) {
	if a.events != nil {
		a.events.Selection(kind, a.catalog.Selection(kind))
	}
}

func (a *App) observeResolution(kind media.Kind, err error) {
	if a.metrics != nil {
		a.metrics.ObserveResolution(kind, err)
	}
}

func (a *App) ObserveDownload(kind media.Kind, bytes int) {
	if a.metrics != nil {
		a.metrics.ObserveDownload(kind, bytes)
	}
}

func (a *App) StreamServed(path string, status int) {
	if a.metrics != nil {
		a.metrics.StreamServed(path, status)
	}
}

func (a *App) QueueChanged(outcome preload.Outcome, length int) {
	if a.metrics != nil {
		a.metrics.QueueChanged(outcome, length)
	}
	if a.events == nil {
		return
	}
	switch outcome {
	case preload.Queued, preload.Popped, preload.Cleared:
		a.events.Preload(length)
	}
}
