// Package download fetches complete media payloads under a size cap.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mediaroll/mediaroll/log"
	"github.com/mediaroll/mediaroll/media"
	"github.com/mediaroll/mediaroll/network"
)

// MaxRedirects is the number of Location hops followed before giving up.
const MaxRedirects = 5

// Payload is a fully read response body.
type Payload struct {
	// URL is where the bytes were finally served from.
	URL         string
	ContentType string
	Data        []byte
}

// Observer receives the size of every successful download.
type Observer interface {
	ObserveDownload(kind media.Kind, bytes int)
}

// Downloader reads whole bodies with a client that must not follow redirects
// on its own; hops are walked here so each one can be logged and capped.
type Downloader struct {
	client   *network.Client
	observer Observer
}

// New returns a Downloader. observer may be nil.
func New(client *network.Client, observer Observer) *Downloader {
	return &Downloader{client: client, observer: observer}
}

// Fetch downloads rawURL, following up to MaxRedirects redirects, and fails
// with media.ErrPayloadTooLarge when either the declared Content-Length or the
// received byte count exceeds limit.
func (d *Downloader) Fetch(ctx context.Context, kind media.Kind, rawURL string, limit int64) (*Payload, error) {
	current := rawURL

	for hop := 0; ; hop++ {
		resp, err := d.client.Get(ctx, current, nil)
		if err != nil {
			return nil, err
		}

		if network.IsRedirect(resp.StatusCode) {
			resp.Body.Close()
			if hop >= MaxRedirects {
				return nil, media.ErrTooManyRedirects
			}

			base, _ := url.Parse(current)
			next, ok := network.ResolveLocation(base, resp.Header.Get("Location"))
			if !ok {
				return nil, media.ErrMissingRedirectTarget
			}

			log.WithFields(log.Fields{"from": current, "to": next, "hop": hop + 1}).Debug("download redirect")
			current = next
			continue
		}

		payload, err := read(resp, limit)
		if err != nil {
			return nil, err
		}
		payload.URL = current
		if payload.ContentType == "" {
			payload.ContentType = kind.DefaultContentType()
		}

		if d.observer != nil {
			d.observer.ObserveDownload(kind, len(payload.Data))
		}
		return payload, nil
	}
}

func read(resp *http.Response, limit int64) (*Payload, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &media.UpstreamError{Code: resp.StatusCode, Msg: http.StatusText(resp.StatusCode)}
	}

	if resp.ContentLength > limit {
		return nil, media.TooLarge(resp.ContentLength, limit)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &media.NetworkError{Op: "read", URL: resp.Request.URL.String(), Err: err}
	}

	if int64(len(data)) > limit {
		return nil, media.TooLarge(int64(len(data)), limit)
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	return &Payload{ContentType: contentType, Data: data}, nil
}

// Filename suggests a file name for a payload from its kind and content type.
func Filename(kind media.Kind, id string, p *Payload) string {
	ext := ".mp4"
	switch {
	case strings.HasPrefix(p.ContentType, "image/png"):
		ext = ".png"
	case strings.HasPrefix(p.ContentType, "image/gif"):
		ext = ".gif"
	case strings.HasPrefix(p.ContentType, "image/webp"):
		ext = ".webp"
	case kind == media.Image:
		ext = ".jpg"
	case strings.HasPrefix(p.ContentType, "video/webm"):
		ext = ".webm"
	}
	return fmt.Sprintf("%s-%s%s", kind, id, ext)
}
