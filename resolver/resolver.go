// Package resolver turns an aggregator endpoint into a playable media URL.
//
// Aggregator APIs answer in several undocumented shapes: a redirect to the
// file, the file itself, or a JSON document carrying its address. Resolve
// walks an ordered chain of checks, cheapest first, and stops at the first
// one that recognises the response. The body is only read when no header
// settles the question.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/mediaroll/mediaroll/log"
	"github.com/mediaroll/mediaroll/media"
	"github.com/mediaroll/mediaroll/network"
	"github.com/samber/lo"
)

// MaxBodySize caps how much of a non-media response is read while sniffing.
const MaxBodySize = 2 << 20

var (
	videoExtensions = []string{".mp4", ".webm", ".m3u8"}
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"}
)

// Resolver resolves endpoints with a single non-redirecting client.
type Resolver struct {
	client      *network.Client
	inlineLimit int64
}

// New returns a Resolver. The client must not follow redirects.
// Images served directly with a declared length up to inlineLimit are
// returned with their bytes; zero disables inlining.
func New(client *network.Client, inlineLimit int64) *Resolver {
	return &Resolver{client: client, inlineLimit: inlineLimit}
}

// Resolve performs one GET against endpointURL and interprets the response.
func (r *Resolver) Resolve(ctx context.Context, kind media.Kind, endpointURL string) (*media.Reference, error) {
	resp, err := r.client.Get(ctx, endpointURL, http.Header{"Accept": {"application/json, */*;q=0.8"}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	effective := resp.Request.URL
	logger := log.WithFields(log.Fields{"kind": kind, "endpoint": endpointURL, "status": resp.StatusCode})

	if network.IsRedirect(resp.StatusCode) {
		location, ok := network.ResolveLocation(effective, resp.Header.Get("Location"))
		if !ok {
			return nil, media.ErrMissingRedirectTarget
		}
		logger.WithField("location", location).Debug("resolved through redirect")
		return &media.Reference{URL: location}, nil
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if isMediaContentType(kind, contentType) {
		ref := &media.Reference{URL: effective.String(), ContentType: contentType}
		if kind == media.Image && strings.HasPrefix(contentType, "image/") {
			r.inline(resp, ref)
		}
		logger.Debug("resolved through content type")
		return ref, nil
	}

	if hasMediaExtension(kind, effective) {
		logger.Debug("resolved through extension")
		return &media.Reference{URL: effective.String()}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, &media.NetworkError{Op: "read", URL: endpointURL, Err: err}
	}

	text := strings.TrimSpace(string(body))
	switch {
	case strings.HasPrefix(text, "{"), kind == media.Image && strings.HasPrefix(text, `"`):
		var found string
		if kind == media.Video {
			found, err = parseEnvelope(text)
		} else {
			found, err = parseImageDocument(text)
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("resolved through json")
		return &media.Reference{URL: found}, nil
	case kind == media.Image && isHTTPURL(text):
		return &media.Reference{URL: text}, nil
	}

	if requested, err := url.Parse(endpointURL); err == nil && requested.String() != effective.String() {
		return &media.Reference{URL: effective.String()}, nil
	}

	return nil, &media.UnknownFormatError{Status: resp.StatusCode}
}

// inline attaches the body when it is small enough. Any failure keeps the URL-only reference.
func (r *Resolver) inline(resp *http.Response, ref *media.Reference) {
	if r.inlineLimit <= 0 || resp.ContentLength < 0 || resp.ContentLength > r.inlineLimit {
		return
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.inlineLimit+1))
	if err != nil || int64(len(data)) > r.inlineLimit {
		return
	}
	ref.Data = data
}

func isMediaContentType(kind media.Kind, contentType string) bool {
	if strings.HasPrefix(contentType, "application/octet-stream") {
		return true
	}
	return strings.HasPrefix(contentType, kind.String()+"/")
}

func hasMediaExtension(kind media.Kind, u *url.URL) bool {
	ext := strings.ToLower(path.Ext(u.Path))
	if kind == media.Video {
		return lo.Contains(videoExtensions, ext)
	}
	return lo.Contains(imageExtensions, ext)
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// envelope is the response shape used by video aggregators.
type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data string `json:"data"`
}

func parseEnvelope(text string) (string, error) {
	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return "", fmt.Errorf("%w: decode envelope: %v", media.ErrNoURLInResponse, err)
	}

	if env.Code != http.StatusOK {
		return "", &media.UpstreamError{Code: env.Code, Msg: env.Msg}
	}

	data := strings.TrimSpace(env.Data)
	if data == "" {
		return "", media.ErrNoURLInResponse
	}
	return data, nil
}

var (
	topLevelKeys = []string{"data", "imgurl", "url", "image", "pic"}
	nestedKeys   = []string{"url", "imgurl", "image", "pic"}
)

// parseImageDocument searches an arbitrary JSON document for an image address.
func parseImageDocument(text string) (string, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return "", fmt.Errorf("%w: decode json: %v", media.ErrNoURLInResponse, err)
	}

	if found, ok := ExtractImageURL(value); ok {
		return found, nil
	}
	return "", media.ErrNoURLInResponse
}

// ExtractImageURL looks for a non-empty string in order: the value itself,
// the top-level keys data, imgurl, url, image and pic, then url, imgurl,
// image and pic under a "data" object.
func ExtractImageURL(value any) (string, bool) {
	if s, ok := nonEmpty(value); ok {
		return s, true
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return "", false
	}

	for _, k := range topLevelKeys {
		if s, ok := nonEmpty(obj[k]); ok {
			return s, true
		}
	}

	data, ok := obj["data"].(map[string]any)
	if !ok {
		return "", false
	}

	for _, k := range nestedKeys {
		if s, ok := nonEmpty(data[k]); ok {
			return s, true
		}
	}

	return "", false
}

func nonEmpty(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
