// Package media holds the types shared by every stage between picking an
// endpoint and serving bytes: kinds, catalog entities, resolved references,
// buffered items and the error taxonomy.
package media

import (
	"fmt"
	"strings"
)

// Kind distinguishes the two media families handled by the application.
type Kind string

const (
	Video Kind = "video"
	Image Kind = "image"
)

// Kinds lists every supported kind in display order.
func Kinds() []Kind {
	return []Kind{Video, Image}
}

// ParseKind accepts "video" or "image", case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Video:
		return Video, nil
	case Image:
		return Image, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func (k Kind) String() string {
	return string(k)
}

// DefaultContentType is used when neither the buffer nor the upstream declares one.
func (k Kind) DefaultContentType() string {
	if k == Image {
		return "image/jpeg"
	}
	return "video/mp4"
}

// Origin tells builtin catalog entries apart from user-created ones.
type Origin string

const (
	Builtin Origin = "builtin"
	Custom  Origin = "custom"
)

// RandomCategory is the synthetic category id meaning "every endpoint of every category".
const RandomCategory = "random"

// Endpoint is a single upstream API URL producing media.
type Endpoint struct {
	ID         string `json:"id" jsonschema:"description=Stable identifier"`
	Name       string `json:"name"`
	URL        string `json:"url" jsonschema:"format=uri"`
	CategoryID string `json:"category_id,omitempty"`
	Origin     Origin `json:"origin" jsonschema:"enum=builtin,enum=custom"`
}

// Category groups endpoints under one selectable name.
type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Origin    Origin     `json:"origin" jsonschema:"enum=builtin,enum=custom"`
	Endpoints []Endpoint `json:"endpoints"`
}

// Reference is the outcome of resolving an endpoint: a media URL, and for
// images optionally the bytes themselves when the endpoint served them inline.
type Reference struct {
	URL         string `json:"url"`
	Data        []byte `json:"-"`
	ContentType string `json:"content_type,omitempty"`
}

// Inline reports whether the reference already carries its payload.
func (r *Reference) Inline() bool {
	return r != nil && len(r.Data) > 0
}

// Item is a fully downloaded media payload addressed by a generated id.
type Item struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Size is the payload length in bytes.
func (i *Item) Size() int {
	return len(i.Data)
}
