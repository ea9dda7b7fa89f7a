package catalog

import (
	"maps"
	"slices"

	"github.com/mediaroll/mediaroll/filesystem"
	"github.com/mediaroll/mediaroll/media"
	"github.com/metafates/gache"
)

// State is the user-owned part of the catalog.
type State struct {
	Categories map[media.Kind][]media.Category `json:"categories"`
	Endpoints  map[media.Kind][]media.Endpoint `json:"endpoints"`
	Selection  map[media.Kind]string           `json:"selection"`
}

func newState() *State {
	return &State{
		Categories: make(map[media.Kind][]media.Category),
		Endpoints:  make(map[media.Kind][]media.Endpoint),
		Selection:  make(map[media.Kind]string),
	}
}

func (s *State) clone() *State {
	return &State{
		Categories: cloneMap(s.Categories),
		Endpoints:  cloneMap(s.Endpoints),
		Selection:  maps.Clone(s.Selection),
	}
}

func cloneMap[T any](m map[media.Kind][]T) map[media.Kind][]T {
	out := make(map[media.Kind][]T, len(m))
	for kind, values := range m {
		out[kind] = slices.Clone(values)
	}
	return out
}

// Store persists State between runs.
type Store interface {
	Load() (*State, error)
	Save(*State) error
}

// GacheStore keeps State in a JSON file through the swappable filesystem.
type GacheStore struct {
	cacher *gache.Cache[*State]
}

// NewGacheStore returns a store backed by the file at path.
func NewGacheStore(path string) *GacheStore {
	return &GacheStore{
		cacher: gache.New[*State](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.StateFs{},
		}),
	}
}

func (s *GacheStore) Load() (*State, error) {
	cached, expired, err := s.cacher.Get()
	if err != nil {
		return nil, err
	}

	if expired || cached == nil {
		return newState(), nil
	}

	if cached.Categories == nil {
		cached.Categories = make(map[media.Kind][]media.Category)
	}
	if cached.Endpoints == nil {
		cached.Endpoints = make(map[media.Kind][]media.Endpoint)
	}
	if cached.Selection == nil {
		cached.Selection = make(map[media.Kind]string)
	}
	return cached, nil
}

func (s *GacheStore) Save(state *State) error {
	return s.cacher.Set(state)
}
