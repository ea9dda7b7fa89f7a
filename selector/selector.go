// Package selector picks one endpoint at random from the chosen category.
package selector

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/mediaroll/mediaroll/media"
	"github.com/samber/lo"
)

// Selector draws uniformly from a candidate set with its own random source.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New seeds a Selector from the clock.
func New() *Selector {
	seed := uint64(time.Now().UnixNano())
	return NewWithSeed(seed, seed>>1|1)
}

// NewWithSeed returns a Selector with a deterministic PCG source.
func NewWithSeed(seed1, seed2 uint64) *Selector {
	return &Selector{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Candidates returns the endpoints eligible for categoryID. The random
// category yields every endpoint of every category, in catalog order.
// An unknown id yields nothing.
func Candidates(categories []media.Category, categoryID string) []media.Endpoint {
	if categoryID == media.RandomCategory {
		return lo.FlatMap(categories, func(c media.Category, _ int) []media.Endpoint {
			return c.Endpoints
		})
	}

	category, ok := lo.Find(categories, func(c media.Category) bool {
		return c.ID == categoryID
	})
	if !ok {
		return nil
	}
	return category.Endpoints
}

// Select picks one endpoint for categoryID, or fails with media.ErrNoEndpoints.
func (s *Selector) Select(categories []media.Category, categoryID string) (media.Endpoint, error) {
	candidates := Candidates(categories, categoryID)
	if len(candidates) == 0 {
		return media.Endpoint{}, media.ErrNoEndpoints
	}

	s.mu.Lock()
	i := s.rng.IntN(len(candidates))
	s.mu.Unlock()

	return candidates[i], nil
}
