// Package catalog owns the categories and endpoints a user can pick from:
// the builtin set compiled into the binary plus anything the user added,
// and the current selection for each media kind.
package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mediaroll/mediaroll/media"
	"github.com/samber/lo"
)

// Catalog is safe for concurrent use. A single lock covers every kind;
// critical sections never span network I/O.
type Catalog struct {
	mu     sync.Mutex
	store  Store
	state  *State
	now    func() time.Time
	lastID int64
}

// New loads the persisted state from store.
func New(store Store) (*Catalog, error) {
	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return &Catalog{store: store, state: state, now: time.Now}, nil
}

// List returns builtin categories followed by custom ones. Custom endpoints
// are appended to their owning category, whichever origin it has.
func (c *Catalog) List(kind media.Kind) []media.Category {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.list(kind)
}

func (c *Catalog) list(kind media.Kind) []media.Category {
	categories := builtins(kind)
	for _, custom := range c.state.Categories[kind] {
		custom.Endpoints = nil
		categories = append(categories, custom)
	}

	for i := range categories {
		id := categories[i].ID
		categories[i].Endpoints = append(categories[i].Endpoints, lo.Filter(c.state.Endpoints[kind], func(e media.Endpoint, _ int) bool {
			return e.CategoryID == id
		})...)
	}

	return categories
}

// Exists reports whether a stored category with id exists. The random
// category is not stored and therefore does not exist.
func (c *Catalog) Exists(kind media.Kind, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.find(kind, id)
	return ok
}

func (c *Catalog) find(kind media.Kind, id string) (media.Category, bool) {
	return lo.Find(c.list(kind), func(category media.Category) bool {
		return category.ID == id
	})
}

// Selection returns the selected category id for kind, random by default.
func (c *Catalog) Selection(kind media.Kind) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.selection(kind)
}

func (c *Catalog) selection(kind media.Kind) string {
	if id := c.state.Selection[kind]; id != "" {
		return id
	}
	return media.RandomCategory
}

// SetSelection changes the selected category for kind.
func (c *Catalog) SetSelection(kind media.Kind, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != media.RandomCategory {
		if _, ok := c.find(kind, id); !ok {
			return fmt.Errorf("%w: %s", media.ErrCategoryNotFound, id)
		}
	}

	prev := c.state.clone()
	c.state.Selection[kind] = id
	return c.commit(prev)
}

// AddCategory creates an empty custom category.
func (c *Catalog) AddCategory(kind media.Kind, name string) (media.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return media.Category{}, fmt.Errorf("%w: category name is empty", media.ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := "custom_cat_"
	if kind == media.Image {
		prefix = "custom_img_cat_"
	}

	prev := c.state.clone()
	category := media.Category{ID: c.newID(prefix), Name: name, Origin: media.Custom}
	c.state.Categories[kind] = append(c.state.Categories[kind], category)

	if err := c.commit(prev); err != nil {
		return media.Category{}, err
	}
	return category, nil
}

// AddEndpoint attaches a custom endpoint to an existing category, builtin or custom.
func (c *Catalog) AddEndpoint(kind media.Kind, categoryID, name, rawURL string) (media.Endpoint, error) {
	name, rawURL = strings.TrimSpace(name), strings.TrimSpace(rawURL)

	switch {
	case categoryID == media.RandomCategory:
		return media.Endpoint{}, fmt.Errorf("%w: endpoints cannot be added to the random category", media.ErrInvalidInput)
	case name == "":
		return media.Endpoint{}, fmt.Errorf("%w: endpoint name is empty", media.ErrInvalidInput)
	case rawURL == "":
		return media.Endpoint{}, fmt.Errorf("%w: endpoint url is empty", media.ErrInvalidInput)
	}

	if u, err := url.Parse(rawURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return media.Endpoint{}, fmt.Errorf("%w: %q is not an http(s) url", media.ErrInvalidInput, rawURL)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.find(kind, categoryID); !ok {
		return media.Endpoint{}, fmt.Errorf("%w: %s", media.ErrCategoryNotFound, categoryID)
	}

	prefix := "custom_ep_"
	if kind == media.Image {
		prefix = "custom_img_ep_"
	}

	endpoint := media.Endpoint{
		ID:         c.newID(prefix),
		Name:       name,
		URL:        rawURL,
		CategoryID: categoryID,
		Origin:     media.Custom,
	}
	prev := c.state.clone()
	c.state.Endpoints[kind] = append(c.state.Endpoints[kind], endpoint)

	if err := c.commit(prev); err != nil {
		return media.Endpoint{}, err
	}
	return endpoint, nil
}

// DeleteEndpoint removes a custom endpoint. When the selected category is
// left without endpoints, the selection falls back to random.
func (c *Catalog) DeleteEndpoint(kind media.Kind, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	endpoints := c.state.Endpoints[kind]
	_, index, ok := lo.FindIndexOf(endpoints, func(e media.Endpoint) bool {
		return e.ID == id
	})
	if !ok {
		return fmt.Errorf("%w: %s", media.ErrEndpointNotFound, id)
	}

	prev := c.state.clone()
	c.state.Endpoints[kind] = append(endpoints[:index:index], endpoints[index+1:]...)

	if current := c.selection(kind); current != media.RandomCategory {
		if category, ok := c.find(kind, current); !ok || len(category.Endpoints) == 0 {
			c.state.Selection[kind] = media.RandomCategory
		}
	}

	return c.commit(prev)
}

// DeleteCategory removes a custom category together with its endpoints.
func (c *Catalog) DeleteCategory(kind media.Kind, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if lo.ContainsBy(builtins(kind), func(b media.Category) bool { return b.ID == id }) {
		return fmt.Errorf("%w: %s", media.ErrBuiltinCategory, id)
	}

	categories := c.state.Categories[kind]
	_, index, ok := lo.FindIndexOf(categories, func(category media.Category) bool {
		return category.ID == id
	})
	if !ok {
		return fmt.Errorf("%w: %s", media.ErrCategoryNotFound, id)
	}

	prev := c.state.clone()
	c.state.Categories[kind] = append(categories[:index:index], categories[index+1:]...)
	c.state.Endpoints[kind] = lo.Reject(c.state.Endpoints[kind], func(e media.Endpoint, _ int) bool {
		return e.CategoryID == id
	})

	if c.selection(kind) == id {
		c.state.Selection[kind] = media.RandomCategory
	}

	return c.commit(prev)
}

// Find ranks categories whose id or name fuzzily matches query, best first.
func (c *Catalog) Find(kind media.Kind, query string) []media.Category {
	categories := c.List(kind)

	targets := make([]string, 0, len(categories)*2)
	for _, category := range categories {
		targets = append(targets, category.ID, category.Name)
	}

	ranks := fuzzy.RankFindNormalizedFold(strings.TrimSpace(query), targets)
	sort.Sort(ranks)

	var found []media.Category
	seen := make(map[int]bool)
	for _, rank := range ranks {
		i := rank.OriginalIndex / 2
		if seen[i] {
			continue
		}
		seen[i] = true
		found = append(found, categories[i])
	}

	return found
}

// newID derives an id from the current time in milliseconds, bumped when two
// ids would otherwise collide within the same millisecond.
func (c *Catalog) newID(prefix string) string {
	millis := c.now().UnixMilli()
	if millis <= c.lastID {
		millis = c.lastID + 1
	}
	c.lastID = millis
	return fmt.Sprintf("%s%d", prefix, millis)
}

// commit persists the current state. When that fails the in-memory state
// is rolled back to prev, so memory never runs ahead of disk.
func (c *Catalog) commit(prev *State) error {
	if err := c.store.Save(c.state); err != nil {
		c.state = prev
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}
