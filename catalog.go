package furnish

import (
	"context"
	"fmt"
	"path"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ItemKey identifies a catalog item, formatted "category-name".
type ItemKey string

// CatalogItem is an immutable loadable item definition.
type CatalogItem struct {
	Category string
	Name     string
	Height   float64 // target normalized height in meters
	Path     string  // model path handed to the ModelLoader; see ModelPath
}

// Key returns the item's identity.
func (i CatalogItem) Key() ItemKey {
	return ItemKey(i.Category + "-" + i.Name)
}

// ModelPath returns Path, or DefaultModelPath when Path is empty.
func (i CatalogItem) ModelPath() string {
	if i.Path != "" {
		return i.Path
	}
	return DefaultModelPath(i.Category, i.Name)
}

// DefaultModelPath is the conventional asset location for an item:
// models/<category>/<name>/scene.gltf.
func DefaultModelPath(category, name string) string {
	return path.Join("models", category, name, "scene.gltf")
}

// ModelLoader loads a model into a fresh node graph. Implementations may be
// called from several goroutines at once.
type ModelLoader interface {
	LoadModel(ctx context.Context, path string) (*Node, error)
}

// LoaderFunc adapts a function to ModelLoader.
type LoaderFunc func(ctx context.Context, path string) (*Node, error)

// LoadModel calls f.
func (f LoaderFunc) LoadModel(ctx context.Context, path string) (*Node, error) {
	return f(ctx, path)
}

// LoadError reports a catalog item whose model failed to load or normalize.
type LoadError struct {
	Key  ItemKey
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("furnish: load %s (%s): %v", e.Key, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Catalog holds the registered item definitions and the lazily loaded,
// normalized templates. Templates are owned by the catalog; callers must
// DeepClone them before use.
type Catalog struct {
	loader ModelLoader
	log    zerolog.Logger

	mu         sync.Mutex
	items      map[ItemKey]CatalogItem
	order      []ItemKey
	categories []string
	templates  map[ItemKey]*Node

	loads singleflight.Group
}

// NewCatalog creates an empty catalog backed by loader.
func NewCatalog(loader ModelLoader) *Catalog {
	return &Catalog{
		loader:    loader,
		log:       zerolog.Nop(),
		items:     make(map[ItemKey]CatalogItem),
		templates: make(map[ItemKey]*Node),
	}
}

// SetLogger sets the catalog's logger.
func (c *Catalog) SetLogger(log zerolog.Logger) {
	c.log = log
}

// Register adds an item definition.
func (c *Catalog) Register(item CatalogItem) error {
	if !(item.Height > 0) {
		return fmt.Errorf("register %s: %w", item.Key(), ErrInvalidHeight)
	}
	key := item.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		return fmt.Errorf("register %s: %w", key, ErrDuplicateItem)
	}
	c.items[key] = item
	c.order = append(c.order, key)
	known := false
	for _, cat := range c.categories {
		if cat == item.Category {
			known = true
			break
		}
	}
	if !known {
		c.categories = append(c.categories, item.Category)
	}
	return nil
}

// Item returns the definition registered under key.
func (c *Catalog) Item(key ItemKey) (CatalogItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	return item, ok
}

// Items returns every definition in registration order.
func (c *Catalog) Items() []CatalogItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CatalogItem, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.items[key])
	}
	return out
}

// Categories returns the category names in first-registration order.
func (c *Catalog) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.categories...)
}

// Cached returns the template for key if it has already been loaded.
func (c *Catalog) Cached(key ItemKey) (*Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.templates[key]
	return t, ok
}

// Template returns the normalized template for key, loading it on first use.
// Concurrent calls for the same key share a single load. Canceling ctx
// abandons only this caller's wait; the shared load keeps running for the
// others.
func (c *Catalog) Template(ctx context.Context, key ItemKey) (*Node, error) {
	item, ok := c.Item(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, key)
	}
	if t, ok := c.Cached(key); ok {
		return t, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Key: key, Path: item.ModelPath(), Err: err}
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(string(key), func() (any, error) {
		if t, ok := c.Cached(key); ok {
			return t, nil
		}
		t, err := c.load(loadCtx, item)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.templates[key] = t
		c.mu.Unlock()
		return t, nil
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Node), nil
	case <-ctx.Done():
		return nil, &LoadError{Key: key, Path: item.ModelPath(), Err: ctx.Err()}
	}
}

// load fetches, normalizes and wraps one model. The wrapper group carries the
// item identity and an identity transform, so a placed root's position is
// exactly its surface pose.
func (c *Catalog) load(ctx context.Context, item CatalogItem) (*Node, error) {
	key := item.Key()
	modelPath := item.ModelPath()
	fail := func(err error) error {
		return &LoadError{Key: key, Path: modelPath, Err: err}
	}

	model, err := c.loader.LoadModel(ctx, modelPath)
	if err != nil {
		return nil, fail(err)
	}
	if model == nil {
		return nil, fail(ErrEmptyGeometry)
	}
	if err := Normalize(model, item.Height); err != nil {
		return nil, fail(err)
	}

	root := NewGroup(string(key))
	root.AddChild(model)
	root.Walk(func(n *Node) bool {
		n.Item = key
		return true
	})
	root.PlacedScale = root.Scale

	c.log.Debug().Str("item", string(key)).Str("path", modelPath).Msg("template loaded")
	return root, nil
}

// Preload loads every registered item with at most limit loads in flight
// (limit <= 0 means unbounded). Failures are logged and skipped. Returns the
// number of templates available afterwards.
func (c *Catalog) Preload(ctx context.Context, limit int) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	var loaded atomic.Int32
	for _, item := range c.Items() {
		g.Go(func() error {
			if _, err := c.Template(gctx, item.Key()); err != nil {
				c.log.Error().Err(err).Str("item", string(item.Key())).Msg("preload failed")
				return nil
			}
			loaded.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(loaded.Load()), ctx.Err()
}
