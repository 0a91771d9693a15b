package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/daordonez11/noreinventeslarueda/internal/domain/model"
)

// Catalog provides access to library and category records. It never writes
// CommunityVotesSum: that field belongs to the vote ledger, and catalog
// upserts preserve whatever value the ledger has accumulated.
type Catalog struct {
	store *Store
	now   func() time.Time
}

// CatalogOption applies a configuration option to the Catalog.
type CatalogOption func(*Catalog)

// WithCatalogClock overrides the timestamp source. Used by tests.
func WithCatalogClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCatalog creates a catalog backed by the given store.
func NewCatalog(store *Store, opts ...CatalogOption) *Catalog {
	c := &Catalog{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetLibrary returns the library with the given id, or ErrNotFound.
func (c *Catalog) GetLibrary(ctx context.Context, id string) (model.Library, error) {
	var lib model.Library
	err := c.store.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, libraryKey(id), &lib)
	})
	if err != nil {
		return model.Library{}, err
	}
	return lib, nil
}

// UpsertLibrary creates or updates a library record. A record without an id
// gets a generated one. The ledger-owned vote sum of an existing record is
// preserved no matter what the caller passed in, as are CreatedAt and any
// sum accumulated by votes that arrived before the catalog record did.
func (c *Catalog) UpsertLibrary(ctx context.Context, lib model.Library) (model.Library, error) {
	if lib.ID == "" {
		lib.ID = uuid.NewString()
	}
	now := c.now()

	err := c.update(ctx, func(txn *badger.Txn) error {
		var existing model.Library
		if err := getJSON(txn, libraryKey(lib.ID), &existing); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			lib.CommunityVotesSum = 0
			lib.CreatedAt = now
		} else {
			lib.CommunityVotesSum = existing.CommunityVotesSum
			lib.CreatedAt = existing.CreatedAt
		}
		lib.UpdatedAt = now
		return setJSON(txn, libraryKey(lib.ID), &lib)
	})
	if err != nil {
		return model.Library{}, err
	}
	return lib, nil
}

// MarkDeprecated stamps the library as deprecated at the given time.
func (c *Catalog) MarkDeprecated(ctx context.Context, id string, at time.Time) error {
	return c.update(ctx, func(txn *badger.Txn) error {
		var lib model.Library
		if err := getJSON(txn, libraryKey(id), &lib); err != nil {
			return err
		}
		lib.DeprecatedAt = &at
		lib.UpdatedAt = c.now()
		return setJSON(txn, libraryKey(id), &lib)
	})
}

// ListLibraries returns all libraries, optionally filtered by category id
// and excluding deprecated entries.
func (c *Catalog) ListLibraries(ctx context.Context, categoryID string, includeDeprecated bool) ([]*model.Library, error) {
	var libs []*model.Library
	err := c.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("library/")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var lib model.Library
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &lib)
			}); err != nil {
				return err
			}
			if categoryID != "" && lib.CategoryID != categoryID {
				continue
			}
			if !includeDeprecated && lib.Deprecated() {
				continue
			}
			libs = append(libs, &lib)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return libs, nil
}

// SearchLibraries returns non-deprecated libraries whose name or either
// description contains the query, case-insensitive.
func (c *Catalog) SearchLibraries(ctx context.Context, query string) ([]*model.Library, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	all, err := c.ListLibraries(ctx, "", false)
	if err != nil {
		return nil, err
	}

	var hits []*model.Library
	for _, lib := range all {
		if strings.Contains(strings.ToLower(lib.Name), needle) ||
			strings.Contains(strings.ToLower(lib.DescriptionES), needle) ||
			strings.Contains(strings.ToLower(lib.DescriptionEN), needle) {
			hits = append(hits, lib)
		}
	}
	return hits, nil
}

// CountLibraries returns the number of library records.
func (c *Catalog) CountLibraries(ctx context.Context) (int, error) {
	total := 0
	err := c.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("library/")
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			total++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// GetCategory returns the category with the given slug, or ErrNotFound.
func (c *Catalog) GetCategory(ctx context.Context, slug string) (model.Category, error) {
	var cat model.Category
	err := c.store.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, categoryKey(slug), &cat)
	})
	if err != nil {
		return model.Category{}, err
	}
	return cat, nil
}

// UpsertCategory creates or updates a category record keyed by slug.
func (c *Catalog) UpsertCategory(ctx context.Context, cat model.Category) (model.Category, error) {
	if cat.Slug == "" {
		return model.Category{}, errors.New("category slug is required")
	}
	if cat.ID == "" {
		cat.ID = uuid.NewString()
	}
	now := c.now()

	err := c.update(ctx, func(txn *badger.Txn) error {
		var existing model.Category
		if err := getJSON(txn, categoryKey(cat.Slug), &existing); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			cat.CreatedAt = now
		} else {
			cat.ID = existing.ID
			cat.CreatedAt = existing.CreatedAt
		}
		cat.UpdatedAt = now
		return setJSON(txn, categoryKey(cat.Slug), &cat)
	})
	if err != nil {
		return model.Category{}, err
	}
	return cat, nil
}

// ListCategories returns all categories ordered by display order, then slug.
func (c *Catalog) ListCategories(ctx context.Context) ([]*model.Category, error) {
	var cats []*model.Category
	err := c.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("category/")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var cat model.Category
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &cat)
			}); err != nil {
				return err
			}
			cats = append(cats, &cat)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(cats, func(i, j int) bool {
		if cats[i].DisplayOrder != cats[j].DisplayOrder {
			return cats[i].DisplayOrder < cats[j].DisplayOrder
		}
		return cats[i].Slug < cats[j].Slug
	})
	return cats, nil
}

// update runs fn as a read-write transaction, retrying on commit conflicts.
// Catalog writes can race with the ledger updating the same library record.
func (c *Catalog) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	const maxRetries = defaultMaxRetries
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.store.db.Update(fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
	return ErrTxnRetryLimit
}
