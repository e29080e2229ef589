package search

import (
	"fmt"
	"sort"
)

// Cache maps search terms to the results accumulated for them.
//
// It is not safe for concurrent use. Sessions confine it to a single
// goroutine and hand out clones to readers.
type Cache struct {
	entries map[string]Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// NeedsFetch reports whether key has never been merged into the cache.
func (c *Cache) NeedsFetch(key string) bool {
	_, ok := c.entries[key]
	return !ok
}

func (c *Cache) Get(key string) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// MergePage appends page's hits after the hits already stored for key and
// records page.Page as the key's current page. Hits are never deduplicated.
func (c *Cache) MergePage(key string, page Page) {
	old := c.entries[key].Hits
	hits := make([]Item, 0, len(old)+len(page.Hits))
	hits = append(hits, old...)
	hits = append(hits, page.Hits...)
	c.entries[key] = Entry{Hits: hits, Page: page.Page, NbHits: page.NbHits, NbPages: page.NbPages}
}

// Dismiss removes every hit stored under key whose ObjectID equals
// objectID, keeping the order of the rest.
func (c *Cache) Dismiss(key, objectID string) error {
	e, ok := c.entries[key]
	if !ok {
		return fmt.Errorf("dismissing %q: no results for %q: %w", objectID, key, ErrInvalidState)
	}

	kept := make([]Item, 0, len(e.Hits))
	for _, item := range e.Hits {
		if item.ObjectID != objectID {
			kept = append(kept, item)
		}
	}
	e.Hits = kept
	c.entries[key] = e
	return nil
}

// Clone returns a cache that can be changed without affecting c. Entry
// slices are shared; MergePage and Dismiss always allocate new ones.
func (c *Cache) Clone() *Cache {
	entries := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		entries[k] = v
	}
	return &Cache{entries: entries}
}

func (c *Cache) Len() int {
	return len(c.entries)
}

// Keys returns the cached terms in lexical order.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
