// Package composer derives the library settings the rest of the application
// consumes (facets, sorts, paging) from the validated configuration.
package composer

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/eugenenazirov/kerkoapp/internal/config"
)

// Facet describes a filter exposed on the search page.
type Facet struct {
	Key      string
	Title    string
	Field    string
	Enabled  bool
	Position int
}

// Sort describes a sort option exposed on the search page.
type Sort struct {
	Key   string
	Label string
}

// Composer aggregates the settings passed to the library.
type Composer struct {
	Title       string
	Facets      []Facet
	Sorts       []Sort
	DefaultSort string
	PageSize    int
}

// New builds a Composer from the kerko configuration table.
func New(settings config.KerkoSettings) *Composer {
	c := &Composer{
		Title:       settings.Meta.Title,
		DefaultSort: settings.Search.DefaultSort,
		PageSize:    settings.Search.ResultPageSize,
	}
	for key, f := range settings.Facets {
		c.Facets = append(c.Facets, Facet{
			Key:      key,
			Title:    f.Title,
			Field:    f.Field,
			Enabled:  f.Enabled,
			Position: f.Position,
		})
	}
	for _, s := range settings.Search.Sorts {
		c.Sorts = append(c.Sorts, Sort{Key: s.Key, Label: s.Label})
	}
	return c
}

// Update derives secondary settings in place: disabled facets are dropped,
// facets are ordered by position then key, the default sort is guaranteed to
// be one of the available sorts.
func Update(c *Composer) {
	enabled := c.Facets[:0]
	for _, f := range c.Facets {
		if f.Enabled {
			enabled = append(enabled, f)
		}
	}
	c.Facets = enabled
	sort.SliceStable(c.Facets, func(i, j int) bool {
		if c.Facets[i].Position != c.Facets[j].Position {
			return c.Facets[i].Position < c.Facets[j].Position
		}
		return c.Facets[i].Key < c.Facets[j].Key
	})

	if _, ok := c.Sort(c.DefaultSort); !ok && len(c.Sorts) > 0 {
		c.DefaultSort = c.Sorts[0].Key
	}

	if c.PageSize <= 0 {
		c.PageSize = 20
	}
}

// Sort looks up a sort option by key.
func (c *Composer) Sort(key string) (Sort, bool) {
	for _, s := range c.Sorts {
		if s.Key == key {
			return s, true
		}
	}
	return Sort{}, false
}

// Facet looks up an enabled facet by key.
func (c *Composer) Facet(key string) (Facet, bool) {
	for _, f := range c.Facets {
		if f.Key == key {
			return f, true
		}
	}
	return Facet{}, false
}

// DefaultQuery returns the parameters added to search requests that do not
// specify them.
func (c *Composer) DefaultQuery() url.Values {
	q := url.Values{}
	q.Set("page-len", strconv.Itoa(c.PageSize))
	if c.DefaultSort != "" {
		q.Set("sort", c.DefaultSort)
	}
	return q
}
