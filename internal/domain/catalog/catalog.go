package catalog

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Catalog is an immutable, ordered snapshot of products from one fetch.
// It is replaced wholesale on every successful refresh.
type Catalog struct {
	products  []Product
	index     map[string]int
	fetchedAt time.Time
}

// NewCatalog builds a snapshot preserving the given order. When two products
// share a name the first one wins.
func NewCatalog(products []Product, fetchedAt time.Time) *Catalog {
	c := &Catalog{
		products:  make([]Product, 0, len(products)),
		index:     make(map[string]int, len(products)),
		fetchedAt: fetchedAt,
	}
	for _, p := range products {
		if _, dup := c.index[p.Name]; dup {
			continue
		}
		c.index[p.Name] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// Empty returns a catalog with no products and a zero fetch time
func Empty() *Catalog {
	return NewCatalog(nil, time.Time{})
}

// Len returns the number of products
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// IsEmpty reports whether the catalog has no products
func (c *Catalog) IsEmpty() bool {
	return c.Len() == 0
}

// FetchedAt returns when the snapshot was loaded; zero if never loaded
func (c *Catalog) FetchedAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.fetchedAt
}

// Products returns a copy of the products in catalog order
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Lookup finds a product by its exact name
func (c *Catalog) Lookup(name string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.index[name]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Position returns the catalog order of the named product, or -1
func (c *Catalog) Position(name string) int {
	if c == nil {
		return -1
	}
	if i, ok := c.index[name]; ok {
		return i
	}
	return -1
}

// Search returns products whose name contains query, ignoring case.
// An empty or blank query returns every product.
func (c *Catalog) Search(query string) []Product {
	query = strings.TrimSpace(query)
	if query == "" || c == nil {
		return c.Products()
	}
	fold := cases.Fold()
	needle := fold.String(query)

	var out []Product
	for _, p := range c.products {
		if strings.Contains(fold.String(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}
