package cart

import (
	"sort"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Entry is the selected quantity for one product.
// 0 <= Quantity <= inventory of the product in the ledger's catalog.
type Entry struct {
	ProductKey string `json:"product"`
	Quantity   int    `json:"quantity"`
}

// Line is one priced row of the computed totals
type Line struct {
	Name      string
	UnitPrice valueobject.Money
	Quantity  int
	LineTotal valueobject.Money
}

// Totals is the derived summary of a ledger. Products with an unavailable
// price are excluded from Lines and Total and listed in Unpriced.
type Totals struct {
	Lines     []Line
	Total     valueobject.Money
	Unpriced  []string
	ItemCount int
}

// ReconcileReport lists the keys touched by Reconcile
type ReconcileReport struct {
	Clamped []string
	Removed []string
}

// Changed reports whether reconciliation altered any entry
func (r ReconcileReport) Changed() bool {
	return len(r.Clamped) > 0 || len(r.Removed) > 0
}

// Ledger tracks selected quantities keyed by product name against one
// catalog snapshot. Zero quantities are not stored.
type Ledger struct {
	catalog    *catalog.Catalog
	quantities map[string]int
}

// NewLedger creates an empty ledger bound to c
func NewLedger(c *catalog.Catalog) *Ledger {
	if c == nil {
		c = catalog.Empty()
	}
	return &Ledger{
		catalog:    c,
		quantities: make(map[string]int),
	}
}

// Catalog returns the snapshot the ledger is bound to
func (l *Ledger) Catalog() *catalog.Catalog {
	return l.catalog
}

// SetQuantity adds delta to the product's quantity, clamped to
// [0, inventory], and returns the resulting quantity. Unknown keys are a no-op.
func (l *Ledger) SetQuantity(productKey string, delta int) int {
	return l.Set(productKey, l.CurrentQuantity(productKey)+delta)
}

// Set assigns an absolute quantity, clamped to [0, inventory]
func (l *Ledger) Set(productKey string, quantity int) int {
	product, ok := l.catalog.Lookup(productKey)
	if !ok {
		return 0
	}
	quantity = clamp(quantity, product.Inventory)
	if quantity == 0 {
		delete(l.quantities, productKey)
	} else {
		l.quantities[productKey] = quantity
	}
	return quantity
}

// CurrentQuantity returns the selected quantity, 0 if unset
func (l *Ledger) CurrentQuantity(productKey string) int {
	return l.quantities[productKey]
}

// Entries returns the non-zero entries in catalog order
func (l *Ledger) Entries() []Entry {
	entries := make([]Entry, 0, len(l.quantities))
	for key, qty := range l.quantities {
		entries = append(entries, Entry{ProductKey: key, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool {
		return l.catalog.Position(entries[i].ProductKey) < l.catalog.Position(entries[j].ProductKey)
	})
	return entries
}

// IsEmpty reports whether nothing is selected
func (l *Ledger) IsEmpty() bool {
	return len(l.quantities) == 0
}

// ComputeTotals derives line totals and the grand total as exact decimals
func (l *Ledger) ComputeTotals() Totals {
	totals := Totals{Total: valueobject.Zero()}
	for _, entry := range l.Entries() {
		product, ok := l.catalog.Lookup(entry.ProductKey)
		if !ok {
			continue
		}
		totals.ItemCount += entry.Quantity
		if !product.Price.Available() {
			totals.Unpriced = append(totals.Unpriced, product.Name)
			continue
		}
		unit := product.Price.Money()
		lineTotal := unit.MultiplyByInt(entry.Quantity)
		totals.Lines = append(totals.Lines, Line{
			Name:      product.Name,
			UnitPrice: unit,
			Quantity:  entry.Quantity,
			LineTotal: lineTotal,
		})
		totals.Total = totals.Total.Add(lineTotal)
	}
	return totals
}

// Reconcile rebinds the ledger to next, dropping entries whose product
// disappeared and clamping the rest to the new inventory.
func (l *Ledger) Reconcile(next *catalog.Catalog) ReconcileReport {
	if next == nil {
		next = catalog.Empty()
	}
	var report ReconcileReport
	for key, qty := range l.quantities {
		product, ok := next.Lookup(key)
		if !ok {
			delete(l.quantities, key)
			report.Removed = append(report.Removed, key)
			continue
		}
		clamped := clamp(qty, product.Inventory)
		if clamped == qty {
			continue
		}
		report.Clamped = append(report.Clamped, key)
		if clamped == 0 {
			delete(l.quantities, key)
		} else {
			l.quantities[key] = clamped
		}
	}
	l.catalog = next
	sort.Strings(report.Clamped)
	sort.Strings(report.Removed)
	return report
}

// Clone returns an independent copy bound to the same catalog
func (l *Ledger) Clone() *Ledger {
	quantities := make(map[string]int, len(l.quantities))
	for k, v := range l.quantities {
		quantities[k] = v
	}
	return &Ledger{catalog: l.catalog, quantities: quantities}
}

// Reset clears every selection
func (l *Ledger) Reset() {
	l.quantities = make(map[string]int)
}

func clamp(quantity, inventory int) int {
	if inventory < 0 {
		inventory = 0
	}
	if quantity < 0 {
		return 0
	}
	if quantity > inventory {
		return inventory
	}
	return quantity
}
