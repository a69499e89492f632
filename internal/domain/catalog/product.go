package catalog

import (
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// PriceNotAvailable is displayed for products whose price could not be parsed.
const PriceNotAvailable = "Price not available"

// Price is a unit price that may be missing from the source spreadsheet
type Price struct {
	amount    valueobject.Money
	available bool
}

// NewPrice creates an available price
func NewPrice(amount valueobject.Money) Price {
	return Price{amount: amount, available: true}
}

// UnavailablePrice creates a price that is shown but never charged
func UnavailablePrice() Price {
	return Price{}
}

// Available reports whether the price can be used in totals
func (p Price) Available() bool {
	return p.available
}

// Money returns the amount; zero when unavailable
func (p Price) Money() valueobject.Money {
	if !p.available {
		return valueobject.Zero()
	}
	return p.amount
}

// String returns "$x.xx" or PriceNotAvailable
func (p Price) String() string {
	if !p.available {
		return PriceNotAvailable
	}
	return p.amount.String()
}

// Product is a purchasable item from one catalog snapshot.
// Name is the unique key within the snapshot.
type Product struct {
	Name      string
	Inventory int
	Price     Price
}

// NewProduct creates a product after validating its fields
func NewProduct(name string, inventory int, price Price) (Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if inventory < 0 {
		return Product{}, shared.NewDomainError("INVALID_INVENTORY", "Inventory cannot be negative")
	}
	if price.available && price.amount.IsNegative() {
		return Product{}, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return Product{Name: name, Inventory: inventory, Price: price}, nil
}

// InStock reports whether at least one unit can be ordered
func (p Product) InStock() bool {
	return p.Inventory > 0
}
