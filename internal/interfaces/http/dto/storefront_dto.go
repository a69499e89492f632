package dto

import (
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
)

// SearchRequest carries the optional product name filter
type SearchRequest struct {
	Search string `form:"search" binding:"max=200"`
}

// CartActionRequest represents a cart mutation from the product cards
type CartActionRequest struct {
	Action  string `json:"action" binding:"required,oneof=increment decrement reset"`
	Product string `json:"product" binding:"required_unless=Action reset,max=500"`
}

// SubmitOrderRequest represents the order form. Email presence is checked
// by the storefront so the order form message is returned unchanged.
type SubmitOrderRequest struct {
	Email string `json:"email" binding:"max=320"`
}

// ProductResponse represents one catalog product
type ProductResponse struct {
	Name      string  `json:"name"`
	Inventory int     `json:"inventory"`
	Price     *string `json:"price"`
	PriceText string  `json:"price_text"`
	InStock   bool    `json:"in_stock"`
}

// CatalogResponse represents the filtered product list
type CatalogResponse struct {
	Products  []ProductResponse `json:"products"`
	Total     int               `json:"total"`
	FetchedAt *time.Time        `json:"fetched_at,omitempty"`
}

// CartLineResponse is one priced cart line
type CartLineResponse struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

// CartResponse represents the cart entries and their totals
type CartResponse struct {
	Entries   []cart.Entry       `json:"entries"`
	Lines     []CartLineResponse `json:"lines"`
	Unpriced  []string           `json:"unpriced"`
	ItemCount int                `json:"item_count"`
	Total     string             `json:"total"`
	TotalText string             `json:"total_text"`
}

// CartActionResponse reports the product's quantity after an action
type CartActionResponse struct {
	Product  string       `json:"product,omitempty"`
	Quantity int          `json:"quantity"`
	Cart     CartResponse `json:"cart"`
}

// SubmitOrderResponse confirms an accepted order
type SubmitOrderResponse struct {
	OrderID string `json:"order_id"`
	Total   string `json:"total"`
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

// ToProductResponse converts a catalog product
func ToProductResponse(p catalog.Product) ProductResponse {
	resp := ProductResponse{
		Name:      p.Name,
		Inventory: p.Inventory,
		PriceText: p.Price.String(),
		InStock:   p.InStock(),
	}
	if p.Price.Available() {
		price := p.Price.Money().Fixed()
		resp.Price = &price
	}
	return resp
}

// ToCatalogResponse converts a list of products
func ToCatalogResponse(products []catalog.Product, fetchedAt time.Time) CatalogResponse {
	resp := CatalogResponse{
		Products: make([]ProductResponse, 0, len(products)),
		Total:    len(products),
	}
	for _, p := range products {
		resp.Products = append(resp.Products, ToProductResponse(p))
	}
	if !fetchedAt.IsZero() {
		resp.FetchedAt = &fetchedAt
	}
	return resp
}

// ToCartResponse converts a ledger and its computed totals
func ToCartResponse(l *cart.Ledger) CartResponse {
	totals := l.ComputeTotals()
	resp := CartResponse{
		Entries:   l.Entries(),
		Lines:     make([]CartLineResponse, 0, len(totals.Lines)),
		Unpriced:  totals.Unpriced,
		ItemCount: totals.ItemCount,
		Total:     totals.Total.Fixed(),
		TotalText: totals.Total.String(),
	}
	if resp.Unpriced == nil {
		resp.Unpriced = []string{}
	}
	for _, line := range totals.Lines {
		resp.Lines = append(resp.Lines, CartLineResponse{
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.Fixed(),
			LineTotal: line.LineTotal.Fixed(),
		})
	}
	return resp
}
