package storefront

import (
	"fmt"
	"strconv"
	"time"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ProductCard is one purchasable product as displayed
type ProductCard struct {
	Name         string `json:"name"`
	Inventory    int    `json:"inventory"`
	PriceText    string `json:"price_text"`
	Priced       bool   `json:"priced"`
	Quantity     int    `json:"quantity"`
	CanIncrement bool   `json:"can_increment"`
	CanDecrement bool   `json:"can_decrement"`
}

// SummaryLine is one row of the order summary
type SummaryLine struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Label      string `json:"label"`
	AmountText string `json:"amount_text"`
}

// View is the full storefront projection
type View struct {
	Query            string        `json:"query,omitempty"`
	Products         []ProductCard `json:"products"`
	EmptyMessage     string        `json:"empty_message,omitempty"`
	TotalText        string        `json:"total_text"`
	OrderSummary     []SummaryLine `json:"order_summary"`
	SubtotalText     string        `json:"subtotal_text"`
	ShowOrderSection bool          `json:"show_order_section"`
	RefreshInfo      string        `json:"refresh_info,omitempty"`
	ErrorMessage     string        `json:"error_message,omitempty"`
	Loading          bool          `json:"loading"`
}

// Project renders s for display. Cards are filtered by query; totals always
// cover the whole cart.
func Project(s State, query string, now time.Time, interval time.Duration) View {
	products := s.Catalog.Search(query)
	v := View{
		Query:        query,
		Products:     make([]ProductCard, 0, len(products)),
		OrderSummary: []SummaryLine{},
		ErrorMessage: s.LastError,
	}

	for _, p := range products {
		qty := s.Cart.CurrentQuantity(p.Name)
		v.Products = append(v.Products, ProductCard{
			Name:         p.Name,
			Inventory:    p.Inventory,
			PriceText:    p.Price.String(),
			Priced:       p.Price.Available(),
			Quantity:     qty,
			CanIncrement: qty < p.Inventory,
			CanDecrement: qty > 0,
		})
	}
	if len(v.Products) == 0 {
		v.EmptyMessage = MsgNoProducts
	}

	totals := s.Cart.ComputeTotals()
	for _, line := range totals.Lines {
		v.OrderSummary = append(v.OrderSummary, SummaryLine{
			Name:       line.Name,
			Quantity:   line.Quantity,
			Label:      fmt.Sprintf("%s (x%d)", line.Name, line.Quantity),
			AmountText: line.LineTotal.String(),
		})
	}
	v.TotalText = totals.Total.String()
	v.SubtotalText = totals.Total.String()
	v.ShowOrderSection = totals.Total.IsPositive()

	if !s.LastRefresh.IsZero() {
		v.RefreshInfo = RefreshInfo(s.LastRefresh, now.Location(), interval)
	}
	return v
}

// RefreshInfo formats the "last updated" line
func RefreshInfo(lastRefresh time.Time, loc *time.Location, interval time.Duration) string {
	if loc == nil {
		loc = time.Local
	}
	minutes := strconv.FormatFloat(interval.Minutes(), 'f', -1, 64)
	return fmt.Sprintf("Last updated: %s | Next refresh in %s minutes.",
		lastRefresh.In(loc).Format("15:04:05"), minutes)
}

// HistoryLine is one item of a past order
type HistoryLine struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	AmountText string `json:"amount_text"`
	Text       string `json:"text"`
}

// HistoryEntry is one past order as displayed
type HistoryEntry struct {
	OrderID   string        `json:"order_id"`
	Timestamp time.Time     `json:"timestamp"`
	DateText  string        `json:"date_text"`
	Email     string        `json:"email"`
	Lines     []HistoryLine `json:"lines"`
	Total     string        `json:"total"`
	TotalText string        `json:"total_text"`
}

// HistoryView lists past orders, most recent first
type HistoryView struct {
	Orders       []HistoryEntry `json:"orders"`
	EmptyMessage string         `json:"empty_message,omitempty"`
}

// ProjectHistory renders records, already sorted most recent first
func ProjectHistory(records []order.Record, loc *time.Location) HistoryView {
	if loc == nil {
		loc = time.Local
	}
	v := HistoryView{Orders: make([]HistoryEntry, 0, len(records))}
	for _, r := range records {
		entry := HistoryEntry{
			OrderID:   r.OrderID,
			Timestamp: r.Timestamp,
			DateText:  r.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
			Email:     r.Email,
			Lines:     make([]HistoryLine, 0, len(r.Items)),
			Total:     r.Total.Fixed(),
			TotalText: "Total: " + r.Total.String(),
		}
		for _, item := range r.Items {
			amount := lineAmount(item)
			entry.Lines = append(entry.Lines, HistoryLine{
				Name:       item.Name,
				Quantity:   item.Quantity,
				AmountText: amount.String(),
				Text:       fmt.Sprintf("%s (x%d) - %s", item.Name, item.Quantity, amount.String()),
			})
		}
		v.Orders = append(v.Orders, entry)
	}
	if len(v.Orders) == 0 {
		v.EmptyMessage = MsgNoPastOrders
	}
	return v
}

func lineAmount(item order.Item) valueobject.Money {
	return item.Price.MultiplyByInt(item.Quantity)
}
