package order

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// MsgMissingItemsOrEmail is returned when an order cannot be built.
const MsgMissingItemsOrEmail = "Please select at least one item and provide an email."

// Item is one ordered product as sent to the order endpoint
type Item struct {
	Name      string
	Quantity  int
	Price     valueobject.Money
	ItemTotal valueobject.Money
}

type itemJSON struct {
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	Price     json.Number `json:"price"`
	ItemTotal string      `json:"itemTotal"`
}

// MarshalJSON writes price as a number and itemTotal as a two-decimal string
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemJSON{
		Name:      i.Name,
		Quantity:  i.Quantity,
		Price:     json.Number(i.Price.Amount().String()),
		ItemTotal: i.ItemTotal.Fixed(),
	})
}

// UnmarshalJSON reads the wire form produced by MarshalJSON
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	price, err := decimal.NewFromString(raw.Price.String())
	if err != nil {
		return fmt.Errorf("invalid item price: %w", err)
	}
	total, err := valueobject.NewMoneyFromString(raw.ItemTotal)
	if err != nil {
		return fmt.Errorf("invalid item total: %w", err)
	}
	*i = Item{
		Name:      raw.Name,
		Quantity:  raw.Quantity,
		Price:     valueobject.NewMoney(price),
		ItemTotal: total,
	}
	return nil
}

// Payload is an order ready for submission. It is immutable once built.
type Payload struct {
	OrderID string            `json:"orderId"`
	Email   string            `json:"email"`
	Items   []Item            `json:"items"`
	Total   valueobject.Money `json:"-"`
}

// NewPayload builds a payload from the cart totals. It fails with a
// validation error when nothing is selected, the email is blank, or a
// selected product has no price.
func NewPayload(orderID, email string, totals cart.Totals) (Payload, error) {
	email = strings.TrimSpace(email)
	if email == "" || (len(totals.Lines) == 0 && len(totals.Unpriced) == 0) {
		return Payload{}, shared.NewValidationError(MsgMissingItemsOrEmail)
	}
	if len(totals.Unpriced) > 0 {
		return Payload{}, shared.NewValidationError(
			"Cannot order items without a price: " + strings.Join(totals.Unpriced, ", "))
	}

	items := make([]Item, 0, len(totals.Lines))
	for _, line := range totals.Lines {
		items = append(items, Item{
			Name:      line.Name,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
			ItemTotal: line.LineTotal,
		})
	}
	return Payload{
		OrderID: orderID,
		Email:   email,
		Items:   items,
		Total:   totals.Total,
	}, nil
}

// Encode returns the JSON document sent as the "data" form field
func (p Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// Record is a submitted order as kept in local history
type Record struct {
	OrderID   string            `json:"orderId"`
	Timestamp time.Time         `json:"timestamp"`
	Email     string            `json:"email"`
	Items     []Item            `json:"items"`
	Total     valueobject.Money `json:"total"`
}

// NewRecord stamps a submitted payload
func NewRecord(p Payload, submittedAt time.Time) Record {
	items := make([]Item, len(p.Items))
	copy(items, p.Items)
	return Record{
		OrderID:   p.OrderID,
		Timestamp: submittedAt.UTC(),
		Email:     p.Email,
		Items:     items,
		Total:     p.Total,
	}
}
