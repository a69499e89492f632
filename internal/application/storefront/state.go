// Package storefront owns the storefront state and the operations on it:
// catalog refresh, cart actions, order submission and order history.
package storefront

import (
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// User-facing messages
const (
	MsgCatalogNotConfigured = "Error: Invalid SPREADSHEET_URL. Please configure the Google Sheet CSV URL."
	MsgSubmitNotConfigured  = "Error: Please set APPS_SCRIPT_URL"
	MsgNoProducts           = "No products available."
	MsgNoPastOrders         = "No past orders found."
)

// LoadErrorMessage formats a failed catalog load for display
func LoadErrorMessage(err error) string {
	if shared.IsKind(err, shared.CodeConfig) {
		return MsgCatalogNotConfigured
	}
	return fmt.Sprintf("Error loading products: %s. Check SPREADSHEET_URL.", errorText(err))
}

// SubmitErrorMessage formats a failed order submission for display
func SubmitErrorMessage(err error) string {
	switch shared.KindOf(err) {
	case shared.CodeValidation:
		return errorText(err)
	case shared.CodeConfig:
		return MsgSubmitNotConfigured
	default:
		return fmt.Sprintf("Error submitting order: %s", errorText(err))
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ActionType names a state transition
type ActionType string

const (
	ActionCartIncrement ActionType = "cart.increment"
	ActionCartDecrement ActionType = "cart.decrement"
	ActionCartReset     ActionType = "cart.reset"
	ActionCatalogLoaded ActionType = "catalog.loaded"
	ActionCatalogFailed ActionType = "catalog.failed"
)

// Action is one input to Reduce
type Action struct {
	Type       ActionType
	ProductKey string
	Catalog    *catalog.Catalog
	Err        error
	At         time.Time
}

// Increment selects one more unit of product
func Increment(product string) Action {
	return Action{Type: ActionCartIncrement, ProductKey: product}
}

// Decrement selects one less unit of product
func Decrement(product string) Action {
	return Action{Type: ActionCartDecrement, ProductKey: product}
}

// ResetCart clears the cart
func ResetCart() Action {
	return Action{Type: ActionCartReset}
}

// CatalogLoaded installs a freshly fetched catalog
func CatalogLoaded(c *catalog.Catalog, at time.Time) Action {
	return Action{Type: ActionCatalogLoaded, Catalog: c, At: at}
}

// CatalogFailed records a failed fetch
func CatalogFailed(err error, at time.Time) Action {
	return Action{Type: ActionCatalogFailed, Err: err, At: at}
}

// ParseCartAction maps the wire name of a cart action to an Action
func ParseCartAction(name, product string) (Action, error) {
	switch ActionType(name) {
	case ActionCartIncrement, "increment":
		return Increment(product), nil
	case ActionCartDecrement, "decrement":
		return Decrement(product), nil
	case ActionCartReset, "reset":
		return ResetCart(), nil
	default:
		return Action{}, shared.NewValidationError(fmt.Sprintf("Unknown cart action: %s", name))
	}
}

// State is everything the storefront displays. Values are treated as
// immutable; Reduce returns a new State instead of changing its input.
type State struct {
	Catalog       *catalog.Catalog
	Cart          *cart.Ledger
	LastRefresh   time.Time
	LastError     string
	LastReconcile cart.ReconcileReport
}

// NewState returns the state before the first catalog load
func NewState() State {
	empty := catalog.Empty()
	return State{
		Catalog: empty,
		Cart:    cart.NewLedger(empty),
	}
}

// Reduce applies a to s. It never mutates s, performs no I/O and returns an
// error only for unknown action types.
func Reduce(s State, a Action) (State, error) {
	switch a.Type {
	case ActionCartIncrement, ActionCartDecrement:
		typ := cart.ActionIncrement
		if a.Type == ActionCartDecrement {
			typ = cart.ActionDecrement
		}
		next, _, err := cart.Apply(s.Cart, cart.Action{Type: typ, ProductKey: a.ProductKey})
		if err != nil {
			return s, err
		}
		s.Cart = next
		return s, nil

	case ActionCartReset:
		s.Cart = cart.NewLedger(s.Catalog)
		return s, nil

	case ActionCatalogLoaded:
		next := a.Catalog
		if next == nil {
			next = catalog.Empty()
		}
		ledger := s.Cart.Clone()
		s.LastReconcile = ledger.Reconcile(next)
		s.Cart = ledger
		s.Catalog = next
		s.LastRefresh = a.At
		s.LastError = ""
		return s, nil

	case ActionCatalogFailed:
		s.LastError = LoadErrorMessage(a.Err)
		return s, nil

	default:
		return s, fmt.Errorf("unknown storefront action %q", a.Type)
	}
}
