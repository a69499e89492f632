package cart

import (
	"fmt"
	"strings"
)

// ActionType identifies a cart mutation
type ActionType string

const (
	ActionIncrement ActionType = "increment"
	ActionDecrement ActionType = "decrement"
	ActionSet       ActionType = "set"
)

// Action is a user intent against the cart
type Action struct {
	Type       ActionType
	ProductKey string
	Quantity   int // only for ActionSet
}

// ParseActionType converts user input into an ActionType
func ParseActionType(s string) (ActionType, error) {
	switch t := ActionType(strings.ToLower(strings.TrimSpace(s))); t {
	case ActionIncrement, ActionDecrement, ActionSet:
		return t, nil
	default:
		return "", fmt.Errorf("unknown cart action %q", s)
	}
}

// Apply returns a new ledger with the action applied and the product's
// resulting quantity. The input ledger is not modified.
func Apply(l *Ledger, a Action) (*Ledger, int, error) {
	next := l.Clone()
	switch a.Type {
	case ActionIncrement:
		return next, next.SetQuantity(a.ProductKey, 1), nil
	case ActionDecrement:
		return next, next.SetQuantity(a.ProductKey, -1), nil
	case ActionSet:
		return next, next.Set(a.ProductKey, a.Quantity), nil
	default:
		return l, l.CurrentQuantity(a.ProductKey), fmt.Errorf("unknown cart action %q", a.Type)
	}
}
