package order

import "context"

// HistoryRepository persists submitted orders on the local side
type HistoryRepository interface {
	// Append adds a record to the history
	Append(ctx context.Context, record Record) error

	// ListAll returns every record, most recent first
	ListAll(ctx context.Context) ([]Record, error)

	// Clear removes all records
	Clear(ctx context.Context) error
}

// EventPublisher announces accepted orders to other systems
type EventPublisher interface {
	PublishOrderSubmitted(ctx context.Context, record Record) error
}

// NopEventPublisher drops every event
type NopEventPublisher struct{}

// PublishOrderSubmitted does nothing
func (NopEventPublisher) PublishOrderSubmitted(context.Context, Record) error {
	return nil
}
