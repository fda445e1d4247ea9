// Package events publishes ledger changes for downstream consumers such as
// notification or reporting workers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/server/models"
	"github.com/shopspring/decimal"
)

type Type string

const (
	EntryCreated Type = "entry.created"
	EntryDeleted Type = "entry.deleted"
)

// Event is the JSON message body.
type Event struct {
	Type       Type            `json:"type"`
	EntryID    string          `json:"entryId"`
	OwnerID    string          `json:"ownerId"`
	Kind       models.Kind     `json:"kind"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Date       models.Date     `json:"date"`
	OccurredAt time.Time       `json:"occurredAt"`
}

func NewEntryEvent(t Type, e *models.Entry, at time.Time) Event {
	return Event{
		Type:       t,
		EntryID:    e.ID,
		OwnerID:    e.OwnerID,
		Kind:       e.Kind,
		Category:   e.Category,
		Amount:     e.Amount,
		Date:       e.Date,
		OccurredAt: at.UTC(),
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                          { return nil }
