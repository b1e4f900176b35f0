// Package events fans activity domain events out to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// TypeActivityLogged is the event type for a persisted activity.
const TypeActivityLogged = "activity.logged"

// ActivityLogged is the payload published for each new activity. ID is the
// activity id; consumers dedupe on it.
type ActivityLogged struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	OccurredAt time.Time      `json:"occurredAt"`
	Activity   model.Activity `json:"activity"`
}

// NewActivityLogged wraps a stored activity.
func NewActivityLogged(a model.Activity) ActivityLogged {
	return ActivityLogged{Type: TypeActivityLogged, ID: a.ID, UserID: a.UserID, OccurredAt: a.OccurredAt(), Activity: a}
}

// Publisher delivers events. Delivery is at-least-once.
type Publisher interface {
	PublishActivity(ctx context.Context, e ActivityLogged) error
	Close() error
}

// Nop discards events; used when no broker is configured.
type Nop struct{}

func (Nop) PublishActivity(context.Context, ActivityLogged) error { return nil }
func (Nop) Close() error                                          { return nil }

func encode(e ActivityLogged) ([]byte, error) { return json.Marshal(e) }
