package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	EVENT_ISSUED   = "issued"
	EVENT_REDEEMED = "redeemed"
	EVENT_ADMITTED = "admitted"
)

// Event is a ledger change pushed to /events subscribers.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Code      string    `json:"code,omitempty"`
	Principal string    `json:"principal,omitempty"`
	Time      time.Time `json:"time"`
}

func NewEvent(typ, code, principal string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Code:      code,
		Principal: principal,
		Time:      time.Now().UTC(),
	}
}
