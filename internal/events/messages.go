// Package events carries ledger change notifications over AMQP. The worker
// consumes them to refresh balances and push the year grid to Google Sheets.
package events

import (
	"encoding/json"
	"time"
)

// Event kinds.
const (
	KindMovementCreated = "movement.created"
	KindMovementUpdated = "movement.updated"
	KindMovementDeleted = "movement.deleted"
)

// LedgerEvent is a lightweight change notification. It names the movement
// and the fiscal year it touches, the consumer reloads whatever else it
// needs from the ledger.
type LedgerEvent struct {
	Kind       string    `json:"kind"`
	MovementID int64     `json:"movement_id"`
	Year       int       `json:"year"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps a ledger event with the current time.
func NewLedgerEvent(kind string, movementID int64, year int) LedgerEvent {
	return LedgerEvent{
		Kind:       kind,
		MovementID: movementID,
		Year:       year,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON parses an event from JSON bytes.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
