package sessions

import (
	"time"
)

// Event (DB level type) is one immutable measurement interval reported
// by a client for a session, such as:
//   - a treadmill interval (with duration, distance, calories)
//   - a step counter report (with steps)
//   - a mixed interval carrying any subset of the measures
//
// The core measures of an event never change after the first successful
// write. Version moves only on the explicit merge-update path, never on
// normal ingestion.
type Event struct {
	ID             string    `json:"eventId"`
	SessionID      string    `json:"sessionId"`
	UserID         string    `json:"userId"`
	Timestamp      time.Time `json:"timestamp"`
	Duration       float64   `json:"duration"`
	Distance       float64   `json:"distance"`
	Calories       float64   `json:"calories"`
	Steps          int       `json:"steps"`
	SequenceNumber *int      `json:"sequenceNumber,omitempty"`
	IngestedAt     time.Time `json:"ingestedAt"`
	Version        int       `json:"version"`
}

// EventPayload is the raw, client-supplied ingestion payload as it
// arrives over the wire, before validation and normalization.
// Measure fields are pointers so that "absent" and "zero" can be
// told apart during validation; absent measures default to 0.
type EventPayload struct {
	EventID        string   `json:"eventId"`
	SessionID      string   `json:"sessionId"`
	UserID         string   `json:"userId"`
	Timestamp      string   `json:"timestamp"`
	Duration       *float64 `json:"duration,omitempty"`
	Distance       *float64 `json:"distance,omitempty"`
	Calories       *float64 `json:"calories,omitempty"`
	Steps          *float64 `json:"steps,omitempty"`
	SequenceNumber *int     `json:"sequenceNumber,omitempty"`
	IdempotencyKey string   `json:"idempotencyKey,omitempty"`
}
