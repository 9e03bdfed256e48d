package sessions

import (
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEventExists     = errors.New("event already exists")
	// ErrVersionConflict is returned by UpdateSession when the session row
	// was modified by a concurrent transaction since it was read.
	ErrVersionConflict = errors.New("session version conflict")
)

// Session is the running aggregate record for one exercise session.
// It is mutated exclusively through the upsert coordinator's transaction;
// Version is the optimistic-concurrency counter bumped on every update.
type Session struct {
	ID            string    `json:"sessionId"`
	UserID        string    `json:"userId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	TotalDuration float64   `json:"totalDuration"`
	TotalDistance float64   `json:"totalDistance"`
	TotalCalories float64   `json:"totalCalories"`
	TotalSteps    int       `json:"totalSteps"`
	EventCount    int       `json:"eventCount"`
	LastEventTime time.Time `json:"lastEventTime"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Aggregates is the session-level summary derived from the complete
// event set of one session.
type Aggregates struct {
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	LastEventTime time.Time `json:"lastEventTime"`
	TotalDuration float64   `json:"totalDuration"`
	TotalDistance float64   `json:"totalDistance"`
	TotalCalories float64   `json:"totalCalories"`
	TotalSteps    int       `json:"totalSteps"`
	EventCount    int       `json:"eventCount"`
}

// Apply overwrites the session's aggregate fields with freshly
// recomputed values.
func (s *Session) Apply(agg Aggregates) {
	s.StartTime = agg.StartTime
	s.EndTime = agg.EndTime
	s.LastEventTime = agg.LastEventTime
	s.TotalDuration = agg.TotalDuration
	s.TotalDistance = agg.TotalDistance
	s.TotalCalories = agg.TotalCalories
	s.TotalSteps = agg.TotalSteps
	s.EventCount = agg.EventCount
}

// CurrentAggregates returns the aggregate view of the session as stored.
func (s *Session) CurrentAggregates() Aggregates {
	return Aggregates{
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		LastEventTime: s.LastEventTime,
		TotalDuration: s.TotalDuration,
		TotalDistance: s.TotalDistance,
		TotalCalories: s.TotalCalories,
		TotalSteps:    s.TotalSteps,
		EventCount:    s.EventCount,
	}
}
