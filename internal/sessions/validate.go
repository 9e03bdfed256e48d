package sessions

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	maxDistance     = 100_000
	maxCalories     = 10_000
	maxSteps        = 100_000
	maxDuration     = 86_400
	maxFutureDrift  = time.Hour
	maxPastInterval = 30 * 24 * time.Hour
)

// ValidationError carries the full list of violated constraints for one
// payload. It maps to a 400 at the request boundary and is never retried.
type ValidationError struct {
	Violations []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("invalid event payload: %s", strings.Join(ve.Violations, "; "))
}

// NormalizeEvent validates the raw payload and converts it into a
// normalized Event with all absent measures defaulted to 0. The returned
// error is a *ValidationError listing every violation, not just the first.
func NormalizeEvent(payload EventPayload, now time.Time) (Event, error) {
	var violations []string

	if payload.EventID == "" {
		violations = append(violations, "eventId is required")
	}
	if payload.SessionID == "" {
		violations = append(violations, "sessionId is required")
	}
	if payload.UserID == "" {
		violations = append(violations, "userId is required")
	}

	var timestamp time.Time
	if payload.Timestamp == "" {
		violations = append(violations, "timestamp is required")
	} else {
		var err error
		timestamp, err = time.Parse(time.RFC3339, payload.Timestamp)
		if err != nil {
			violations = append(violations, fmt.Sprintf("timestamp is not a valid RFC3339 instant: %s", payload.Timestamp))
		} else {
			if timestamp.After(now.Add(maxFutureDrift)) {
				violations = append(violations, "timestamp is more than 1 hour in the future")
			}
			if timestamp.Before(now.Add(-maxPastInterval)) {
				violations = append(violations, "timestamp is more than 30 days in the past")
			}
		}
	}

	duration := measureValue(payload.Duration)
	if duration < 0 {
		violations = append(violations, "duration must not be negative")
	} else if duration > maxDuration {
		violations = append(violations, fmt.Sprintf("duration must not exceed %d", maxDuration))
	}

	distance := measureValue(payload.Distance)
	if distance < 0 {
		violations = append(violations, "distance must not be negative")
	} else if distance > maxDistance {
		violations = append(violations, fmt.Sprintf("distance must not exceed %d", maxDistance))
	}

	calories := measureValue(payload.Calories)
	if calories < 0 {
		violations = append(violations, "calories must not be negative")
	} else if calories > maxCalories {
		violations = append(violations, fmt.Sprintf("calories must not exceed %d", maxCalories))
	}

	stepsRaw := measureValue(payload.Steps)
	steps := int(stepsRaw)
	switch {
	case stepsRaw < 0:
		violations = append(violations, "steps must not be negative")
	case stepsRaw != math.Trunc(stepsRaw):
		violations = append(violations, "steps must be an integral value")
	case stepsRaw > maxSteps:
		violations = append(violations, fmt.Sprintf("steps must not exceed %d", maxSteps))
	}

	if len(violations) > 0 {
		return Event{}, &ValidationError{Violations: violations}
	}

	event := Event{
		ID:        payload.EventID,
		SessionID: payload.SessionID,
		UserID:    payload.UserID,
		Timestamp: timestamp,
		Duration:  duration,
		Distance:  distance,
		Calories:  calories,
		Steps:     steps,
		Version:   1,
	}
	if payload.SequenceNumber != nil {
		seq := *payload.SequenceNumber
		event.SequenceNumber = &seq
	}

	return event, nil
}

func measureValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
