package sessions

import (
	"errors"
	"sort"
	"time"
)

// ErrNoEvents is returned by ComputeAggregates when called with zero
// events. The coordinator always recomputes with at least the freshly
// inserted event, so hitting this in normal flow is a programmer error.
var ErrNoEvents = errors.New("no events to aggregate")

// ComputeAggregates derives the session summary from the complete event
// set. Events are sorted by timestamp first (ties broken by event id, so
// that recomputation over the same input is deterministic), which makes
// the result independent of arrival order: a late event simply folds
// into its sorted position on the next recomputation pass.
func ComputeAggregates(events []Event) (Aggregates, error) {
	if len(events) == 0 {
		return Aggregates{}, ErrNoEvents
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	agg := Aggregates{
		StartTime:  sorted[0].Timestamp,
		EndTime:    sorted[len(sorted)-1].Timestamp,
		EventCount: len(sorted),
	}
	agg.LastEventTime = agg.EndTime

	for _, e := range sorted {
		agg.TotalDuration += e.Duration
		agg.TotalDistance += e.Distance
		agg.TotalCalories += e.Calories
		agg.TotalSteps += e.Steps
	}

	return agg, nil
}

// DefaultAggregates returns a zero-valued aggregate anchored at the given
// instant, for callers that need a baseline before any event exists.
func DefaultAggregates(ts time.Time) Aggregates {
	return Aggregates{
		StartTime:     ts,
		EndTime:       ts,
		LastEventTime: ts,
	}
}
