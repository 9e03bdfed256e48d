package sessions

import (
	"sort"
)

// OrderCheck is the diagnostic result of classifying a new event against
// the events already stored for its session. It feeds logging and metrics
// only; the coordinator's full recomputation is what guarantees aggregate
// correctness, regardless of this signal.
type OrderCheck struct {
	IsOutOfOrder     bool `json:"isOutOfOrder"`
	ExpectedPosition int  `json:"expectedPosition"`
	ActualPosition   int  `json:"actualPosition"`
}

// ValidateEventOrder reports whether the new event arrives out of
// chronological order, and where in the sorted sequence it would land.
// An event is out of order when its timestamp precedes the latest
// existing timestamp.
func ValidateEventOrder(existing []Event, newEvent Event) OrderCheck {
	if len(existing) == 0 {
		return OrderCheck{}
	}

	sorted := make([]Event, len(existing))
	copy(sorted, existing)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	check := OrderCheck{
		// appended at the end is where an in-order event goes
		ActualPosition: len(sorted),
	}

	check.ExpectedPosition = sort.Search(len(sorted), func(i int) bool {
		return sorted[i].Timestamp.After(newEvent.Timestamp)
	})

	latest := sorted[len(sorted)-1].Timestamp
	check.IsOutOfOrder = newEvent.Timestamp.Before(latest)

	return check
}

// MergeEventData overlays the non-zero fields of incoming atop existing,
// preserving IngestedAt unless explicitly overridden, and bumps the
// version. It implements the alternate update-in-place policy for repeat
// event ids; the coordinator's default path does NOT call it - a repeat
// event id is treated as a pure duplicate there.
func MergeEventData(existing, incoming Event) Event {
	merged := existing

	if !incoming.Timestamp.IsZero() {
		merged.Timestamp = incoming.Timestamp
	}
	if incoming.Duration != 0 {
		merged.Duration = incoming.Duration
	}
	if incoming.Distance != 0 {
		merged.Distance = incoming.Distance
	}
	if incoming.Calories != 0 {
		merged.Calories = incoming.Calories
	}
	if incoming.Steps != 0 {
		merged.Steps = incoming.Steps
	}
	if incoming.SequenceNumber != nil {
		seq := *incoming.SequenceNumber
		merged.SequenceNumber = &seq
	}
	if incoming.UserID != "" {
		merged.UserID = incoming.UserID
	}
	if !incoming.IngestedAt.IsZero() {
		merged.IngestedAt = incoming.IngestedAt
	}

	merged.Version = existing.Version + 1
	return merged
}
