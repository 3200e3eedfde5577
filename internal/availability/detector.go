package availability

import (
	"time"
)

// RangesOverlap reports whether two half-open intervals [start, end)
// intersect. Touching ranges (one ends exactly when the other starts) do
// not overlap, which is what allows back-to-back bookings.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ConflictOptions tunes FindOverlappingUnavailableEvents.
type ConflictOptions struct {
	// ExcludeAvailabilityID skips the block currently being edited so the
	// form does not warn about itself.
	ExcludeAvailabilityID *uint
}

var windowLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseWindowTimestamp(value string) (time.Time, bool) {
	for _, layout := range windowLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FindOverlappingUnavailableEvents returns the unavailable blocks that
// conflict with the candidate window, preserving input order. An
// unparseable window yields an empty result rather than an error: this
// runs on every form change, where a half-typed date is normal. The input
// slice is never mutated.
func FindOverlappingUnavailableEvents(events []Availability, windowStart, windowEnd string, opts ConflictOptions) []Availability {
	start, ok := parseWindowTimestamp(windowStart)
	if !ok {
		return []Availability{}
	}
	end, ok := parseWindowTimestamp(windowEnd)
	if !ok {
		return []Availability{}
	}

	conflicts := []Availability{}
	for _, event := range events {
		if event.IsAvailable {
			continue
		}
		if opts.ExcludeAvailabilityID != nil && event.ID == *opts.ExcludeAvailabilityID {
			continue
		}
		if RangesOverlap(start, end, event.Start, event.End) {
			conflicts = append(conflicts, event)
		}
	}
	return conflicts
}
