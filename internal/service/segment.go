package service

import (
	"log/slog"
	"sort"
	"time"

	"github.com/asoares/lull/internal/timeperiod"
)

// RangeResolver resolves a single range pair to its nearest concrete segment
// at or after a reference instant. Implementations must be pure given the
// same inputs; the zero segment means nothing resolved.
type RangeResolver interface {
	FindNextSegment(rangeKey, rangeValue string, ref time.Time) (timeperiod.Segment, error)
}

// SegmentFinder selects the next upcoming segment from a schedule's full set
// of ranges.
type SegmentFinder struct {
	resolver RangeResolver
}

// NewSegmentFinder creates a segment finder backed by the given resolver.
func NewSegmentFinder(resolver RangeResolver) *SegmentFinder {
	return &SegmentFinder{resolver: resolver}
}

// NextSegment resolves every range pair against the reference instant and
// returns the candidate with the earliest begin that is not in the past, or
// the zero segment if none qualifies. Ranges are visited in sorted key order
// and a later key only wins with a strictly earlier begin, so ties break
// deterministically toward the lexicographically smallest key.
func (f *SegmentFinder) NextSegment(ranges map[string]string, ref time.Time) timeperiod.Segment {
	keys := make([]string, 0, len(ranges))
	for k := range ranges {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var best timeperiod.Segment
	for _, key := range keys {
		segment, err := f.resolver.FindNextSegment(key, ranges[key], ref)
		if err != nil {
			// Unparsable ranges are rejected at config acceptance; a failure
			// here means the resolver and validator grammars disagree.
			slog.Warn("Failed to resolve downtime range",
				"range_key", key,
				"range_value", ranges[key],
				"error", err,
			)
			continue
		}
		if segment.IsZero() {
			continue
		}

		slog.Debug("Considering downtime segment",
			"range_key", key,
			"begin", segment.Begin.Format(time.RFC3339),
			"end", segment.End.Format(time.RFC3339),
		)

		// The resolver may return a segment that has already begun (an
		// in-progress window anchored to the reference day); only future
		// windows are candidates.
		if segment.Begin.Before(ref) {
			continue
		}

		if best.IsZero() || segment.Begin.Before(best.Begin) {
			best = segment
		}
	}

	return best
}
