package analysis

import "math"

// Event is one contiguous run of samples above a threshold.
type Event struct {
	Start int
	End   int // exclusive
	Peak  float64
	Size  float64 // sum of samples above threshold
}

func (e Event) Duration() int { return e.End - e.Start }

// Magnitude is log10 of the event size, or -Inf for an empty event.
func (e Event) Magnitude() float64 {
	if e.Size <= 0 {
		return math.Inf(-1)
	}
	return math.Log10(e.Size)
}

// SlipEvents splits series (oldest first) into bursts above threshold.
// An event still open at the end of the series is included.
func SlipEvents(series []float64, threshold float64) []Event {
	var events []Event
	open := false
	var cur Event

	for i, v := range series {
		if v > threshold {
			if !open {
				cur = Event{Start: i}
				open = true
			}
			cur.Size += v - threshold
			if v > cur.Peak {
				cur.Peak = v
			}
			continue
		}
		if open {
			cur.End = i
			events = append(events, cur)
			open = false
		}
	}
	if open {
		cur.End = len(series)
		events = append(events, cur)
	}
	return events
}

// MagnitudeCounts buckets events by floor(Magnitude) and returns the
// count per bucket.
func MagnitudeCounts(events []Event) map[int]int {
	counts := make(map[int]int)
	for _, e := range events {
		m := e.Magnitude()
		if math.IsInf(m, -1) {
			continue
		}
		counts[int(math.Floor(m))]++
	}
	return counts
}
