package daterange

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// Range represents a half-open interval of nights [Start, End).
type Range struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

func New(start, end Date) (Range, error) {
	r := Range{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Inclusive builds the half-open range covering first..last inclusive.
func Inclusive(first, last Date) (Range, error) {
	return New(first, last.AddDays(1))
}

func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrInvalidRange
	}
	if !r.End.After(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

func (r Range) Nights() int {
	return r.Start.DaysUntil(r.End)
}

// Last returns the final day covered by the range.
func (r Range) Last() Date {
	return r.End.AddDays(-1)
}

func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

func (r Range) Contains(other Range) bool {
	return !other.Start.Before(r.Start) && !other.End.After(r.End)
}

func (r Range) ContainsDate(d Date) bool {
	return !d.Before(r.Start) && d.Before(r.End)
}

func (r Range) Adjacent(other Range) bool {
	return r.End.Equal(other.Start) || r.Start.Equal(other.End)
}

func (r Range) Merge(other Range) (Range, bool) {
	if !(r.Overlaps(other) || r.Adjacent(other)) {
		return Range{}, false
	}
	start := r.Start
	if other.Start.Before(start) {
		start = other.Start
	}
	end := r.End
	if other.End.After(end) {
		end = other.End
	}
	return Range{Start: start, End: end}, true
}

// Days lists every date in the range in ascending order.
func (r Range) Days() []Date {
	n := r.Nights()
	if n <= 0 {
		return nil
	}
	out := make([]Date, 0, n)
	for d := r.Start; d.Before(r.End); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}

// Consolidate merges overlapping and adjacent ranges and returns them sorted by start.
func Consolidate(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Validate() == nil {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].End.Before(sorted[j].End)
	})
	out := make([]Range, 0, len(sorted))
	for _, r := range sorted {
		if n := len(out); n > 0 {
			if merged, ok := out[n-1].Merge(r); ok {
				out[n-1] = merged
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// FromTimes converts wall-clock timestamps to a range using their calendar dates in UTC.
func FromTimes(start, end time.Time) (Range, error) {
	return New(DateOf(start.UTC()), DateOf(end.UTC()))
}
