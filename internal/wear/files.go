package wear

import (
	"sort"
	"time"

	"charmcli/internal/files"
	"charmcli/pkg/contracts/domain"
)

// MissingHours lists the hours between start and end that have no export
// file in present. Hours are truncated, so a start at 10:23 expects the
// 10:00 file first.
func MissingHours(start, end time.Time, present []files.HourlyFile) []time.Time {
	have := make(map[time.Time]struct{}, len(present))
	for _, f := range present {
		have[f.Hour] = struct{}{}
	}

	var missing []time.Time
	for t := start; t.Before(end); t = t.Add(time.Hour) {
		hour := t.Truncate(time.Hour)
		if _, ok := have[hour]; !ok {
			missing = append(missing, hour)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Before(missing[j]) })
	return missing
}

// NoFileIntervals merges runs of consecutive missing hours into intervals
// [first, last+1h).
func NoFileIntervals(missing []time.Time) []domain.Interval {
	if len(missing) == 0 {
		return nil
	}
	var out []domain.Interval
	first, last := missing[0], missing[0]
	for _, h := range missing[1:] {
		if h.Sub(last) == time.Hour {
			last = h
			continue
		}
		out = append(out, domain.NewInterval(first, last.Add(time.Hour)))
		first, last = h, h
	}
	return append(out, domain.NewInterval(first, last.Add(time.Hour)))
}

// Combine removes the no-file intervals from the wear periods. Every gap
// end becomes a wear start and every gap start a wear end; after sorting
// both lists the pairs that do not satisfy start < end are dropped.
func Combine(wear Times, noFile []domain.Interval) []domain.Interval {
	starts := append([]time.Time(nil), wear.Starts...)
	ends := append([]time.Time(nil), wear.Ends...)
	for _, gap := range noFile {
		starts = append(starts, gap.End.Time)
		ends = append(ends, gap.Start.Time)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	sort.Slice(ends, func(i, j int) bool { return ends[i].Before(ends[j]) })

	n := len(starts)
	if len(ends) < n {
		n = len(ends)
	}
	out := make([]domain.Interval, 0, n)
	for i := 0; i < n; i++ {
		if starts[i].Before(ends[i]) {
			out = append(out, domain.NewInterval(starts[i], ends[i]))
		}
	}
	return out
}

// Span returns the first start and the last end of the wear boundaries
func (t Times) Span() (time.Time, time.Time, bool) {
	if len(t.Starts) == 0 || len(t.Ends) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.Starts[0], t.Ends[len(t.Ends)-1], true
}

// TimesOf splits intervals back into boundary lists
func TimesOf(intervals []domain.Interval) Times {
	t := Times{
		Starts: make([]time.Time, len(intervals)),
		Ends:   make([]time.Time, len(intervals)),
	}
	for i, iv := range intervals {
		t.Starts[i] = iv.Start.Time
		t.Ends[i] = iv.End.Time
	}
	return t
}
