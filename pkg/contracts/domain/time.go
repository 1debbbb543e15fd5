package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// TimeLayout is the timestamp layout of every table written by the pipeline.
const TimeLayout = "2006-01-02 15:04:05"

// Study times are wall-clock times without a zone. They are stored as UTC so
// truncation and binning operate on the wall clock directly.

// knownLayouts are tried before falling back to dateparse
var knownLayouts = []string{
	TimeLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
}

// ParseTime parses a wall-clock timestamp. Date-only values mean midnight.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range knownLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised timestamp %q: %w", s, err)
	}
	return WallClock(t), nil
}

// WallClock drops the zone of t, keeping its wall-clock reading
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// FromUnixMilli converts a device timestamp in milliseconds to wall-clock
// time in loc
func FromUnixMilli(ms float64, loc *time.Location) time.Time {
	whole := int64(ms)
	nanos := int64((ms - float64(whole)) * 1e6)
	return WallClock(time.UnixMilli(whole).Add(time.Duration(nanos)).In(loc))
}

// FormatTime renders t in TimeLayout, keeping fractional seconds if present
func FormatTime(t time.Time) string {
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02 15:04:05.000000")
	}
	return t.Format(TimeLayout)
}

// FloorTo truncates t to a multiple of d counted from midnight
func FloorTo(t time.Time, d time.Duration) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.Add(t.Sub(midnight) / d * d)
}

// CeilTo rounds t up to a multiple of d counted from midnight
func CeilTo(t time.Time, d time.Duration) time.Time {
	f := FloorTo(t, d)
	if f.Equal(t) {
		return f
	}
	return f.Add(d)
}

// RoundTo rounds t to the nearest multiple of d, halves to even like pandas
func RoundTo(t time.Time, d time.Duration) time.Time {
	f := FloorTo(t, d)
	rem := t.Sub(f)
	switch {
	case rem*2 < d:
		return f
	case rem*2 > d:
		return f.Add(d)
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if (f.Sub(midnight)/d)%2 == 0 {
		return f
	}
	return f.Add(d)
}

// Timestamp is a time.Time that reads and writes TimeLayout in CSV files
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// MarshalCSV implements gocsv.TypeMarshaller
func (t Timestamp) MarshalCSV() (string, error) {
	if t.IsZero() {
		return "", nil
	}
	return FormatTime(t.Time), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller
func (t *Timestamp) UnmarshalCSV(s string) error {
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalText renders the timestamp for JSON
func (t Timestamp) MarshalText() ([]byte, error) {
	s, err := t.MarshalCSV()
	return []byte(s), err
}
