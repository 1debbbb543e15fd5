package domain

import (
	"time"

	"github.com/spf13/cast"
)

// Sample is a single timestamped value of one series
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Interval is a half-open span [Start, End) of wall-clock time
type Interval struct {
	Start Timestamp `csv:"Start" json:"start"`
	End   Timestamp `csv:"End" json:"end"`
}

// NewInterval builds an Interval from two times
func NewInterval(start, end time.Time) Interval {
	return Interval{Start: NewTimestamp(start), End: NewTimestamp(end)}
}

// Contains reports whether t falls inside [Start, End)
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start.Time) && t.Before(i.End.Time)
}

// Duration of the interval
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start.Time)
}

// NonWearPeriod is a row of the Actigraph non-wear file
type NonWearPeriod struct {
	Start Timestamp `csv:"period_start" json:"period_start"`
	End   Timestamp `csv:"period_end" json:"period_end"`
}

// Covers reports whether t lies inside the period, bounds included
func (p NonWearPeriod) Covers(t time.Time) bool {
	return !t.Before(p.Start.Time) && !t.After(p.End.Time)
}

// SleepPeriod is a row of the in-bed file
type SleepPeriod struct {
	InBed  Timestamp `csv:"in_bed_time" json:"in_bed_time"`
	OutBed Timestamp `csv:"out_bed_time" json:"out_bed_time"`
}

// StudyPeriod is one participant's recording window plus the CORE export
// format for that participant.
type StudyPeriod struct {
	ID         string `csv:"ID" json:"id"`
	Start      string `csv:"Start" json:"start"`
	End        string `csv:"End" json:"end"`
	Delimiter  string `csv:"Delimiter" json:"delimiter,omitempty"`
	Timeformat int    `csv:"Timeformat" json:"timeformat,omitempty"`

	StartTime time.Time `csv:"-" json:"-"`
	EndTime   time.Time `csv:"-" json:"-"`
}

// Window returns the study period as an Interval
func (p StudyPeriod) Window() Interval {
	return NewInterval(p.StartTime, p.EndTime)
}

// ActigraphEpoch is one 60 s epoch of the ActiLife export
type ActigraphEpoch struct {
	Time  Timestamp `csv:"time"`
	Axis1 float64   `csv:"Axis1"`
	Axis2 float64   `csv:"Axis2"`
	Axis3 float64   `csv:"Axis3"`
	AC    float64   `csv:"AC"`
}

// AccelSample is one smartwatch acceleration sample in g
type AccelSample struct {
	Time time.Time
	X    float64
	Y    float64
	Z    float64
}

// HeartRateSample is one smartwatch heart rate reading
type HeartRateSample struct {
	Time Timestamp `csv:"time"`
	HR   float64   `csv:"HR"`
	IBI  float64   `csv:"hrIbi"`
}

// BatterySample is one battery log line
type BatterySample struct {
	Time  time.Time
	Level float64
	State int
}

// TemperatureSample is one CORE minute
type TemperatureSample struct {
	Time    Timestamp `csv:"time"`
	CBT     float64   `csv:"CBT"`
	Quality float64   `csv:"qualityT"`
	SkinT   float64   `csv:"SkinT"`
}

// ActivityPair is one minute where both devices have counts
type ActivityPair struct {
	Time    time.Time
	Acti    float64
	Watch   float64
	Diff    float64
	Average float64
}

// NewActivityPair fills Diff and Average
func NewActivityPair(t time.Time, acti, watch float64) ActivityPair {
	return ActivityPair{
		Time:    t,
		Acti:    acti,
		Watch:   watch,
		Diff:    watch - acti,
		Average: (watch + acti) / 2,
	}
}

// HRVWindow holds the four variability metrics of a 10 minute window
type HRVWindow struct {
	Time   time.Time
	MeanRR float64
	SDNN   float64
	RMSSD  float64
	PNN50  float64
}

// SameID compares participant identifiers numerically when both parse as
// integers, so "7" and "07" match.
func SameID(a, b string) bool {
	if a == b {
		return true
	}
	ia, errA := cast.ToIntE(trimZeros(a))
	ib, errB := cast.ToIntE(trimZeros(b))
	return errA == nil && errB == nil && ia == ib
}

// NormalizeID renders a numeric identifier without leading zeros
func NormalizeID(id string) string {
	n, err := cast.ToIntE(trimZeros(id))
	if err != nil {
		return id
	}
	return cast.ToString(n)
}

// cast reads leading zeros as octal
func trimZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}

// LessID orders identifiers numerically when both are numbers, otherwise
// lexically
func LessID(a, b string) bool {
	ia, errA := cast.ToIntE(trimZeros(a))
	ib, errB := cast.ToIntE(trimZeros(b))
	if errA == nil && errB == nil {
		return ia < ib
	}
	return a < b
}
