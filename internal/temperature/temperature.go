// Package temperature cleans CORE body temperature recordings and measures
// how much of the study period they cover.
package temperature

import (
	"math"
	"time"

	"charmcli/internal/readers"
	"charmcli/internal/wear"
	"charmcli/pkg/contracts/domain"
)

// Result is the cleaned recording of one participant
type Result struct {
	Samples []domain.TemperatureSample
	NoWear  float64
}

// Process reads the CORE export of a participant and computes the share of
// study minutes without a valid sample
func Process(path string, period domain.StudyPeriod) (Result, error) {
	samples, err := readers.ReadCore(path, period)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Samples: samples,
		NoWear:  MissPercent(samples, period.StartTime, period.EndTime),
	}, nil
}

// MissPercent compares the distinct sample minutes with the minutes
// expected between start and end, both included
func MissPercent(samples []domain.TemperatureSample, start, end time.Time) float64 {
	if end.Before(start) {
		return math.NaN()
	}
	expected := int(end.Sub(start)/time.Minute) + 1

	seen := make(map[time.Time]struct{}, len(samples))
	for _, s := range samples {
		seen[s.Time.Time] = struct{}{}
	}
	return wear.RemovedPercent(expected, len(seen))
}
