package circadian

import (
	"math"
	"time"

	"charmcli/internal/config"
	"charmcli/pkg/contracts/domain"
)

// Cole-Kripke weights for 60 s epochs, from four minutes before to two
// minutes after the scored minute
var coleKripkeWeights = [7]float64{106, 54, 58, 76, 230, 74, 67}

const (
	coleKripkeScale   = 0.001
	coleKripkeDivisor = 100
	coleKripkeCap     = 300
	coleKripkeLead    = 4
)

// SleepParams controls how scored minutes are grouped into in-bed periods
type SleepParams struct {
	// MaxWakeGap joins sleep bouts separated by at most this much wake
	MaxWakeGap time.Duration
	// MinPeriod drops periods shorter than this
	MinPeriod time.Duration
}

// DefaultSleepParams returns the night-sleep defaults
func DefaultSleepParams() SleepParams {
	return SleepParams{MaxWakeGap: time.Hour, MinPeriod: 3 * time.Hour}
}

// ScoredMinute is one minute of the sleep/wake scoring
type ScoredMinute struct {
	Time  time.Time
	Sleep bool
}

// Score classifies every minute from the first to the last epoch as sleep
// or wake on the vertical axis counts. Minutes without an epoch count as
// zero activity.
func Score(epochs []domain.ActigraphEpoch) []ScoredMinute {
	if len(epochs) == 0 {
		return nil
	}
	start := epochs[0].Time.Time.Truncate(config.EpochLength)
	end := start
	for _, e := range epochs {
		t := e.Time.Time.Truncate(config.EpochLength)
		if t.Before(start) {
			start = t
		}
		if t.After(end) {
			end = t
		}
	}

	n := int(end.Sub(start)/config.EpochLength) + 1
	w := make([]float64, n)
	for _, e := range epochs {
		i := int(e.Time.Time.Truncate(config.EpochLength).Sub(start) / config.EpochLength)
		w[i] = math.Min(e.Axis1/coleKripkeDivisor, coleKripkeCap)
	}

	out := make([]ScoredMinute, n)
	for i := range out {
		var d float64
		for k, weight := range coleKripkeWeights {
			j := i + k - coleKripkeLead
			if j < 0 || j >= n {
				continue
			}
			d += weight * w[j]
		}
		out[i] = ScoredMinute{
			Time:  start.Add(time.Duration(i) * config.EpochLength),
			Sleep: coleKripkeScale*d < 1,
		}
	}
	return out
}

// SleepPeriods groups scored minutes into in-bed periods. InBed is the first
// sleep minute and OutBed the minute after the last one.
func SleepPeriods(scored []ScoredMinute, p SleepParams) []domain.SleepPeriod {
	var bouts []domain.Interval
	for i := 0; i < len(scored); {
		if !scored[i].Sleep {
			i++
			continue
		}
		j := i
		for j+1 < len(scored) && scored[j+1].Sleep {
			j++
		}
		bout := domain.NewInterval(scored[i].Time, scored[j].Time.Add(config.EpochLength))
		if n := len(bouts); n > 0 && bout.Start.Sub(bouts[n-1].End.Time) <= p.MaxWakeGap {
			bouts[n-1].End = bout.End
		} else {
			bouts = append(bouts, bout)
		}
		i = j + 1
	}

	var out []domain.SleepPeriod
	for _, b := range bouts {
		if b.Duration() < p.MinPeriod {
			continue
		}
		out = append(out, domain.SleepPeriod{InBed: b.Start, OutBed: b.End})
	}
	return out
}
