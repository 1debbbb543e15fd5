package wear

import (
	"log/slog"
	"math"
	"time"

	"charmcli/internal/config"
	"charmcli/pkg/contracts/domain"
)

// Times are the boundaries of wear periods. Starts[i] pairs with Ends[i].
type Times struct {
	Starts []time.Time
	Ends   []time.Time
}

// Intervals pairs starts and ends. Unpaired boundaries and reversed pairs
// are logged and left out.
func (t Times) Intervals(logger *slog.Logger) []domain.Interval {
	if logger == nil {
		logger = slog.Default()
	}
	n := len(t.Starts)
	if len(t.Ends) != n {
		logger.Warn("wear boundaries do not pair up",
			slog.Int("starts", len(t.Starts)),
			slog.Int("ends", len(t.Ends)))
		if len(t.Ends) < n {
			n = len(t.Ends)
		}
	}

	out := make([]domain.Interval, 0, n)
	for i := 0; i < n; i++ {
		if t.Ends[i].Before(t.Starts[i]) {
			logger.Warn("wear period ends before it starts",
				slog.Int("index", i),
				slog.String("start", domain.FormatTime(t.Starts[i])),
				slog.String("end", domain.FormatTime(t.Ends[i])))
			continue
		}
		out = append(out, domain.NewInterval(t.Starts[i], t.Ends[i]))
	}
	return out
}

func discharging(state int) bool { return state == 1 || state == 2 }
func charging(state int) bool    { return state >= 3 && state <= 6 }

// ChargingByStatus finds charging periods from state transitions. A switch
// from a discharging state to a charging state starts a charge two minutes
// earlier, a charging sample followed by a discharging one ends it two
// minutes later. The wear periods are the gaps between charges inside the
// study period.
func ChargingByStatus(battery []domain.BatterySample, start, end time.Time) Times {
	var chargeStarts, chargeEnds []time.Time
	for i, b := range battery {
		if !charging(b.State) {
			continue
		}
		if i > 0 && discharging(battery[i-1].State) {
			chargeStarts = append(chargeStarts, b.Time.Add(-config.ChargingStatusSlop))
		}
		if i+1 < len(battery) && discharging(battery[i+1].State) {
			chargeEnds = append(chargeEnds, b.Time.Add(config.ChargingStatusSlop))
		}
	}

	// a log that starts while charging has an end without a start, one that
	// stops while charging a start without an end
	if len(chargeStarts) < len(chargeEnds) {
		chargeEnds = chargeEnds[1:]
	} else if len(chargeStarts) > len(chargeEnds) {
		chargeStarts = chargeStarts[:len(chargeStarts)-1]
	}

	t := Times{
		Starts: append([]time.Time{start}, chargeEnds...),
		Ends:   append(chargeStarts, end),
	}
	return t
}

// LevelParams tunes ChargingByLevel
type LevelParams struct {
	Window    int
	Buffer    time.Duration
	Threshold float64
}

// DefaultLevelParams suits battery logs sampled about every 10 seconds
func DefaultLevelParams() LevelParams {
	return LevelParams{Window: 40, Buffer: config.ChargingBuffer, Threshold: 5}
}

// ChargingByLevel finds charging periods from the battery level in a moving
// window. A window whose first half holds the level between two samples at
// least once and whose second half gains more than Threshold percent marks
// the start of a charge. A window whose
// first half gains more than Threshold and whose second half drops, or whose
// state switches from charging to discharging at the half, marks its end.
// Matched windows are skipped as a whole.
func ChargingByLevel(battery []domain.BatterySample, start, end time.Time, p LevelParams) Times {
	n := len(battery)
	w := p.Window
	half := w / 2

	// diffs[i] is the level change from sample i-1 to i; the first sample
	// of a window has no predecessor inside it
	diffs := func(i int) []float64 {
		d := make([]float64, w)
		d[0] = math.NaN()
		for k := 1; k < w; k++ {
			d[k] = battery[i+k].Level - battery[i+k-1].Level
		}
		return d
	}

	var ends []time.Time
	for i := 0; i < n-w; {
		d := diffs(i)
		if anyZero(d[:half]) && nanSum(d[half:]) > p.Threshold {
			ends = append(ends, battery[i].Time.Add(-p.Buffer))
			i += w
			continue
		}
		i++
	}
	ends = append(ends, end)

	starts := []time.Time{start}
	for i := 0; i < n-w; {
		d := diffs(i)
		last := battery[i+w-1].Time
		switch {
		case nanSum(d[:half]) > p.Threshold && nanSum(d[half:]) <= -1:
			starts = append(starts, last.Add(p.Buffer))
			i += w
		case statesAll(battery[i:i+half], charging3plus) && statesAll(battery[i+half+1:i+w], atMostTwo):
			starts = append(starts, last.Add(p.Buffer))
			i += w
		default:
			i++
		}
	}

	return Times{Starts: starts, Ends: ends}
}

func charging3plus(state int) bool { return state > 2 }
func atMostTwo(state int) bool     { return state <= 2 }

func statesAll(samples []domain.BatterySample, pred func(int) bool) bool {
	for _, s := range samples {
		if !pred(s.State) {
			return false
		}
	}
	return true
}

func anyZero(values []float64) bool {
	for _, v := range values {
		if v == 0 {
			return true
		}
	}
	return false
}

func nanSum(values []float64) float64 {
	var s float64
	for _, v := range values {
		if !math.IsNaN(v) {
			s += v
		}
	}
	return s
}
