package activity

import (
	"time"

	"charmcli/internal/config"
	"charmcli/internal/wear"
	"charmcli/pkg/contracts/domain"
)

// singleNonWearFloor keeps a minute regardless of the relative difference
// when the absolute difference is below it
const singleNonWearFloor = 500

// Merge pairs the minutes present in both series, in smartwatch order
func Merge(acti, watch []domain.ActigraphEpoch) []domain.ActivityPair {
	byTime := make(map[time.Time]float64, len(acti))
	for _, e := range acti {
		if _, dup := byTime[e.Time.Time]; !dup {
			byTime[e.Time.Time] = e.AC
		}
	}

	out := make([]domain.ActivityPair, 0, len(watch))
	for _, e := range watch {
		a, ok := byTime[e.Time.Time]
		if !ok {
			continue
		}
		out = append(out, domain.NewActivityPair(e.Time.Time, a, e.AC))
	}
	return out
}

// CleanResult is the cleaned series with the share removed at each stage
type CleanResult struct {
	Pairs        []domain.ActivityPair
	Charging     float64
	BothNoWear   float64
	SingleNoWear float64
}

// Clean removes both- and single-device non-wear from the merged series.
// Charging is the share of Actigraph minutes lost in the merge.
func Clean(actiEpochs int, merged []domain.ActivityPair, sleep []domain.SleepPeriod) CleanResult {
	both, bothPct := RemoveBothNonWear(merged, sleep)
	single, singlePct := RemoveSingleNonWear(both)
	return CleanResult{
		Pairs:        single,
		Charging:     wear.RemovedPercent(actiEpochs, len(merged)),
		BothNoWear:   bothPct,
		SingleNoWear: singlePct,
	}
}

func inSleep(t time.Time, sleep []domain.SleepPeriod) bool {
	for _, s := range sleep {
		if t.After(s.InBed.Time) && t.Before(s.OutBed.Time) {
			return true
		}
	}
	return false
}

// RemoveBothNonWear walks 15 minute windows from the first minute. A window
// starting outside sleep is dropped when it has at least two minutes and
// every minute but the last is zero on both devices. Minutes after the last
// full window are not kept.
func RemoveBothNonWear(pairs []domain.ActivityPair, sleep []domain.SleepPeriod) ([]domain.ActivityPair, float64) {
	if len(pairs) == 0 {
		return nil, wear.RemovedPercent(0, 0)
	}
	first, last := pairs[0].Time, pairs[0].Time
	for _, p := range pairs {
		if p.Time.Before(first) {
			first = p.Time
		}
		if p.Time.After(last) {
			last = p.Time
		}
	}

	window := config.NonWearWindow
	kept := make([]domain.ActivityPair, 0, len(pairs))
	for ws := first; !ws.After(last.Add(-window)); ws = ws.Add(window) {
		we := ws.Add(window)
		var rows []domain.ActivityPair
		for _, p := range pairs {
			if !p.Time.Before(ws) && p.Time.Before(we) {
				rows = append(rows, p)
			}
		}

		if !inSleep(ws, sleep) && len(rows) >= 2 && bothZero(rows[:len(rows)-1]) {
			continue
		}
		kept = append(kept, rows...)
	}
	return kept, wear.RemovedPercent(len(pairs), len(kept))
}

func bothZero(rows []domain.ActivityPair) bool {
	for _, r := range rows {
		if r.Acti != 0 || r.Watch != 0 {
			return false
		}
	}
	return true
}

// RemoveSingleNonWear keeps minutes whose difference lies within twice the
// average or below 500 counts in magnitude
func RemoveSingleNonWear(pairs []domain.ActivityPair) ([]domain.ActivityPair, float64) {
	kept := make([]domain.ActivityPair, 0, len(pairs))
	for _, p := range pairs {
		relative := p.Diff < 2*p.Average && p.Diff > -2*p.Average
		absolute := p.Diff < singleNonWearFloor && p.Diff > -singleNonWearFloor
		if relative || absolute {
			kept = append(kept, p)
		}
	}
	return kept, wear.RemovedPercent(len(pairs), len(kept))
}
