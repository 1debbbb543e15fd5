package wear

import (
	"math"

	"charmcli/internal/stats"
	"charmcli/pkg/contracts/domain"
)

// RemoveNonWear drops the Actigraph epochs covered by any non-wear period
// and returns the share of removed epochs in percent, rounded to two
// decimals. The share is NaN when there are no epochs.
func RemoveNonWear(epochs []domain.ActigraphEpoch, periods []domain.NonWearPeriod) ([]domain.ActigraphEpoch, float64) {
	kept := make([]domain.ActigraphEpoch, 0, len(epochs))
	for _, e := range epochs {
		worn := true
		for _, p := range periods {
			if p.Covers(e.Time.Time) {
				worn = false
				break
			}
		}
		if worn {
			kept = append(kept, e)
		}
	}
	return kept, RemovedPercent(len(epochs), len(kept))
}

// RemovedPercent is (whole-kept)/whole in percent, rounded to two decimals
func RemovedPercent(whole, kept int) float64 {
	if whole == 0 {
		return math.NaN()
	}
	return stats.Round(float64(whole-kept)/float64(whole)*100, 2)
}
