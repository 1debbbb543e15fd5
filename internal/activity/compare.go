package activity

import (
	"fmt"

	"charmcli/internal/series"
	"charmcli/internal/stats"
	"charmcli/pkg/contracts/domain"
)

const comparisonPlaces = 4

// Compare summarises the agreement of the cleaned series of one participant
func Compare(id string, pairs []domain.ActivityPair) domain.ACComparison {
	acti := make([]float64, len(pairs))
	watch := make([]float64, len(pairs))
	for i, p := range pairs {
		acti[i] = p.Acti
		watch[i] = p.Watch
	}

	meanDiff, halfWidth := stats.BlandAltman(acti, watch)
	t := stats.TTestInd(watch, acti)
	r := stats.Pearson(watch, acti)
	reg := stats.LinearRegression(watch, acti)

	round := func(x float64) float64 { return stats.Round(x, comparisonPlaces) }
	return domain.ACComparison{
		ID:             id,
		MAE:            round(stats.MAE(watch, acti)),
		RMSE:           round(stats.RMSE(watch, acti)),
		MeanDifference: round(meanDiff),
		LoA:            fmt.Sprintf("[%s, %s]", series.FormatFloat(round(meanDiff-halfWidth)), series.FormatFloat(round(meanDiff+halfWidth))),
		TStatistic:     round(t.Statistic),
		TPValue:        round(t.P),
		Correlation:    round(r.Statistic),
		CorrPValue:     round(r.P),
		Slope:          round(reg.Slope),
		Intercept:      round(reg.Intercept),
		RSquared:       round(reg.RSquared),
	}
}

// PairsTable renders the cleaned series with the configured labels
func PairsTable(pairs []domain.ActivityPair, timeCol, actiCol, watchCol string) *series.Table {
	tbl := series.NewTable(timeCol, actiCol, watchCol, "diff", "average")
	for _, p := range pairs {
		tbl.Append(p.Time, p.Acti, p.Watch, p.Diff, p.Average)
	}
	return tbl
}

// PairsFromTable reads a table written by PairsTable
func PairsFromTable(tbl *series.Table, timeCol, actiCol, watchCol string) ([]domain.ActivityPair, error) {
	times, err := tbl.Times(timeCol)
	if err != nil {
		return nil, err
	}
	acti, err := tbl.Floats(actiCol)
	if err != nil {
		return nil, err
	}
	watch, err := tbl.Floats(watchCol)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ActivityPair, len(times))
	for i := range times {
		out[i] = domain.NewActivityPair(times[i], acti[i], watch[i])
	}
	return out, nil
}

// RepeatedMeasures correlates the smartwatch with the Actigraph counts across
// participants, accounting for repeated minutes per participant
func RepeatedMeasures(byParticipant map[string][]domain.ActivityPair) domain.RMCorr {
	var subjects []string
	var x, y []float64
	for id, pairs := range byParticipant {
		for _, p := range pairs {
			subjects = append(subjects, id)
			x = append(x, p.Watch)
			y = append(y, p.Acti)
		}
	}
	res := stats.RMCorr(subjects, x, y)
	return domain.RMCorr{
		R:        res.R,
		DOF:      res.DOF,
		PValue:   res.P,
		CILower:  res.CILower,
		CIUpper:  res.CIUpper,
		Subjects: res.Subjects,
	}
}
