package comparison

import (
	"math"

	"charmcli/internal/config"
	"charmcli/internal/stats"
	"charmcli/pkg/contracts/domain"
)

// MEQ score borders of the chronotype groups
const (
	EveningBorder = 42
	MorningBorder = 58
)

// Chronotype group names
const (
	GroupEvening      = "Evening"
	GroupIntermediate = "Intermediate"
	GroupMorning      = "Morning"
)

// Chronotype maps an MEQ score onto its group
func Chronotype(score float64) string {
	switch {
	case score < EveningBorder:
		return GroupEvening
	case score <= MorningBorder:
		return GroupIntermediate
	default:
		return GroupMorning
	}
}

// FocusSensors returns the sensors compared across chronotype groups
func FocusSensors(cols config.Columns) []string {
	return []string{cols.Acti, cols.Watch, cols.CBT, cols.SkinT, cols.HR, cols.HRV1, cols.HRV3}
}

type member struct {
	time  float64
	meq   float64
	demo  domain.Demographic
	known bool
}

// groups splits the participants with an acrophase time for sensor into
// evening, intermediate and morning groups
func groups(m *Metrics, meq []domain.MEQScore, demographics []domain.Demographic, sensor string) [3][]member {
	demo := make(map[string]domain.Demographic, len(demographics))
	for _, d := range demographics {
		demo[domain.NormalizeID(d.ID)] = d
	}

	var out [3][]member
	for _, q := range meq {
		if math.IsNaN(q.Score) {
			continue
		}
		t, ok := m.Value(q.ID, sensor, "time")
		if !ok {
			continue
		}
		d, known := demo[domain.NormalizeID(q.ID)]
		mb := member{time: t, meq: q.Score, demo: d, known: known}
		switch Chronotype(q.Score) {
		case GroupEvening:
			out[0] = append(out[0], mb)
		case GroupIntermediate:
			out[1] = append(out[1], mb)
		default:
			out[2] = append(out[2], mb)
		}
	}
	return out
}

func times(members []member) []float64 {
	out := make([]float64, len(members))
	for i, mb := range members {
		out[i] = mb.time
	}
	return out
}

// CompareGroups tests whether the acrophase time of each sensor differs
// between chronotype groups. Kruskal-Wallis covers all three groups, the
// rank-sum tests compare evening with intermediate (EI), intermediate with
// morning (IM) and evening with morning (EM).
func CompareGroups(m *Metrics, meq []domain.MEQScore, demographics []domain.Demographic, sensors []string) []domain.GroupComparison {
	out := make([]domain.GroupComparison, 0, len(sensors))
	for _, sensor := range sensors {
		g := groups(m, meq, demographics, sensor)
		e, i, mo := times(g[0]), times(g[1]), times(g[2])

		kw := stats.KruskalWallis(e, i, mo)
		ei := stats.RankSums(e, i)
		im := stats.RankSums(i, mo)
		em := stats.RankSums(e, mo)
		lev := stats.Levene(e, i, mo)
		out = append(out, domain.GroupComparison{
			Sensor:   sensor,
			H:        stats.Round(kw.Statistic, 2),
			PKruskal: stats.Round(kw.P, 4),
			ZEI:      stats.Round(ei.Statistic, 2),
			PEI:      stats.Round(ei.P, 4),
			ZIM:      stats.Round(im.Statistic, 2),
			PIM:      stats.Round(im.P, 4),
			ZEM:      stats.Round(em.Statistic, 2),
			PEM:      stats.Round(em.P, 4),
			Levene:   stats.Round(lev.Statistic, 2),
			PLevene:  stats.Round(lev.P, 4),
		})
	}
	return out
}

// DescribeGroups summarises acrophase time, age, MEQ score and the share of
// women in each chronotype group for every sensor
func DescribeGroups(m *Metrics, meq []domain.MEQScore, demographics []domain.Demographic, sensors []string) []domain.GroupDescriptive {
	names := [3]string{GroupEvening, GroupIntermediate, GroupMorning}
	var out []domain.GroupDescriptive
	for _, sensor := range sensors {
		for gi, members := range groups(m, meq, demographics, sensor) {
			var ages, scores []float64
			female, known := 0, 0
			for _, mb := range members {
				scores = append(scores, mb.meq)
				if !mb.known {
					continue
				}
				known++
				ages = append(ages, mb.demo.Age)
				if mb.demo.IsFemale() {
					female++
				}
			}
			femalePct := math.NaN()
			if known > 0 {
				femalePct = stats.Round(float64(female)/float64(known)*100, 2)
			}
			t := times(members)
			out = append(out, domain.GroupDescriptive{
				Group:      names[gi],
				Sensor:     sensor,
				N:          len(members),
				MedianTime: stats.Round(stats.Median(t), 2),
				IQRTime:    stats.Round(stats.IQR(t), 2),
				MeanAge:    stats.Round(stats.Mean(ages), 2),
				SDAge:      stats.Round(stats.SampleSD(ages), 2),
				MeanMEQ:    stats.Round(stats.Mean(scores), 2),
				SDMEQ:      stats.Round(stats.SampleSD(scores), 2),
				Female:     femalePct,
			})
		}
	}
	return out
}
