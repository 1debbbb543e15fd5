package comparison

import (
	"math"
	"sort"

	"charmcli/pkg/contracts/domain"
)

// CosinorMetrics are compared in this order, time being the acrophase in hours
var CosinorMetrics = []string{"amplitude", "time", "mesor"}

// NonParametricMetrics follow the cosinor metrics
var NonParametricMetrics = []string{"IS", "IV", "M10", "L5", "RA"}

// AllMetrics is CosinorMetrics followed by NonParametricMetrics
func AllMetrics() []string {
	return append(append([]string{}, CosinorMetrics...), NonParametricMetrics...)
}

type metricKey struct {
	id     string
	sensor string
	metric string
}

// Metrics indexes rhythm metrics by participant, sensor and metric name
type Metrics struct {
	values map[metricKey]float64
	ids    map[string]string
}

// NewMetrics collects the cosinor and non-parametric results of every
// participant
func NewMetrics(fits []domain.CosinorFit, np []domain.NonParametric) *Metrics {
	m := &Metrics{values: make(map[metricKey]float64), ids: make(map[string]string)}
	for _, f := range fits {
		m.set(f.ID, f.Test, "amplitude", f.Amplitude)
		m.set(f.ID, f.Test, "time", f.Time)
		m.set(f.ID, f.Test, "mesor", f.Mesor)
	}
	for _, r := range np {
		m.set(r.ID, r.Measurement, "IS", r.IS)
		m.set(r.ID, r.Measurement, "IV", r.IV)
		m.set(r.ID, r.Measurement, "M10", r.M10)
		m.set(r.ID, r.Measurement, "L5", r.L5)
		m.set(r.ID, r.Measurement, "RA", r.RA)
	}
	return m
}

func (m *Metrics) set(id, sensor, metric string, v float64) {
	key := domain.NormalizeID(id)
	if _, ok := m.ids[key]; !ok {
		m.ids[key] = id
	}
	m.values[metricKey{key, sensor, metric}] = v
}

// Value returns a metric, ok is false when it is missing or NaN
func (m *Metrics) Value(id, sensor, metric string) (float64, bool) {
	v, ok := m.values[metricKey{domain.NormalizeID(id), sensor, metric}]
	if !ok || math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}

// IDs returns every participant in ID order
func (m *Metrics) IDs() []string {
	out := make([]string, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return domain.LessID(out[i], out[j]) })
	return out
}

// Paired returns the metric of two sensors for the participants that have
// both, in ID order
func (m *Metrics) Paired(metric, ref, test string) (ids []string, a, b []float64) {
	for _, id := range m.IDs() {
		x, okX := m.Value(id, ref, metric)
		y, okY := m.Value(id, test, metric)
		if !okX || !okY {
			continue
		}
		ids = append(ids, id)
		a = append(a, x)
		b = append(b, y)
	}
	return ids, a, b
}
