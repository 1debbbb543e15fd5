package circadian

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"charmcli/internal/config"
	"charmcli/internal/readers"
	"charmcli/internal/series"
	"charmcli/pkg/contracts/domain"
)

// Aggregation of a measurement into 10 minute bins
type Aggregation int

const (
	// AggregateNone leaves series that are already binned untouched
	AggregateNone Aggregation = iota
	AggregateSum
	AggregateMean
)

// Measurement is one labelled sensor series of a participant
type Measurement struct {
	Label       string
	Series      series.Series
	Aggregation Aggregation
}

// Sorted returns a time-ordered copy of the raw series
func (m Measurement) Sorted() series.Series {
	s := append(series.Series(nil), m.Series...)
	s.Sort()
	return s
}

// Binned returns the series reduced to 10 minute bins
func (m Measurement) Binned() series.Series {
	s := m.Sorted()
	switch m.Aggregation {
	case AggregateSum:
		return s.Resample(config.CircadianBin, series.Sum)
	case AggregateMean:
		return s.Resample(config.CircadianBin, series.Mean)
	}
	return s
}

// Loader reads the sensor files of a participant written by the earlier
// pipeline steps
type Loader struct {
	paths  *config.Paths
	study  config.StudyConfig
	logger *slog.Logger
}

// NewLoader creates a Loader
func NewLoader(paths *config.Paths, study config.StudyConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{paths: paths, study: study, logger: logger}
}

// Load returns the measurements of a participant in the order reference,
// smartwatch activity, core and skin temperature, heart rate and the four
// variability metrics. The Actigraph reference is required; other missing
// files are logged and their measurements left out.
func (l *Loader) Load(id string) ([]Measurement, error) {
	cols := l.study.Columns
	names := l.study.Files
	log := l.logger.With(slog.String("participant", id))

	epochs, err := readers.ReadActigraphEpochs(l.paths.Sensor(id, names.ActiAC))
	if err != nil {
		return nil, fmt.Errorf("reference counts of %s: %w", id, err)
	}
	acti := make(series.Series, len(epochs))
	for i, e := range epochs {
		acti[i] = domain.Sample{Time: e.Time.Time, Value: e.AC}
	}
	out := []Measurement{{Label: cols.Acti, Series: acti, Aggregation: AggregateSum}}

	skip := func(what string, err error) {
		log.Warn("measurement not available", slog.String("measurement", what), slog.String("error", err.Error()))
	}

	if tbl, err := readers.ReadTable(l.paths.Sensor(id, names.AC)); err != nil {
		skip(cols.Watch, err)
	} else if s, err := tbl.Series(cols.Time, cols.Watch); err != nil {
		skip(cols.Watch, err)
	} else {
		out = append(out, Measurement{Label: cols.Watch, Series: s, Aggregation: AggregateSum})
	}

	var temps []domain.TemperatureSample
	if err := readers.ReadRecords(l.paths.Sensor(id, names.CBT), &temps); err != nil {
		skip(cols.CBT, err)
	} else {
		cbt := make(series.Series, len(temps))
		skin := make(series.Series, len(temps))
		for i, t := range temps {
			cbt[i] = domain.Sample{Time: t.Time.Time, Value: t.CBT}
			skin[i] = domain.Sample{Time: t.Time.Time, Value: t.SkinT}
		}
		out = append(out,
			Measurement{Label: cols.CBT, Series: cbt, Aggregation: AggregateMean},
			Measurement{Label: cols.SkinT, Series: skin, Aggregation: AggregateMean})
	}

	var hr []domain.HeartRateSample
	if err := readers.ReadRecords(l.paths.Sensor(id, names.HR), &hr); err != nil {
		skip(cols.HR, err)
	} else {
		out = append(out, Measurement{Label: cols.HR, Series: readers.HeartRateSeries(hr), Aggregation: AggregateMean})
	}

	tbl, err := readers.ReadTable(l.paths.Sensor(id, names.HRV))
	if err != nil {
		skip("HRV", err)
		return out, nil
	}
	for _, label := range cols.HRV() {
		s, err := tbl.Series(cols.Time, label)
		if err != nil {
			skip(label, err)
			continue
		}
		out = append(out, Measurement{Label: label, Series: s, Aggregation: AggregateNone})
	}
	return out, nil
}

// IsMissing reports whether err comes from an absent input file
func IsMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
