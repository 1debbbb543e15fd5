package readers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"time"

	apperrors "charmcli/internal/errors"
	"charmcli/internal/files"
	"charmcli/internal/series"
	"charmcli/pkg/contracts/domain"
)

const (
	// MinHourlyRows is the smallest hourly export that is used
	MinHourlyRows = 50
	// AccelScale converts raw smartwatch acceleration to g
	AccelScale = 4096.0
	// AccelGrid is the 50 Hz sampling grid of the upsampled acceleration
	AccelGrid = 20 * time.Millisecond
)

// WatchReader reads the hourly smartwatch exports of one study
type WatchReader struct {
	loc       *time.Location
	logger    *slog.Logger
	discovery *files.Discovery
}

// NewWatchReader creates a reader converting device time into loc
func NewWatchReader(loc *time.Location, logger *slog.Logger) *WatchReader {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WatchReader{loc: loc, logger: logger, discovery: files.NewDiscovery("")}
}

// deviceRows reads an hourly export and returns its rows with a valid Unix
// timestamp. The table keeps only the requested columns.
func (w *WatchReader) deviceRows(path string, columns ...string) (times []time.Time, values [][]float64, err error) {
	tbl, err := ReadTableWith(path, TableOptions{SkipBadLines: true})
	if err != nil {
		return nil, nil, err
	}
	need := append([]string{"UnixTimestamp"}, columns...)
	if !tbl.Has(need...) {
		return nil, nil, apperrors.NewParsingError(fmt.Sprintf("%s: missing one of %v", path, need), nil)
	}

	stamps, _ := tbl.Floats("UnixTimestamp")
	cols := make([][]float64, len(columns))
	for i, c := range columns {
		cols[i], _ = tbl.Floats(c)
	}

	for r, ms := range stamps {
		if math.IsNaN(ms) {
			continue
		}
		row := make([]float64, len(columns))
		for i := range columns {
			row[i] = cols[i][r]
		}
		times = append(times, domain.FromUnixMilli(ms, w.loc))
		values = append(values, row)
	}
	return times, values, nil
}

// hourBounds returns the clock hour encoded in an hourly file name
func hourBounds(path string) (time.Time, time.Time, error) {
	hour, ok := files.ParseHourlyName(filepath.Base(path))
	if !ok {
		return time.Time{}, time.Time{}, apperrors.NewParsingError(
			fmt.Sprintf("%s: file name does not encode an hour", path), nil)
	}
	return hour, hour.Add(time.Hour), nil
}

func within(t, lo, hi time.Time) bool {
	return !t.Before(lo) && !t.After(hi)
}

// AccelHour reads one hourly acceleration export. Files with fewer than
// MinHourlyRows samples yield nil. Samples outside the file's hour are
// dropped, values are converted to g and the 25 Hz stream is mapped onto a
// 50 Hz grid by nearest neighbour, starting at the first sample's minute.
func (w *WatchReader) AccelHour(path string) ([]domain.AccelSample, error) {
	times, values, err := w.deviceRows(path, "x", "y", "z")
	if err != nil {
		return nil, err
	}
	if len(times) < MinHourlyRows {
		return nil, nil
	}
	lo, hi, err := hourBounds(path)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(times))
	samples := make([]domain.AccelSample, 0, len(times))
	for i, t := range times {
		if !within(t, lo, hi) || seen[t.UnixNano()] {
			continue
		}
		seen[t.UnixNano()] = true
		samples = append(samples, domain.AccelSample{
			Time: t,
			X:    values[i][0] / AccelScale,
			Y:    values[i][1] / AccelScale,
			Z:    values[i][2] / AccelScale,
		})
	}
	if len(samples) == 0 {
		return nil, nil
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Time.Before(samples[j].Time) })

	return nearestGrid(samples, AccelGrid), nil
}

// nearestGrid maps sorted samples onto a regular grid from the minute of the
// first sample up to, not including, the minute after the last one. Each
// grid point takes the closest sample; on a tie the later sample wins.
func nearestGrid(samples []domain.AccelSample, step time.Duration) []domain.AccelSample {
	first := domain.FloorTo(samples[0].Time, time.Minute)
	last := domain.CeilTo(samples[len(samples)-1].Time, time.Minute)

	n := int(last.Sub(first) / step)
	out := make([]domain.AccelSample, 0, n)
	j := 0
	for k := 0; k < n; k++ {
		t := first.Add(time.Duration(k) * step)
		for j+1 < len(samples) && !samples[j+1].Time.After(t) {
			j++
		}
		pick := j
		if !samples[j].Time.After(t) && j+1 < len(samples) &&
			t.Sub(samples[j].Time) >= samples[j+1].Time.Sub(t) {
			pick = j + 1
		}
		s := samples[pick]
		s.Time = t
		out = append(out, s)
	}
	return out
}

// AccelFolder reads every hourly acceleration file that may hold samples in
// [start, end) and returns the samples inside that window. Files that cannot
// be read are logged and skipped.
func (w *WatchReader) AccelFolder(dir string, start, end time.Time) ([]domain.AccelSample, error) {
	hourly, err := w.discovery.HourlyFiles(dir)
	if err != nil {
		return nil, notFound(dir, err)
	}

	var out []domain.AccelSample
	for _, f := range files.HoursInWindow(hourly, start, end) {
		samples, err := w.AccelHour(f.Path)
		if err != nil {
			w.logger.Warn("skipping acceleration file",
				slog.String("file", f.Path),
				slog.String("error", err.Error()))
			continue
		}
		for _, s := range samples {
			if !s.Time.Before(start) && s.Time.Before(end) {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// HeartRateHour reads one hourly heart rate export. Readings whose status
// is not 1 are invalid and dropped. Times are truncated to the second.
func (w *WatchReader) HeartRateHour(path string) ([]domain.HeartRateSample, error) {
	times, values, err := w.deviceRows(path, "hr", "hrIbi", "status")
	if err != nil {
		return nil, err
	}
	if len(times) < MinHourlyRows {
		return nil, nil
	}
	lo, hi, err := hourBounds(path)
	if err != nil {
		return nil, err
	}

	out := make([]domain.HeartRateSample, 0, len(times))
	for i, t := range times {
		hr, ibi, status := values[i][0], values[i][1], values[i][2]
		if !within(t, lo, hi) || status != 1 || math.IsNaN(hr) {
			continue
		}
		out = append(out, domain.HeartRateSample{
			Time: domain.NewTimestamp(t.Truncate(time.Second)),
			HR:   hr,
			IBI:  ibi,
		})
	}
	return out, nil
}

// HeartRateFolder concatenates every hourly heart rate export in
// chronological order
func (w *WatchReader) HeartRateFolder(dir string) ([]domain.HeartRateSample, error) {
	hourly, err := w.discovery.HourlyFiles(dir)
	if err != nil {
		return nil, notFound(dir, err)
	}

	var out []domain.HeartRateSample
	for _, f := range hourly {
		samples, err := w.HeartRateHour(f.Path)
		if err != nil {
			w.logger.Warn("skipping heart rate file",
				slog.String("file", f.Path),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, samples...)
	}
	return out, nil
}

// BatteryHour reads one hourly battery export. An empty file yields nil.
func (w *WatchReader) BatteryHour(path string) ([]domain.BatterySample, error) {
	times, values, err := w.deviceRows(path, "level", "state")
	if errors.Is(err, io.ErrUnexpectedEOF) {
		w.logger.Debug("battery file is empty", slog.String("file", path))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.BatterySample, 0, len(times))
	for i, t := range times {
		state := values[i][1]
		if math.IsNaN(state) {
			state = 0
		}
		out = append(out, domain.BatterySample{Time: t, Level: values[i][0], State: int(state)})
	}
	return out, nil
}

// BatteryFolder concatenates the battery exports whose hour lies in
// [start, end)
func (w *WatchReader) BatteryFolder(dir string, start, end time.Time) ([]domain.BatterySample, error) {
	hourly, err := w.discovery.HourlyFiles(dir)
	if err != nil {
		return nil, notFound(dir, err)
	}

	var out []domain.BatterySample
	for _, f := range hourly {
		if f.Hour.Before(start) || !f.Hour.Before(end) {
			continue
		}
		samples, err := w.BatteryHour(f.Path)
		if err != nil {
			return nil, err
		}
		out = append(out, samples...)
	}
	return out, nil
}

// HeartRateSeries extracts the heart rate values of samples
func HeartRateSeries(samples []domain.HeartRateSample) series.Series {
	out := make(series.Series, len(samples))
	for i, s := range samples {
		out[i] = domain.Sample{Time: s.Time.Time, Value: s.HR}
	}
	return out
}
