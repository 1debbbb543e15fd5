package readers

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "charmcli/internal/errors"
	"charmcli/pkg/contracts/domain"
)

// CORE export columns
const (
	CoreTimeColumn    = "DateTime"
	CoreCBTColumn     = "CoreBodyTemp [C]"
	CoreSkinColumn    = "SkinTemp [C]"
	CoreQualityColumn = "TempQuality [1(poor) to 4(excellent)]"
)

// CoreMinQuality is the lowest temperature quality that is kept
const CoreMinQuality = 3

// CORE timestamp formats selected per participant in the study period file
const (
	CoreTimeSeconds = 1 // dd.mm.yyyy HH:MM:SS
	CoreTimeMinutes = 2 // dd.mm.yy HH:MM
)

// ReadCore reads a CORE temperature export for one participant. The
// delimiter and timestamp format come from the participant's study period.
// Rows with quality below CoreMinQuality, outside the study period or with
// a negative core temperature are dropped. Identical rows are kept once.
func ReadCore(path string, period domain.StudyPeriod) ([]domain.TemperatureSample, error) {
	opts := TableOptions{SkipSepLine: true}
	if period.Delimiter != "" {
		r, _ := utf8.DecodeRuneInString(period.Delimiter)
		opts.Comma = r
	}
	tbl, err := ReadTableWith(path, opts)
	if err != nil {
		return nil, err
	}
	if !tbl.Has(CoreTimeColumn, CoreCBTColumn, CoreSkinColumn, CoreQualityColumn) {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s: not a CORE export (columns %v)", path, tbl.Columns), nil)
	}

	stamps, _ := tbl.Strings(CoreTimeColumn)
	cbt, _ := tbl.Floats(CoreCBTColumn)
	skin, _ := tbl.Floats(CoreSkinColumn)
	quality, _ := tbl.Floats(CoreQualityColumn)

	var rows []domain.TemperatureSample
	for i, s := range stamps {
		t, err := coreTime(s, period.Timeformat)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("%s row %d", path, i+2), err)
		}
		if !(quality[i] >= CoreMinQuality) {
			continue
		}
		if t.Before(period.StartTime) || !t.Before(period.EndTime) {
			continue
		}
		rows = append(rows, domain.TemperatureSample{
			Time:    domain.NewTimestamp(domain.RoundTo(t, time.Minute)),
			CBT:     cbt[i],
			Quality: quality[i],
			SkinT:   skin[i],
		})
	}

	type key struct {
		t                   int64
		cbt, quality, skinT uint64
	}
	last := make(map[key]int, len(rows))
	for i, r := range rows {
		last[key{r.Time.UnixNano(), math.Float64bits(r.CBT), math.Float64bits(r.Quality), math.Float64bits(r.SkinT)}] = i
	}

	out := make([]domain.TemperatureSample, 0, len(last))
	for i, r := range rows {
		if last[key{r.Time.UnixNano(), math.Float64bits(r.CBT), math.Float64bits(r.Quality), math.Float64bits(r.SkinT)}] != i {
			continue
		}
		if !(r.CBT >= 0) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// coreTime parses a CORE timestamp at minute resolution
func coreTime(s string, format int) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch format {
	case CoreTimeSeconds:
		t, err := time.Parse("02.01.2006 15:04:05", s)
		if err != nil {
			return time.Time{}, err
		}
		return t.Truncate(time.Minute), nil
	case CoreTimeMinutes:
		return time.Parse("02.01.06 15:04", s)
	}
	return domain.ParseTime(s)
}
