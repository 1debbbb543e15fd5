package readers

import (
	"fmt"
	"strings"
	"time"

	"charmcli/internal/config"
	apperrors "charmcli/internal/errors"
	"charmcli/pkg/contracts/domain"
)

// ReadStudyPeriods reads the study period file. Start and End use
// dd.mm.yy HH:MM or dd.mm.yyyy HH:MM.
func ReadStudyPeriods(path string) ([]domain.StudyPeriod, error) {
	var periods []domain.StudyPeriod
	if err := ReadRecords(path, &periods); err != nil {
		return nil, err
	}
	for i := range periods {
		p := &periods[i]
		start, err := ParseStudyTime(p.Start)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("study period of %s", p.ID), err)
		}
		end, err := ParseStudyTime(p.End)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("study period of %s", p.ID), err)
		}
		if !end.After(start) {
			return nil, apperrors.NewAppValidationError(
				fmt.Sprintf("study period of %s ends before it starts", p.ID))
		}
		p.StartTime, p.EndTime = start, end
	}
	return periods, nil
}

// ParseStudyTime parses a timestamp of the study period file
func ParseStudyTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{config.StudyPeriodLayout, config.StudyPeriodLayoutLong} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return domain.ParseTime(s)
}

// FindStudyPeriod returns the period of participant id
func FindStudyPeriod(periods []domain.StudyPeriod, id string) (domain.StudyPeriod, error) {
	for _, p := range periods {
		if domain.SameID(p.ID, id) {
			return p, nil
		}
	}
	return domain.StudyPeriod{}, apperrors.NewNotFoundError(fmt.Sprintf("study period of participant %s", id))
}

// ReadSleepPeriods reads the in-bed file. Date-only values mean midnight.
func ReadSleepPeriods(path string) ([]domain.SleepPeriod, error) {
	var periods []domain.SleepPeriod
	if err := ReadRecords(path, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// ReadNonWear reads the Actigraph non-wear file
func ReadNonWear(path string) ([]domain.NonWearPeriod, error) {
	var periods []domain.NonWearPeriod
	if err := ReadRecords(path, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// ReadIntervals reads a wear interval file. Both Start/End and
// period_start/period_end headers are accepted.
func ReadIntervals(path string) ([]domain.Interval, error) {
	tbl, err := ReadTable(path)
	if err != nil {
		return nil, err
	}

	startCol, endCol := "Start", "End"
	if !tbl.Has(startCol, endCol) {
		startCol, endCol = "period_start", "period_end"
	}
	if !tbl.Has(startCol, endCol) {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s: no interval columns in %v", path, tbl.Columns), nil)
	}

	starts, err := tbl.Times(startCol)
	if err != nil {
		return nil, apperrors.NewParsingError(path, err)
	}
	ends, err := tbl.Times(endCol)
	if err != nil {
		return nil, apperrors.NewParsingError(path, err)
	}

	out := make([]domain.Interval, len(starts))
	for i := range starts {
		out[i] = domain.NewInterval(starts[i], ends[i])
	}
	return out, nil
}

// ReadMEQ reads the questionnaire score table
func ReadMEQ(path string) ([]domain.MEQScore, error) {
	var scores []domain.MEQScore
	if err := ReadRecords(path, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// ReadDemographics reads the age and gender table
func ReadDemographics(path string) ([]domain.Demographic, error) {
	var rows []domain.Demographic
	if err := ReadRecords(path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
