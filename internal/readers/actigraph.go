package readers

import (
	"fmt"
	"strings"
	"time"

	apperrors "charmcli/internal/errors"
	"charmcli/pkg/contracts/domain"
)

// actigraphColumns are required after spaces are removed from the header
var actigraphColumns = []string{"Date", "Time", "Axis1", "Axis2", "Axis3", "VectorMagnitude"}

// ReadActigraph reads the ActiLife epoch export and keeps epochs in
// [start, end). The device's first two axes are stored swapped, so Axis1
// and Axis2 are exchanged. AC is the vector magnitude.
func ReadActigraph(path string, start, end time.Time) ([]domain.ActigraphEpoch, error) {
	tbl, err := ReadTableWith(path, TableOptions{TrimHeaderSpaces: true})
	if err != nil {
		return nil, err
	}
	if !tbl.Has(actigraphColumns...) {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("%s: expected columns %s", path, strings.Join(actigraphColumns, ", ")), nil)
	}

	dates, _ := tbl.Strings("Date")
	clock, _ := tbl.Strings("Time")
	axis1, _ := tbl.Floats("Axis1")
	axis2, _ := tbl.Floats("Axis2")
	axis3, _ := tbl.Floats("Axis3")
	vm, _ := tbl.Floats("VectorMagnitude")

	epochs := make([]domain.ActigraphEpoch, 0, tbl.Len())
	for i := range dates {
		t, err := actigraphTime(dates[i], clock[i])
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("%s row %d", path, i+2), err)
		}
		if t.Before(start) || !t.Before(end) {
			continue
		}
		epochs = append(epochs, domain.ActigraphEpoch{
			Time:  domain.NewTimestamp(t),
			Axis1: axis2[i],
			Axis2: axis1[i],
			Axis3: axis3[i],
			AC:    vm[i],
		})
	}
	return epochs, nil
}

// actigraphDateLayouts covers the dotted export and the US slash format
var actigraphDateLayouts = []string{"01.02.06", "1/2/2006", "01/02/2006", "2006-01-02"}

func actigraphTime(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	for _, layout := range actigraphDateLayouts {
		d, err := time.Parse(layout, date)
		if err != nil {
			continue
		}
		c, err := time.Parse("15:04:05", clock)
		if err != nil {
			break
		}
		return d.Add(time.Duration(c.Hour())*time.Hour +
			time.Duration(c.Minute())*time.Minute +
			time.Duration(c.Second())*time.Second), nil
	}
	return domain.ParseTime(date + " " + clock)
}

// ReadActigraphEpochs reads an epoch file written by the pipeline
func ReadActigraphEpochs(path string) ([]domain.ActigraphEpoch, error) {
	var epochs []domain.ActigraphEpoch
	if err := ReadRecords(path, &epochs); err != nil {
		return nil, err
	}
	return epochs, nil
}
