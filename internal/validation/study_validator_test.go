package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmcli/internal/config"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
}

func newStudy(t *testing.T) *config.Paths {
	t.Helper()
	study := config.DefaultStudy()
	study.InputRoot = t.TempDir()
	study.OutputRoot = t.TempDir()
	return config.NewPaths(study)
}

func TestCheck_CompleteParticipant(t *testing.T) {
	paths := newStudy(t)
	touch(t, paths.StudyPeriodFile)
	require.NoError(t, os.WriteFile(paths.StudyPeriodFile,
		[]byte("ID,Start,End\n1,01.03.24 08:00,08.03.24 08:00\n"), 0o644))

	touch(t, paths.ActigraphFile("01"))
	touch(t, paths.CoreFile("01")+".gz")
	for _, dir := range []string{paths.WatchAccDir("01"), paths.HeartRateDir("01"), paths.BatteryDir("01")} {
		touch(t, filepath.Join(dir, "01.03.24_08.csv"))
		touch(t, filepath.Join(dir, "01.03.24_09.csv"))
		touch(t, filepath.Join(dir, "notes.csv"))
	}

	report, err := NewStudyValidator(paths, nil).Check(nil)
	require.NoError(t, err)
	require.Len(t, report.Participants, 1)

	c := report.Participants[0]
	assert.Equal(t, "01", c.ID)
	assert.True(t, c.StudyPeriod)
	assert.True(t, c.Actigraph)
	assert.True(t, c.Core, "gzipped export counts")
	assert.Equal(t, 2, c.WatchAccHours)
	assert.Equal(t, 2, c.BatteryHours)
	assert.True(t, report.OK(), report.Problems)
}

func TestCheck_ReportsMissingInputs(t *testing.T) {
	paths := newStudy(t)
	require.NoError(t, os.MkdirAll(paths.ParticipantRaw("02"), 0o755))

	report, err := NewStudyValidator(paths, nil).Check([]string{"02"})
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Contains(t, report.Problems, "participant 02: no Actigraph export")
	assert.Contains(t, report.Problems, "participant 02: no smartwatch heart rate")
	assert.Len(t, report.Participants, 1)
}

func TestCheck_NoParticipants(t *testing.T) {
	paths := newStudy(t)
	require.NoError(t, os.MkdirAll(paths.RawDir, 0o755))

	report, err := NewStudyValidator(paths, nil).Check(nil)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Empty(t, report.Participants)
}

func TestCheck_MissingRawDir(t *testing.T) {
	_, err := NewStudyValidator(newStudy(t), nil).Check(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
