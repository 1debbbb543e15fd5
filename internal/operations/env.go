package operations

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"charmcli/internal/config"
	"charmcli/internal/exporter"
	"charmcli/internal/files"
	"charmcli/internal/infrastructure"
	"charmcli/internal/readers"
	"charmcli/pkg/contracts/domain"
)

// Env carries what every pipeline step needs to reach the study data
type Env struct {
	Study     config.StudyConfig
	Pipeline  config.PipelineConfig
	Paths     *config.Paths
	Writer    *exporter.CSVWriter
	Watch     *readers.WatchReader
	Discovery *files.Discovery
	Logger    *slog.Logger
	Metrics   *infrastructure.PipelineMetrics

	periodsMu sync.Mutex
	periods   []domain.StudyPeriod
}

// NewEnv resolves paths and readers for a loaded configuration
func NewEnv(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) (*Env, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Study.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid study timezone %q: %w", cfg.Study.Timezone, err)
	}

	// Absolute roots keep the writer from resolving result paths below the
	// statistics folder.
	study := cfg.Study
	if study.InputRoot, err = filepath.Abs(study.InputRoot); err != nil {
		return nil, fmt.Errorf("invalid input root: %w", err)
	}
	if study.OutputRoot, err = filepath.Abs(study.OutputRoot); err != nil {
		return nil, fmt.Errorf("invalid output root: %w", err)
	}

	paths := config.NewPaths(study)
	return &Env{
		Study:     study,
		Pipeline:  cfg.Pipeline,
		Paths:     paths,
		Writer:    exporter.NewCSVWriter(paths),
		Watch:     readers.NewWatchReader(loc, logger),
		Discovery: files.NewDiscovery(paths.RawDir),
		Logger:    logger,
		Metrics:   metrics,
	}, nil
}

// StudyPeriods reads the study period file and keeps it after the first
// successful read
func (e *Env) StudyPeriods() ([]domain.StudyPeriod, error) {
	e.periodsMu.Lock()
	defer e.periodsMu.Unlock()
	if e.periods != nil {
		return e.periods, nil
	}

	periods, err := readers.ReadStudyPeriods(e.Paths.StudyPeriodFile)
	if err != nil {
		return nil, err
	}
	e.periods = periods
	return periods, nil
}

// StudyPeriod returns the recording window of one participant
func (e *Env) StudyPeriod(id string) (domain.StudyPeriod, error) {
	periods, err := e.StudyPeriods()
	if err != nil {
		return domain.StudyPeriod{}, err
	}
	return readers.FindStudyPeriod(periods, id)
}

// HourlyFiles lists the hourly exports of a device folder given as a full path
func (e *Env) HourlyFiles(dir string) ([]files.HourlyFile, error) {
	return files.NewDiscovery("").HourlyFiles(dir)
}

// Participants resolves the participants of a run. Requested IDs are
// matched against the raw data folders so that "1" selects folder "01".
func (e *Env) Participants(requested []string) ([]string, error) {
	folders, err := e.Discovery.Participants()
	if err != nil {
		return nil, fmt.Errorf("failed to list participants in %s: %w", e.Paths.RawDir, err)
	}
	if len(requested) == 0 {
		return folders, nil
	}

	out := make([]string, 0, len(requested))
	for _, id := range requested {
		found := ""
		for _, folder := range folders {
			if domain.SameID(folder, id) {
				found = folder
				break
			}
		}
		if found == "" {
			return nil, NewValidationError("", fmt.Sprintf("participant %s has no raw data folder", id))
		}
		out = append(out, found)
	}
	return out, nil
}
