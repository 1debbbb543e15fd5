package validation

import (
	"fmt"
	"log/slog"
	"os"

	"charmcli/internal/config"
	"charmcli/internal/files"
	"charmcli/internal/readers"
	"charmcli/pkg/contracts/domain"
)

// InputCheck lists what raw data one participant has
type InputCheck struct {
	ID             string `json:"id"`
	StudyPeriod    bool   `json:"study_period"`
	Actigraph      bool   `json:"actigraph"`
	Core           bool   `json:"core"`
	WatchAccHours  int    `json:"watch_acc_hours"`
	HeartRateHours int    `json:"heart_rate_hours"`
	BatteryHours   int    `json:"battery_hours"`
}

// Report is the result of a preflight check of the study inputs
type Report struct {
	RawDir       string       `json:"raw_dir"`
	Participants []InputCheck `json:"participants"`
	Problems     []string     `json:"problems,omitempty"`
}

// OK reports whether every participant has every input
func (r Report) OK() bool {
	return len(r.Problems) == 0
}

// StudyValidator checks the raw data tree before a run
type StudyValidator struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewStudyValidator creates a validator over paths
func NewStudyValidator(paths *config.Paths, logger *slog.Logger) *StudyValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyValidator{
		paths:  paths,
		logger: logger.With(slog.String("component", "study_validator")),
	}
}

// ValidateInputDirectory checks that dir exists and is a directory
func (v *StudyValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("input directory does not exist", slog.String("directory", dir))
		return fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Check inspects the raw data of ids, or of every participant folder when
// ids is empty. Missing inputs are reported as problems, not errors.
func (v *StudyValidator) Check(ids []string) (Report, error) {
	report := Report{RawDir: v.paths.RawDir}
	if err := v.ValidateInputDirectory(v.paths.RawDir); err != nil {
		return report, err
	}

	if len(ids) == 0 {
		var err error
		ids, err = files.NewDiscovery(v.paths.RawDir).Participants()
		if err != nil {
			return report, err
		}
	}
	if len(ids) == 0 {
		report.Problems = append(report.Problems, "no participant folders in "+v.paths.RawDir)
		return report, nil
	}

	periods, err := readers.ReadStudyPeriods(v.paths.StudyPeriodFile)
	if err != nil {
		v.logger.Warn("study period file unreadable",
			slog.String("file", v.paths.StudyPeriodFile),
			slog.String("error", err.Error()))
		report.Problems = append(report.Problems, "study period file unreadable: "+err.Error())
	}

	for _, id := range ids {
		check := v.checkParticipant(id, periods)
		report.Participants = append(report.Participants, check)
		report.Problems = append(report.Problems, problems(check)...)
	}

	v.logger.Info("study inputs checked",
		slog.Int("participants", len(report.Participants)),
		slog.Int("problems", len(report.Problems)))
	return report, nil
}

func (v *StudyValidator) checkParticipant(id string, periods []domain.StudyPeriod) InputCheck {
	check := InputCheck{
		ID:        id,
		Actigraph: exists(v.paths.ActigraphFile(id)),
		Core:      exists(v.paths.CoreFile(id)),
	}
	if periods != nil {
		_, err := readers.FindStudyPeriod(periods, id)
		check.StudyPeriod = err == nil
	}

	discovery := files.NewDiscovery("")
	for dir, n := range map[string]*int{
		v.paths.WatchAccDir(id):  &check.WatchAccHours,
		v.paths.HeartRateDir(id): &check.HeartRateHours,
		v.paths.BatteryDir(id):   &check.BatteryHours,
	} {
		hours, err := discovery.HourlyFiles(dir)
		if err != nil {
			v.logger.Debug("no hourly files", slog.String("directory", dir), slog.String("error", err.Error()))
			continue
		}
		*n = len(hours)
	}
	return check
}

func problems(c InputCheck) []string {
	var out []string
	missing := func(what string) {
		out = append(out, fmt.Sprintf("participant %s: no %s", c.ID, what))
	}
	if !c.StudyPeriod {
		missing("study period")
	}
	if !c.Actigraph {
		missing("Actigraph export")
	}
	if !c.Core {
		missing("CORE export")
	}
	if c.WatchAccHours == 0 {
		missing("smartwatch acceleration")
	}
	if c.HeartRateHours == 0 {
		missing("smartwatch heart rate")
	}
	if c.BatteryHours == 0 {
		missing("smartwatch battery")
	}
	return out
}

// exists accepts a plain or gzipped file
func exists(path string) bool {
	return config.FileExists(path) || config.FileExists(path+".gz")
}
