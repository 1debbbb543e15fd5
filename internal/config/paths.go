package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths resolves every study folder from the configuration.
// This is the single source of truth for file locations in the pipeline.
type Paths struct {
	RawDir           string
	StudyPeriodFile  string
	WearTimeDir      string
	SensorDir        string
	StatsDir         string
	CircadianDir     string
	CircadianFits    string
	QuestionnaireDir string

	study StudyConfig
}

// NewPaths builds Paths for a study configuration
func NewPaths(study StudyConfig) *Paths {
	circadian := filepath.Join(study.OutputRoot, study.Folders.Circadian)
	return &Paths{
		RawDir:           filepath.Join(study.InputRoot, study.RawDataFolder),
		StudyPeriodFile:  filepath.Join(study.InputRoot, study.StudyPeriodFile),
		WearTimeDir:      filepath.Join(study.OutputRoot, study.Folders.WearTime),
		SensorDir:        filepath.Join(study.OutputRoot, study.Folders.Sensor),
		StatsDir:         filepath.Join(study.OutputRoot, study.Folders.Stats),
		CircadianDir:     circadian,
		CircadianFits:    filepath.Join(circadian, study.Folders.CircadianFits),
		QuestionnaireDir: filepath.Join(study.OutputRoot, study.Folders.Questionnaire),
		study:            study,
	}
}

// ParticipantRaw returns the raw data folder of one participant
func (p *Paths) ParticipantRaw(id string) string {
	return filepath.Join(p.RawDir, id)
}

// ActigraphFile returns the ActiLife epoch export of a participant
func (p *Paths) ActigraphFile(id string) string {
	return filepath.Join(p.ParticipantRaw(id), p.study.Devices.Actigraph, id+".csv")
}

// WatchAccDir returns the hourly acceleration folder
func (p *Paths) WatchAccDir(id string) string {
	return filepath.Join(p.ParticipantRaw(id), p.study.Devices.WatchAcc)
}

// HeartRateDir returns the hourly heart rate folder
func (p *Paths) HeartRateDir(id string) string {
	return filepath.Join(p.ParticipantRaw(id), p.study.Devices.HeartRate)
}

// BatteryDir returns the hourly battery folder
func (p *Paths) BatteryDir(id string) string {
	return filepath.Join(p.ParticipantRaw(id), p.study.Devices.Battery)
}

// CoreFile returns the raw CORE export
func (p *Paths) CoreFile(id string) string {
	return filepath.Join(p.ParticipantRaw(id), p.study.Devices.CoreFile)
}

// Wear returns a file in the participant's wear-time folder
func (p *Paths) Wear(id, name string) string {
	return filepath.Join(p.WearTimeDir, id, name)
}

// Sensor returns a file in the participant's sensor folder
func (p *Paths) Sensor(id, name string) string {
	return filepath.Join(p.SensorDir, id, name)
}

// Stats returns a file in the statistics folder
func (p *Paths) Stats(name string) string {
	return filepath.Join(p.StatsDir, name)
}

// Circadian returns a file in the circadian results folder
func (p *Paths) Circadian(name string) string {
	return filepath.Join(p.CircadianDir, name)
}

// CircadianFit returns the per-participant cosinor model file
func (p *Paths) CircadianFit(id string) string {
	return filepath.Join(p.CircadianFits, id+"_models.csv")
}

// Questionnaire returns a file in the questionnaire score folder
func (p *Paths) Questionnaire(name string) string {
	return filepath.Join(p.QuestionnaireDir, name)
}

// EnsureDirectories creates the shared output folders
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.WearTimeDir,
		p.SensorDir,
		p.StatsDir,
		p.CircadianDir,
		p.CircadianFits,
	}

	for _, dir := range directories {
		if err := EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// EnsureParticipant creates the per-participant output folders
func (p *Paths) EnsureParticipant(id string) error {
	for _, dir := range []string{filepath.Join(p.WearTimeDir, id), filepath.Join(p.SensorDir, id)} {
		if err := EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates dir when it does not exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	slog.Debug("created directory", slog.String("directory", dir))
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
