package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		yaml        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 1, cfg.Pipeline.Workers)
				assert.Equal(t, "level", cfg.Study.ChargingMethod)
				assert.Equal(t, "ActiAC", cfg.Study.Columns.Acti)
				assert.Equal(t, "ACs.csv.gz", cfg.Study.Files.AC)
				assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
			},
		},
		{
			name: "yaml overrides defaults",
			yaml: "study:\n  input_root: /srv/charm\n  charging_method: status\npipeline:\n  workers: 3\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/srv/charm", cfg.Study.InputRoot)
				assert.Equal(t, "status", cfg.Study.ChargingMethod)
				assert.Equal(t, 3, cfg.Pipeline.Workers)
				assert.Equal(t, "results", cfg.Study.OutputRoot)
			},
		},
		{
			name: "env overrides yaml",
			yaml: "pipeline:\n  workers: 3\n",
			env: map[string]string{
				"CHARM_PIPELINE_WORKERS":      "6",
				"CHARM_PIPELINE_STEP_TIMEOUT": "30m",
				"CHARM_STUDY_COLUMNS_WATCH":   "Samsung",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6, cfg.Pipeline.Workers)
				assert.Equal(t, 30*time.Minute, cfg.Pipeline.StepTimeout)
				assert.Equal(t, "Samsung", cfg.Study.Columns.Watch)
			},
		},
		{
			name:    "invalid charging method",
			yaml:    "study:\n  charging_method: magic\n",
			wantErr: true,
		},
		{
			name:    "zero workers rejected",
			env:     map[string]string{"CHARM_PIPELINE_WORKERS": "0"},
			wantErr: true,
		},
		{
			name:    "identical device labels rejected",
			yaml:    "study:\n  columns:\n    watch: ActiAC\n",
			wantErr: true,
		},
		{
			name:    "unknown timezone rejected",
			yaml:    "study:\n  timezone: Mars/Olympus\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			file := ""
			if tt.yaml != "" {
				file = filepath.Join(t.TempDir(), "charm.yaml")
				require.NoError(t, os.WriteFile(file, []byte(tt.yaml), 0644))
			}

			cfg, err := Load(file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestColumnsOrder(t *testing.T) {
	c := DefaultStudy().Columns
	assert.Equal(t, []string{"WatchAC", "CBT", "SkinT", "HR", "meanRR", "SDNN", "RMSSD", "pNN50"}, c.Tested())
	assert.Equal(t, "ActiAC", c.Sensors()[0])
	assert.Len(t, c.Sensors(), 9)
	assert.Equal(t, []string{"meanRR", "SDNN", "RMSSD", "pNN50"}, c.HRV())
}

func TestPaths(t *testing.T) {
	study := DefaultStudy()
	study.InputRoot = "/in"
	study.OutputRoot = "/out"
	p := NewPaths(study)

	assert.Equal(t, "/in/raw/07", p.ParticipantRaw("07"))
	assert.Equal(t, "/in/raw/07/Actigraph/07.csv", p.ActigraphFile("07"))
	assert.Equal(t, "/in/raw/07/Samsung/acc", p.WatchAccDir("07"))
	assert.Equal(t, "/in/study_periods.csv", p.StudyPeriodFile)
	assert.Equal(t, "/out/wear_time/07/battery_times.csv", p.Wear("07", study.Files.BatteryTimes))
	assert.Equal(t, "/out/circadian/models/07_models.csv", p.CircadianFit("07"))
	assert.Equal(t, "/out/stats/Acti_miss.csv", p.Stats(study.Files.ActiMiss))
}

func TestEnsureDirectories(t *testing.T) {
	study := DefaultStudy()
	study.OutputRoot = t.TempDir()
	p := NewPaths(study)

	require.NoError(t, p.EnsureDirectories())
	require.NoError(t, p.EnsureParticipant("01"))

	for _, dir := range []string{p.StatsDir, p.CircadianFits, filepath.Join(p.SensorDir, "01"), filepath.Join(p.WearTimeDir, "01")} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.True(t, FileExists(p.StatsDir))
	assert.False(t, FileExists(filepath.Join(p.StatsDir, "nope.csv")))
}
