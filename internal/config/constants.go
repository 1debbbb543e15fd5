package config

import "time"

// Application constants
const (
	AppName    = "CHARM"
	AppVersion = "1.0.0"

	// Rate Limiting
	DefaultRateLimit = 50 // requests per second
	DefaultBurstSize = 100

	// Log Settings
	DefaultLogLevel   = "info"
	DefaultLogFile    = "logs/charm.log"
	MaxLogFileSizeMB  = 64
	MaxLogFileAge     = 14 // days
	MaxLogFileBackups = 7

	// Pipeline
	DefaultStepTimeout = 2 * time.Hour
	DefaultRunStore    = "runs.db"

	// API
	APIBasePath     = "/api"
	HealthEndpoint  = "/api/health"
	MetricsEndpoint = "/metrics"
)

// Study timing constants shared by the analysis packages
const (
	// HourlyFileLayout is the name layout of hourly smartwatch files without extension.
	HourlyFileLayout = "02.01.06_15"
	// StudyPeriodLayout and StudyPeriodLayoutLong are accepted in the study period file.
	StudyPeriodLayout     = "02.01.06 15:04"
	StudyPeriodLayoutLong = "02.01.2006 15:04"

	EpochLength        = time.Minute
	CircadianBin       = 10 * time.Minute
	NonWearWindow      = 15 * time.Minute
	HRVWindow          = 10 * time.Minute
	ChargingBuffer     = 5 * time.Minute
	ChargingStatusSlop = 2 * time.Minute
)
