package config

import (
	"time"
)

// StudyConfig describes where study data lives and how result files are named.
type StudyConfig struct {
	InputRoot       string `yaml:"input_root" envconfig:"INPUT_ROOT" validate:"required"`
	OutputRoot      string `yaml:"output_root" envconfig:"OUTPUT_ROOT" validate:"required"`
	RawDataFolder   string `yaml:"raw_data_folder" envconfig:"RAW_DATA_FOLDER" validate:"required"`
	StudyPeriodFile string `yaml:"study_period_file" envconfig:"STUDY_PERIOD_FILE" validate:"required"`
	Timezone        string `yaml:"timezone" envconfig:"TIMEZONE"`
	ChargingMethod  string `yaml:"charging_method" envconfig:"CHARGING_METHOD" validate:"oneof=status level"`

	Devices  DeviceFolders `yaml:"devices" envconfig:"DEVICES"`
	Folders  OutputFolders `yaml:"folders" envconfig:"FOLDERS"`
	Files    FileNames     `yaml:"files" envconfig:"FILES"`
	Columns  Columns       `yaml:"columns" envconfig:"COLUMNS"`
	Sleep    SleepConfig   `yaml:"sleep" envconfig:"SLEEP"`
	Subjects SubjectConfig `yaml:"subjects" envconfig:"SUBJECTS"`
}

// DeviceFolders are the per-participant raw data locations
type DeviceFolders struct {
	Actigraph string `yaml:"actigraph" envconfig:"ACTIGRAPH" validate:"required"`
	WatchAcc  string `yaml:"watch_acc" envconfig:"WATCH_ACC" validate:"required"`
	HeartRate string `yaml:"heart_rate" envconfig:"HEART_RATE" validate:"required"`
	Battery   string `yaml:"battery" envconfig:"BATTERY" validate:"required"`
	CoreFile  string `yaml:"core_file" envconfig:"CORE_FILE" validate:"required"`
}

// OutputFolders are created below OutputRoot
type OutputFolders struct {
	WearTime      string `yaml:"wear_time" envconfig:"WEAR_TIME" validate:"required"`
	Sensor        string `yaml:"sensor" envconfig:"SENSOR" validate:"required"`
	Stats         string `yaml:"stats" envconfig:"STATS" validate:"required"`
	Circadian     string `yaml:"circadian" envconfig:"CIRCADIAN" validate:"required"`
	CircadianFits string `yaml:"circadian_fits" envconfig:"CIRCADIAN_FITS" validate:"required"`
	Questionnaire string `yaml:"questionnaire" envconfig:"QUESTIONNAIRE" validate:"required"`
}

// FileNames of every intermediate and result table
type FileNames struct {
	BatteryTimes      string `yaml:"battery_times" envconfig:"BATTERY_TIMES" validate:"required"`
	WatchAccTimes     string `yaml:"watch_acc_times" envconfig:"WATCH_ACC_TIMES" validate:"required"`
	HRTimes           string `yaml:"hr_times" envconfig:"HR_TIMES" validate:"required"`
	ActiNoWear        string `yaml:"acti_no_wear" envconfig:"ACTI_NO_WEAR" validate:"required"`
	SleepTimes        string `yaml:"sleep_times" envconfig:"SLEEP_TIMES" validate:"required"`
	ActiAC            string `yaml:"acti_ac" envconfig:"ACTI_AC" validate:"required"`
	WatchACUncleaned  string `yaml:"watch_ac_uncleaned" envconfig:"WATCH_AC_UNCLEANED" validate:"required"`
	AC                string `yaml:"ac" envconfig:"AC" validate:"required"`
	ACCompare         string `yaml:"ac_compare" envconfig:"AC_COMPARE" validate:"required"`
	RMCorr            string `yaml:"rm_corr" envconfig:"RM_CORR" validate:"required"`
	CBT               string `yaml:"cbt" envconfig:"CBT" validate:"required"`
	HR                string `yaml:"hr" envconfig:"HR" validate:"required"`
	HRV               string `yaml:"hrv" envconfig:"HRV" validate:"required"`
	HRActivityCorr    string `yaml:"hr_activity_corr" envconfig:"HR_ACTIVITY_CORR" validate:"required"`
	HRActivityScaled  string `yaml:"hr_activity_scaled" envconfig:"HR_ACTIVITY_SCALED" validate:"required"`
	ActiMiss          string `yaml:"acti_miss" envconfig:"ACTI_MISS" validate:"required"`
	WatchMiss         string `yaml:"watch_miss" envconfig:"WATCH_MISS" validate:"required"`
	CBTMiss           string `yaml:"cbt_miss" envconfig:"CBT_MISS" validate:"required"`
	OverallMiss       string `yaml:"overall_miss" envconfig:"OVERALL_MISS" validate:"required"`
	CRModel           string `yaml:"cr_model" envconfig:"CR_MODEL" validate:"required"`
	CRNonParametric   string `yaml:"cr_non_parametric" envconfig:"CR_NON_PARAMETRIC" validate:"required"`
	CRSubjectCompare  string `yaml:"cr_subject_compare" envconfig:"CR_SUBJECT_COMPARE" validate:"required"`
	CRComparison      string `yaml:"cr_comparison" envconfig:"CR_COMPARISON" validate:"required"`
	MEQScores         string `yaml:"meq_scores" envconfig:"MEQ_SCORES" validate:"required"`
	Demographics      string `yaml:"demographics" envconfig:"DEMOGRAPHICS"`
	CRMEQCorrelation  string `yaml:"cr_meq_correlation" envconfig:"CR_MEQ_CORRELATION" validate:"required"`
	GroupComparison   string `yaml:"group_comparison" envconfig:"GROUP_COMPARISON" validate:"required"`
	GroupDescriptives string `yaml:"group_descriptives" envconfig:"GROUP_DESCRIPTIVES" validate:"required"`
	SummaryWorkbook   string `yaml:"summary_workbook" envconfig:"SUMMARY_WORKBOOK" validate:"required"`
}

// Columns are the labels used for series in result tables
type Columns struct {
	ID    string `yaml:"id" envconfig:"ID" validate:"required"`
	Time  string `yaml:"time" envconfig:"TIME" validate:"required"`
	Acti  string `yaml:"acti" envconfig:"ACTI" validate:"required"`
	Watch string `yaml:"watch" envconfig:"WATCH" validate:"required"`
	CBT   string `yaml:"cbt" envconfig:"CBT" validate:"required"`
	SkinT string `yaml:"skin_t" envconfig:"SKIN_T" validate:"required"`
	HR    string `yaml:"hr" envconfig:"HR" validate:"required"`
	HRV1  string `yaml:"hrv1" envconfig:"HRV1" validate:"required"`
	HRV2  string `yaml:"hrv2" envconfig:"HRV2" validate:"required"`
	HRV3  string `yaml:"hrv3" envconfig:"HRV3" validate:"required"`
	HRV4  string `yaml:"hrv4" envconfig:"HRV4" validate:"required"`
}

// SleepConfig controls Cole-Kripke scoring when no sleep file is supplied
type SleepConfig struct {
	DeriveWhenMissing bool          `yaml:"derive_when_missing" envconfig:"DERIVE_WHEN_MISSING"`
	MinPeriod         time.Duration `yaml:"min_period" envconfig:"MIN_PERIOD"`
	MaxWakeGap        time.Duration `yaml:"max_wake_gap" envconfig:"MAX_WAKE_GAP"`
}

// SubjectConfig selects what the between-participant cosinor comparison uses
type SubjectConfig struct {
	Compare []string `yaml:"compare" envconfig:"COMPARE"`
	Measure string   `yaml:"measure" envconfig:"MEASURE"`
}

// Tested returns the sensor labels compared against the Actigraph reference,
// in output order.
func (c Columns) Tested() []string {
	return []string{c.Watch, c.CBT, c.SkinT, c.HR, c.HRV1, c.HRV2, c.HRV3, c.HRV4}
}

// Sensors returns the reference label followed by Tested.
func (c Columns) Sensors() []string {
	return append([]string{c.Acti}, c.Tested()...)
}

// HRV returns the four heart-rate-variability labels
func (c Columns) HRV() []string {
	return []string{c.HRV1, c.HRV2, c.HRV3, c.HRV4}
}

// Location resolves Timezone; empty means the local zone.
func (s StudyConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

// DefaultStudy returns the folder and file layout used by the CHARM study
func DefaultStudy() StudyConfig {
	return StudyConfig{
		InputRoot:       "data",
		OutputRoot:      "results",
		RawDataFolder:   "raw",
		StudyPeriodFile: "study_periods.csv",
		ChargingMethod:  "level",
		Devices: DeviceFolders{
			Actigraph: "Actigraph",
			WatchAcc:  "Samsung/acc",
			HeartRate: "Samsung/hr",
			Battery:   "Samsung/battery",
			CoreFile:  "CORE.csv",
		},
		Folders: OutputFolders{
			WearTime:      "wear_time",
			Sensor:        "sensor",
			Stats:         "stats",
			Circadian:     "circadian",
			CircadianFits: "models",
			Questionnaire: "questionnaire",
		},
		Files: FileNames{
			BatteryTimes:      "battery_times.csv",
			WatchAccTimes:     "watch_acc_times.csv",
			HRTimes:           "hr_times.csv",
			ActiNoWear:        "acti_non_wear.csv",
			SleepTimes:        "sleep_times.csv",
			ActiAC:            "ActiAC.csv",
			WatchACUncleaned:  "WatchAC_uncleaned.csv.gz",
			AC:                "ACs.csv.gz",
			ACCompare:         "AC_comparison.csv",
			RMCorr:            "AC_rm_corr.csv",
			CBT:               "CBT.csv",
			HR:                "HR.csv",
			HRV:               "HRV.csv",
			HRActivityCorr:    "HR_AC_correlation.csv",
			HRActivityScaled:  "HR_AC_scaled.csv",
			ActiMiss:          "Acti_miss.csv",
			WatchMiss:         "Watch_miss.csv",
			CBTMiss:           "CBT_miss.csv",
			OverallMiss:       "Overall_miss.csv",
			CRModel:           "CR_models.csv",
			CRNonParametric:   "CR_non_parametric.csv",
			CRSubjectCompare:  "CR_ID_comparison.csv",
			CRComparison:      "CR_comparison.csv",
			MEQScores:         "MEQ.csv",
			Demographics:      "demographics.csv",
			CRMEQCorrelation:  "CR_MEQ_correlation.csv",
			GroupComparison:   "CR_group_comparison.csv",
			GroupDescriptives: "CR_group_descriptives.csv",
			SummaryWorkbook:   "CHARM_summary.xlsx",
		},
		Columns: Columns{
			ID:    "ID",
			Time:  "time",
			Acti:  "ActiAC",
			Watch: "WatchAC",
			CBT:   "CBT",
			SkinT: "SkinT",
			HR:    "HR",
			HRV1:  "meanRR",
			HRV2:  "SDNN",
			HRV3:  "RMSSD",
			HRV4:  "pNN50",
		},
		Sleep: SleepConfig{
			DeriveWhenMissing: true,
			MinPeriod:         3 * time.Hour,
			MaxWakeGap:        time.Hour,
		},
		Subjects: SubjectConfig{
			Compare: []string{"01", "02"},
			Measure: "HR",
		},
	}
}
