// Package config provides centralized configuration management for the CHARM
// pipeline. It loads settings from multiple sources, validates them and
// resolves every study folder and result file name.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CHARM_* for namespacing:
//
//	CHARM_STUDY_INPUT_ROOT=/data/charm
//	CHARM_STUDY_OUTPUT_ROOT=/data/charm/results
//	CHARM_PIPELINE_WORKERS=4
//	CHARM_LOGGING_LEVEL=debug
//
// # Study Layout
//
// Raw data is organised per participant below InputRoot/RawDataFolder, one
// numeric folder per participant ID. Results are written below OutputRoot
// into the wear-time, sensor, stats and circadian folders. The Paths type
// derives every location from StudyConfig so no other package joins paths
// by hand.
//
// # Validation
//
// Struct fields carry go-playground/validator tags. Load returns an error
// if any constraint fails, so callers can rely on a usable configuration.
package config
