// Package readers loads the raw device exports and the intermediate tables
// of the pipeline into typed records.
//
// Raw files come from four sources: the ActiLife epoch export of the
// Actigraph, hourly smartwatch exports (acceleration, heart rate, battery),
// the CORE temperature export and a handful of study level tables (study
// periods, in-bed periods, non-wear periods, MEQ scores, demographics).
// Every reader accepts plain or gzip compressed CSV.
//
// Smartwatch timestamps are Unix milliseconds. They are converted to the
// study timezone and kept as naive wall-clock times like every other time
// in the pipeline.
package readers
