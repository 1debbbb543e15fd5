// Package app wires the CHARM pipeline together for the command line tool
// and the results server.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, YAML and CHARM_* variables
//  2. Initialize logging and OpenTelemetry
//  3. Resolve the study environment and open the run store
//  4. Register the analysis steps on a Manager
//  5. For the server: start the run queue, router and HTTP server
//
// Close releases everything in reverse order and snapshots the metrics
// registry when a textfile path is configured.
package app
