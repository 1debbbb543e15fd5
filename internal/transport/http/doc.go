// Package http serves the results of a CHARM study over HTTP.
//
// Handlers are thin: they decode and validate requests, call the
// operations package and render JSON with go-chi/render. Errors are
// returned to clients as RFC 7807 problem documents.
//
// Routes:
//
//	GET  /api/health              liveness
//	GET  /api/health/ready        input root and run store reachable
//	GET  /api/version             build information
//	GET  /api/participants        participant folders of the raw data root
//	GET  /api/inputs              raw data preflight per participant
//	GET  /api/steps               registered analysis steps
//	GET  /api/results             result tables and whether they exist
//	GET  /api/results/{table}     one table as JSON, or CSV with ?format=csv
//	GET  /api/summary             the summary workbook
//	GET  /api/runs                run history
//	POST /api/runs                start a run
//	GET  /api/runs/{id}           one run
//	POST /api/runs/{id}/cancel    cancel the executing run
//	GET  /metrics                 Prometheus exposition
package http
