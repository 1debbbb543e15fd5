// Package operations runs the CHARM analysis as a pipeline of steps.
//
// Each Step processes every selected participant and writes its results
// below the study output root. Steps declare the steps they depend on, the
// files they read (RequiredInputs) and the shared files they write
// (ProducedOutputs).
//
// Core Components:
//
// Manager resolves a RunRequest into the steps to execute, runs them in
// dependency order and records the outcome in a RunStore. A run of "all"
// executes every registered step. A single-step run checks that the files
// it reads already exist on disk, as left by earlier runs.
//
// Registry holds the steps and orders them with Kahn's algorithm. Steps with
// no ordering constraint between them keep their registration order.
//
// RunState and StepState track a run while it executes, including the
// participants each step processed and the ones it skipped.
//
// ForEachParticipant fans the per-participant work of a step out over a
// bounded set of workers. A participant whose data cannot be processed is
// logged and skipped; the step fails only when no participant succeeds.
//
// Queue executes runs submitted over HTTP in the background, one at a time.
//
// Error Handling:
//
// Step errors are OperationError values typed as validation, dependency,
// execution, timeout, cancellation or not_found. Validation, dependency,
// cancellation and not_found errors are never retried. When
// ContinueOnError is set the run goes on past a failed step, skipping only
// the steps that depend on it, and returns an ErrorList.
//
// Example Usage:
//
//	env, err := operations.NewEnv(cfg, logger, metrics)
//	if err != nil {
//		return err
//	}
//	manager, err := operations.NewPipelineManager(env, store)
//	if err != nil {
//		return err
//	}
//	resp, err := manager.Execute(ctx, operations.RunRequest{Step: operations.StepAll})
package operations
