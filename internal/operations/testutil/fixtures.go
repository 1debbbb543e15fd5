package testutil

import (
	"context"
	"errors"
	"sync/atomic"

	"charmcli/internal/operations"
)

// CreateSuccessfulStep creates a step that always succeeds
func CreateSuccessfulStep(id string, deps ...string) *MockStep {
	return &MockStep{
		IDValue:           id,
		DependenciesValue: deps,
		ExecuteFunc: func(ctx context.Context, state *operations.RunState) error {
			if s := state.GetStep(id); s != nil {
				s.UpdateProgress(100, "done")
			}
			return ctx.Err()
		},
	}
}

// CreateFailingStep creates a step that always fails with err
func CreateFailingStep(id string, err error, deps ...string) *MockStep {
	if err == nil {
		err = errors.New("step failed")
	}
	return &MockStep{
		IDValue:           id,
		DependenciesValue: deps,
		ExecuteFunc: func(context.Context, *operations.RunState) error {
			return err
		},
	}
}

// CreateRetryableStep creates a step that fails failCount times, then succeeds
func CreateRetryableStep(id string, failCount int, deps ...string) *MockStep {
	var attempts atomic.Int32
	return &MockStep{
		IDValue:           id,
		DependenciesValue: deps,
		ExecuteFunc: func(context.Context, *operations.RunState) error {
			if int(attempts.Add(1)) <= failCount {
				return operations.NewExecutionError(id, errors.New("temporary failure"), true)
			}
			return nil
		},
	}
}

// CreateValidationFailingStep creates a step whose Validate fails
func CreateValidationFailingStep(id string, deps ...string) *MockStep {
	return &MockStep{
		IDValue:           id,
		DependenciesValue: deps,
		ValidateFunc: func(*operations.RunState) error {
			return errors.New("validation failed")
		},
	}
}

// CreateDiamondSteps creates steps with a diamond dependency pattern:
//
//	  A
//	 / \
//	B   C
//	 \ /
//	  D
func CreateDiamondSteps() []*MockStep {
	return []*MockStep{
		CreateSuccessfulStep("A"),
		CreateSuccessfulStep("B", "A"),
		CreateSuccessfulStep("C", "A"),
		CreateSuccessfulStep("D", "B", "C"),
	}
}

// NewRegistry registers steps in the given order
func NewRegistry(steps ...*MockStep) (*operations.Registry, error) {
	r := operations.NewRegistry()
	for _, s := range steps {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}
