package testutil

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"charmcli/internal/operations"
)

// MockStep is a configurable mock implementation of the step interface
type MockStep struct {
	IDValue           string
	NameValue         string
	DependenciesValue []string
	Inputs            []operations.DataRequirement
	Outputs           []operations.DataOutput

	// Configurable functions
	ExecuteFunc  func(ctx context.Context, state *operations.RunState) error
	ValidateFunc func(state *operations.RunState) error

	// Call tracking
	mu            sync.Mutex
	ExecuteCalls  int
	ExecuteTimes  []time.Time
	ValidateCalls int
}

// ID returns the step ID
func (m *MockStep) ID() string {
	return m.IDValue
}

// Name returns the step name
func (m *MockStep) Name() string {
	if m.NameValue == "" {
		return m.IDValue
	}
	return m.NameValue
}

// GetDependencies returns the step dependencies
func (m *MockStep) GetDependencies() []string {
	if m.DependenciesValue == nil {
		return []string{}
	}
	return m.DependenciesValue
}

// Execute runs the mock execute function
func (m *MockStep) Execute(ctx context.Context, state *operations.RunState) error {
	m.mu.Lock()
	m.ExecuteCalls++
	m.ExecuteTimes = append(m.ExecuteTimes, time.Now())
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, state)
	}
	return nil
}

// Validate runs the mock validate function
func (m *MockStep) Validate(state *operations.RunState) error {
	m.mu.Lock()
	m.ValidateCalls++
	m.mu.Unlock()

	if m.ValidateFunc != nil {
		return m.ValidateFunc(state)
	}
	return nil
}

// GetExecuteCalls returns the number of Execute calls
func (m *MockStep) GetExecuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecuteCalls
}

// GetValidateCalls returns the number of Validate calls
func (m *MockStep) GetValidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ValidateCalls
}

// RequiredInputs returns the configured inputs
func (m *MockStep) RequiredInputs() []operations.DataRequirement {
	return m.Inputs
}

// ProducedOutputs returns the configured outputs
func (m *MockStep) ProducedOutputs() []operations.DataOutput {
	return m.Outputs
}

// MockSlogHandler captures slog messages for testing
type MockSlogHandler struct {
	mu      sync.Mutex
	records []MockLogRecord
}

// MockLogRecord represents a captured slog record
type MockLogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]interface{}
}

// Handle implements slog.Handler
func (h *MockSlogHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]interface{})
	record.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, MockLogRecord{
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	return nil
}

// Enabled implements slog.Handler
func (h *MockSlogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// WithAttrs returns the same handler, so attributes bound with With are not captured
func (h *MockSlogHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

// WithGroup implements slog.Handler
func (h *MockSlogHandler) WithGroup(string) slog.Handler {
	return h
}

// GetRecordsByLevel returns records filtered by level
func (h *MockSlogHandler) GetRecordsByLevel(level slog.Level) []MockLogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	var filtered []MockLogRecord
	for _, record := range h.records {
		if record.Level == level {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// HasMessage checks if any record carries the given message
func (h *MockSlogHandler) HasMessage(message string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, record := range h.records {
		if record.Message == message {
			return true
		}
	}
	return false
}

// CreateTestSlogLogger creates a slog.Logger backed by a MockSlogHandler
func CreateTestSlogLogger() (*slog.Logger, *MockSlogHandler) {
	handler := &MockSlogHandler{}
	return slog.New(handler), handler
}
