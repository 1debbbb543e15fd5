package operations

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PipelineManifest tracks which step inputs and outputs exist on disk.
// Locations may be glob patterns so per-participant files can be matched
// with a wildcard in place of the participant folder.
type PipelineManifest struct {
	mu sync.RWMutex

	AvailableData map[string]*DataInfo `json:"available_data"`
	LastUpdated   time.Time            `json:"last_updated"`
}

// DataInfo tracks the files found for one data type
type DataInfo struct {
	Type      string   `json:"type"`
	Location  string   `json:"location"`
	FileCount int      `json:"file_count"`
	Files     []string `json:"files"`
}

// NewPipelineManifest creates an empty manifest
func NewPipelineManifest() *PipelineManifest {
	return &PipelineManifest{
		AvailableData: make(map[string]*DataInfo),
		LastUpdated:   time.Now(),
	}
}

// Scan records the data produced or required by every given step that
// is already present on disk
func (m *PipelineManifest) Scan(steps []Step) error {
	for _, s := range steps {
		for _, out := range s.ProducedOutputs() {
			if err := m.ScanLocation(out.Type, out.Location); err != nil {
				return err
			}
		}
		for _, in := range s.RequiredInputs() {
			if err := m.ScanLocation(in.Type, in.Location); err != nil {
				return err
			}
		}
	}
	return nil
}

// ScanLocation globs a location and records the matches, if any
func (m *PipelineManifest) ScanLocation(dataType, location string) error {
	matches, err := filepath.Glob(location)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", location, err)
	}

	files := make([]string, 0, len(matches))
	for _, f := range matches {
		info, err := os.Stat(f)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, f)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(files) == 0 {
		delete(m.AvailableData, dataType)
	} else {
		m.AvailableData[dataType] = &DataInfo{
			Type:      dataType,
			Location:  location,
			FileCount: len(files),
			Files:     files,
		}
	}
	m.LastUpdated = time.Now()
	return nil
}

// HasData checks if a specific type of data is available
func (m *PipelineManifest) HasData(dataType string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.AvailableData[dataType]
	return exists
}

// Missing returns the mandatory inputs of a step that are not on disk
func (m *PipelineManifest) Missing(step Step) []DataRequirement {
	missing := make([]DataRequirement, 0)
	for _, req := range step.RequiredInputs() {
		if req.Optional {
			continue
		}
		if !m.HasData(req.Type) {
			missing = append(missing, req)
		}
	}
	return missing
}
