// Package api contains the request and response contracts of the CHARM
// results server. Version v1 is the current stable API version.
package api

import (
	"time"

	"charmcli/pkg/contracts/domain"
)

// Common request parameters

// PaginationRequest represents common pagination parameters
type PaginationRequest struct {
	Page     int `json:"page" query:"page" validate:"min=1"`
	PageSize int `json:"page_size" query:"page_size" validate:"min=1,max=500"`
}

// Offset returns the index of the first item on the page
func (p PaginationRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Run API Requests

// RunRequest starts a pipeline run. An empty Step runs every step.
type RunRequest struct {
	Step         string   `json:"step" validate:"omitempty,max=64"`
	Participants []string `json:"participants,omitempty" validate:"omitempty,dive,participant"`
	Workers      int      `json:"workers,omitempty" validate:"omitempty,min=1,max=64"`
}

// RunListRequest filters the run history
type RunListRequest struct {
	PaginationRequest
	Status string `json:"status" query:"status" validate:"omitempty,oneof=pending running completed failed cancelled"`
	Step   string `json:"step" query:"step" validate:"omitempty,max=64"`
	// Since accepts any date layout dateparse understands
	Since string `json:"since" query:"since"`
}

// Result API Requests

// ResultRequest selects a result table by its slug
type ResultRequest struct {
	Table string `json:"table" param:"table" validate:"required,max=128"`
	Limit int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100000"`
}

// Responses

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	RunStore  string    `json:"run_store"`
}

// ParticipantsResponse lists the participant folders found under the raw data root
type ParticipantsResponse struct {
	Participants []string `json:"participants"`
	Count        int      `json:"count"`
}

// TableResponse is a result table rendered as rows of strings
type TableResponse struct {
	Table   string     `json:"table"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
}

// RunResponse wraps a run record
type RunResponse struct {
	Run domain.RunRecord `json:"run"`
}

// RunListResponse is one page of run history
type RunListResponse struct {
	Runs     []domain.RunRecord `json:"runs"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// ResultInfo describes one result table of the study
type ResultInfo struct {
	Table     string `json:"table"`
	Name      string `json:"name"`
	File      string `json:"file"`
	Available bool   `json:"available"`
}

// ResultListResponse lists the result tables in summary workbook order
type ResultListResponse struct {
	Results []ResultInfo `json:"results"`
}
