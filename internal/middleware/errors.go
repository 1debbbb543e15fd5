package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "charmcli/internal/errors"
)

// Problem represents an RFC 7807 problem details object
type Problem struct {
	Type    string      `json:"type"`
	Title   string      `json:"title"`
	Status  int         `json:"status"`
	Detail  string      `json:"detail,omitempty"`
	Code    string      `json:"code,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// Render implements the chi render.Renderer interface
func (p Problem) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	return json.NewEncoder(w).Encode(p)
}

// WriteProblem writes p as the response
func WriteProblem(w http.ResponseWriter, r *http.Request, p Problem) {
	_ = p.Render(w, r)
}

// ProblemFromStatus builds a problem carrying only the status text
func ProblemFromStatus(status int, detail, traceID string) Problem {
	title := http.StatusText(status)
	return Problem{
		Type:    "/errors/" + slug(title),
		Title:   title,
		Status:  status,
		Detail:  detail,
		TraceID: traceID,
	}
}

// ProblemFromAPIError converts an API error into problem details
func ProblemFromAPIError(err *apperrors.APIError, traceID string) Problem {
	p := ProblemFromStatus(err.StatusCode, err.Message, traceID)
	p.Code = err.ErrorCode
	switch d := err.Details.(type) {
	case nil:
	case apperrors.ValidationErrors:
		p.Errors = d.Errors
	case string:
		if d != err.Message {
			p.Detail = err.Message + ": " + d
		}
	default:
		p.Errors = d
	}
	return p
}

// WriteError maps err onto problem details and writes it
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	WriteProblem(w, r, ProblemFromAPIError(apperrors.FromAppError(err), GetRequestID(r.Context())))
}

func slug(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}
