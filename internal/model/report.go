package model

import "time"

// RunReport summarizes one normalization/publication run
type RunReport struct {
	StartedAt time.Time `json:"started_at"`
	Sources   []string  `json:"sources"`

	// Processed lists the canonical identifiers of every entity that
	// completed reference resolution, in discovery order
	Processed []string `json:"processed"`

	// Order is the publication sequence selected for the run's sources
	Order []string `json:"order"`

	// Published lists the canonical identifiers submitted successfully;
	// a publication failure halts the run, so this may be a prefix of Order
	Published []string `json:"published,omitempty"`

	// Graphs holds the assembled publish documents (plan mode only)
	Graphs []GraphDocument `json:"graphs,omitempty"`

	// Errors records non-fatal resolution problems encountered on the way
	Errors []string `json:"errors,omitempty"`
}

// AddError records a non-fatal error message
func (r *RunReport) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}
