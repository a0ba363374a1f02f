package models

// A description of an error state
type ModelError struct {

	// A human readable description of the error state
	Error string `json:"error"`

	// The kind of the error, e.g. NoSelectionCriteria
	Kind string `json:"kind,omitempty"`
}
