package file

// Status is the processing state of a file. A fresh upload starts at
// StatusPending; the scan stage moves it to clean, infected, or error;
// a content-type-specific stage then moves clean files to a terminal
// derived or failed state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusClean    Status = "clean"
	StatusInfected Status = "infected"
	StatusError    Status = "error"

	StatusOptimized  Status = "optimized"
	StatusTranscoded Status = "transcoded"
	StatusSanitized  Status = "sanitized"

	StatusOptimizationFailed Status = "optimization_failed"
	StatusTranscodingFailed  Status = "transcoding_failed"
	StatusSanitizationFailed Status = "sanitization_failed"
)

// Terminal reports whether no further pipeline stage applies.
func (s Status) Terminal() bool {
	switch s {
	case StatusInfected, StatusError,
		StatusOptimized, StatusTranscoded, StatusSanitized,
		StatusOptimizationFailed, StatusTranscodingFailed, StatusSanitizationFailed:
		return true
	}
	return false
}
