package domain

import "time"

// Scope selects what a batch run fetches.
type Scope struct {
	// Category limits the run to a single category; empty means the general feed.
	Category string
	Since    time.Time
	Limit    int
}

// Homepage reports whether the run maintains the homepage zones.
func (s Scope) Homepage() bool {
	return s.Category == ""
}

// Item statuses recorded in a batch result.
const (
	StatusImported  = "imported"
	StatusDuplicate = "skipped (duplicate)"
)

// ErrorStatus formats a per-article failure.
func ErrorStatus(err error) string {
	return "error: " + err.Error()
}

// ItemStatus is the per-article outcome.
type ItemStatus struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

// BatchResult aggregates one run.
type BatchResult struct {
	Imported    int          `json:"imported"`
	Skipped     int          `json:"skipped"`
	Errors      int          `json:"errors"`
	AIEnhanced  int          `json:"aiEnhanced"`
	Details     []ItemStatus `json:"details"`
	ImportedIDs []string     `json:"-"`
	Fetched     int          `json:"-"`
	AICalls     int          `json:"-"`
}

// ActivityKind classifies activity log entries.
type ActivityKind string

const (
	ActivityImportSummary ActivityKind = "import_summary"
	ActivityAPIUsage      ActivityKind = "api_usage"
	ActivityError         ActivityKind = "error"
)

// ActivityEntry is a structured log record emitted by the pipeline.
type ActivityEntry struct {
	Kind    ActivityKind
	Message string
	Payload map[string]any
	At      time.Time
}
