package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IngestRun is the bookkeeping record for one scrape-and-ingest pass over a
// target.
type IngestRun struct {
	ID             int64      `json:"id" db:"id"`
	Target         string     `json:"target" db:"target"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	FinishedAt     *time.Time `json:"finished_at" db:"finished_at"`
	Status         RunStatus  `json:"status" db:"status"`
	PagesFetched   int        `json:"pages_fetched" db:"pages_fetched"`
	PagesFailed    int        `json:"pages_failed" db:"pages_failed"`
	RecordsSeen    int        `json:"records_seen" db:"records_seen"`
	RecordsSkipped int        `json:"records_skipped" db:"records_skipped"`
	PropertiesNew  int        `json:"properties_new" db:"properties_new"`
	ChangesLogged  int        `json:"changes_logged" db:"changes_logged"`
	ErrorMessage   string     `json:"error_message" db:"error_message"`
}

type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

type IngestLog struct {
	ID        int64     `json:"id" db:"id"`
	RunID     *int64    `json:"run_id" db:"run_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Level     LogLevel  `json:"level" db:"level"`
	Message   string    `json:"message" db:"message"`
	Target    string    `json:"target" db:"target"`
}
