package constants

// RunStatus is the canonical status for rows in extraction_run.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning  RunStatus = "RUNNING"  // in progress
	RunStatusOK       RunStatus = "OK"       // completed, no failure entries
	RunStatusDegraded RunStatus = "DEGRADED" // completed with page/image failure entries
	RunStatusFailed   RunStatus = "FAILED"   // terminal: document could not be opened
)
