package constants

// Outcome is the terminal state of a single listed file within a run.
type Outcome string

// Stable values, used as log attributes and metric labels.
const (
	OutcomeSkipped             Outcome = "SKIPPED"              // already processed=true
	OutcomeRecordedProcessed   Outcome = "RECORDED_PROCESSED"   // QR parsed and upserted
	OutcomeRecordedUnprocessed Outcome = "RECORDED_UNPROCESSED" // seen, nothing usable
	OutcomeUnsupportedType     Outcome = "UNSUPPORTED_TYPE"     // ledgered unprocessed, never fetched
	OutcomeFailed              Outcome = "FAILED"               // alerted, retried next run
)

// AllOutcomes lists every outcome in a stable order.
var AllOutcomes = []Outcome{
	OutcomeSkipped,
	OutcomeRecordedProcessed,
	OutcomeRecordedUnprocessed,
	OutcomeUnsupportedType,
	OutcomeFailed,
}

// Alert subject contexts for run-level failures.
const (
	AlertFTPConnection      = "FTP Connection"
	AlertDatabaseConnection = "Database Connection"
	AlertFTPFileList        = "FTP File List"
	AlertFTPFileUpload      = "FTP File Upload"
)
