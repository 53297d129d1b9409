package dispatcher

// Request is the single wire shape every front-end speaks: who, what,
// and an action-specific payload.
type Request struct {
	UserID int64          `json:"user_id"`
	Action string         `json:"action"`
	Data   map[string]any `json:"data"`
}

// Result is what front-ends render. ErrorCode is a stable machine-readable
// string; Message is for humans.
type Result struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	ErrorCode string         `json:"error,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Recognized actions.
const (
	ActionStart          = "start"
	ActionStop           = "stop"
	ActionCloseDay       = "close_day"
	ActionRecordAbsence  = "record_absence"
	ActionRecordDistance = "record_distance"
	ActionQueryDay       = "query_day"
	ActionQueryStats     = "query_stats"
	ActionQueryKmReport  = "query_km_report"
	ActionExportReport   = "export_report"
	ActionResetToday     = "reset_today"
	ActionResetAll       = "reset_all"
)

// Error codes surfaced to front-ends.
const (
	CodeAlreadyBlocked      = "already_blocked"
	CodeNoOpenSession       = "no_open_session"
	CodeTimerRunning        = "timer_running"
	CodeInvalidNumericInput = "invalid_numeric_input"
	CodeInvalidAbsenceKind  = "invalid_absence_kind"
	CodeMissingConfirmation = "missing_confirmation"
	CodeStoreUnavailable    = "store_unavailable"
	CodeUnknownAction       = "unknown_action"
)

func ok(message string, data map[string]any) *Result {
	return &Result{Success: true, Message: message, Data: data}
}

func fail(code, message string) *Result {
	return &Result{Success: false, ErrorCode: code, Message: message}
}
