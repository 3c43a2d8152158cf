package assistant

// RunStatus is the lifecycle state reported for a run.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
	RunStatusIncomplete     RunStatus = "incomplete"
)

// Pending reports whether the run is still being worked on and should be
// polled again.
func (s RunStatus) Pending() bool {
	switch s {
	case RunStatusQueued, RunStatusInProgress, RunStatusCancelling:
		return true
	default:
		return false
	}
}

// Failed reports whether the status is terminal without an answer or an
// action request. Any status outside the known set counts as failed.
func (s RunStatus) Failed() bool {
	return !s.Pending() && s != RunStatusCompleted && s != RunStatusRequiresAction
}

func (s RunStatus) String() string {
	return string(s)
}

// Terminal reports whether polling should stop.
func (s RunStatus) Terminal() bool {
	return !s.Pending()
}
