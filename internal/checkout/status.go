package checkout

type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusValidating Status = "VALIDATING"
	StatusSubmitting Status = "SUBMITTING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
)

// InFlight reports whether a checkout attempt currently owns the workflow.
func (s Status) InFlight() bool {
	return s == StatusValidating || s == StatusSubmitting
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}
