package interfaces

// IAlerter is the operational error channel. It is distinct from the business
// audit trail and never fails the caller.
type IAlerter interface {
	Alert(component, message string, err error, fields map[string]string)
}
