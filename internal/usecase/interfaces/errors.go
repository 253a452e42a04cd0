package interfaces

import "errors"

// ErrTransient is wrapped by collaborators (payment gateway, artifact store) around
// failures worth retrying: timeouts, throttling, 5xx responses.
var ErrTransient = errors.New("transient failure")
