// Package diagerr defines the error kinds shared by the diagnostic components.
// Callers wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
package diagerr

import "errors"

var (
	// ErrInput marks malformed user input (port ranges, hosts, addresses).
	ErrInput = errors.New("invalid input")
	// ErrNetwork marks timeouts, refused connections and resolution failures.
	ErrNetwork = errors.New("network error")
	// ErrCapability marks a missing privilege or optional dependency.
	ErrCapability = errors.New("capability unavailable")
	// ErrIO marks event log file failures.
	ErrIO = errors.New("i/o error")
	// ErrExternalTool marks a subprocess that is missing or failed.
	ErrExternalTool = errors.New("external tool failed")
)
