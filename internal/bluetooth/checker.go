// Package bluetooth reports whether the host has a Bluetooth adapter by
// asking the platform's own tooling.
package bluetooth

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	AdapterDetected = "Bluetooth adapter detected"
	NoAdapter       = "No Bluetooth adapter found"
	DeviceDetected  = "Bluetooth device detected"
	NoDevice        = "No Bluetooth device found"
	CheckFailed     = "Bluetooth check failed"
	NotSupported    = "Bluetooth check not supported on this OS"
)

// Checker answers a single question: is there an adapter?
type Checker interface {
	Check(ctx context.Context) string
}

// New picks the checker for goos once. Unknown platforms get a checker that
// never runs anything.
func New(goos string, run Runner, timeout time.Duration, logger *log.Logger) Checker {
	if run == nil {
		run = ExecRunner{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}

	switch goos {
	case "linux":
		return &commandChecker{
			run:     run,
			timeout: timeout,
			logger:  logger,
			name:    "hciconfig",
			token:   "hci",
			found:   AdapterDetected,
			missing: NoAdapter,
		}
	case "windows":
		return &commandChecker{
			run:     run,
			timeout: timeout,
			logger:  logger,
			name:    "powershell",
			args:    []string{"Get-PnpDevice -Class Bluetooth"},
			token:   "Bluetooth",
			found:   DeviceDetected,
			missing: NoDevice,
		}
	default:
		return unsupported{}
	}
}

// commandChecker runs a listing command and looks for token in its output.
type commandChecker struct {
	run     Runner
	timeout time.Duration
	logger  *log.Logger

	name  string
	args  []string
	token string

	found   string
	missing string
}

func (c *commandChecker) Check(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.run.Run(ctx, c.name, c.args...)
	if err != nil {
		c.logger.Warn("bluetooth check failed", "command", c.name, "error", err)
		return CheckFailed
	}
	if strings.Contains(out, c.token) {
		return c.found
	}
	return c.missing
}

type unsupported struct{}

func (unsupported) Check(context.Context) string {
	return NotSupported
}
