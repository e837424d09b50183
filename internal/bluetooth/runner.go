package bluetooth

import (
	"context"
	"fmt"
	"os/exec"

	"netdiag/internal/diagerr"
)

// Runner executes a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run fails with ErrExternalTool when the binary is missing, exits non-zero
// or outlives ctx.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s: %v", diagerr.ErrExternalTool, name, ctx.Err())
		}
		return "", fmt.Errorf("%w: %s: %v", diagerr.ErrExternalTool, name, err)
	}
	return string(output), nil
}
