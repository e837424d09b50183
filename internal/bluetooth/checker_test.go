package bluetooth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"netdiag/internal/diagerr"
)

type fakeRunner struct {
	out   string
	err   error
	calls []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, fmt.Sprint(name, args))
	return f.out, f.err
}

var quiet = log.New(io.Discard)

func TestCheckerByPlatform(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		out     string
		err     error
		want    string
		command string
	}{
		{"linux adapter", "linux", "hci0:\tType: Primary  Bus: USB\n\tUP RUNNING\n", nil, AdapterDetected, "hciconfig[]"},
		{"linux none", "linux", "", nil, NoAdapter, "hciconfig[]"},
		{"linux missing tool", "linux", "", fmt.Errorf("%w: exec: not found", diagerr.ErrExternalTool), CheckFailed, "hciconfig[]"},
		{"windows device", "windows", "OK  Bluetooth  Intel(R) Wireless Bluetooth(R)\r\n", nil, DeviceDetected, "powershell[Get-PnpDevice -Class Bluetooth]"},
		{"windows none", "windows", "Get-PnpDevice : No matching Win32_PnPEntity objects found\r\n", nil, NoDevice, "powershell[Get-PnpDevice -Class Bluetooth]"},
		{"windows failure", "windows", "", errors.New("exit status 1"), CheckFailed, "powershell[Get-PnpDevice -Class Bluetooth]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &fakeRunner{out: tt.out, err: tt.err}
			c := New(tt.goos, run, time.Second, quiet)

			if got := c.Check(context.Background()); got != tt.want {
				t.Errorf("Check() = %q, want %q", got, tt.want)
			}
			if len(run.calls) != 1 || run.calls[0] != tt.command {
				t.Errorf("commands run = %v, want [%s]", run.calls, tt.command)
			}
		})
	}
}

func TestCheckerUnsupportedOS(t *testing.T) {
	for _, goos := range []string{"darwin", "freebsd", "plan9", ""} {
		run := &fakeRunner{out: "hci0 Bluetooth"}
		c := New(goos, run, time.Second, quiet)

		for i := 0; i < 2; i++ {
			if got := c.Check(context.Background()); got != NotSupported {
				t.Errorf("%s: Check() = %q, want %q", goos, got, NotSupported)
			}
		}
		if len(run.calls) != 0 {
			t.Errorf("%s: unsupported checker ran %v", goos, run.calls)
		}
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "netdiag-no-such-binary-xyz")
	if !errors.Is(err, diagerr.ErrExternalTool) {
		t.Fatalf("error = %v, want ErrExternalTool", err)
	}
}
