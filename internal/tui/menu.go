// Package tui drives the interactive menu: it reads selections, runs the
// matching diagnostic and renders the result.
package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"netdiag/internal/bluetooth"
	"netdiag/internal/diagerr"
	"netdiag/internal/discovery"
	"netdiag/internal/eventlog"
	"netdiag/internal/identity"
	"netdiag/internal/portscan"
)

type IdentityReporter interface {
	Snapshot(ctx context.Context) identity.Snapshot
	LocalIP() string
}

type PortScanner interface {
	ScanLocalPorts(start, end int) ([]int, error)
}

type LANDiscoverer interface {
	Discover(ctx context.Context, subnet string) ([]discovery.Device, error)
}

type HTTPProber interface {
	Probe(host string, port int) string
}

type EventLog interface {
	Log(message string) error
	ReadAll() (string, error)
}

// Actions are the components the menu dispatches to.
type Actions struct {
	Identity  IdentityReporter
	Ports     PortScanner
	LAN       LANDiscoverer
	HTTP      HTTPProber
	Bluetooth bluetooth.Checker
	Events    EventLog
}

// Menu is the interactive loop. It is not safe for concurrent use.
type Menu struct {
	actions Actions
	in      *bufio.Reader
	out     io.Writer

	// Spinner animates long actions; enable it only on terminals.
	Spinner bool
}

func NewMenu(actions Actions, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		actions: actions,
		in:      bufio.NewReader(in),
		out:     out,
	}
}

// Run loops until the user selects 0 or input ends. Failed actions are
// reported and the loop continues.
func (m *Menu) Run(ctx context.Context) error {
	m.println(mutedStyle.Render("Authorized Use Only - Network CLI Tool"))

	for {
		m.println("\n" + menuView())

		line, err := m.prompt("Select option: ")
		if err != nil {
			return m.endOfInput(err)
		}

		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || choice < 0 || choice > 6 {
			m.println("Invalid selection.")
			continue
		}

		if choice == 0 {
			m.println("Exiting...")
			return nil
		}

		if err := m.dispatch(ctx, choice); err != nil {
			return m.endOfInput(err)
		}
	}
}

// dispatch returns an error only when input ends mid-prompt.
func (m *Menu) dispatch(ctx context.Context, choice int) error {
	switch choice {
	case 1:
		m.showNetworkDetails(ctx)
	case 2:
		return m.scanPorts()
	case 3:
		m.discoverDevices(ctx)
	case 4:
		return m.checkHTTP()
	case 5:
		m.checkBluetooth(ctx)
	case 6:
		m.showLogs()
	}
	return nil
}

func (m *Menu) showNetworkDetails(ctx context.Context) {
	snap := busy(m, "Gathering network details...", func() identity.Snapshot {
		return m.actions.Identity.Snapshot(ctx)
	})

	m.println(snapshotView(snap))
	m.record("Viewed network details")
}

func (m *Menu) scanPorts() error {
	start, err := m.promptInt("Start port: ")
	if err != nil {
		return m.inputError(err)
	}
	end, err := m.promptInt("End port: ")
	if err != nil {
		return m.inputError(err)
	}
	if err := portscan.ValidateRange(start, end); err != nil {
		return m.inputError(err)
	}

	type scan struct {
		ports []int
		err   error
	}
	res := busy(m, fmt.Sprintf("Scanning localhost ports %d-%d...", start, end), func() scan {
		ports, err := m.actions.Ports.ScanLocalPorts(start, end)
		return scan{ports, err}
	})

	if res.err != nil {
		if errors.Is(res.err, diagerr.ErrInput) {
			return m.inputError(res.err)
		}
		m.println(warningView(fmt.Sprintf("port scan failed: %v", res.err)))
		return nil
	}
	if len(res.ports) == 0 {
		m.println("No open ports found.")
	} else {
		m.println(portsView(res.ports))
	}
	m.record(fmt.Sprintf("Scanned localhost ports %d-%d", start, end))
	return nil
}

func (m *Menu) discoverDevices(ctx context.Context) {
	localIP := m.actions.Identity.LocalIP()
	subnet, err := discovery.SubnetOf(localIP)
	if err != nil {
		m.println(fmt.Sprintf("Invalid input: cannot derive a subnet from local IP %q", localIP))
		return
	}

	type sweep struct {
		devices []discovery.Device
		err     error
	}
	res := busy(m, fmt.Sprintf("Scanning network %s...", subnet), func() sweep {
		devices, err := m.actions.LAN.Discover(ctx, subnet)
		return sweep{devices, err}
	})

	switch {
	case errors.Is(res.err, diagerr.ErrCapability):
		m.println(warningView(fmt.Sprintf("LAN discovery unavailable: %v", res.err)))
		m.record("LAN discovery unavailable")
		return
	case res.err != nil:
		m.println(warningView(fmt.Sprintf("LAN discovery failed: %v", res.err)))
		return
	case len(res.devices) == 0:
		m.println("No devices found.")
	default:
		m.println(devicesView(res.devices))
	}
	m.record("Scanned LAN devices")
}

func (m *Menu) checkHTTP() error {
	host, err := m.prompt("Enter host (e.g., 127.0.0.1): ")
	if err != nil {
		return err
	}
	host = strings.TrimSpace(host)
	if host == "" {
		m.println("Invalid input: host must not be empty")
		return nil
	}

	port, err := m.promptInt("Enter port (80 or 443): ")
	if err != nil {
		return m.inputError(err)
	}
	if port < portscan.MinPort || port > portscan.MaxPort {
		return m.inputError(fmt.Errorf("%w: port %d out of range", diagerr.ErrInput, port))
	}

	line := busy(m, fmt.Sprintf("Probing %s:%d...", host, port), func() string {
		return m.actions.HTTP.Probe(host, port)
	})

	m.println("Response: " + line)
	m.record(fmt.Sprintf("Checked HTTP service on %s:%d", host, port))
	return nil
}

func (m *Menu) checkBluetooth(ctx context.Context) {
	m.println("Checking Bluetooth availability...")
	m.println(m.actions.Bluetooth.Check(ctx))
	m.record("Checked Bluetooth status")
}

func (m *Menu) showLogs() {
	content, err := m.actions.Events.ReadAll()
	switch {
	case errors.Is(err, eventlog.ErrNoEntries):
		m.println("No logs found.")
	case err != nil:
		m.println(warningView(fmt.Sprintf("could not read event log: %v", err)))
	default:
		m.println(logView(content))
	}
}

// record appends to the event log, surfacing failures without leaving the loop.
func (m *Menu) record(message string) {
	if err := m.actions.Events.Log(message); err != nil {
		m.println(warningView(fmt.Sprintf("could not write event log: %v", err)))
	}
}

// busy runs fn behind a spinner when the menu has one enabled.
func busy[T any](m *Menu, title string, fn func() T) T {
	if !m.Spinner {
		return fn()
	}
	return withSpinner(m.out, title, fn)
}

func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	// Lines have no length limit; anything oversized is just an invalid entry.
	line, err := m.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (m *Menu) promptInt(label string) (int, error) {
	line, err := m.prompt(label)
	if err != nil {
		return 0, err
	}
	line = strings.TrimSpace(line)
	n, err := strconv.Atoi(line)
	if err != nil {
		if len(line) > 32 {
			line = line[:32] + "..."
		}
		return 0, fmt.Errorf("%w: %q is not a number", diagerr.ErrInput, line)
	}
	return n, nil
}

// inputError reports err and swallows it unless input has ended.
func (m *Menu) inputError(err error) error {
	if errors.Is(err, diagerr.ErrInput) {
		m.println("Invalid input: " + strings.TrimPrefix(err.Error(), diagerr.ErrInput.Error()+": "))
		return nil
	}
	return err
}

func (m *Menu) endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		m.println("")
		return nil
	}
	return err
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}
