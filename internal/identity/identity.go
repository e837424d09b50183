// Package identity reports how this machine appears on the network.
// Every lookup degrades to Unavailable instead of failing.
package identity

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v3/host"
	gnet "github.com/shirou/gopsutil/v3/net"

	"netdiag/internal/diagerr"
)

// Unavailable stands in for any value that could not be determined.
const Unavailable = "Unavailable"

// Snapshot is computed fresh on each request.
type Snapshot struct {
	Hostname  string
	LocalIP   string
	PublicIP  string
	MAC       string
	OSName    string
	OSVersion string
	Platform  string
}

// Reporter gathers identity values. The function fields exist so tests can
// replace the OS facilities.
type Reporter struct {
	PublicIPURL string
	Client      *http.Client
	Logger      *log.Logger

	hostname   func() (string, error)
	lookupIP   func(ctx context.Context, host string) ([]net.IP, error)
	interfaces func() ([]gnet.InterfaceStat, error)
	hostInfo   func() (*host.InfoStat, error)
}

// NewReporter queries url for the public address with the given timeout.
func NewReporter(url string, timeout time.Duration, logger *log.Logger) *Reporter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Reporter{
		PublicIPURL: url,
		Client:      &http.Client{Timeout: timeout},
		Logger:      logger,
		hostname:    os.Hostname,
		lookupIP: func(ctx context.Context, h string) ([]net.IP, error) {
			return net.DefaultResolver.LookupIP(ctx, "ip4", h)
		},
		interfaces: func() ([]gnet.InterfaceStat, error) {
			return gnet.Interfaces()
		},
		hostInfo: host.Info,
	}
}

// Hostname returns the OS hostname.
func (r *Reporter) Hostname() string {
	name, err := r.hostname()
	if err != nil || name == "" {
		r.Logger.Debug("hostname lookup failed", "error", err)
		return Unavailable
	}
	return name
}

// LocalIP resolves the hostname to its first IPv4 address.
func (r *Reporter) LocalIP() string {
	name, err := r.hostname()
	if err != nil {
		return Unavailable
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ips, err := r.lookupIP(ctx, name)
	if err != nil {
		r.Logger.Debug("local ip lookup failed", "host", name, "error", err)
		return Unavailable
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return Unavailable
}

// PublicIP asks the configured echo endpoint for our external address.
func (r *Reporter) PublicIP(ctx context.Context) string {
	ip, err := r.fetchPublicIP(ctx)
	if err != nil {
		r.Logger.Debug("public ip lookup failed", "url", r.PublicIPURL, "error", err)
		return Unavailable
	}
	return ip
}

// fetchPublicIP wraps every failure in diagerr.ErrNetwork.
func (r *Reporter) fetchPublicIP(ctx context.Context) (string, error) {
	ip, err := r.requestPublicIP(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: public ip from %s: %v", diagerr.ErrNetwork, r.PublicIPURL, err)
	}
	return ip, nil
}

func (r *Reporter) requestPublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.PublicIPURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", err
	}
	ext := strings.TrimSpace(string(body))
	if net.ParseIP(ext) == nil {
		return "", fmt.Errorf("invalid response: %q", ext)
	}
	return ext, nil
}

// MACAddress returns the primary interface's hardware address as
// AA:BB:CC:DD:EE:FF.
func (r *Reporter) MACAddress() string {
	return r.macAddress(r.LocalIP())
}

// macAddress prefers the interface carrying localIP.
func (r *Reporter) macAddress(localIP string) string {
	ifaces, err := r.interfaces()
	if err != nil {
		r.Logger.Debug("interface listing failed", "error", err)
		return Unavailable
	}
	mac, ok := PrimaryMAC(ifaces, localIP)
	if !ok {
		return Unavailable
	}
	return mac
}

// OSInfo returns the OS family and kernel version.
func (r *Reporter) OSInfo() (name, version string) {
	info, err := r.hostInfo()
	if err != nil || info == nil {
		r.Logger.Debug("host info failed", "error", err)
		return osName(runtime.GOOS), Unavailable
	}
	name = osName(info.OS)
	version = info.KernelVersion
	if version == "" {
		version = Unavailable
	}
	return name, version
}

func (r *Reporter) platform() string {
	info, err := r.hostInfo()
	if err != nil || info == nil || info.Platform == "" {
		return Unavailable
	}
	return strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
}

// Snapshot gathers every value at once.
func (r *Reporter) Snapshot(ctx context.Context) Snapshot {
	osn, osv := r.OSInfo()
	localIP := r.LocalIP()
	return Snapshot{
		Hostname:  r.Hostname(),
		LocalIP:   localIP,
		PublicIP:  r.PublicIP(ctx),
		MAC:       r.macAddress(localIP),
		OSName:    osn,
		OSVersion: osv,
		Platform:  r.platform(),
	}
}

// PrimaryMAC picks the first interface that is up, not loopback and has a
// hardware address, preferring the one that carries localIP.
func PrimaryMAC(ifaces []gnet.InterfaceStat, localIP string) (string, bool) {
	var fallback string
	for _, iface := range ifaces {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		mac, err := FormatMAC(iface.HardwareAddr)
		if err != nil {
			continue
		}
		for _, a := range iface.Addrs {
			ip, _, _ := strings.Cut(a.Addr, "/")
			if ip == localIP {
				return mac, true
			}
		}
		if fallback == "" {
			fallback = mac
		}
	}
	return fallback, fallback != ""
}

// FormatMAC normalises a hardware address to six uppercase colon-separated
// octets. All-zero and non-Ethernet addresses are rejected.
func FormatMAC(s string) (string, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return "", err
	}
	if len(hw) != 6 {
		return "", fmt.Errorf("not an EUI-48 address: %s", s)
	}
	zero := true
	for _, b := range hw {
		if b != 0 {
			zero = false
			break
		}
	}
	if zero {
		return "", fmt.Errorf("zero hardware address")
	}
	return strings.ToUpper(hw.String()), nil
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}

func osName(goos string) string {
	switch strings.ToLower(goos) {
	case "linux":
		return "Linux"
	case "windows":
		return "Windows"
	case "darwin":
		return "Darwin"
	case "freebsd":
		return "FreeBSD"
	case "":
		return Unavailable
	default:
		return goos
	}
}
