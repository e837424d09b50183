package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v3/host"
	gnet "github.com/shirou/gopsutil/v3/net"

	"netdiag/internal/diagerr"
)

func newTestReporter(url string) *Reporter {
	r := NewReporter(url, time.Second, log.New(io.Discard))
	r.hostname = func() (string, error) { return "workstation", nil }
	r.lookupIP = func(context.Context, string) ([]net.IP, error) {
		return []net.IP{net.ParseIP("192.168.1.42")}, nil
	}
	r.interfaces = func() ([]gnet.InterfaceStat, error) {
		return []gnet.InterfaceStat{
			{Name: "lo", HardwareAddr: "", Flags: []string{"up", "loopback"}},
			{Name: "eth0", HardwareAddr: "a4:5e:60:c2:11:0f", Flags: []string{"up", "broadcast"},
				Addrs: gnet.InterfaceAddrList{{Addr: "192.168.1.42/24"}}},
		}, nil
	}
	r.hostInfo = func() (*host.InfoStat, error) {
		return &host.InfoStat{OS: "linux", KernelVersion: "6.8.0-45-generic", Platform: "ubuntu", PlatformVersion: "24.04"}, nil
	}
	return r
}

func TestPublicIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "203.0.113.7\n")
	}))
	defer srv.Close()

	r := newTestReporter(srv.URL)
	if got := r.PublicIP(context.Background()); got != "203.0.113.7" {
		t.Errorf("PublicIP() = %q", got)
	}
}

func TestPublicIPDegrades(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not an ip", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>captive portal</html>")
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(3 * time.Second):
			case <-r.Context().Done():
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			r := newTestReporter(srv.URL)
			r.Client.Timeout = 200 * time.Millisecond
			if got := r.PublicIP(context.Background()); got != Unavailable {
				t.Errorf("PublicIP() = %q, want %q", got, Unavailable)
			}
		})
	}
}

func TestLocalIP(t *testing.T) {
	r := newTestReporter("http://unused.invalid")
	if got := r.LocalIP(); got != "192.168.1.42" {
		t.Errorf("LocalIP() = %q", got)
	}

	r.lookupIP = func(context.Context, string) ([]net.IP, error) {
		return nil, errors.New("no such host")
	}
	if got := r.LocalIP(); got != Unavailable {
		t.Errorf("LocalIP() after resolver failure = %q, want %q", got, Unavailable)
	}
}

func TestMACAddress(t *testing.T) {
	r := newTestReporter("http://unused.invalid")
	if got := r.MACAddress(); got != "A4:5E:60:C2:11:0F" {
		t.Errorf("MACAddress() = %q", got)
	}

	r.interfaces = func() ([]gnet.InterfaceStat, error) { return nil, errors.New("denied") }
	if got := r.MACAddress(); got != Unavailable {
		t.Errorf("MACAddress() after failure = %q", got)
	}
}

func TestPrimaryMACPrefersLocalIP(t *testing.T) {
	ifaces := []gnet.InterfaceStat{
		{Name: "docker0", HardwareAddr: "02:42:ac:11:00:01", Flags: []string{"up"},
			Addrs: gnet.InterfaceAddrList{{Addr: "172.17.0.1/16"}}},
		{Name: "wlan0", HardwareAddr: "3c:22:fb:00:aa:01", Flags: []string{"up"},
			Addrs: gnet.InterfaceAddrList{{Addr: "10.0.0.5/24"}}},
	}

	mac, ok := PrimaryMAC(ifaces, "10.0.0.5")
	if !ok || mac != "3C:22:FB:00:AA:01" {
		t.Errorf("PrimaryMAC() = %q, %v", mac, ok)
	}

	mac, ok = PrimaryMAC(ifaces, Unavailable)
	if !ok || mac != "02:42:AC:11:00:01" {
		t.Errorf("PrimaryMAC() fallback = %q, %v", mac, ok)
	}

	down := []gnet.InterfaceStat{{Name: "eth1", HardwareAddr: "00:11:22:33:44:55", Flags: []string{"broadcast"}}}
	if _, ok := PrimaryMAC(down, ""); ok {
		t.Error("PrimaryMAC() selected an interface that is down")
	}
}

func TestFormatMAC(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"aa:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:FF", false},
		{"aa-bb-cc-dd-ee-01", "AA:BB:CC:DD:EE:01", false},
		{"00:00:00:00:00:00", "", true},
		{"", "", true},
		{"00:00:00:00:fe:80:00:00:00:00:00:00:00:00:00:01:00:00:00:00", "", true},
	}
	for _, tt := range tests {
		got, err := FormatMAC(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatMAC(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatMAC(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "198.51.100.20")
	}))
	defer srv.Close()

	s := newTestReporter(srv.URL).Snapshot(context.Background())
	want := Snapshot{
		Hostname:  "workstation",
		LocalIP:   "192.168.1.42",
		PublicIP:  "198.51.100.20",
		MAC:       "A4:5E:60:C2:11:0F",
		OSName:    "Linux",
		OSVersion: "6.8.0-45-generic",
		Platform:  "ubuntu 24.04",
	}
	if s != want {
		t.Errorf("Snapshot() = %+v\nwant %+v", s, want)
	}
}

func TestFetchPublicIPErrorsAreNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	for _, url := range []string{srv.URL, "http://127.0.0.1:0", "://bad"} {
		_, err := newTestReporter(url).fetchPublicIP(context.Background())
		if !errors.Is(err, diagerr.ErrNetwork) {
			t.Errorf("fetchPublicIP(%q) error = %v, want ErrNetwork", url, err)
		}
	}
}

func TestSnapshotResolvesLocalIPOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "198.51.100.20")
	}))
	defer srv.Close()

	r := newTestReporter(srv.URL)
	lookups := 0
	r.lookupIP = func(context.Context, string) ([]net.IP, error) {
		lookups++
		return []net.IP{net.ParseIP("192.168.1.42")}, nil
	}

	s := r.Snapshot(context.Background())
	if lookups != 1 {
		t.Errorf("hostname resolved %d times, want 1", lookups)
	}
	if s.LocalIP != "192.168.1.42" || s.MAC != "A4:5E:60:C2:11:0F" {
		t.Errorf("Snapshot() local ip = %q, mac = %q", s.LocalIP, s.MAC)
	}
}

func TestOSInfoFallsBackToRuntime(t *testing.T) {
	r := newTestReporter("http://unused.invalid")
	r.hostInfo = func() (*host.InfoStat, error) { return nil, errors.New("no /proc") }

	name, version := r.OSInfo()
	if name != osName(runtime.GOOS) || version != Unavailable {
		t.Errorf("OSInfo() = %q, %q, want %q, %q", name, version, osName(runtime.GOOS), Unavailable)
	}
	if got := r.platform(); got != Unavailable {
		t.Errorf("platform() = %q, want %q", got, Unavailable)
	}

	r.hostInfo = func() (*host.InfoStat, error) { return &host.InfoStat{OS: "linux"}, nil }
	if _, version := r.OSInfo(); version != Unavailable {
		t.Errorf("OSInfo() version with empty kernel = %q, want %q", version, Unavailable)
	}
}
