// Package probe sends a bare HEAD request over a plain TCP connection and
// reports the status line. It never negotiates TLS, so HTTPS-only ports
// simply yield NoResponse.
package probe

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"netdiag/internal/diagerr"
)

// NoResponse is returned whenever the connect, write or read fails.
const NoResponse = "No HTTP response"

const readLimit = 1024

// Prober issues the HEAD request.
type Prober struct {
	// Timeout bounds the connect and, separately, the request/response exchange.
	Timeout time.Duration
	Logger  *log.Logger
}

// NewProber returns a Prober; a zero timeout selects 3 seconds.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Prober{Timeout: timeout, Logger: log.Default()}
}

// Request returns the exact bytes written to the server.
func Request(host string) string {
	return fmt.Sprintf("HEAD / HTTP/1.1\r\nHost: %s\r\n\r\n", host)
}

// Probe returns the first response line from host:port, or NoResponse.
func (p *Prober) Probe(host string, port int) string {
	line, err := p.statusLine(host, port)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Debug("http probe failed", "host", host, "port", port, "error", err)
		}
		return NoResponse
	}
	return line
}

// statusLine wraps every failure in diagerr.ErrNetwork.
func (p *Prober) statusLine(host string, port int) (string, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	line, err := p.exchange(addr, host)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", diagerr.ErrNetwork, addr, err)
	}
	return line, nil
}

func (p *Prober) exchange(addr, host string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, p.Timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(p.Timeout)); err != nil {
		return "", err
	}
	if _, err := conn.Write([]byte(Request(host))); err != nil {
		return "", err
	}

	buf := make([]byte, readLimit)
	n, err := conn.Read(buf)
	if n == 0 {
		if err == nil {
			err = fmt.Errorf("empty response from %s", addr)
		}
		return "", err
	}
	return FirstLine(string(buf[:n])), nil
}

// FirstLine returns the text before the first newline, without a trailing CR.
func FirstLine(response string) string {
	line, _, _ := strings.Cut(response, "\n")
	return strings.TrimSuffix(line, "\r")
}
