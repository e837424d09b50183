package portscan

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/panjf2000/ants/v2"

	"netdiag/internal/diagerr"
)

const (
	MinPort = 1
	MaxPort = 65535
)

// Scanner probes TCP ports on a single host.
type Scanner struct {
	// Host defaults to the IPv4 loopback address.
	Host string
	// Timeout bounds each connect attempt. Defaults to 500ms.
	Timeout time.Duration
	// Workers caps concurrent connect attempts. Defaults to 512.
	Workers int

	Logger *log.Logger
}

// NewScanner returns a loopback scanner with the given limits; zero values
// select the defaults.
func NewScanner(timeout time.Duration, workers int) *Scanner {
	return &Scanner{
		Host:    "127.0.0.1",
		Timeout: timeout,
		Workers: workers,
		Logger:  log.Default(),
	}
}

// ValidateRange reports whether [start, end] is a usable TCP port range.
func ValidateRange(start, end int) error {
	if start < MinPort || end > MaxPort {
		return fmt.Errorf("%w: ports must be between %d and %d", diagerr.ErrInput, MinPort, MaxPort)
	}
	if start > end {
		return fmt.Errorf("%w: start port %d is greater than end port %d", diagerr.ErrInput, start, end)
	}
	return nil
}

// ScanLocalPorts connects to every port in [start, end] and returns the ones
// that accepted, in ascending order. The range is validated before any
// connection is attempted.
func (s *Scanner) ScanLocalPorts(start, end int) ([]int, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}

	host := s.Host
	if host == "" {
		host = "127.0.0.1"
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	total := end - start + 1
	workers := s.Workers
	if workers <= 0 {
		workers = 512
	}
	if workers > total {
		workers = total
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}

	// Each task owns one slot, so no locking is needed.
	open := make([]bool, total)

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(workers, func(item interface{}) {
		defer wg.Done()
		i := item.(int)
		open[i] = dialOpen(host, start+i, timeout)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	logger.Debug("port scan started", "host", host, "start", start, "end", end, "workers", workers)
	begin := time.Now()

	for i := 0; i < total; i++ {
		wg.Add(1)
		if err := pool.Invoke(i); err != nil {
			// A blocking pool only refuses work once released.
			wg.Done()
			logger.Warn("port scan task rejected", "port", start+i, "error", err)
		}
	}
	wg.Wait()

	result := make([]int, 0)
	for i, ok := range open {
		if ok {
			result = append(result, start+i)
		}
	}

	logger.Debug("port scan finished", "open", len(result), "elapsed", time.Since(begin))
	return result, nil
}

func dialOpen(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
