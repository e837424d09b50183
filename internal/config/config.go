package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides the config file location.
const EnvPath = "NETDIAG_CONFIG"

// DefaultPath is read when EnvPath is unset.
const DefaultPath = "netdiag.yaml"

// Config holds the tunables of every diagnostic action.
type Config struct {
	LogFile         string        `yaml:"log_file"`
	LogLevel        string        `yaml:"log_level"`
	PublicIPURL     string        `yaml:"public_ip_url"`
	PublicIPTimeout time.Duration `yaml:"public_ip_timeout"`

	Scan      ScanConfig      `yaml:"scan"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Probe     ProbeConfig     `yaml:"probe"`
	Bluetooth BluetoothConfig `yaml:"bluetooth"`
}

type ScanConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Workers int           `yaml:"workers"`
}

type DiscoveryConfig struct {
	Wait        time.Duration `yaml:"wait"`
	Promiscuous *bool         `yaml:"promiscuous"`
}

type ProbeConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type BluetoothConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	promisc := true
	return Config{
		LogFile:         "network_scan.log",
		LogLevel:        "warn",
		PublicIPURL:     "https://api.ipify.org",
		PublicIPTimeout: 5 * time.Second,
		Scan: ScanConfig{
			Timeout: 500 * time.Millisecond,
			Workers: 512,
		},
		Discovery: DiscoveryConfig{
			Wait:        3 * time.Second,
			Promiscuous: &promisc,
		},
		Probe: ProbeConfig{
			Timeout: 3 * time.Second,
		},
		Bluetooth: BluetoothConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// Path returns the config file location, honouring EnvPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the YAML file at path on top of Default. A missing file is not
// an error; the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.fill()
	return cfg, nil
}

// fill restores defaults for keys the file set to zero values.
func (c *Config) fill() {
	def := Default()
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.PublicIPURL == "" {
		c.PublicIPURL = def.PublicIPURL
	}
	if c.PublicIPTimeout <= 0 {
		c.PublicIPTimeout = def.PublicIPTimeout
	}
	if c.Scan.Timeout <= 0 {
		c.Scan.Timeout = def.Scan.Timeout
	}
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = def.Scan.Workers
	}
	if c.Discovery.Wait <= 0 {
		c.Discovery.Wait = def.Discovery.Wait
	}
	if c.Discovery.Promiscuous == nil {
		c.Discovery.Promiscuous = def.Discovery.Promiscuous
	}
	if c.Probe.Timeout <= 0 {
		c.Probe.Timeout = def.Probe.Timeout
	}
	if c.Bluetooth.Timeout <= 0 {
		c.Bluetooth.Timeout = def.Bluetooth.Timeout
	}
}
