package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tinytelemetry/syslog-sniffer/internal/model"
)

const (
	defaultPort           = model.DefaultPort
	defaultInterval       = model.DefaultInterval
	defaultFrequency      = model.DefaultFrequency
	defaultCaptureMode    = captureModePcap
	defaultReadTimeout    = model.DefaultReadTimeout
	defaultSnapLen        = model.DefaultSnapLen
	defaultUDPBindHost    = "0.0.0.0"
	defaultAPIAddr        = "127.0.0.1:3000"
	defaultQueryTimeout   = 30 * time.Second
	defaultHistoryEnabled = true
	defaultBanner         = true
)

const (
	captureModePcap = "pcap"
	captureModeUDP  = "udp"
	captureModeFile = "file"
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Interface      string        `mapstructure:"interface"`
	Port           int           `mapstructure:"port"`
	Debug          bool          `mapstructure:"debug"`
	Interval       int           `mapstructure:"interval"`
	Periodic       bool          `mapstructure:"periodic"`
	Frequency      int           `mapstructure:"frequency"`
	LogLevel       string        `mapstructure:"log-level"`
	Capture        string        `mapstructure:"capture"`
	PcapFile       string        `mapstructure:"pcap-file"`
	ReadTimeout    time.Duration `mapstructure:"read-timeout"`
	SnapLen        int           `mapstructure:"snaplen"`
	Promiscuous    bool          `mapstructure:"promiscuous"`
	UDPAddr        string        `mapstructure:"udp-addr"`
	APIEnabled     bool          `mapstructure:"api-enabled"`
	APIAddr        string        `mapstructure:"api-addr"`
	QueryTimeout   time.Duration `mapstructure:"query-timeout"`
	HistoryEnabled bool          `mapstructure:"history-enabled"`
	Banner         bool          `mapstructure:"banner"`
	ConfigPath     string        `mapstructure:"-"` // not from config file
}

func (c appConfig) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Interval < 1 {
		return fmt.Errorf("invalid interval: %d (must be at least 1 second)", c.Interval)
	}
	if c.Frequency < 0 {
		return fmt.Errorf("invalid frequency: %d", c.Frequency)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read-timeout: %s", c.ReadTimeout)
	}
	switch c.Capture {
	case captureModePcap:
		if c.Interface == "" {
			return fmt.Errorf("interface is required for %s capture", captureModePcap)
		}
	case captureModeFile:
		if c.PcapFile == "" {
			return fmt.Errorf("pcap-file is required for %s capture", captureModeFile)
		}
	case captureModeUDP:
	default:
		return fmt.Errorf("unknown capture mode %q (want %s, %s or %s)", c.Capture, captureModePcap, captureModeUDP, captureModeFile)
	}
	if _, err := determineLogLevel(c.Debug, c.LogLevel); err != nil {
		return err
	}
	return nil
}

// determineLogLevel resolves the diagnostic level. The debug flag always
// wins; an explicitly configured level comes next; otherwise only errors
// are logged.
func determineLogLevel(debug bool, configured string) (slog.Level, error) {
	if debug {
		return slog.LevelDebug, nil
	}
	if configured == "" {
		return slog.LevelError, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(configured)); err != nil {
		return slog.LevelError, fmt.Errorf("invalid log-level %q: %w", configured, err)
	}
	return level, nil
}
