package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	flags := newFlagSet()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if showVersion, _ := flags.GetBool("version"); showVersion {
		printVersion(os.Stdout)
		return
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := runSniffer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "syslog-sniffer - passive syslog traffic summary\n")
	fmt.Fprintf(w, "  Version:    %s\n", version)
	fmt.Fprintf(w, "  Commit:     %s\n", commit)
	fmt.Fprintf(w, "  Built:      %s\n", buildTime)
	fmt.Fprintf(w, "  Go version: %s\n", goVersion)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("syslog-sniffer", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.StringP("interface", "i", "", "network interface to capture on (required for pcap capture)")
	fs.IntP("port", "p", defaultPort, "UDP port carrying syslog traffic")
	fs.BoolP("debug", "d", false, "log every captured message and capture error")
	fs.Int("interval", defaultInterval, "total capture duration in seconds")
	fs.Bool("periodic", false, "emit a summary every --frequency seconds")
	fs.Int("frequency", defaultFrequency, "seconds between periodic summaries")
	fs.String("log-level", "", "diagnostic log level: debug, info, warn or error (default error)")
	fs.String("capture", defaultCaptureMode, "capture mode: pcap, udp or file")
	fs.String("pcap-file", "", "pcap file to replay in file capture mode")
	fs.Duration("read-timeout", defaultReadTimeout, "packet source read timeout")
	fs.Int("snaplen", defaultSnapLen, "maximum bytes captured per frame")
	fs.Bool("promiscuous", false, "put the interface into promiscuous mode")
	fs.String("udp-addr", "", "bind address for udp capture (default 0.0.0.0:<port>)")
	fs.Bool("api-enabled", false, "serve the read-only HTTP API")
	fs.String("api-addr", defaultAPIAddr, "HTTP API listen address")
	fs.Duration("query-timeout", defaultQueryTimeout, "timeout for history queries")
	fs.Bool("history-enabled", defaultHistoryEnabled, "keep emitted windows in an in-memory DuckDB")
	fs.Bool("banner", defaultBanner, "print the startup banner on stderr")
	fs.String("config", "", "config file (default is $HOME/.config/syslog-sniffer/config.yml)")
	fs.Bool("version", false, "print version information")
	return fs
}

func loadConfig(flags *pflag.FlagSet) (appConfig, error) {
	var cfg appConfig

	v := viper.New()
	v.SetEnvPrefix("SYSLOG_SNIFFER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("port", defaultPort)
	v.SetDefault("debug", false)
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("periodic", false)
	v.SetDefault("frequency", defaultFrequency)
	v.SetDefault("capture", defaultCaptureMode)
	v.SetDefault("read-timeout", defaultReadTimeout)
	v.SetDefault("snaplen", defaultSnapLen)
	v.SetDefault("promiscuous", false)
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-addr", defaultAPIAddr)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("history-enabled", defaultHistoryEnabled)
	v.SetDefault("banner", defaultBanner)

	if err := v.BindPFlags(flags); err != nil {
		return cfg, fmt.Errorf("binding flags: %w", err)
	}

	configPath, _ := flags.GetString("config")
	if configPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configPath = filepath.Join(home, ".config", "syslog-sniffer", "config.yml")
		}
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var configFileNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
				return cfg, err
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		cfg.ConfigPath = ""
	}

	cfg.Capture = strings.ToLower(strings.TrimSpace(cfg.Capture))
	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	if cfg.UDPAddr == "" {
		cfg.UDPAddr = net.JoinHostPort(defaultUDPBindHost, strconv.Itoa(cfg.Port))
	}
	return cfg, nil
}
