package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tinytelemetry/syslog-sniffer/internal/packetsource"
)

// CaptureSourcePlugin is a small plugin primitive for wiring packet sources.
type CaptureSourcePlugin interface {
	Name() string
	Enabled() bool
	Build(ctx context.Context) (packetsource.Source, error)
}

// CapturePluginConfig defines runtime capture selection.
type CapturePluginConfig struct {
	Mode        string
	Interface   string
	PcapFile    string
	Port        int
	SnapLen     int
	Promiscuous bool
	ReadTimeout time.Duration
	UDPAddr     string
}

func capturePluginConfig(cfg appConfig) CapturePluginConfig {
	return CapturePluginConfig{
		Mode:        cfg.Capture,
		Interface:   cfg.Interface,
		PcapFile:    cfg.PcapFile,
		Port:        cfg.Port,
		SnapLen:     cfg.SnapLen,
		Promiscuous: cfg.Promiscuous,
		ReadTimeout: cfg.ReadTimeout,
		UDPAddr:     cfg.UDPAddr,
	}
}

func buildCapturePlugins(cfg CapturePluginConfig) []CaptureSourcePlugin {
	pcapCfg := packetsource.PcapConfig{
		Interface:   cfg.Interface,
		File:        cfg.PcapFile,
		Port:        cfg.Port,
		SnapLen:     cfg.SnapLen,
		Promiscuous: cfg.Promiscuous,
		ReadTimeout: cfg.ReadTimeout,
	}

	plugins := make([]CaptureSourcePlugin, 0, 3)
	plugins = append(plugins, pcapCapturePlugin{
		cfg:     pcapCfg,
		enabled: cfg.Mode == captureModePcap,
	})
	plugins = append(plugins, fileCapturePlugin{
		cfg:     pcapCfg,
		enabled: cfg.Mode == captureModeFile,
	})
	plugins = append(plugins, udpCapturePlugin{
		cfg: packetsource.UDPConfig{
			Addr:        cfg.UDPAddr,
			ReadTimeout: cfg.ReadTimeout,
		},
		enabled: cfg.Mode == captureModeUDP,
	})
	return plugins
}

// openCaptureSource builds the single enabled plugin. Capture setup is the
// only failure that aborts a run.
func openCaptureSource(ctx context.Context, plugins []CaptureSourcePlugin) (packetsource.Source, string, error) {
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			continue
		}
		src, err := plugin.Build(ctx)
		if err != nil {
			return nil, plugin.Name(), fmt.Errorf("init %s capture: %w", plugin.Name(), err)
		}
		return src, plugin.Name(), nil
	}
	return nil, "", fmt.Errorf("no capture source enabled")
}

type pcapCapturePlugin struct {
	cfg     packetsource.PcapConfig
	enabled bool
}

func (p pcapCapturePlugin) Name() string { return captureModePcap }

func (p pcapCapturePlugin) Enabled() bool { return p.enabled }

func (p pcapCapturePlugin) Build(_ context.Context) (packetsource.Source, error) {
	src, err := packetsource.OpenLive(p.cfg)
	if err != nil {
		return nil, err
	}
	return src, nil
}

type fileCapturePlugin struct {
	cfg     packetsource.PcapConfig
	enabled bool
}

func (p fileCapturePlugin) Name() string { return captureModeFile }

func (p fileCapturePlugin) Enabled() bool { return p.enabled }

func (p fileCapturePlugin) Build(_ context.Context) (packetsource.Source, error) {
	src, err := packetsource.OpenOffline(p.cfg)
	if err != nil {
		return nil, err
	}
	return src, nil
}

type udpCapturePlugin struct {
	cfg     packetsource.UDPConfig
	enabled bool
}

func (p udpCapturePlugin) Name() string { return captureModeUDP }

func (p udpCapturePlugin) Enabled() bool { return p.enabled }

func (p udpCapturePlugin) Build(_ context.Context) (packetsource.Source, error) {
	src, err := packetsource.ListenUDP(p.cfg)
	if err != nil {
		return nil, err
	}
	return src, nil
}
