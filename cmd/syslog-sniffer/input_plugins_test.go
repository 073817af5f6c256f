package main

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/syslog-sniffer/internal/packetsource"
)

func TestBuildCapturePlugins_RegistersPrimitives(t *testing.T) {
	t.Parallel()

	plugins := buildCapturePlugins(CapturePluginConfig{
		Mode:      captureModePcap,
		Interface: "eth0",
		Port:      514,
	})

	if len(plugins) != 3 {
		t.Fatalf("expected 3 plugins, got %d", len(plugins))
	}
	wantNames := []string{captureModePcap, captureModeFile, captureModeUDP}
	for i, want := range wantNames {
		if plugins[i].Name() != want {
			t.Fatalf("plugins[%d] name = %q, want %q", i, plugins[i].Name(), want)
		}
	}
}

func TestBuildCapturePlugins_OnlySelectedModeEnabled(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{captureModePcap, captureModeFile, captureModeUDP} {
		plugins := buildCapturePlugins(CapturePluginConfig{Mode: mode})
		enabled := 0
		for _, p := range plugins {
			if p.Enabled() {
				enabled++
				if p.Name() != mode {
					t.Fatalf("mode %s enabled plugin %q", mode, p.Name())
				}
			}
		}
		if enabled != 1 {
			t.Fatalf("mode %s: %d plugins enabled, want 1", mode, enabled)
		}
	}
}

func TestOpenCaptureSource_UDP(t *testing.T) {
	t.Parallel()

	plugins := buildCapturePlugins(CapturePluginConfig{
		Mode:        captureModeUDP,
		UDPAddr:     "127.0.0.1:0",
		ReadTimeout: 50 * time.Millisecond,
	})

	src, name, err := openCaptureSource(context.Background(), plugins)
	if err != nil {
		t.Fatalf("openCaptureSource: %v", err)
	}
	defer src.Close()

	if name != captureModeUDP {
		t.Fatalf("name = %q, want %q", name, captureModeUDP)
	}
	if !strings.HasPrefix(src.LinkDescription(), "UDP socket 127.0.0.1:") {
		t.Fatalf("LinkDescription = %q", src.LinkDescription())
	}

	udp, ok := src.(*packetsource.UDPSource)
	if !ok {
		t.Fatalf("source type = %T, want *packetsource.UDPSource", src)
	}
	conn, err := net.Dial("udp", udp.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msg := "<34>Oct 11 22:14:15 mymachine su: 'su root' failed"
	if _, err := conn.Write([]byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		frame, err := src.NextFrame(context.Background())
		if errors.Is(err, packetsource.ErrNoData) {
			continue
		}
		if err != nil {
			t.Fatalf("NextFrame: %v", err)
		}
		if string(frame) != msg {
			t.Fatalf("frame = %q, want %q", frame, msg)
		}
		return
	}
	t.Fatal("datagram not received before deadline")
}

func TestOpenCaptureSource_SetupFailure(t *testing.T) {
	t.Parallel()

	plugins := buildCapturePlugins(CapturePluginConfig{
		Mode:     captureModeFile,
		PcapFile: filepath.Join(t.TempDir(), "missing.pcap"),
	})

	_, name, err := openCaptureSource(context.Background(), plugins)
	if err == nil {
		t.Fatal("expected error for a missing capture file")
	}
	if name != captureModeFile {
		t.Fatalf("name = %q, want %q", name, captureModeFile)
	}
	if !strings.Contains(err.Error(), "init file capture") {
		t.Fatalf("error = %q, want plugin context", err.Error())
	}
}

func TestOpenCaptureSource_NoneEnabled(t *testing.T) {
	t.Parallel()

	_, _, err := openCaptureSource(context.Background(), buildCapturePlugins(CapturePluginConfig{Mode: "tap"}))
	if err == nil {
		t.Fatal("expected error when no plugin is enabled")
	}
}
