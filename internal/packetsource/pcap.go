package packetsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket/pcap"
	"github.com/tinytelemetry/syslog-sniffer/internal/model"
)

// PcapConfig holds tunable parameters for live and offline capture.
type PcapConfig struct {
	Interface   string
	File        string
	Port        int
	SnapLen     int
	Promiscuous bool
	ReadTimeout time.Duration
}

func (c PcapConfig) withDefaults() PcapConfig {
	if c.Port <= 0 {
		c.Port = model.DefaultPort
	}
	if c.SnapLen <= 0 {
		c.SnapLen = model.DefaultSnapLen
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = model.DefaultReadTimeout
	}
	return c
}

// PcapSource reads frames from a libpcap handle. Frames include the
// link-layer, IP and UDP headers ahead of the syslog payload.
type PcapSource struct {
	handle      *pcap.Handle
	offline     bool
	readTimeout time.Duration
}

// OpenLive opens a capture on a named interface filtered to the syslog port.
func OpenLive(cfg PcapConfig) (*PcapSource, error) {
	cfg = cfg.withDefaults()

	devices, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("device lookup failed: %w", err)
	}
	found := false
	for _, dev := range devices {
		if dev.Name == cfg.Interface {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("device %s not found", cfg.Interface)
	}

	handle, err := pcap.OpenLive(cfg.Interface, int32(cfg.SnapLen), cfg.Promiscuous, cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	if err := handle.SetBPFFilter(BPFFilter(cfg.Port)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to set filter: %w", err)
	}
	return &PcapSource{handle: handle, readTimeout: cfg.ReadTimeout}, nil
}

// OpenOffline replays frames from a pcap file. Once the file is exhausted
// the source behaves like an idle interface.
func OpenOffline(cfg PcapConfig) (*PcapSource, error) {
	cfg = cfg.withDefaults()

	handle, err := pcap.OpenOffline(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file %s: %w", cfg.File, err)
	}
	if err := handle.SetBPFFilter(BPFFilter(cfg.Port)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to set filter: %w", err)
	}
	return &PcapSource{handle: handle, offline: true, readTimeout: cfg.ReadTimeout}, nil
}

func (s *PcapSource) NextFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, _, err := s.handle.ReadPacketData()
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, pcap.NextErrorTimeoutExpired):
		return nil, ErrNoData
	case s.offline && errors.Is(err, io.EOF):
		idle := time.NewTimer(s.readTimeout)
		defer idle.Stop()
		select {
		case <-idle.C:
		case <-ctx.Done():
		}
		return nil, ErrNoData
	default:
		return nil, fmt.Errorf("error capturing packet: %w", err)
	}
}

func (s *PcapSource) LinkDescription() string {
	return s.handle.LinkType().String()
}

func (s *PcapSource) Close() error {
	s.handle.Close()
	return nil
}
