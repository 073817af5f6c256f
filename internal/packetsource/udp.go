package packetsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/tinytelemetry/syslog-sniffer/internal/model"
)

const (
	// DefaultMaxDatagramSize is the largest UDP payload the socket source reads.
	DefaultMaxDatagramSize = 64 * 1024
)

// UDPConfig holds tunable parameters for the socket source.
type UDPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	MaxDatagramSize int
}

// UDPSource receives syslog datagrams on a bound UDP socket. Unlike the pcap
// sources it owns the port, so it only suits hosts without a syslog daemon.
// Frames are bare payloads with no transport headers.
type UDPSource struct {
	conn        net.PacketConn
	buf         []byte
	readTimeout time.Duration
}

// ListenUDP binds addr. Default addr is "0.0.0.0:514".
func ListenUDP(cfg UDPConfig) (*UDPSource, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = fmt.Sprintf("0.0.0.0:%d", model.DefaultPort)
	}
	readTimeout := model.DefaultReadTimeout
	if cfg.ReadTimeout > 0 {
		readTimeout = cfg.ReadTimeout
	}
	size := DefaultMaxDatagramSize
	if cfg.MaxDatagramSize > 0 {
		size = cfg.MaxDatagramSize
	}

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", addr, err)
	}
	return &UDPSource{
		conn:        conn,
		buf:         make([]byte, size),
		readTimeout: readTimeout,
	}, nil
}

func (s *UDPSource) NextFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(s.readTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	n, _, err := s.conn.ReadFrom(s.buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("read udp: %w", err)
	}
	return bytes.Clone(s.buf[:n]), nil
}

func (s *UDPSource) LinkDescription() string {
	return "UDP socket " + s.Addr()
}

// Addr returns the bound local address.
func (s *UDPSource) Addr() string {
	return s.conn.LocalAddr().String()
}

func (s *UDPSource) Close() error {
	return s.conn.Close()
}
