package packetsource

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/tinytelemetry/syslog-sniffer/internal/logparse"
)

func TestOpenLive_UnknownInterface(t *testing.T) {
	t.Parallel()
	_, err := OpenLive(PcapConfig{Interface: "non_existent_interface_xyz", Port: 514})
	if err == nil {
		t.Fatal("OpenLive succeeded for a missing interface")
	}
	msg := err.Error()
	if !strings.Contains(msg, "device non_existent_interface_xyz not found") &&
		!strings.Contains(msg, "device lookup failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOpenOffline_MissingFile(t *testing.T) {
	t.Parallel()
	if _, err := OpenOffline(PcapConfig{File: filepath.Join(t.TempDir(), "missing.pcap")}); err == nil {
		t.Fatal("OpenOffline succeeded for a missing file")
	}
}

// writeSyslogCapture writes an Ethernet/IPv4/UDP capture with one datagram
// per payload, all sent to dstPort.
func writeSyslogCapture(t *testing.T, dstPort uint16, payloads ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "syslog.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("WriteFileHeader: %v", err)
	}

	for i, payload := range payloads {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
			DstMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			IHL:      5,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.IP{10, 0, 0, 1},
			DstIP:    net.IP{10, 0, 0, 2},
		}
		udp := &layers.UDP{SrcPort: 40000, DstPort: layers.UDPPort(dstPort)}

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true}
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
			t.Fatalf("serialize: %v", err)
		}
		data := buf.Bytes()
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(1700000000+int64(i), 0),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatalf("WritePacket: %v", err)
		}
	}
	return path
}

func TestOpenOffline_ReplaysFilteredFrames(t *testing.T) {
	t.Parallel()
	path := writeSyslogCapture(t, 514,
		"<13>Oct 11 22:14:15 mymachine su: su root",
		"<165>1 2003-10-11T22:14:15.003Z web01.example.com app 1234 ID47 - msg",
	)

	src, err := OpenOffline(PcapConfig{File: path, Port: 514, ReadTimeout: 10 * time.Millisecond})
	if err != nil {
		t.Skipf("libpcap unavailable: %v", err)
	}
	defer src.Close()

	if got := src.LinkDescription(); got != layers.LinkTypeEthernet.String() {
		t.Errorf("LinkDescription = %q, want %q", got, layers.LinkTypeEthernet.String())
	}

	wantHosts := []string{"mymachine", "web01.example.com"}
	for _, want := range wantHosts {
		frame, err := src.NextFrame(context.Background())
		if err != nil {
			t.Fatalf("NextFrame: %v", err)
		}
		msg, ok := logparse.ExtractFrame(frame)
		if !ok {
			t.Fatalf("ExtractFrame failed for frame %x", frame)
		}
		if msg.Hostname != want {
			t.Errorf("hostname = %q, want %q", msg.Hostname, want)
		}
	}

	if _, err := src.NextFrame(context.Background()); !errors.Is(err, ErrNoData) {
		t.Errorf("NextFrame after end of file = %v, want ErrNoData", err)
	}
}

func TestOpenOffline_FilterDropsOtherPorts(t *testing.T) {
	t.Parallel()
	path := writeSyslogCapture(t, 5140, "<13>Oct 11 22:14:15 mymachine su: su root")

	src, err := OpenOffline(PcapConfig{File: path, Port: 514, ReadTimeout: 10 * time.Millisecond})
	if err != nil {
		t.Skipf("libpcap unavailable: %v", err)
	}
	defer src.Close()

	if _, err := src.NextFrame(context.Background()); !errors.Is(err, ErrNoData) {
		t.Errorf("NextFrame = %v, want ErrNoData for filtered port", err)
	}
}
