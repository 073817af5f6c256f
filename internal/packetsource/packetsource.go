package packetsource

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoData reports that no frame arrived before the source's read timeout.
// It is routine and callers should simply poll again.
var ErrNoData = errors.New("packetsource: no frame available")

// Source is the capture feed consumed by the scheduler. NextFrame returns
// one frame, ErrNoData on timeout, or any other error for a failed read.
// Implementations never block longer than their read timeout.
type Source interface {
	NextFrame(ctx context.Context) ([]byte, error)
	LinkDescription() string
	Close() error
}

// BPFFilter returns the capture filter selecting syslog datagrams on port.
func BPFFilter(port int) string {
	return fmt.Sprintf("udp port %d", port)
}
