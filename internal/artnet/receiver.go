package artnet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/jscyril/dmx_media_trigger/internal/platform/logger"
	playerrors "github.com/jscyril/dmx_media_trigger/pkg/errors"
)

// FrameHandler receives the channel data of one universe and reports
// whether processing it succeeded
type FrameHandler func(data []byte) bool

// Receiver reads ArtDMX packets from a UDP socket and hands each frame to
// the handler registered for its universe. Frames are delivered one at a
// time from the goroutine running Run.
type Receiver struct {
	conn *net.UDPConn
	log  *slog.Logger

	mu       sync.RWMutex
	handlers map[uint16]FrameHandler
}

// Listen opens the UDP socket. An empty addr listens on all interfaces at Port.
func Listen(addr string, log *slog.Logger) (*Receiver, error) {
	if addr == "" {
		addr = fmt.Sprintf(":%d", Port)
	}
	if log == nil {
		log = logger.Discard()
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Receiver{
		conn:     conn,
		log:      log,
		handlers: make(map[uint16]FrameHandler),
	}, nil
}

// Addr returns the local socket address
func (r *Receiver) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// Register installs h for universe, replacing any previous handler
func (r *Receiver) Register(universe uint16, h FrameHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[universe] = h
}

// Run reads packets until ctx is cancelled, then closes the socket and
// returns nil. Packets that are not ArtDMX are ignored.
func (r *Receiver) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { r.conn.Close() })
	defer stop()

	buf := make([]byte, 2048)
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read art-net: %w", err)
		}
		r.handle(buf[:n], from)
	}
}

func (r *Receiver) handle(b []byte, from *net.UDPAddr) {
	pkt, err := ParseDMX(b)
	if err != nil {
		if !errors.Is(err, playerrors.ErrUnsupportedOp) {
			r.log.Debug("drop packet", "from", from, "error", err)
		}
		return
	}

	r.mu.RLock()
	h, ok := r.handlers[pkt.Universe]
	r.mu.RUnlock()
	if !ok {
		return
	}

	frame := make([]byte, len(pkt.Data))
	copy(frame, pkt.Data)
	if !h(frame) {
		r.log.Debug("frame handler reported failure", "universe", pkt.Universe, "sequence", pkt.Sequence)
	}
}

// Close closes the socket
func (r *Receiver) Close() error {
	return r.conn.Close()
}
