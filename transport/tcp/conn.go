package tcp

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Vulcanostrol/ringgzprotocol/internal/protocol"
)

// outboundBuffer is how many encoded lines may queue for one peer
// before the connection is considered stuck and dropped.
const outboundBuffer = 64

// flushTimeout bounds how long a closing connection may spend pushing
// its remaining queue to the peer.
const flushTimeout = time.Second

var ErrSlowClient = fmt.Errorf("client is not draining its outbound queue")

// Conn wraps one accepted socket. Writes go through a buffered queue
// drained by a dedicated goroutine, so a stalled peer never blocks the
// game state machinery; it just fills its queue and gets evicted.
type Conn struct {
	raw      net.Conn
	outbound chan string

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(raw net.Conn) *Conn {
	return &Conn{
		raw:      raw,
		outbound: make(chan string, outboundBuffer),
		done:     make(chan struct{}),
	}
}

// Send encodes and queues one packet. It never blocks: a full queue
// closes the connection and reports the peer as slow.
func (that *Conn) Send(packetType string, fields ...string) error {
	line, err := protocol.Encode(packetType, fields...)
	if err != nil {
		return fmt.Errorf("encode %s: %w", packetType, err)
	}

	select {
	case <-that.done:
		return net.ErrClosed
	default:
	}

	select {
	case that.outbound <- line:
		return nil
	case <-that.done:
		return net.ErrClosed
	default:
		_ = that.Close()
		return ErrSlowClient
	}
}

// Close stops the connection. The write loop flushes whatever was
// queued before the close and then shuts the socket, so a decline reply
// sent right before dropping the peer still goes out; the read loop
// sees the closed socket and runs the disconnect teardown. Calling
// Close twice is fine.
func (that *Conn) Close() error {
	that.closeOnce.Do(func() {
		close(that.done)
	})
	return nil
}

// writeLoop drains the outbound queue onto the socket until the
// connection closes. Runs in its own goroutine per connection and is
// the only writer and closer of the raw socket.
func (that *Conn) writeLoop() {
	defer func() { _ = that.raw.Close() }()

	for {
		select {
		case line := <-that.outbound:
			if !that.write(line) {
				_ = that.Close()
				return
			}
		case <-that.done:
			that.flushQueued()
			return
		}
	}
}

// flushQueued delivers the lines still queued at close time. The write
// deadline keeps a dead peer from pinning the goroutine.
func (that *Conn) flushQueued() {
	_ = that.raw.SetWriteDeadline(time.Now().Add(flushTimeout))

	for {
		select {
		case line := <-that.outbound:
			if !that.write(line) {
				return
			}
		default:
			return
		}
	}
}

func (that *Conn) write(line string) bool {
	_, err := that.raw.Write([]byte(line + "\n"))
	return err == nil
}

func (that *Conn) remoteAddr() string {
	return that.raw.RemoteAddr().String()
}
