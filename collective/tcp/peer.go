package tcp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// peer is one established connection. A reader goroutine moves data frames
// into inbox and hands control frames to the owning Comm.
type peer struct {
	rank int
	conn net.Conn
	f    framer

	writeTimeout time.Duration
	wmu          sync.Mutex

	inbox chan *message
	done  chan struct{} // closed when the reader exits
	err   error         // read error, valid after done is closed
	bye   bool          // peer closed gracefully, valid after done is closed
}

func newPeer(rank int, conn net.Conn, f framer, writeTimeout time.Duration) *peer {
	return &peer{
		rank:         rank,
		conn:         conn,
		f:            f,
		writeTimeout: writeTimeout,
		inbox:        make(chan *message, 4),
		done:         make(chan struct{}),
	}
}

func (p *peer) send(m *message) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()

	if p.writeTimeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
	}
	if err := p.f.write(p.conn, m); err != nil {
		return fmt.Errorf("tcp: send to rank %d: %w", p.rank, err)
	}
	return nil
}

// readLoop runs until the connection fails, the peer says bye, or stop is
// closed. onAbort is called for abort frames and onLost for unexpected
// failures. Data frames arriving after the group aborted are dropped.
func (p *peer) readLoop(stop, aborted <-chan struct{}, onAbort func(*message), onLost func(*peer, error)) {
	defer close(p.done)

	for {
		m, err := p.f.read(p.conn)
		if err != nil {
			select {
			case <-stop:
				return
			default:
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				err = fmt.Errorf("tcp: rank %d disconnected: %w", p.rank, err)
			}
			p.err = err
			onLost(p, err)
			return
		}

		switch m.Kind {
		case kindData:
			select {
			case p.inbox <- m:
			case <-aborted:
			case <-stop:
				return
			}
		case kindAbort:
			onAbort(m)
		case kindBye:
			p.bye = true
			p.err = fmt.Errorf("tcp: rank %d left the group", p.rank)
			return
		default:
			p.err = fmt.Errorf("tcp: unexpected %v frame from rank %d", m.Kind, p.rank)
			onLost(p, p.err)
			return
		}
	}
}
