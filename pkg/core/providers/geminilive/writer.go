package geminilive

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type wsWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// sendQueue is an unbounded FIFO of encoded text frames. Push never blocks.
type sendQueue struct {
	mu     sync.Mutex
	items  [][]byte
	notify chan struct{}
	closed bool
}

func newSendQueue() *sendQueue {
	return &sendQueue{notify: make(chan struct{}, 1)}
}

func (q *sendQueue) push(frame []byte) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, frame)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// drain removes and returns everything queued.
func (q *sendQueue) drain() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// close discards queued frames and rejects further pushes.
func (q *sendQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
}

func (q *sendQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type outboundWriter struct {
	ws           wsWriter
	mu           *sync.Mutex
	queue        *sendQueue
	done         <-chan struct{}
	writeTimeout time.Duration
	pingInterval time.Duration
}

// Run writes queued frames in order and pings on an interval until done is
// closed or a write fails.
func (w *outboundWriter) Run() error {
	pingInterval := w.pingInterval
	if pingInterval <= 0 {
		pingInterval = 20 * time.Second
	}
	writeTimeout := w.writeTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-w.done:
			return nil
		case <-pingTicker.C:
			if err := w.control(websocket.PingMessage, []byte("ping"), writeTimeout); err != nil {
				return err
			}
		case <-w.queue.notify:
			for _, frame := range w.queue.drain() {
				select {
				case <-w.done:
					return nil
				default:
				}
				if err := w.write(frame, writeTimeout); err != nil {
					return err
				}
			}
		}
	}
}

func (w *outboundWriter) write(frame []byte, writeTimeout time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return w.ws.WriteMessage(websocket.TextMessage, frame)
}

func (w *outboundWriter) control(messageType int, data []byte, writeTimeout time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ws.WriteControl(messageType, data, time.Now().Add(writeTimeout))
}
