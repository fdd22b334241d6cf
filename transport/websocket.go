package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConfig holds the options for dialing a serial bridge.
type WebSocketConfig struct {
	Username      string
	Password      string
	SkipSSLVerify bool

	// HandshakeTimeout bounds the whole dial
	HandshakeTimeout time.Duration

	// ReadTimeout is how long Read waits for data (0 waits forever)
	ReadTimeout time.Duration
}

// WebSocket carries the serial byte stream over binary WebSocket messages,
// as exposed by network serial bridges.
//
// Gorilla read errors are permanent, so read deadlines cannot implement a
// per-read timeout. A reader goroutine queues messages instead and Read waits
// on the queue.
type WebSocket struct {
	conn     *websocket.Conn
	incoming chan []byte
	done     chan struct{}
	readErr  error

	buf       []byte
	bufOffset int

	mu        sync.Mutex
	timeout   time.Duration
	closeOnce sync.Once
}

// DialWebSocket connects to a serial bridge with optional HTTP Basic auth.
func DialWebSocket(rawURL string, cfg WebSocketConfig) (*WebSocket, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	handshake := cfg.HandshakeTimeout
	if handshake <= 0 {
		handshake = 10 * time.Second
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshake,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: cfg.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if cfg.Username != "" && cfg.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handshake+5*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, rawURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocket(conn, cfg.ReadTimeout), nil
}

func newWebSocket(conn *websocket.Conn, timeout time.Duration) *WebSocket {
	w := &WebSocket{
		conn:     conn,
		incoming: make(chan []byte, 16),
		done:     make(chan struct{}),
		timeout:  timeout,
	}
	go w.readLoop()
	return w
}

func (w *WebSocket) readLoop() {
	defer close(w.incoming)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.readErr = err
			return
		}

		// Text frames carry bridge status, not line data
		if messageType != websocket.BinaryMessage || len(data) == 0 {
			continue
		}

		select {
		case w.incoming <- data:
		case <-w.done:
			return
		}
	}
}

func (w *WebSocket) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	w.mu.Lock()
	timeout := w.timeout
	w.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case data, ok := <-w.incoming:
		if !ok {
			if w.readErr != nil {
				return 0, fmt.Errorf("%w: %v", ErrConnectionClosed, w.readErr)
			}
			return 0, ErrConnectionClosed
		}
		w.buf = data
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	case <-expired:
		return 0, ErrTimeout
	}
}

func (w *WebSocket) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetReadTimeout sets how long Read waits for data.
func (w *WebSocket) SetReadTimeout(timeout time.Duration) error {
	w.mu.Lock()
	w.timeout = timeout
	w.mu.Unlock()
	return nil
}

// Drain discards any bytes already received.
func (w *WebSocket) Drain() error {
	w.buf = nil
	w.bufOffset = 0
	for {
		select {
		case _, ok := <-w.incoming:
			if !ok {
				return nil
			}
		default:
			return nil
		}
	}
}

func (w *WebSocket) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	return w.conn.Close()
}
