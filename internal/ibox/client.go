package ibox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-ledbridge/internal/bridges/limitless"
)

// Default timeouts and intervals for wifi bridge communication.
const (
	// defaultConnectTimeout is the maximum time to wait for the session handshake.
	defaultConnectTimeout = 5 * time.Second

	// defaultWriteTimeout bounds a single datagram write.
	defaultWriteTimeout = 2 * time.Second

	// defaultKeepAliveInterval is how often a keep-alive is sent.
	defaultKeepAliveInterval = 5 * time.Second

	// defaultMaxMissedKeepAlives is how many unanswered keep-alives end a session.
	defaultMaxMissedKeepAlives = 3

	// defaultReconnectInterval is the initial delay between handshake attempts.
	defaultReconnectInterval = 2 * time.Second

	// maxReconnectInterval caps the handshake backoff.
	maxReconnectInterval = time.Minute

	// readBufferSize fits every datagram the bridge sends.
	readBufferSize = 256
)

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config holds wifi bridge connection configuration.
type Config struct {
	// Host is the bridge IP address or hostname.
	Host string

	// Port is the UDP command port. Default: 5987.
	Port int

	// ConnectTimeout bounds the session handshake. Default: 5 seconds.
	ConnectTimeout time.Duration

	// KeepAliveInterval is the keep-alive period. Default: 5 seconds.
	KeepAliveInterval time.Duration

	// MaxMissedKeepAlives ends the session after this many unanswered
	// keep-alives. Default: 3.
	MaxMissedKeepAlives int

	// ReconnectInterval is the initial delay between handshake attempts
	// after the session was lost. Default: 2 seconds.
	ReconnectInterval time.Duration
}

// Ensure Client implements limitless.Sender.
var _ limitless.Sender = (*Client)(nil)

// Client is a UDP session with a wifi bridge.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Session() returns a consistent snapshot; Send advances the sequence
//     byte after a successful write.
//
// Session Recovery:
//   - When keep-alives go unanswered the session is marked down and the
//     client repeats the handshake with exponential backoff until Close().
type Client struct {
	cfg     Config
	address string
	conn    *net.UDPConn

	// Session state
	mu             sync.Mutex
	session        limitless.Session
	connected      bool
	connectedSince time.Time

	// handshake receives session responses from the receive loop.
	handshake chan limitless.Session

	// lastReply is the Unix nano time of the last keep-alive reply.
	lastReply atomic.Int64

	// Shutdown coordination
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex

	// Statistics (atomic for performance)
	framesSent     atomic.Uint64
	keepAlivesSent atomic.Uint64
	sessionsOpened atomic.Uint64
	acksReceived   atomic.Uint64
	errorsTotal    atomic.Uint64
	lastActivity   atomic.Int64 // Unix timestamp
}

// Connect opens a UDP socket to the bridge and performs the session handshake.
//
// After the handshake it starts a goroutine that reads datagrams from the
// bridge and one that sends keep-alives.
//
// Parameters:
//   - ctx: Context for cancellation (bounds the initial handshake)
//   - cfg: Connection configuration
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the socket cannot be opened or the handshake fails
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.receiveLoop()

	connectCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	if err := c.openSession(connectCtx); err != nil {
		c.Close() //nolint:errcheck,gosec // best-effort cleanup
		return nil, err
	}

	c.wg.Add(1)
	go c.keepAliveLoop()

	return c, nil
}

// newClient applies defaults and opens the socket.
func newClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrConnectionFailed)
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.KeepAliveInterval == 0 {
		cfg.KeepAliveInterval = defaultKeepAliveInterval
	}
	if cfg.MaxMissedKeepAlives == 0 {
		cfg.MaxMissedKeepAlives = defaultMaxMissedKeepAlives
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}

	address := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	raddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", ErrConnectionFailed, address, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, address, err)
	}

	return &Client{
		cfg:       cfg,
		address:   address,
		conn:      conn,
		handshake: make(chan limitless.Session, 1),
		done:      make(chan struct{}),
	}, nil
}

// openSession sends session requests until the bridge answers or ctx ends.
func (c *Client) openSession(ctx context.Context) error {
	// Drop a stale response from an earlier attempt.
	select {
	case <-c.handshake:
	default:
	}

	if err := c.write(sessionRequest); err != nil {
		return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}

	select {
	case s := <-c.handshake:
		now := time.Now()
		c.mu.Lock()
		// The sequence number continues across sessions.
		s.Sequence = c.session.Sequence
		c.session = s
		c.connected = true
		c.connectedSince = now
		c.mu.Unlock()

		c.lastReply.Store(now.UnixNano())
		c.sessionsOpened.Add(1)
		c.logInfo("session established",
			"address", c.address,
			"session_byte1", s.SessionByte1,
			"session_byte2", s.SessionByte2)
		return nil
	case <-ctx.Done():
		c.errorsTotal.Add(1)
		return fmt.Errorf("%w: %w", ErrHandshakeFailed, ctx.Err())
	case <-c.done:
		return fmt.Errorf("%w: client closed", ErrHandshakeFailed)
	}
}

// receiveLoop reads datagrams from the bridge until Close.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	buf := make([]byte, readBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			if c.isClosed() {
				return
			}
			// ICMP port unreachable surfaces as a read error on a connected socket.
			c.errorsTotal.Add(1)
			c.logDebug("read failed", "error", err)
			select {
			case <-c.done:
				return
			case <-time.After(c.cfg.KeepAliveInterval / 4):
			}
			continue
		}
		c.lastActivity.Store(time.Now().Unix())
		c.handleDatagram(buf[:n])
	}
}

// handleDatagram dispatches one datagram by its type byte.
func (c *Client) handleDatagram(data []byte) {
	if len(data) == 0 {
		return
	}

	switch data[0] {
	case typeSessionResponse:
		sb1, sb2, err := parseSessionResponse(data)
		if err != nil {
			c.errorsTotal.Add(1)
			c.logError("bad session response", err)
			return
		}
		select {
		case c.handshake <- limitless.Session{SessionByte1: sb1, SessionByte2: sb2}:
		default:
		}
	case typeKeepAliveReply:
		c.lastReply.Store(time.Now().UnixNano())
	case typeCommandAck:
		c.acksReceived.Add(1)
	default:
		c.logDebug("ignoring datagram", "type", fmt.Sprintf("0x%02X", data[0]), "length", len(data))
	}
}

// keepAliveLoop sends keep-alives and restores the session when they go unanswered.
func (c *Client) keepAliveLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		if c.sessionExpired() {
			c.markDisconnected()
			if !c.reconnect() {
				return
			}
			continue
		}

		s := c.Session()
		if err := c.write(keepAlive(s.SessionByte1, s.SessionByte2)); err != nil {
			c.errorsTotal.Add(1)
			c.logError("keep-alive failed", err)
			continue
		}
		c.keepAlivesSent.Add(1)
	}
}

// sessionExpired reports whether too many keep-alives went unanswered.
func (c *Client) sessionExpired() bool {
	last := time.Unix(0, c.lastReply.Load())
	limit := time.Duration(c.cfg.MaxMissedKeepAlives) * c.cfg.KeepAliveInterval
	return time.Since(last) > limit
}

func (c *Client) markDisconnected() {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if wasConnected {
		c.logInfo("session lost, repeating handshake", "address", c.address)
	}
}

// reconnect repeats the handshake with exponential backoff.
// Returns false if the client was closed.
func (c *Client) reconnect() bool {
	backoff := c.cfg.ReconnectInterval
	for {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
		err := c.openSession(ctx)
		cancel()
		if err == nil {
			return true
		}
		if c.isClosed() {
			return false
		}

		c.logError("handshake failed", err)
		select {
		case <-c.done:
			return false
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * 1.5)
		if backoff > maxReconnectInterval {
			backoff = maxReconnectInterval
		}
	}
}

// write sends one datagram with a write deadline.
func (c *Client) write(data []byte) error {
	return c.writeDeadline(data, time.Now().Add(defaultWriteTimeout))
}

func (c *Client) writeDeadline(data []byte, deadline time.Time) error {
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Session returns the current session snapshot.
func (c *Client) Session() limitless.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Send writes a frame to the bridge and advances the sequence byte.
//
// The frame must have been built from the current Session() snapshot.
// No acknowledgement is awaited.
//
// Parameters:
//   - ctx: Context for cancellation; its deadline bounds the write
//   - f: Frame to send
//
// Returns:
//   - error: ErrInvalidFrame, ErrNotConnected, or the write error
func (c *Client) Send(ctx context.Context, f limitless.Frame) error {
	data := f.Bytes()
	if err := checkCommand(data); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send cancelled: %w", err)
	}

	deadline := time.Now().Add(defaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeDeadline(data, deadline); err != nil {
		c.errorsTotal.Add(1)
		return err
	}
	c.session.Sequence++

	c.framesSent.Add(1)
	c.lastActivity.Store(time.Now().Unix())
	return nil
}

// IsConnected returns true while a session is established.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Stats returns current operational statistics.
func (c *Client) Stats() limitless.TransportStats {
	c.mu.Lock()
	connected := c.connected
	since := c.connectedSince
	c.mu.Unlock()

	return limitless.TransportStats{
		Address:        c.address,
		FramesSent:     c.framesSent.Load(),
		KeepAlivesSent: c.keepAlivesSent.Load(),
		SessionsOpened: c.sessionsOpened.Load(),
		ErrorsTotal:    c.errorsTotal.Load(),
		Connected:      connected,
		ConnectedSince: since,
		LastActivity:   time.Unix(c.lastActivity.Load(), 0),
	}
}

// AcksReceived returns the number of command acknowledgements seen.
func (c *Client) AcksReceived() uint64 {
	return c.acksReceived.Load()
}

// HealthCheck reports ErrNotConnected when no session is established.
func (c *Client) HealthCheck(_ context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close ends the session and releases the socket.
// Safe to call multiple times.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()

		// Unblocks the receive loop.
		if cerr := c.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
		c.wg.Wait()
		c.logInfo("connection closed", "address", c.address)
	})
	return err
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

func (c *Client) logInfo(msg string, keysAndValues ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (c *Client) logDebug(msg string, keysAndValues ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

func (c *Client) logError(msg string, err error) {
	if logger := c.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}
