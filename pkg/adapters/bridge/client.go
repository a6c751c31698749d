package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/jonboulle/clockwork"
)

// DefaultTimeout bounds a single request round trip.
const DefaultTimeout = 5 * time.Second

// ErrClosed is returned once the bridge stream has ended.
var ErrClosed = errors.New("bridge closed")

// Client implements ports.Surface and ports.WindowEvents over a JSON lines stream.
type Client struct {
	r       io.Reader
	w       io.Writer
	logger  *slog.Logger
	clock   clockwork.Clock
	timeout time.Duration

	writeMu sync.Mutex
	enc     *json.Encoder

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan Message
	closed  bool
	readErr error

	events  chan domain.WindowEvent
	started sync.Once
	done    chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock sets the clock used for request timeouts and event timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient wraps the bridge's output (r) and input (w).
func NewClient(r io.Reader, w io.Writer, opts ...Option) *Client {
	c := &Client{
		r:       r,
		w:       w,
		logger:  logging.NewNop(),
		clock:   clockwork.NewRealClock(),
		timeout: DefaultTimeout,
		enc:     json.NewEncoder(w),
		pending: make(map[uint64]chan Message),
		events:  make(chan domain.WindowEvent, 256),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins reading the stream. It is called implicitly by the first
// request or Events call.
func (c *Client) Start() {
	c.started.Do(func() {
		go c.readLoop()
	})
}

// Done is closed when the stream ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the stream, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// Events implements ports.WindowEvents. There is a single stream per client;
// every call returns the same channel.
func (c *Client) Events(ctx context.Context) (<-chan domain.WindowEvent, error) {
	c.Start()
	return c.events, nil
}

func (c *Client) readLoop() {
	scanner := bufio.NewScanner(c.r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			c.logger.Warn("Discarding malformed bridge line", "err", err, "size", len(line))
			continue
		}
		if msg.Event != nil {
			c.publish(*msg.Event)
			continue
		}
		c.deliver(msg)
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	c.shutdown(err)
}

func (c *Client) publish(ev domain.WindowEvent) {
	if ev.At.IsZero() {
		ev.At = c.clock.Now()
	}
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("Window event dropped, consumer too slow", "window", ev.Handle, "kind", ev.Kind)
	}
}

func (c *Client) deliver(msg Message) {
	c.mu.Lock()
	ch, ok := c.pending[msg.ID]
	delete(c.pending, msg.ID)
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("Reply for unknown request", "id", msg.ID)
		return
	}
	ch <- msg
}

func (c *Client) shutdown(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.readErr = err
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
	close(c.events)
	close(c.done)
	if !errors.Is(err, io.EOF) {
		c.logger.Error("Bridge stream failed", "err", err)
	}
}

func (c *Client) call(ctx context.Context, req Request) (Message, error) {
	c.Start()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Message{}, ErrClosed
	}
	c.nextID++
	req.ID = c.nextID
	reply := make(chan Message, 1)
	c.pending[req.ID] = reply
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.enc.Encode(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(req.ID)
		return Message{}, fmt.Errorf("bridge %s: %w", req.Op, err)
	}

	timer := c.clock.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-reply:
		if !ok {
			return Message{}, ErrClosed
		}
		if err := msg.err(); err != nil {
			return Message{}, fmt.Errorf("bridge %s: %w", req.Op, err)
		}
		return msg, nil
	case <-timer.Chan():
		c.forget(req.ID)
		return Message{}, fmt.Errorf("bridge %s: %w", req.Op, context.DeadlineExceeded)
	case <-ctx.Done():
		c.forget(req.ID)
		return Message{}, ctx.Err()
	}
}

func (c *Client) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Windows implements ports.Surface.
func (c *Client) Windows(ctx context.Context) ([]domain.WindowSnapshot, error) {
	msg, err := c.call(ctx, Request{Op: OpWindows})
	if err != nil {
		return nil, err
	}
	return msg.Windows, nil
}

// Inspect implements ports.Surface.
func (c *Client) Inspect(ctx context.Context, h domain.WindowHandle) (domain.WindowSnapshot, error) {
	msg, err := c.call(ctx, Request{Op: OpInspect, Window: h})
	if err != nil {
		return domain.WindowSnapshot{}, err
	}
	if msg.Window == nil {
		return domain.WindowSnapshot{}, fmt.Errorf("%w: %s", domain.ErrWindowGone, h)
	}
	snap := *msg.Window
	if snap.Handle == "" {
		snap.Handle = h
	}
	return snap, nil
}

// Toggle implements ports.Surface.
func (c *Client) Toggle(ctx context.Context, h domain.WindowHandle, controlID string, on bool) error {
	_, err := c.call(ctx, Request{Op: OpToggle, Window: h, Control: controlID, On: &on})
	return err
}

// SetText implements ports.Surface.
func (c *Client) SetText(ctx context.Context, h domain.WindowHandle, controlID, text string) error {
	_, err := c.call(ctx, Request{Op: OpSetText, Window: h, Control: controlID, Text: &text})
	return err
}

// Press implements ports.Surface.
func (c *Client) Press(ctx context.Context, h domain.WindowHandle, controlID string) error {
	_, err := c.call(ctx, Request{Op: OpPress, Window: h, Control: controlID})
	return err
}

// Select implements ports.Surface.
func (c *Client) Select(ctx context.Context, h domain.WindowHandle, controlID string) error {
	_, err := c.call(ctx, Request{Op: OpSelect, Window: h, Control: controlID})
	return err
}

// Close implements ports.Surface.
func (c *Client) Close(ctx context.Context, h domain.WindowHandle) error {
	_, err := c.call(ctx, Request{Op: OpClose, Window: h})
	return err
}
