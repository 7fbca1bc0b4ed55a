package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chaosdash/internal/clock"
	"chaosdash/internal/metrics"
)

// DefaultReconnectDelay is the fixed pause before every reconnection attempt.
const DefaultReconnectDelay = 3 * time.Second

// Conn is the read side of a push connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens push connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
	Header http.Header
}

func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type Options struct {
	URL            string
	ReconnectDelay time.Duration
	Dialer         Dialer
	Clock          clock.Clock
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	// Buffer sizes the event channel.
	Buffer int
}

// Channel keeps exactly one telemetry connection alive for as long as Run
// is running. Nothing is buffered while disconnected.
type Channel struct {
	url     string
	delay   time.Duration
	dialer  Dialer
	clock   clock.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics
	events  chan Event
}

func NewChannel(opts Options) *Channel {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	return &Channel{
		url:     opts.URL,
		delay:   opts.ReconnectDelay,
		dialer:  opts.Dialer,
		clock:   opts.Clock,
		logger:  opts.Logger.Named("telemetry"),
		metrics: opts.Metrics,
		events:  make(chan Event, opts.Buffer),
	}
}

// Events is the ordered stream of connection lifecycle and snapshot events.
func (c *Channel) Events() <-chan Event { return c.events }

// Run connects and keeps reconnecting until ctx is cancelled. It always
// returns ctx.Err().
func (c *Channel) Run(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		err := c.session(ctx, attempt)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Register the timer before announcing the close so a driven clock
		// can never advance past an unregistered deadline.
		retry := c.clock.After(c.delay)
		c.metrics.ReconnectScheduled()
		c.logger.Warn("telemetry disconnected, reconnecting",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", c.delay))

		if !c.emit(ctx, Closed{Err: err, Attempt: attempt, RetryIn: c.delay}) {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry:
		}
	}
}

// session runs one connection until it fails.
func (c *Channel) session(ctx context.Context, attempt int) error {
	conn, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	c.logger.Info("telemetry connected", zap.String("url", c.url), zap.Int("attempt", attempt))
	if !c.emit(ctx, Connected{URL: c.url, Attempt: attempt}) {
		return ctx.Err()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		snap, err := Decode(data, c.clock.Now())
		if err != nil {
			c.metrics.DecodeFailed()
			c.logger.Warn("discarding telemetry message", zap.Error(err), zap.ByteString("raw", data))
			continue
		}

		if !c.emit(ctx, SnapshotReceived{Snapshot: snap}) {
			return ctx.Err()
		}
	}
}

func (c *Channel) emit(ctx context.Context, ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
