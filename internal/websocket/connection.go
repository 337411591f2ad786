// Package websocket serves client connections over gorilla/websocket and
// exposes them to the dispatcher through a Registry.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"streamer/internal/annotation"
	"streamer/internal/auth"
	"streamer/internal/filter"
	"streamer/internal/logger"
	"streamer/pkg/logging"
	"streamer/pkg/metrics"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendTimeout      = errors.New("send timed out")
)

const (
	closeReasonClient     = "client_closed"
	closeReasonReadError  = "read_error"
	closeReasonWriteError = "write_error"
	closeReasonSlowClient = "slow_client"
	closeReasonShutdown   = "shutdown"
)

// Options controls the per-connection timings.
type Options struct {
	SendBuffer   int
	SendTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration
	PongTimeout  time.Duration
	ReadLimit    int64
}

// Conn is one client connection. Outbound messages go through a buffered
// channel drained by the connection's writer goroutine.
type Conn struct {
	id       string
	ws       *websocket.Conn
	identity auth.Identity
	links    annotation.LinkContext
	opts     Options
	log      logger.Logger
	ctx      context.Context

	mu       sync.RWMutex
	clientID string
	filter   filter.Filter

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	onClose   func(*Conn)
}

func newConn(ws *websocket.Conn, identity auth.Identity, links annotation.LinkContext, opts Options, log logger.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:       id,
		ws:       ws,
		identity: identity,
		links:    links,
		opts:     opts,
		log:      log,
		ctx:      logging.WithConnectionID(context.Background(), id),
		send:     make(chan []byte, opts.SendBuffer),
		done:     make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) ClientID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID
}

func (c *Conn) setClientID(id string) {
	c.mu.Lock()
	c.clientID = id
	c.mu.Unlock()
}

func (c *Conn) AuthenticatedUserID() string { return c.identity.UserID }

func (c *Conn) EffectivePrincipals() []string { return c.identity.Principals }

func (c *Conn) Links() annotation.LinkContext { return c.links }

func (c *Conn) Filter() filter.Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

func (c *Conn) setFilter(f filter.Filter) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
}

// Send encodes msg and queues it for the writer. A client that leaves the
// buffer full for longer than the send timeout is disconnected.
func (c *Conn) Send(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
	}

	timer := time.NewTimer(c.opts.SendTimeout)
	defer timer.Stop()

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	case <-timer.C:
		c.Close(closeReasonSlowClient)
		return ErrSendTimeout
	}
}

// Close is idempotent; the first reason is the one recorded.
func (c *Conn) Close(reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		metrics.IncConnectionClosed(reason)
		c.log.DebugwCtx(c.ctx, "Connection closed", "reason", reason, "userid", c.identity.UserID)
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}

// Done is closed once the connection has been closed.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.DebugwCtx(c.ctx, "Write failed", "error", err)
				c.Close(closeReasonWriteError)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close(closeReasonWriteError)
				return
			}
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteTimeout))
			return
		}
	}
}

func (c *Conn) readPump(handle func(*Conn, []byte)) {
	c.ws.SetReadLimit(c.opts.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.WarnwCtx(c.ctx, "Unexpected close", "error", err)
				c.Close(closeReasonReadError)
				return
			}
			c.Close(closeReasonClient)
			return
		}
		handle(c, data)
	}
}
