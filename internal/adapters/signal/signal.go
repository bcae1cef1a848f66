package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dmelnik/pairpad/internal/app"
	"github.com/dmelnik/pairpad/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the WebSocket side of the transport: it upgrades
// connections, decodes inbound intents and forwards them to the
// session manager.
type Controller struct {
	Mgr     *app.Manager
	Conns   *app.ConnRegistry
	Limiter *RateLimiter
}

func NewController(mgr *app.Manager, conns *app.ConnRegistry, limiter *RateLimiter) *Controller {
	return &Controller{Mgr: mgr, Conns: conns, Limiter: limiter}
}

// SignalConn wraps one socket with a buffered send queue. A full queue
// drops the frame for that peer rather than stalling room mutation.
type SignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func NewSignalConn(ws *websocket.Conn) *SignalConn {
	return &SignalConn{conn: ws, send: make(chan core.Frame, 32)}
}

func (c *SignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *SignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and runs the connection until it drops.
// The client-token cookie set by the router middleware is the
// connection identity.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := NewSignalConn(ws)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Conns.Bind(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
