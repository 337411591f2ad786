package websocket

import (
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"streamer/internal/annotation"
	"streamer/internal/auth"
	"streamer/internal/config"
	"streamer/internal/filter"
	"streamer/internal/logger"
	"streamer/pkg/errors"
)

// Handler upgrades HTTP requests into registered client connections.
type Handler struct {
	auth     auth.Authenticator
	parser   *filter.Parser
	registry *Registry
	links    annotation.LinkContext
	opts     Options
	origin   func(r *http.Request) bool
	upgrader websocket.Upgrader
	log      logger.Logger
}

func NewHandler(wsCfg config.WebSocketConfig, streamerCfg config.StreamerConfig, authenticator auth.Authenticator, parser *filter.Parser, registry *Registry, log logger.Logger) *Handler {
	h := &Handler{
		auth:     authenticator,
		parser:   parser,
		registry: registry,
		links: annotation.LinkContext{
			AppURL:       streamerCfg.AppURL,
			IncontextURL: streamerCfg.IncontextURL,
		},
		opts: Options{
			SendBuffer:   streamerCfg.SendBuffer,
			SendTimeout:  streamerCfg.SendTimeout,
			WriteTimeout: wsCfg.WriteTimeout,
			PingInterval: wsCfg.PingInterval,
			PongTimeout:  wsCfg.PongTimeout,
			ReadLimit:    wsCfg.ReadLimit,
		},
		origin: originChecker(wsCfg.AllowedOrigins),
		log:    log,
	}
	h.upgrader = websocket.Upgrader{
		HandshakeTimeout: wsCfg.WriteTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.origin,
	}
	return h
}

// originChecker allows any origin when allowed is empty or contains "*".
func originChecker(allowed []string) func(r *http.Request) bool {
	hosts := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		hosts[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	if len(hosts) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		_, ok := hosts[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	h.log.WarnwCtx(c.Request.Context(), "WebSocket handshake rejected", "error", err, "path", c.Request.URL.Path)
	c.AbortWithStatusJSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

// Upgrade authenticates the request, upgrades it and serves the
// connection until it closes.
func (h *Handler) Upgrade(c *gin.Context) {
	if !h.origin(c.Request) {
		h.HandleError(c, errors.ErrForbidden.WithDetail("origin", c.Request.Header.Get("Origin")))
		return
	}

	identity, err := h.auth.Authenticate(c.Request.Context(), c.Request)
	if err != nil {
		if stderrors.Is(err, auth.ErrInvalidToken) {
			h.HandleError(c, errors.Wrap(err, errors.ErrUnauthorized))
			return
		}
		h.HandleError(c, errors.Wrap(err, errors.ErrServiceUnavailable))
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the error response.
		h.log.DebugwCtx(c.Request.Context(), "WebSocket upgrade failed", "error", err)
		return
	}

	h.Serve(ws, identity)
}

// Serve registers an upgraded connection and blocks until it closes.
func (h *Handler) Serve(ws *websocket.Conn, identity auth.Identity) {
	conn := newConn(ws, identity, h.links, h.opts, h.log)
	conn.onClose = h.registry.Remove
	h.registry.Add(conn)

	h.log.DebugwCtx(conn.ctx, "Connection opened", "userid", identity.UserID)

	go conn.writePump()
	conn.readPump(h.handleMessage)
}
