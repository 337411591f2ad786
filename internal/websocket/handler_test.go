package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamer/internal/auth"
	"streamer/internal/config"
	"streamer/internal/filter"
	"streamer/internal/logger"
)

type staticAuthenticator struct {
	identity auth.Identity
	err      error
}

func (a staticAuthenticator) Authenticate(context.Context, *http.Request) (auth.Identity, error) {
	return a.identity, a.err
}

func testConfigs() (config.WebSocketConfig, config.StreamerConfig) {
	return config.WebSocketConfig{
			ReadLimit:    64 * 1024,
			PingInterval: time.Minute,
			PongTimeout:  time.Minute,
			WriteTimeout: time.Second,
		}, config.StreamerConfig{
			SendBuffer:   8,
			SendTimeout:  100 * time.Millisecond,
			AppURL:       "https://hypothes.is",
			IncontextURL: "https://hyp.is",
		}
}

func newTestServer(t *testing.T, authenticator auth.Authenticator) (*httptest.Server, *Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	wsCfg, streamerCfg := testConfigs()
	registry := NewRegistry()
	h := NewHandler(wsCfg, streamerCfg, authenticator, filter.NewParser(nil), registry, logger.NopLogger())

	router := gin.New()
	router.GET("/ws", h.Upgrade)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		registry.CloseAll()
		srv.Close()
	})
	return srv, registry
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func roundTrip(t *testing.T, ws *websocket.Conn, msg string) map[string]interface{} {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(msg)))
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var reply map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &reply))
	return reply
}

func TestHandler_Replies(t *testing.T) {
	identity := auth.Identity{UserID: "acct:alice@example.com", Principals: auth.EffectivePrincipals("acct:alice@example.com", nil)}

	tests := []struct {
		name     string
		identity auth.Identity
		message  string
		expected map[string]interface{}
	}{
		{
			name:     "ping",
			identity: auth.Anonymous(),
			message:  `{"type":"ping","id":3}`,
			expected: map[string]interface{}{"ok": true, "reply_to": float64(3), "type": "pong"},
		},
		{
			name:     "whoami anonymous",
			identity: auth.Anonymous(),
			message:  `{"type":"whoami","id":1}`,
			expected: map[string]interface{}{"ok": true, "reply_to": float64(1), "type": "whoami-reply", "userid": nil},
		},
		{
			name:     "whoami authenticated",
			identity: identity,
			message:  `{"type":"whoami","id":"a"}`,
			expected: map[string]interface{}{"ok": true, "reply_to": "a", "type": "whoami-reply", "userid": "acct:alice@example.com"},
		},
		{
			name:     "unknown type",
			identity: auth.Anonymous(),
			message:  `{"type":"bogus","id":7}`,
			expected: map[string]interface{}{
				"ok":       false,
				"type":     "error",
				"reply_to": float64(7),
				"error":    map[string]interface{}{"type": "invalid_data", "description": "invalid message format"},
			},
		},
		{
			name:     "not json",
			identity: auth.Anonymous(),
			message:  `not json`,
			expected: map[string]interface{}{
				"ok":    false,
				"type":  "error",
				"error": map[string]interface{}{"type": "invalid_data", "description": "invalid message format"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, staticAuthenticator{identity: tt.identity})
			ws := dial(t, srv)
			assert.Equal(t, tt.expected, roundTrip(t, ws, tt.message))
		})
	}
}

func TestHandler_FilterAndClientID(t *testing.T) {
	srv, registry := newTestServer(t, staticAuthenticator{identity: auth.Anonymous()})
	ws := dial(t, srv)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"filter":{"match_policy":"include_any","clauses":[{"field":"/uri","operator":"one_of","value":["https://example.com"]}]}}`)))
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"messageType":"client_id","value":"client-1"}`)))

	// Messages are handled in order, so a pong means both were applied.
	reply := roundTrip(t, ws, `{"type":"ping","id":1}`)
	assert.Equal(t, "pong", reply["type"])

	conns := registry.Snapshot()
	require.Len(t, conns, 1)
	assert.Equal(t, "client-1", conns[0].ClientID())
	assert.NotNil(t, conns[0].Filter())
	assert.Equal(t, "https://hypothes.is", conns[0].Links().AppURL)
}

func TestHandler_InvalidFilter(t *testing.T) {
	srv, registry := newTestServer(t, staticAuthenticator{identity: auth.Anonymous()})
	ws := dial(t, srv)

	reply := roundTrip(t, ws, `{"filter":{"match_policy":"sometimes"},"id":2}`)
	assert.Equal(t, false, reply["ok"])
	assert.Equal(t, float64(2), reply["reply_to"])

	conns := registry.Snapshot()
	require.Len(t, conns, 1)
	assert.Nil(t, conns[0].Filter())
}

func TestHandler_NullFilterKeepsPrevious(t *testing.T) {
	srv, registry := newTestServer(t, staticAuthenticator{identity: auth.Anonymous()})
	ws := dial(t, srv)

	reply := roundTrip(t, ws, `{"filter":null,"id":3}`)
	assert.Equal(t, false, reply["ok"])
	assert.Equal(t, float64(3), reply["reply_to"])
	errBody := reply["error"].(map[string]interface{})
	assert.Equal(t, "invalid_data", errBody["type"])

	conns := registry.Snapshot()
	require.Len(t, conns, 1)
	assert.Nil(t, conns[0].Filter())
}

func TestHandler_RejectsInvalidToken(t *testing.T) {
	srv, registry := newTestServer(t, staticAuthenticator{err: auth.ErrInvalidToken})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, registry.Len())
}

func TestHandler_RejectsDisallowedOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	wsCfg, streamerCfg := testConfigs()
	wsCfg.AllowedOrigins = []string{"https://hypothes.is"}
	registry := NewRegistry()
	h := NewHandler(wsCfg, streamerCfg, staticAuthenticator{identity: auth.Anonymous()}, filter.NewParser(nil), registry, logger.NopLogger())

	router := gin.New()
	router.GET("/ws", h.Upgrade)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "forbidden", body["error_code"])
	assert.Equal(t, 0, registry.Len())
}

func TestHandler_RemovesClosedConnections(t *testing.T) {
	srv, registry := newTestServer(t, staticAuthenticator{identity: auth.Anonymous()})
	ws := dial(t, srv)

	require.Eventually(t, func() bool { return registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	require.NoError(t, ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)))

	assert.Eventually(t, func() bool { return registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_DeliversDispatchedMessages(t *testing.T) {
	srv, registry := newTestServer(t, staticAuthenticator{identity: auth.Anonymous()})
	ws := dial(t, srv)

	require.Eventually(t, func() bool { return registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, registry.Snapshot()[0].Send(map[string]string{"type": "annotation-notification"}))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"annotation-notification"}`, string(data))
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no allow list", allowed: nil, origin: "https://evil.example", want: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://evil.example", want: true},
		{name: "listed", allowed: []string{"https://hypothes.is/"}, origin: "https://hypothes.is", want: true},
		{name: "case insensitive", allowed: []string{"https://Hypothes.is"}, origin: "https://hypothes.is", want: true},
		{name: "not listed", allowed: []string{"https://hypothes.is"}, origin: "https://evil.example", want: false},
		{name: "scheme differs", allowed: []string{"https://hypothes.is"}, origin: "http://hypothes.is", want: false},
		{name: "no origin header", allowed: []string{"https://hypothes.is"}, origin: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(r))
		})
	}
}
