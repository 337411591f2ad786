package streamer

import (
	"context"
	"errors"
	"sync"

	"streamer/internal/annotation"
	"streamer/internal/broker"
	"streamer/internal/filter"
	"streamer/pkg/models"
)

type fakeConn struct {
	clientID   string
	userID     string
	filter     filter.Filter
	principals []string
	links      annotation.LinkContext
	sendErr    error

	mu   sync.Mutex
	sent []interface{}
}

func (c *fakeConn) ClientID() string { return c.clientID }
func (c *fakeConn) AuthenticatedUserID() string { return c.userID }
func (c *fakeConn) EffectivePrincipals() []string { return c.principals }
func (c *fakeConn) Links() annotation.LinkContext { return c.links }

func (c *fakeConn) Filter() filter.Filter { return c.filter }

func (c *fakeConn) Send(msg interface{}) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) messages() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interface{}(nil), c.sent...)
}

type fakeRegistry struct {
	mu    sync.Mutex
	conns []Connection
}

func (r *fakeRegistry) Snapshot() []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Connection(nil), r.conns...)
}

type fakeStore struct {
	annotations map[string]*annotation.Annotation
	err         error
	calls       int
}

func (s *fakeStore) FetchAnnotation(_ context.Context, id string) (*annotation.Annotation, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.annotations[id], nil
}

type fakeNipsa struct {
	flagged map[string]bool
	calls   []string
}

func (n *fakeNipsa) IsFlagged(_ context.Context, userid string) bool {
	n.calls = append(n.calls, userid)
	return n.flagged[userid]
}

type countingSerializer struct {
	inner annotation.Serializer
	links []annotation.LinkContext
}

func (s *countingSerializer) Serialize(a *annotation.Annotation, links annotation.LinkContext) models.Document {
	s.links = append(s.links, links)
	return s.inner.Serialize(a, links)
}

// fakeSubscriber delivers payloads and then either waits for ctx (block)
// or returns err straight away.
type fakeSubscriber struct {
	payloads []map[string]interface{}
	block    bool
	err      error
}

func (s *fakeSubscriber) Subscribe(ctx context.Context, _ string, handler broker.Handler) error {
	for _, p := range s.payloads {
		handler(ctx, p)
	}
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.err
}

func (s *fakeSubscriber) Close() error { return nil }

var errSend = errors.New("connection closed")
