package streamer

import (
	"context"
	"fmt"
	"time"

	"streamer/internal/annotation"
	"streamer/internal/auth"
	"streamer/internal/constants"
	"streamer/internal/logger"
	"streamer/internal/nipsa"
	"streamer/pkg/logging"
	"streamer/pkg/metrics"
	"streamer/pkg/models"
)

// AnnotationTarget is either Live or Deleted.
type AnnotationTarget interface {
	annotationID() string
}

// Live refers to an annotation that must be fetched from the store.
type Live struct {
	ID string
}

// Deleted carries the serialized annotation captured before deletion.
type Deleted struct {
	ID       string
	Snapshot models.Document
}

func (l Live) annotationID() string    { return l.ID }
func (d Deleted) annotationID() string { return d.ID }

type AnnotationEvent struct {
	Action      string
	SrcClientID string
	Target      AnnotationTarget
}

func (e AnnotationEvent) AnnotationID() string {
	return e.Target.annotationID()
}

// ParseAnnotationEvent decodes an annotation bus payload. Delete events
// must carry annotation_dict.
func ParseAnnotationEvent(payload map[string]interface{}) (AnnotationEvent, error) {
	action, _ := payload[models.FieldAction].(string)
	if action == "" {
		return AnnotationEvent{}, fmt.Errorf("%w: missing %s", ErrInvalidPayload, models.FieldAction)
	}

	id, _ := payload[models.FieldAnnotationID].(string)
	if id == "" {
		return AnnotationEvent{}, fmt.Errorf("%w: missing %s", ErrInvalidPayload, models.FieldAnnotationID)
	}

	ev := AnnotationEvent{Action: action, Target: Live{ID: id}}
	ev.SrcClientID, _ = payload[models.FieldSrcClientID].(string)

	if action == models.ActionDelete {
		snapshot, ok := payload[models.FieldAnnotationDict].(map[string]interface{})
		if !ok {
			return AnnotationEvent{}, fmt.Errorf("%w: delete event without %s", ErrInvalidPayload, models.FieldAnnotationDict)
		}
		ev.Target = Deleted{ID: id, Snapshot: models.Document(snapshot)}
	}

	return ev, nil
}

// AnnotationHandler delivers annotation events to the connections allowed
// and willing to see them.
type AnnotationHandler struct {
	store      annotation.Store
	serializer annotation.Serializer
	nipsa      nipsa.Checker
	logger     logger.Logger
}

func NewAnnotationHandler(store annotation.Store, serializer annotation.Serializer, checker nipsa.Checker, log logger.Logger) *AnnotationHandler {
	return &AnnotationHandler{
		store:      store,
		serializer: serializer,
		nipsa:      checker,
		logger:     log,
	}
}

// eventContext is what every per-connection pipeline run of one event
// shares: the single fetch and the single shadow-ban lookup.
type eventContext struct {
	event   AnnotationEvent
	live    *annotation.Annotation
	author  string
	flagged bool
}

func (h *AnnotationHandler) Handle(ctx context.Context, payload map[string]interface{}, conns []Connection) error {
	ev, err := ParseAnnotationEvent(payload)
	if err != nil {
		return err
	}
	ctx = logging.WithAnnotationID(ctx, ev.AnnotationID())

	if ev.Action == models.ActionRead {
		metrics.IncSuppressed("read")
		return nil
	}

	ec, err := h.resolve(ctx, ev)
	if err != nil {
		return err
	}

	for _, conn := range conns {
		msg, reason := h.deliveryFor(ec, conn)
		if msg == nil {
			metrics.IncSuppressed(reason)
			continue
		}

		if err := conn.Send(msg); err != nil {
			metrics.IncDelivery(constants.RoutingKeyAnnotation, "failed")
			h.logger.WarnwCtx(logging.WithConnectionID(ctx, conn.ClientID()), "Failed to send annotation notification",
				"error", err,
			)
			continue
		}
		metrics.IncDelivery(constants.RoutingKeyAnnotation, "delivered")
	}

	return nil
}

// resolve fetches the annotation once and looks up the author's shadow-ban
// flag once. The author is the live annotation's if it can still be
// fetched, otherwise the user recorded in the delete snapshot.
func (h *AnnotationHandler) resolve(ctx context.Context, ev AnnotationEvent) (eventContext, error) {
	ec := eventContext{event: ev}

	start := time.Now()
	live, err := h.store.FetchAnnotation(ctx, ev.AnnotationID())
	if err != nil {
		metrics.ObserveStoreFetch("error", time.Since(start))
		return ec, fmt.Errorf("failed to fetch annotation %s: %w", ev.AnnotationID(), err)
	}
	metrics.ObserveStoreFetch("success", time.Since(start))
	ec.live = live

	switch t := ev.Target.(type) {
	case Live:
		if live != nil {
			ec.author = live.UserID
		}
	case Deleted:
		if live != nil {
			ec.author = live.UserID
		} else {
			ec.author = t.Snapshot.User()
		}
	}

	if ec.author != "" {
		ec.flagged = h.nipsa.IsFlagged(ctx, ec.author)
	}
	return ec, nil
}

// deliveryFor runs the delivery pipeline for one connection. It returns
// the message to send, or nil and the name of the gate that suppressed it.
func (h *AnnotationHandler) deliveryFor(ec eventContext, conn Connection) (*models.AnnotationNotification, string) {
	ev := ec.event

	if ev.SrcClientID == conn.ClientID() {
		return nil, "self_echo"
	}

	f := conn.Filter()
	if f == nil {
		return nil, "no_filter"
	}

	if ev.Action == models.ActionRead {
		return nil, "read"
	}

	var doc models.Document
	switch t := ev.Target.(type) {
	case Deleted:
		doc = t.Snapshot
	case Live:
		if ec.live == nil {
			return nil, "not_found"
		}
		doc = h.serializer.Serialize(ec.live, conn.Links())
	}

	if ec.flagged && conn.AuthenticatedUserID() != ec.author {
		return nil, "nipsa"
	}

	if !auth.AuthorizedToRead(conn.EffectivePrincipals(), doc) {
		return nil, "unauthorized"
	}

	if !f.Match(doc, ev.Action) {
		return nil, "filter"
	}

	notification := &models.AnnotationNotification{
		Type:    models.MessageTypeAnnotationNotification,
		Options: models.NotificationOptions{Action: ev.Action},
		Payload: []interface{}{doc},
	}
	if ev.Action == models.ActionDelete {
		notification.Payload = []interface{}{models.Tombstone{ID: ev.AnnotationID()}}
	}
	return notification, ""
}
