package streamer

import (
	"context"
	"fmt"

	"streamer/internal/constants"
	"streamer/internal/logger"
	"streamer/pkg/logging"
	"streamer/pkg/metrics"
	"streamer/pkg/models"
)

type UserEvent struct {
	Type         string
	UserID       string
	SessionModel interface{}
}

func ParseUserEvent(payload map[string]interface{}) (UserEvent, error) {
	ev := UserEvent{SessionModel: payload[models.FieldSessionModel]}
	ev.Type, _ = payload[models.FieldType].(string)
	ev.UserID, _ = payload[models.FieldUserID].(string)

	if ev.Type == "" {
		return UserEvent{}, fmt.Errorf("%w: missing %s", ErrInvalidPayload, models.FieldType)
	}
	if ev.UserID == "" {
		return UserEvent{}, fmt.Errorf("%w: missing %s", ErrInvalidPayload, models.FieldUserID)
	}
	return ev, nil
}

// UserHandler forwards session changes to the connections of the user
// they belong to and nobody else.
type UserHandler struct {
	logger logger.Logger
}

func NewUserHandler(log logger.Logger) *UserHandler {
	return &UserHandler{logger: log}
}

func (h *UserHandler) Handle(ctx context.Context, payload map[string]interface{}, conns []Connection) error {
	ev, err := ParseUserEvent(payload)
	if err != nil {
		return err
	}

	msg := models.SessionChange{
		Type:   models.MessageTypeSessionChange,
		Action: ev.Type,
		Model:  ev.SessionModel,
	}

	for _, conn := range conns {
		userid := conn.AuthenticatedUserID()
		if userid == "" || userid != ev.UserID {
			continue
		}

		if err := conn.Send(msg); err != nil {
			metrics.IncDelivery(constants.RoutingKeyUser, "failed")
			h.logger.WarnwCtx(logging.WithConnectionID(ctx, conn.ClientID()), "Failed to send session change",
				"error", err,
			)
			continue
		}
		metrics.IncDelivery(constants.RoutingKeyUser, "delivered")
	}

	return nil
}

// Handlers is the static topic to handler mapping used by the dispatcher.
func Handlers(annotations *AnnotationHandler, users *UserHandler) map[string]TopicHandler {
	return map[string]TopicHandler{
		constants.RoutingKeyAnnotation: annotations.Handle,
		constants.RoutingKeyUser:       users.Handle,
	}
}
