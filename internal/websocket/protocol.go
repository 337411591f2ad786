package websocket

import (
	"encoding/json"

	"streamer/pkg/errors"
	"streamer/pkg/metrics"
)

const (
	messageTypeClientID = "client_id"

	typePing        = "ping"
	typePong        = "pong"
	typeWhoami      = "whoami"
	typeWhoamiReply = "whoami-reply"
	typeError       = "error"
)

// clientMessage is the union of every message a client may send.
type clientMessage struct {
	Filter      json.RawMessage `json:"filter"`
	MessageType string          `json:"messageType"`
	Value       json.RawMessage `json:"value"`
	Type        string          `json:"type"`
	ID          interface{}     `json:"id"`
}

type pongReply struct {
	OK      bool        `json:"ok"`
	ReplyTo interface{} `json:"reply_to"`
	Type    string      `json:"type"`
}

type whoamiReply struct {
	OK      bool        `json:"ok"`
	ReplyTo interface{} `json:"reply_to"`
	Type    string      `json:"type"`
	UserID  *string     `json:"userid"`
}

type errorBody struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type errorReply struct {
	OK      bool        `json:"ok"`
	Type    string      `json:"type"`
	Error   errorBody   `json:"error"`
	ReplyTo interface{} `json:"reply_to,omitempty"`
}

func newErrorReply(err *errors.Error, replyTo interface{}) errorReply {
	return errorReply{
		Type:    typeError,
		Error:   errorBody{Type: err.Code, Description: err.Message},
		ReplyTo: replyTo,
	}
}

// handleMessage applies one client message to c and sends any reply.
func (h *Handler) handleMessage(c *Conn, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.IncClientMessage("invalid", "error")
		h.reply(c, newErrorReply(errors.ErrInvalidData.WithMessage("invalid message format"), nil))
		return
	}

	switch {
	case len(msg.Filter) > 0:
		f, err := h.parser.Parse(msg.Filter)
		if err != nil {
			metrics.IncClientMessage("filter", "error")
			h.log.DebugwCtx(c.ctx, "Rejected filter", "error", err)
			h.reply(c, newErrorReply(errors.ErrInvalidData.WithMessage(err.Error()), msg.ID))
			return
		}
		c.setFilter(f)
		metrics.IncClientMessage("filter", "ok")

	case msg.MessageType == messageTypeClientID:
		var id string
		if err := json.Unmarshal(msg.Value, &id); err != nil {
			metrics.IncClientMessage(messageTypeClientID, "error")
			h.reply(c, newErrorReply(errors.ErrInvalidData.WithMessage("client_id value must be a string"), msg.ID))
			return
		}
		c.setClientID(id)
		metrics.IncClientMessage(messageTypeClientID, "ok")

	case msg.Type == typePing:
		metrics.IncClientMessage(typePing, "ok")
		h.reply(c, pongReply{OK: true, ReplyTo: msg.ID, Type: typePong})

	case msg.Type == typeWhoami:
		metrics.IncClientMessage(typeWhoami, "ok")
		var userid *string
		if id := c.AuthenticatedUserID(); id != "" {
			userid = &id
		}
		h.reply(c, whoamiReply{OK: true, ReplyTo: msg.ID, Type: typeWhoamiReply, UserID: userid})

	default:
		metrics.IncClientMessage("unknown", "error")
		h.reply(c, newErrorReply(errors.ErrInvalidData.WithMessage("invalid message format"), msg.ID))
	}
}

func (h *Handler) reply(c *Conn, msg interface{}) {
	if err := c.Send(msg); err != nil {
		h.log.DebugwCtx(c.ctx, "Failed to send reply", "error", err)
	}
}
