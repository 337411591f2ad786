package models

const (
	MessageTypeAnnotationNotification = "annotation-notification"
	MessageTypeSessionChange          = "session-change"
)

// AnnotationNotification is sent to a connection for an annotation event.
type AnnotationNotification struct {
	Type    string              `json:"type"`
	Options NotificationOptions `json:"options"`
	Payload []interface{}       `json:"payload"`
}

type NotificationOptions struct {
	Action string `json:"action"`
}

// Tombstone is the only content a client receives for a deleted annotation.
type Tombstone struct {
	ID string `json:"id"`
}

// SessionChange is sent to the connections of the user whose session changed.
type SessionChange struct {
	Type   string      `json:"type"`
	Action string      `json:"action"`
	Model  interface{} `json:"model"`
}
