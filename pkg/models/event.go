package models

// Payload keys of annotation events published on the bus.
const (
	FieldAction         = "action"
	FieldAnnotationID   = "annotation_id"
	FieldSrcClientID    = "src_client_id"
	FieldAnnotationDict = "annotation_dict"
)

// Payload keys of user events published on the bus.
const (
	FieldType         = "type"
	FieldUserID       = "userid"
	FieldSessionModel = "session_model"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionRead   = "read"
)
