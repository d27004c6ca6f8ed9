package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID      = "user_id"
	FieldDisplayName = "display_name"

	// Room sync
	FieldRoomID   = "room_id"
	FieldPostID   = "post_id"
	FieldKind     = "kind"
	FieldReaction = "reaction"
	FieldEvent    = "event"

	// Process
	FieldComponent = "component"
)
