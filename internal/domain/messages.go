package domain

// WebSocket message types from client.
const (
	MsgTypeJoinRoom       = "join_room"
	MsgTypeLeaveRoom      = "leave_room"
	MsgTypeCreatePost     = "create_post"
	MsgTypeUpdatePost     = "update_post"
	MsgTypeDeletePost     = "delete_post"
	MsgTypeToggleReaction = "toggle_reaction"
)

// WebSocket message types to client.
const (
	MsgTypeRoomJoined      = "room_joined"
	MsgTypePostCreated     = "post_created"
	MsgTypePostUpdated     = "post_updated"
	MsgTypePostDeleted     = "post_deleted"
	MsgTypeReactionUpdated = "reaction_updated"
	MsgTypeError           = "error"
)

// Error codes
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotInRoom     = "NOT_IN_ROOM"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type JoinRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Kind   string `json:"kind"`
}

type LeaveRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type CreatePostMessage struct {
	Type        string       `json:"type"`
	RoomID      string       `json:"room_id"`
	Kind        string       `json:"kind"`
	Body        string       `json:"body,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type UpdatePostMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	PostID string `json:"post_id"`
	Body   string `json:"body,omitempty"`
	// Nil means leave the stored attachments untouched.
	Attachments []Attachment `json:"attachments,omitempty"`
}

type DeletePostMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	PostID string `json:"post_id"`
}

type ToggleReactionMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	PostID   string `json:"post_id"`
	Reaction string `json:"reaction"`
}

// Server -> Client messages

type RoomJoinedMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Kind   string `json:"kind"`
}

type PostCreatedMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Post   Post   `json:"post"`
}

type PostUpdatedMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Post   Post   `json:"post"`
}

type PostDeletedMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	PostID string `json:"post_id"`
}

type ReactionUpdatedMessage struct {
	Type      string      `json:"type"`
	RoomID    string      `json:"room_id"`
	PostID    string      `json:"post_id"`
	Reactions ReactionSet `json:"reactions"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
