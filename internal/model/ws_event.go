package model

import "encoding/json"

// Realtime event names.
const (
	EventJoinRoom            = "join_room"
	EventLeaveRoom           = "leave_room"
	EventSendMessage         = "send_message"
	EventAdminCleared        = "admin_cleared_notifications"
	EventUserCleared         = "user_cleared_notifications"
	EventPing                = "ping"
	EventPong                = "pong"
	EventLoadMessages        = "load_messages"
	EventReceiveMessage      = "receive_message"
	EventMessageDeleted      = "message_deleted"
	EventConversationDeleted = "conversation_deleted"
	EventAdminNewUnread      = "admin_new_unread_message"
	EventUpdateNotifications = "update_notification_count"
	EventAdminRefresh        = "admin_refresh_conversations"
	EventAdminReset          = "notifications_were_reset"
	EventUserReset           = "user_notifications_were_reset"
)

type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewWSEvent marshals data into an event envelope. A nil data yields a bare event.
func NewWSEvent(eventType string, data any) (*WSEvent, error) {
	ev := &WSEvent{Type: eventType}
	if data == nil {
		return ev, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	ev.Data = raw
	return ev, nil
}

type JoinRoomRequest struct {
	ConversationKey string `json:"conversation_key"`
	Token           string `json:"token"`
}

type LeaveRoomRequest struct {
	ConversationKey string `json:"conversation_key"`
}

type SendMessageRequest struct {
	ConversationKey string `json:"conversation_key"`
	SenderID        int64  `json:"sender_id"`
	ReceiverID      int64  `json:"receiver_id"`
	ListingID       *int64 `json:"listing_id,omitempty"`
	Body            string `json:"body"`
}

type AdminClearedRequest struct {
	AdminID         int64  `json:"admin_id"`
	ConversationKey string `json:"conversation_key,omitempty"`
}

type UserClearedRequest struct {
	UserID          int64  `json:"user_id"`
	ConversationKey string `json:"conversation_key,omitempty"`
}

type AdminNewUnread struct {
	ConversationKey string   `json:"conversation_key"`
	Message         *Message `json:"message"`
}

type MessageDeleted struct {
	MessageID int64 `json:"message_id"`
}

// Fan-out scopes carried between server instances.
const (
	ScopeRoom    = "room"
	ScopeSubject = "subject"
	ScopeRole    = "role"
)

// FanoutEnvelope describes one hub delivery so another instance can repeat it
// for its own connections.
type FanoutEnvelope struct {
	Origin    string   `json:"origin"`
	Scope     string   `json:"scope"`
	Room      string   `json:"room,omitempty"`
	SubjectID int64    `json:"subject_id,omitempty"`
	Role      Role     `json:"role,omitempty"`
	Event     *WSEvent `json:"event"`
}
