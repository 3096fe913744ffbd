package model

import "time"

// Message is a stored chat message row. Rows are append-only apart from the
// two read flags, which only ever flip from false to true.
type Message struct {
	ID              int64     `json:"id"`
	ConversationKey string    `json:"conversation_key"`
	SenderID        int64     `json:"sender_id"`
	SenderName      string    `json:"sender_name"`
	ReceiverID      int64     `json:"receiver_id"`
	ListingID       *int64    `json:"listing_id"`
	Body            string    `json:"body"`
	CreatedAt       time.Time `json:"created_at"`
	ReadByAdmin     bool      `json:"read_by_admin"`
	ReadByUser      bool      `json:"read_by_user"`
}

// ReceiverRole is fixed when the message is constructed: the sender's side
// starts read, so the unread side belongs to the receiver.
func (m *Message) ReceiverRole() Role {
	if m.ReadByAdmin {
		return RoleUser
	}
	return RoleAdmin
}

// ReadFlagsFor returns the insert-time read flags for a message sent by role.
func ReadFlagsFor(sender Role) (readByAdmin, readByUser bool) {
	return sender == RoleAdmin, sender == RoleUser
}
