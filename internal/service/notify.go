package service

import (
	"context"

	"dealership-backend/internal/metrics"
	"dealership-backend/internal/model"

	"github.com/rs/zerolog"
)

// AdminAlerter is told about buyer messages so staff hear about them outside
// the web app. Implementations must not block.
type AdminAlerter interface {
	NewBuyerMessage(ctx context.Context, msg *model.Message)
}

// Notifier pushes unread and refresh signals to the counterpart's
// connections.
type Notifier struct {
	hub     *WSHub
	alerter AdminAlerter
	log     zerolog.Logger
}

func NewNotifier(hub *WSHub, alerter AdminAlerter, log zerolog.Logger) *Notifier {
	return &Notifier{hub: hub, alerter: alerter, log: log.With().Str("component", "notifier").Logger()}
}

// MessageStored notifies the receiver of msg. Admins get the message itself,
// users only a badge signal. Every admin connection is then told to refresh
// its conversation list.
func (n *Notifier) MessageStored(ctx context.Context, msg *model.Message) {
	switch msg.ReceiverRole() {
	case model.RoleAdmin:
		n.push(msg.ReceiverID, model.RoleAdmin, model.EventAdminNewUnread,
			model.AdminNewUnread{ConversationKey: msg.ConversationKey, Message: msg})
		if n.alerter != nil {
			n.alerter.NewBuyerMessage(ctx, msg)
		}
	case model.RoleUser:
		n.push(msg.ReceiverID, model.RoleUser, model.EventUpdateNotifications, nil)
	}
	n.RefreshAdmins()
}

// RefreshAdmins tells every admin connection to reload its conversation list.
func (n *Notifier) RefreshAdmins() {
	ev, _ := model.NewWSEvent(model.EventAdminRefresh, nil)
	n.hub.BroadcastRole(model.RoleAdmin, ev)
	metrics.NotificationsPushed.WithLabelValues(model.EventAdminRefresh).Inc()
}

// NotificationsReset acknowledges a read reset to the originating connection.
func (n *Notifier) NotificationsReset(c *WSClient, role model.Role) {
	eventType := model.EventUserReset
	if role == model.RoleAdmin {
		eventType = model.EventAdminReset
	}
	ev, _ := model.NewWSEvent(eventType, nil)
	if n.hub.EmitTo(c, ev) {
		metrics.NotificationsPushed.WithLabelValues(eventType).Inc()
	}
}

// MessageDeleted tells the room a message is gone.
func (n *Notifier) MessageDeleted(key string, messageID int64) {
	ev, err := model.NewWSEvent(model.EventMessageDeleted, model.MessageDeleted{MessageID: messageID})
	if err != nil {
		return
	}
	n.hub.BroadcastRoom(key, ev)
	n.RefreshAdmins()
}

// ConversationDeleted tells the room its conversation is gone.
func (n *Notifier) ConversationDeleted(key string) {
	ev, err := model.NewWSEvent(model.EventConversationDeleted, key)
	if err != nil {
		return
	}
	n.hub.BroadcastRoom(key, ev)
	n.RefreshAdmins()
}

func (n *Notifier) push(subjectID int64, role model.Role, eventType string, data any) {
	ev, err := model.NewWSEvent(eventType, data)
	if err != nil {
		n.log.Error().Err(err).Str("type", eventType).Msg("build event")
		return
	}
	delivered := n.hub.SendToSubject(subjectID, role, ev)
	metrics.NotificationsPushed.WithLabelValues(eventType).Add(float64(delivered))
}
