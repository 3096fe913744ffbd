package service

import (
	"context"
	"encoding/json"
	"time"

	"dealership-backend/internal/metrics"
	"dealership-backend/internal/model"
	"dealership-backend/internal/repository"

	"github.com/rs/zerolog"
)

// TokenVerifier turns a bearer token into a verified identity.
type TokenVerifier interface {
	VerifyAccessToken(token string) (model.Identity, error)
}

// ChatService handles realtime events. Failures on this path are logged and
// dropped: the client never sees an error.
type ChatService struct {
	store    repository.MessageStore
	hub      *WSHub
	guard    *AccessGuard
	notifier *Notifier
	verifier TokenVerifier
	timeout  time.Duration
	log      zerolog.Logger
}

func NewChatService(store repository.MessageStore, hub *WSHub, guard *AccessGuard, notifier *Notifier, verifier TokenVerifier, log zerolog.Logger) *ChatService {
	return &ChatService{
		store:    store,
		hub:      hub,
		guard:    guard,
		notifier: notifier,
		verifier: verifier,
		timeout:  5 * time.Second,
		log:      log.With().Str("component", "chat").Logger(),
	}
}

// Connect registers c, identifying it when the upgrade carried a valid token.
func (s *ChatService) Connect(c *WSClient, id *model.Identity) {
	s.hub.Register(c)
	if id != nil {
		s.hub.Identify(c, *id)
	}
}

// Disconnect always detaches c, whether or not it ever joined a room.
func (s *ChatService) Disconnect(c *WSClient) {
	s.hub.Unregister(c)
}

// HandleEvent dispatches one client event.
func (s *ChatService) HandleEvent(ctx context.Context, c *WSClient, ev *model.WSEvent) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch ev.Type {
	case model.EventPing:
		pong, _ := model.NewWSEvent(model.EventPong, nil)
		s.hub.EmitTo(c, pong)
	case model.EventJoinRoom:
		var req model.JoinRoomRequest
		if s.decode(c, ev, &req) {
			s.Join(ctx, c, &req)
		}
	case model.EventLeaveRoom:
		var req model.LeaveRoomRequest
		if s.decode(c, ev, &req) {
			s.Leave(c, &req)
		}
	case model.EventSendMessage:
		var req model.SendMessageRequest
		if s.decode(c, ev, &req) {
			s.Send(ctx, c, &req)
		}
	case model.EventAdminCleared:
		var req model.AdminClearedRequest
		if s.decode(c, ev, &req) {
			s.clear(ctx, c, model.RoleAdmin, req.AdminID, req.ConversationKey)
		}
	case model.EventUserCleared:
		var req model.UserClearedRequest
		if s.decode(c, ev, &req) {
			s.clear(ctx, c, model.RoleUser, req.UserID, req.ConversationKey)
		}
	default:
		metrics.EventsDropped.WithLabelValues("unknown_event").Inc()
		s.log.Debug().Str("conn", c.ID).Str("type", ev.Type).Msg("unknown event")
	}
}

func (s *ChatService) decode(c *WSClient, ev *model.WSEvent, dst any) bool {
	if len(ev.Data) == 0 {
		metrics.EventsDropped.WithLabelValues("validation").Inc()
		s.log.Debug().Str("conn", c.ID).Str("type", ev.Type).Msg("missing payload")
		return false
	}
	if err := json.Unmarshal(ev.Data, dst); err != nil {
		metrics.EventsDropped.WithLabelValues("validation").Inc()
		s.log.Debug().Err(err).Str("conn", c.ID).Str("type", ev.Type).Msg("bad payload")
		return false
	}
	return true
}

// Join verifies the caller, attaches the connection to the room and replays
// history to it alone. A failed check leaves the connection as it was.
func (s *ChatService) Join(ctx context.Context, c *WSClient, req *model.JoinRoomRequest) {
	id, ok := s.resolveIdentity(c, req.Token)
	if !ok {
		return
	}
	if !s.guard.AuthorizeJoin(id, req.ConversationKey).IsAllowed() {
		return
	}

	s.hub.Identify(c, id)
	if left := s.hub.JoinRoom(c, req.ConversationKey); left != "" {
		s.log.Debug().Str("conn", c.ID).Str("room", left).Msg("left room")
	}

	history, err := s.store.History(ctx, req.ConversationKey)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("store").Inc()
		s.log.Error().Err(err).Str("conversation_key", req.ConversationKey).Msg("load history")
		return
	}
	ev, err := model.NewWSEvent(model.EventLoadMessages, history)
	if err != nil {
		s.log.Error().Err(err).Msg("encode history")
		return
	}
	s.hub.EmitTo(c, ev)
}

// resolveIdentity prefers the token sent with the join and falls back to the
// identity bound at upgrade.
func (s *ChatService) resolveIdentity(c *WSClient, token string) (model.Identity, bool) {
	if token != "" {
		id, err := s.verifier.VerifyAccessToken(token)
		if err != nil {
			metrics.EventsDropped.WithLabelValues("authentication").Inc()
			s.log.Warn().Err(err).Str("event", "security").Str("conn", c.ID).Msg("join with bad token")
			return model.Identity{}, false
		}
		return id, true
	}
	state := s.hub.State(c)
	if !state.Identified {
		metrics.EventsDropped.WithLabelValues("authentication").Inc()
		s.log.Warn().Str("event", "security").Str("conn", c.ID).Msg("join without identity")
		return model.Identity{}, false
	}
	return state.Identity, true
}

func (s *ChatService) Leave(c *WSClient, req *model.LeaveRoomRequest) {
	s.hub.LeaveRoom(c, req.ConversationKey)
}

// Send stores a message, broadcasts it to the room and notifies the receiver.
func (s *ChatService) Send(ctx context.Context, c *WSClient, req *model.SendMessageRequest) {
	state := s.hub.State(c)
	if !s.guard.AuthorizeSend(state, req).IsAllowed() {
		return
	}

	msg, err := s.buildMessage(state.Identity, req)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("validation").Inc()
		s.log.Info().Err(err).Str("conn", c.ID).Str("conversation_key", req.ConversationKey).Msg("invalid message")
		return
	}

	stored, err := s.store.Append(ctx, msg, state.Identity.Role)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("store").Inc()
		s.log.Error().Err(err).Str("conversation_key", req.ConversationKey).Msg("append message")
		return
	}
	metrics.MessagesSent.WithLabelValues(string(state.Identity.Role)).Inc()

	ev, err := model.NewWSEvent(model.EventReceiveMessage, stored)
	if err != nil {
		s.log.Error().Err(err).Msg("encode message")
		return
	}
	s.hub.BroadcastRoom(stored.ConversationKey, ev)
	s.notifier.MessageStored(ctx, stored)
}

// buildMessage checks the receiver and listing against the key and returns
// the row to append.
func (s *ChatService) buildMessage(sender model.Identity, req *model.SendMessageRequest) (*model.Message, error) {
	key, err := model.ParseKey(req.ConversationKey)
	if err != nil {
		return nil, err
	}
	counterpart, _ := key.Counterpart(sender.Role)
	if req.ReceiverID != counterpart {
		return nil, ErrReceiverMismatch
	}
	listingID := key.ListingID
	if req.ListingID != nil && *req.ListingID != listingID {
		return nil, ErrListingMismatch
	}
	body, err := repository.ValidateBody(req.Body)
	if err != nil {
		return nil, err
	}
	return &model.Message{
		ConversationKey: key.String(),
		SenderID:        sender.SubjectID,
		SenderName:      sender.DisplayName,
		ReceiverID:      counterpart,
		ListingID:       &listingID,
		Body:            body,
	}, nil
}

// ClearAdmin marks the admin's incoming messages read, in one conversation
// when a key is given.
func (s *ChatService) ClearAdmin(ctx context.Context, c *WSClient, req *model.AdminClearedRequest) {
	s.clear(ctx, c, model.RoleAdmin, req.AdminID, req.ConversationKey)
}

func (s *ChatService) ClearUser(ctx context.Context, c *WSClient, req *model.UserClearedRequest) {
	s.clear(ctx, c, model.RoleUser, req.UserID, req.ConversationKey)
}

func (s *ChatService) clear(ctx context.Context, c *WSClient, role model.Role, claimedID int64, key string) {
	state := s.hub.State(c)
	if !s.guard.AuthorizeClear(state, role, claimedID).IsAllowed() {
		return
	}
	if key != "" {
		if _, err := model.ParseKey(key); err != nil {
			metrics.EventsDropped.WithLabelValues("validation").Inc()
			s.log.Info().Str("conn", c.ID).Str("conversation_key", key).Msg("clear with malformed key")
			return
		}
	}

	n, err := s.store.MarkRead(ctx, claimedID, role, key)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("store").Inc()
		s.log.Error().Err(err).Int64("subject_id", claimedID).Msg("mark read")
		return
	}
	s.log.Debug().Int64("subject_id", claimedID).Str("role", string(role)).Int64("rows", n).Msg("notifications cleared")
	s.notifier.NotificationsReset(c, role)
}
