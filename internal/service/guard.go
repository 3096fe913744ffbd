package service

import (
	"dealership-backend/internal/metrics"
	"dealership-backend/internal/model"

	"github.com/rs/zerolog"
)

// Decision is the outcome of an access check. A denial is a value, not an
// error, so callers have nothing to echo back to the client.
type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) IsAllowed() bool { return d == Allowed }

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

// AccessGuard authorizes realtime actions against a connection's verified
// identity. Every denial is audited.
type AccessGuard struct {
	log zerolog.Logger
}

func NewAccessGuard(log zerolog.Logger) *AccessGuard {
	return &AccessGuard{log: log.With().Str("component", "access_guard").Logger()}
}

// AuthorizeJoin allows an admin whose id is the key's admin id, or a user
// whose id is the key's buyer id. Nothing else is ever allowed.
func (g *AccessGuard) AuthorizeJoin(id model.Identity, key string) Decision {
	if reason := checkParticipant(id, key); reason != "" {
		return g.deny("join", id, key, reason)
	}
	return Allowed
}

// AuthorizeSend requires the claimed sender to be the connection's own
// subject, the connection to sit in the target room, and the identity to pass
// the join check for that key.
func (g *AccessGuard) AuthorizeSend(state ConnState, req *model.SendMessageRequest) Decision {
	switch {
	case !state.Identified:
		return g.deny("send", state.Identity, req.ConversationKey, "unidentified connection")
	case req.SenderID != state.Identity.SubjectID:
		return g.deny("send", state.Identity, req.ConversationKey, "sender id mismatch")
	case state.Room != req.ConversationKey:
		return g.deny("send", state.Identity, req.ConversationKey, "not joined to room")
	}
	if reason := checkParticipant(state.Identity, req.ConversationKey); reason != "" {
		return g.deny("send", state.Identity, req.ConversationKey, reason)
	}
	return Allowed
}

// AuthorizeClear allows a notification reset only for the connection's own
// subject under the role the event is meant for.
func (g *AccessGuard) AuthorizeClear(state ConnState, role model.Role, claimedID int64) Decision {
	switch {
	case !state.Identified:
		return g.deny("clear", state.Identity, "", "unidentified connection")
	case state.Identity.Role != role:
		return g.deny("clear", state.Identity, "", "role mismatch")
	case state.Identity.SubjectID != claimedID:
		return g.deny("clear", state.Identity, "", "subject id mismatch")
	}
	return Allowed
}

func checkParticipant(id model.Identity, raw string) string {
	if !id.Role.Valid() {
		return "unknown role"
	}
	key, err := model.ParseKey(raw)
	if err != nil {
		return "malformed key"
	}
	participant, ok := key.ParticipantFor(id.Role)
	if !ok || participant != id.SubjectID {
		return "not a participant"
	}
	return ""
}

func (g *AccessGuard) deny(action string, id model.Identity, key, reason string) Decision {
	metrics.AccessDenied.WithLabelValues(action).Inc()
	g.log.Warn().
		Str("event", "security").
		Str("action", action).
		Int64("subject_id", id.SubjectID).
		Str("role", string(id.Role)).
		Str("conversation_key", key).
		Str("reason", reason).
		Msg("access denied")
	return Denied
}
