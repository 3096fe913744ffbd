package service

import (
	"context"
	"errors"
	"fmt"

	"dealership-backend/internal/model"
	"dealership-backend/internal/repository"
)

var (
	ErrForbidden        = errors.New("forbidden")
	ErrReceiverMismatch = errors.New("receiver is not the conversation counterpart")
	ErrListingMismatch  = errors.New("listing does not match the conversation")
)

// NameResolver looks up user display names.
type NameResolver interface {
	NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
}

// ListingResolver looks up brand and model of listings.
type ListingResolver interface {
	BrandModelByIDs(ctx context.Context, ids []int64) (map[int64][2]string, error)
}

// ConversationService serves the derived conversation list and the deletes
// that remove message rows.
type ConversationService struct {
	store    repository.MessageStore
	names    NameResolver
	listings ListingResolver
	notifier *Notifier
}

func NewConversationService(store repository.MessageStore, names NameResolver, listings ListingResolver, notifier *Notifier) *ConversationService {
	return &ConversationService{store: store, names: names, listings: listings, notifier: notifier}
}

// List returns one summary per conversation of the caller, newest first.
func (s *ConversationService) List(ctx context.Context, id model.Identity) ([]model.ConversationSummary, error) {
	summaries, err := s.store.Conversations(ctx, id.SubjectID, id.Role)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if len(summaries) == 0 {
		return summaries, nil
	}

	var userIDs, listingIDs []int64
	for _, c := range summaries {
		userIDs = append(userIDs, c.CounterpartID)
		if c.ListingID != nil {
			listingIDs = append(listingIDs, *c.ListingID)
		}
	}

	if s.names != nil {
		names, err := s.names.NamesByIDs(ctx, userIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve names: %w", err)
		}
		for i := range summaries {
			summaries[i].CounterpartName = names[summaries[i].CounterpartID]
		}
	}
	if s.listings != nil && len(listingIDs) > 0 {
		vehicles, err := s.listings.BrandModelByIDs(ctx, listingIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve listings: %w", err)
		}
		for i := range summaries {
			if summaries[i].ListingID == nil {
				continue
			}
			if v, ok := vehicles[*summaries[i].ListingID]; ok {
				summaries[i].Brand, summaries[i].Model = v[0], v[1]
			}
		}
	}
	return summaries, nil
}

func (s *ConversationService) UnreadCount(ctx context.Context, id model.Identity) (int, error) {
	return s.store.UnreadConversationCount(ctx, id.SubjectID, id.Role)
}

// DeleteMessage removes one message. Its sender or any admin may do so.
func (s *ConversationService) DeleteMessage(ctx context.Context, id model.Identity, messageID int64) error {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if id.Role != model.RoleAdmin && msg.SenderID != id.SubjectID {
		return ErrForbidden
	}
	n, err := s.store.DeleteMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	s.notifier.MessageDeleted(msg.ConversationKey, messageID)
	return nil
}

// DeleteConversation removes every row of key. Only the participant whose id
// and role are embedded in the key may do so.
func (s *ConversationService) DeleteConversation(ctx context.Context, id model.Identity, raw string) error {
	key, err := model.ParseKey(raw)
	if err != nil {
		return err
	}
	participant, ok := key.ParticipantFor(id.Role)
	if !ok || participant != id.SubjectID {
		return ErrForbidden
	}
	n, err := s.store.DeleteConversation(ctx, key.String())
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	s.notifier.ConversationDeleted(key.String())
	return nil
}

// DeleteListing drops the chat log of a removed listing.
func (s *ConversationService) DeleteListing(ctx context.Context, listingID int64) (int64, error) {
	n, err := s.store.DeleteListing(ctx, listingID)
	if err != nil {
		return 0, err
	}
	s.notifier.RefreshAdmins()
	return n, nil
}
