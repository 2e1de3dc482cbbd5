package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ramonehamilton/bulkbuddy/internal/events"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/deckexport"
	"github.com/ramonehamilton/bulkbuddy/internal/stats"
	"github.com/ramonehamilton/bulkbuddy/internal/storage"
	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// DefaultGrowthMonths is the growth window used when none is given.
const DefaultGrowthMonths = 12

// CollectionService manages users' personal card collections.
type CollectionService struct {
	store  *storage.Service
	events events.Publisher
	logger *zap.Logger
	now    func() time.Time
}

// AddCollectionInput describes a card being added to a collection.
type AddCollectionInput struct {
	CardID       string
	Quantity     int // Defaults to 1 when zero
	Notes        string
	AcquiredDate *time.Time
}

// UpdateCollectionInput changes an entry. Nil fields are left alone.
type UpdateCollectionInput struct {
	Quantity     *int
	Notes        *string
	AcquiredDate *time.Time
}

// List returns a user's collection entries with their cards.
func (s *CollectionService) List(ctx context.Context, userID string, filter models.CardFilter) ([]*models.CollectionEntry, error) {
	colors, err := normalizeColors(filter.Colors)
	if err != nil {
		return nil, err
	}
	filter.Colors = colors
	filter.Page, filter.Limit = 0, 0

	return s.store.Repos().Collection.ListByUser(ctx, userID, filter)
}

// Stats summarizes the entries of a user's collection matching filter.
func (s *CollectionService) Stats(ctx context.Context, userID string, filter models.CardFilter) (*stats.Summary, error) {
	entries, err := s.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return stats.Summarize(stats.FromCollection(entries)), nil
}

// Growth reports copies added per month over the last months months.
func (s *CollectionService) Growth(ctx context.Context, userID string, months int) ([]stats.GrowthPoint, error) {
	if months <= 0 {
		months = DefaultGrowthMonths
	}
	if months > 120 {
		return nil, invalid("Months must be at most 120.")
	}

	entries, err := s.store.Repos().Collection.ListByUser(ctx, userID, models.CardFilter{})
	if err != nil {
		return nil, err
	}
	return stats.Growth(entries, months, s.now()), nil
}

// Add puts copies of a card into a collection. If the user already owns the
// card its quantity is incremented and created is false.
func (s *CollectionService) Add(ctx context.Context, userID string, in AddCollectionInput) (entry *models.CollectionEntry, created bool, err error) {
	if in.CardID == "" {
		return nil, false, invalid("Card ID is required.")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return nil, false, invalid("Quantity must be at least 1.")
	}

	now := s.now()
	err = s.store.InTx(ctx, func(r *storage.Repos) error {
		card, err := r.Cards.GetByID(ctx, in.CardID)
		if err != nil {
			return err
		}
		if card == nil {
			return notFound("Card not found")
		}

		existing, err := r.Collection.GetByUserAndCard(ctx, userID, in.CardID)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := r.Collection.AddQuantity(ctx, existing.ID, in.Quantity, now); err != nil {
				return err
			}
			existing.Quantity += in.Quantity
			existing.UpdatedAt = now
			existing.Card = card
			entry = existing
			return nil
		}

		entry = &models.CollectionEntry{
			ID:           uuid.New().String(),
			UserID:       userID,
			CardID:       in.CardID,
			Quantity:     in.Quantity,
			Notes:        in.Notes,
			AcquiredDate: in.AcquiredDate,
			CreatedAt:    now,
			UpdatedAt:    now,
			Card:         card,
		}
		created = true
		return r.Collection.Create(ctx, entry)
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.Info("collection entry added",
		zap.String("user_id", userID),
		zap.String("card_id", in.CardID),
		zap.Int("quantity", entry.Quantity),
		zap.Bool("created", created))
	s.publish(ctx, userID, entry, false)

	return entry, created, nil
}

// Update changes an entry owned by userID.
func (s *CollectionService) Update(ctx context.Context, userID, entryID string, in UpdateCollectionInput) (*models.CollectionEntry, error) {
	if in.Quantity != nil && *in.Quantity < 1 {
		return nil, invalid("Quantity must be at least 1.")
	}

	entry, err := s.owned(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	if in.Quantity != nil {
		entry.Quantity = *in.Quantity
	}
	if in.Notes != nil {
		entry.Notes = *in.Notes
	}
	if in.AcquiredDate != nil {
		entry.AcquiredDate = in.AcquiredDate
	}
	entry.UpdatedAt = s.now()

	if err := s.store.Repos().Collection.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.publish(ctx, userID, entry, false)
	return entry, nil
}

// Delete removes an entry owned by userID. Decks that reference the card
// keep their ownership snapshot.
func (s *CollectionService) Delete(ctx context.Context, userID, entryID string) error {
	entry, err := s.owned(ctx, userID, entryID)
	if err != nil {
		return err
	}

	if err := s.store.Repos().Collection.Delete(ctx, entry.ID); err != nil {
		return err
	}

	s.logger.Info("collection entry removed",
		zap.String("user_id", userID),
		zap.String("entry_id", entryID))
	s.publish(ctx, userID, entry, true)
	return nil
}

// ExportText renders the whole collection as a plain-text card list.
func (s *CollectionService) ExportText(ctx context.Context, userID string) (*deckexport.DeckExport, error) {
	entries, err := s.store.Repos().Collection.ListByUser(ctx, userID, models.CardFilter{})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, notFound("No cards in collection.")
	}
	return deckexport.ExportCollection(entries)
}

func (s *CollectionService) owned(ctx context.Context, userID, entryID string) (*models.CollectionEntry, error) {
	entry, err := s.store.Repos().Collection.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, notFound("Collection entry not found")
	}
	if entry.UserID != userID {
		return nil, forbidden("Forbidden")
	}
	return entry, nil
}

func (s *CollectionService) publish(ctx context.Context, userID string, entry *models.CollectionEntry, removed bool) {
	qty := entry.Quantity
	if removed {
		qty = 0
	}
	s.events.Dispatch(events.NewTypedEvent(ctx, events.TypeCollectionUpdated, userID, events.CollectionUpdatedEvent{
		EntryID:  entry.ID,
		CardID:   entry.CardID,
		Quantity: qty,
		Removed:  removed,
	}))
}
