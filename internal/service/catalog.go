package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ramonehamilton/bulkbuddy/internal/events"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/manacost"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/scryfall"
	"github.com/ramonehamilton/bulkbuddy/internal/storage"
	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// Search paging defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CatalogService manages the shared card catalog and its Scryfall source.
type CatalogService struct {
	store    *storage.Service
	provider CardProvider
	events   events.Publisher
	logger   *zap.Logger
	now      func() time.Time
}

// ExactMatch is the result of an exact name and set lookup.
// Exactly one of Card and Scryfall is set.
type ExactMatch struct {
	ExistsLocally bool           `json:"exists_locally"`
	Card          *models.Card   `json:"card,omitempty"`
	Scryfall      *scryfall.Card `json:"scryfall_data,omitempty"`
}

// Search returns one page of catalog cards matching filter.
func (s *CatalogService) Search(ctx context.Context, filter models.CardFilter) (*models.CardPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	colors, err := normalizeColors(filter.Colors)
	if err != nil {
		return nil, err
	}
	filter.Colors = colors

	cards, total, err := s.store.Repos().Cards.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &models.CardPage{
		Total:      total,
		Page:       filter.Page,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
		Limit:      filter.Limit,
		Results:    cards,
	}, nil
}

// Get returns a catalog card by its ID.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Card, error) {
	card, err := s.store.Repos().Cards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, notFound("Card not found")
	}
	return card, nil
}

// FindExact looks a card up by exact name and set in the catalog and falls
// back to Scryfall when it is not imported yet.
func (s *CatalogService) FindExact(ctx context.Context, name, set string) (*ExactMatch, error) {
	name, set = strings.TrimSpace(name), strings.TrimSpace(set)
	if name == "" || set == "" {
		return nil, invalid("Name and set code are required.")
	}

	card, err := s.store.Repos().Cards.FindExact(ctx, name, set)
	if err != nil {
		return nil, err
	}
	if card != nil {
		return &ExactMatch{ExistsLocally: true, Card: card}, nil
	}

	remote, err := s.provider.Named(ctx, name, set)
	if err != nil {
		if scryfall.IsNotFound(err) {
			return nil, notFound("Card not found on Scryfall.")
		}
		return nil, upstream("Error searching for card.", err)
	}
	return &ExactMatch{ExistsLocally: false, Scryfall: remote}, nil
}

// Import copies a Scryfall card into the catalog. Cards without an image
// are rejected.
func (s *CatalogService) Import(ctx context.Context, scryfallID string) (*models.Card, error) {
	scryfallID = strings.TrimSpace(scryfallID)
	if scryfallID == "" {
		return nil, invalid("Scryfall ID is required.")
	}

	existing, err := s.store.Repos().Cards.GetByScryfallID(ctx, scryfallID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflict("Card already exists in the database.")
	}

	remote, err := s.fetch(ctx, scryfallID)
	if err != nil {
		return nil, err
	}
	if !remote.HasImage() {
		return nil, invalid("Card has no image; skipping.")
	}

	card, created, err := s.save(ctx, s.store.Repos(), remote)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, conflict("Card already exists in the database.")
	}
	return card, nil
}

// EnsureFromScryfall returns the catalog card for scryfallID, importing it
// first if needed. Unlike Import, cards without an image are accepted.
func (s *CatalogService) EnsureFromScryfall(ctx context.Context, scryfallID string) (*models.Card, error) {
	scryfallID = strings.TrimSpace(scryfallID)
	if scryfallID == "" {
		return nil, invalid("Invalid card data")
	}

	card, err := s.store.Repos().Cards.GetByScryfallID(ctx, scryfallID)
	if err != nil || card != nil {
		return card, err
	}

	remote, err := s.fetch(ctx, scryfallID)
	if err != nil {
		return nil, err
	}
	card, _, err = s.save(ctx, s.store.Repos(), remote)
	return card, err
}

// EnsureByNameAndSet returns the catalog card with this exact name and set,
// importing it from Scryfall if needed.
func (s *CatalogService) EnsureByNameAndSet(ctx context.Context, name, set string) (*models.Card, error) {
	name, set = strings.TrimSpace(name), strings.TrimSpace(set)
	if name == "" || set == "" {
		return nil, invalid("Both card name and set are required.")
	}

	return s.EnsureNamed(ctx, name, set)
}

// EnsureNamed returns the catalog card with the exact name, importing it from
// Scryfall when it is missing. An empty set matches the most recently
// imported printing locally and the default printing on Scryfall.
func (s *CatalogService) EnsureNamed(ctx context.Context, name, set string) (*models.Card, error) {
	name, set = strings.TrimSpace(name), strings.TrimSpace(set)
	if name == "" {
		return nil, invalid("Name is required.")
	}

	var (
		card *models.Card
		err  error
	)
	if set != "" {
		card, err = s.store.Repos().Cards.FindExact(ctx, name, set)
	} else {
		card, err = s.store.Repos().Cards.FindByName(ctx, name)
	}
	if err != nil || card != nil {
		return card, err
	}

	if s.provider == nil {
		return nil, notFound("Card not found on Scryfall.")
	}
	remote, err := s.provider.Named(ctx, name, set)
	if err != nil {
		if scryfall.IsNotFound(err) {
			return nil, notFound("Card not found on Scryfall.")
		}
		return nil, upstream("Failed to fetch card from Scryfall", err)
	}
	card, _, err = s.save(ctx, s.store.Repos(), remote)
	return card, err
}

// ScryfallNamed passes an exact name and set lookup through to Scryfall.
func (s *CatalogService) ScryfallNamed(ctx context.Context, name, set string) (*scryfall.Card, error) {
	name, set = strings.TrimSpace(name), strings.TrimSpace(set)
	if name == "" || set == "" {
		return nil, invalid("Both card name and set are required.")
	}

	card, err := s.provider.Named(ctx, name, set)
	if err != nil {
		if scryfall.IsNotFound(err) {
			return nil, notFound("Card not found or incorrect card name/set.")
		}
		return nil, upstream("Failed to fetch card from Scryfall", err)
	}
	return card, nil
}

// ScryfallSearch runs a full-text Scryfall search.
func (s *CatalogService) ScryfallSearch(ctx context.Context, query string) (*scryfall.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("Name is required.")
	}

	result, err := s.provider.SearchCards(ctx, query)
	if err != nil {
		if scryfall.IsNotFound(err) {
			return nil, notFound("No cards found.")
		}
		return nil, upstream("Failed to search Scryfall", err)
	}
	return result, nil
}

// RefreshPrices re-fetches a catalog card's prices and legalities.
func (s *CatalogService) RefreshPrices(ctx context.Context, id string) (*models.Card, error) {
	card, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	remote, err := s.fetch(ctx, card.ScryfallID)
	if err != nil {
		return nil, err
	}

	fresh := remote.ToModel()
	card.Prices = fresh.Prices
	card.Legalities = fresh.Legalities
	card.UpdatedAt = s.now()

	if err := s.store.Repos().Cards.UpdatePrices(ctx, card); err != nil {
		return nil, err
	}

	s.logger.Info("refreshed card prices", zap.String("card_id", card.ID))
	return card, nil
}

func (s *CatalogService) fetch(ctx context.Context, scryfallID string) (*scryfall.Card, error) {
	remote, err := s.provider.GetCard(ctx, scryfallID)
	if err != nil {
		if scryfall.IsNotFound(err) {
			return nil, notFound("Card not found on Scryfall.")
		}
		return nil, upstream("Failed to fetch card from Scryfall", err)
	}
	return remote, nil
}

// save inserts remote into the catalog. If a concurrent import won the race
// the stored card is returned with created set to false.
func (s *CatalogService) save(ctx context.Context, r *storage.Repos, remote *scryfall.Card) (*models.Card, bool, error) {
	card := remote.ToModel()
	now := s.now()
	card.ID = uuid.New().String()
	card.CreatedAt = now
	card.UpdatedAt = now

	if err := r.Cards.Create(ctx, card); err != nil {
		stored, getErr := r.Cards.GetByScryfallID(ctx, card.ScryfallID)
		if getErr == nil && stored != nil {
			return stored, false, nil
		}
		return nil, false, err
	}

	s.logger.Info("imported card",
		zap.String("card_id", card.ID),
		zap.String("scryfall_id", card.ScryfallID),
		zap.String("name", card.Name))
	s.events.Dispatch(events.NewTypedEvent(ctx, events.TypeCardImported, "", events.CardImportedEvent{
		CardID:     card.ID,
		ScryfallID: card.ScryfallID,
		Name:       card.Name,
	}))

	return card, true, nil
}

// normalizeColors upper-cases colour letters and rejects unknown ones.
func normalizeColors(colors []string) ([]string, error) {
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !manacost.IsColor(c) {
			return nil, invalid(fmt.Sprintf("Unknown color %q.", c))
		}
		out = append(out, c)
	}
	return out, nil
}
