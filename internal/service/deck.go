package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ramonehamilton/bulkbuddy/internal/events"
	"github.com/ramonehamilton/bulkbuddy/internal/metrics"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/deckcheck"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/deckexport"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/manacost"
	"github.com/ramonehamilton/bulkbuddy/internal/stats"
	"github.com/ramonehamilton/bulkbuddy/internal/storage"
	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// MaxSideboardSize is the largest sideboard a deck may store.
const MaxSideboardSize = 15

// DeckService manages decks, their boards and the reports computed from them.
type DeckService struct {
	store     *storage.Service
	catalog   *CatalogService
	events    events.Publisher
	metrics   *metrics.ServerMetrics
	logger    *zap.Logger
	curveMode manacost.CurveMode
	now       func() time.Time
}

// DeckView is a deck with both boards and its analysis, flattened into one
// JSON object.
type DeckView struct {
	*models.Deck
	Cards     []*models.DeckEntry `json:"cards"`
	Sideboard []*models.DeckEntry `json:"sideboard"`
	*deckcheck.Analysis
}

// PublicDeck is the read-only view of a shared deck.
type PublicDeck struct {
	Name           string              `json:"name"`
	Format         string              `json:"format"`
	Description    string              `json:"description"`
	TotalCards     int                 `json:"total_cards"`
	SideboardCards int                 `json:"sideboard_cards"`
	Cards          []*models.DeckEntry `json:"cards"`
	Sideboard      []*models.DeckEntry `json:"sideboard"`
}

// MissingCard is a main-list card the owner does not have.
type MissingCard struct {
	CardID     string  `json:"card_id"`
	Name       string  `json:"name"`
	Set        string  `json:"set"`
	ManaCost   *string `json:"mana_cost"`
	TypeLine   string  `json:"type_line"`
	Rarity     string  `json:"rarity"`
	OracleText string  `json:"oracle_text"`
	Quantity   int     `json:"quantity"`
}

// MissingReport lists a deck's unowned main-list cards.
type MissingReport struct {
	DeckID       string         `json:"deck_id"`
	DeckName     string         `json:"deck_name"`
	MissingCards []*MissingCard `json:"missing_cards"`
	TotalMissing int            `json:"total_missing"`
}

// CurveReport is a deck's main-list mana curve.
type CurveReport struct {
	DeckID    string         `json:"deck_id"`
	DeckName  string         `json:"deck_name"`
	Format    string         `json:"format"`
	ManaCurve manacost.Curve `json:"mana_curve"`
}

// CreateDeckInput describes a new deck.
type CreateDeckInput struct {
	Name        string
	Description string
	Format      string
}

// UpdateDeckInput changes deck details. Nil fields are left alone.
type UpdateDeckInput struct {
	Name        *string
	Description *string
	Format      *string
}

// DeckCardInput is one card line of a replaced board.
type DeckCardInput struct {
	CardID   string
	Quantity int
	Tag      *string
}

// ReplaceDeckInput replaces a deck's details and boards. Empty strings keep
// the current details and nil boards keep the current entries.
type ReplaceDeckInput struct {
	Name        string
	Description string
	Format      string
	Cards       []DeckCardInput
	Sideboard   []DeckCardInput
}

// AddCardInput identifies a card to add by catalog ID, Scryfall ID, or exact
// name and set, checked in that order.
type AddCardInput struct {
	CardID     string
	ScryfallID string
	Name       string
	Set        string
	Quantity   int // Defaults to 1 when zero
	Tag        *string
}

// ListMine returns the caller's decks.
func (s *DeckService) ListMine(ctx context.Context, userID string) ([]*models.Deck, error) {
	return s.store.Repos().Decks.ListByUser(ctx, userID)
}

// ListPublic returns every public deck.
func (s *DeckService) ListPublic(ctx context.Context) ([]*models.Deck, error) {
	return s.store.Repos().Decks.ListPublic(ctx)
}

// Get returns a deck with its boards and analysis. Private decks are only
// visible to their owner.
func (s *DeckService) Get(ctx context.Context, userID, deckID string) (*DeckView, error) {
	deck, err := s.readable(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, deck)
}

// GetPublic returns the shared view of a public deck.
func (s *DeckService) GetPublic(ctx context.Context, deckID string) (*PublicDeck, error) {
	deck, err := s.store.Repos().Decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil || !deck.IsPublic {
		return nil, notFound("Public deck not found")
	}

	main, side, err := s.boards(ctx, s.store.Repos(), deck.ID)
	if err != nil {
		return nil, err
	}

	return &PublicDeck{
		Name:           deck.Name,
		Format:         deck.Format,
		Description:    deck.Description,
		TotalCards:     quantityOf(main),
		SideboardCards: quantityOf(side),
		Cards:          main,
		Sideboard:      side,
	}, nil
}

// Create makes an empty private deck for userID.
func (s *DeckService) Create(ctx context.Context, userID string, in CreateDeckInput) (*models.Deck, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("Deck name is required.")
	}

	now := s.now()
	deck := &models.Deck{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Description: in.Description,
		Format:      strings.TrimSpace(in.Format),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Repos().Decks.Create(ctx, deck); err != nil {
		return nil, err
	}

	s.logger.Info("deck created", zap.String("user_id", userID), zap.String("deck_id", deck.ID))
	s.publish(ctx, events.TypeDeckCreated, deck, "created")
	return deck, nil
}

// UpdateDetails changes a deck's name, description or format.
func (s *DeckService) UpdateDetails(ctx context.Context, userID, deckID string, in UpdateDeckInput) (*models.Deck, error) {
	deck, err := s.writable(ctx, s.store.Repos(), userID, deckID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("Deck name is required.")
		}
		deck.Name = name
	}
	if in.Description != nil {
		deck.Description = *in.Description
	}
	if in.Format != nil {
		deck.Format = strings.TrimSpace(*in.Format)
	}
	deck.UpdatedAt = s.now()

	if err := s.store.Repos().Decks.Update(ctx, deck); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeDeckUpdated, deck, "details")
	return deck, nil
}

// Replace overwrites a deck's details and boards in one transaction.
// Ownership is re-derived from the owner's collection for every new entry.
func (s *DeckService) Replace(ctx context.Context, userID, deckID string, in ReplaceDeckInput) (*DeckView, error) {
	main, err := mergeCardInputs(in.Cards)
	if err != nil {
		return nil, err
	}
	side, err := mergeCardInputs(in.Sideboard)
	if err != nil {
		return nil, err
	}
	if in.Sideboard != nil && quantityOfInputs(side) > MaxSideboardSize {
		return nil, invalid("Sideboard cannot exceed 15 cards.")
	}

	var deck *models.Deck
	err = s.store.InTx(ctx, func(r *storage.Repos) error {
		deck, err = s.writable(ctx, r, userID, deckID)
		if err != nil {
			return err
		}

		if name := strings.TrimSpace(in.Name); name != "" {
			deck.Name = name
		}
		if in.Format != "" {
			deck.Format = strings.TrimSpace(in.Format)
		}
		if in.Description != "" {
			deck.Description = in.Description
		}
		deck.UpdatedAt = s.now()
		if err := r.Decks.Update(ctx, deck); err != nil {
			return err
		}

		if in.Cards != nil {
			if err := s.replaceBoard(ctx, r, deck, models.BoardMain, main); err != nil {
				return err
			}
		}
		if in.Sideboard != nil {
			if err := s.replaceBoard(ctx, r, deck, models.BoardSideboard, side); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("deck replaced", zap.String("deck_id", deck.ID))
	s.publish(ctx, events.TypeDeckUpdated, deck, "replaced")
	return s.view(ctx, deck)
}

func (s *DeckService) replaceBoard(ctx context.Context, r *storage.Repos, deck *models.Deck, board string, lines []DeckCardInput) error {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.CardID
	}

	cards, err := r.Cards.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := cards[id]; !ok {
			return notFound(fmt.Sprintf("Card %s not found", id))
		}
	}

	owned, err := r.Collection.OwnedCardIDs(ctx, deck.UserID, ids)
	if err != nil {
		return err
	}

	if err := r.Decks.ClearBoard(ctx, deck.ID, board); err != nil {
		return err
	}
	for _, l := range lines {
		entry := &models.DeckEntry{
			DeckID:   deck.ID,
			CardID:   l.CardID,
			Board:    board,
			Quantity: l.Quantity,
			Owned:    owned[l.CardID],
			Tag:      normalizeTag(l.Tag),
		}
		if err := r.Decks.InsertEntry(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a deck and its entries.
func (s *DeckService) Delete(ctx context.Context, userID, deckID string) error {
	deck, err := s.writable(ctx, s.store.Repos(), userID, deckID)
	if err != nil {
		return err
	}
	if err := s.store.Repos().Decks.Delete(ctx, deck.ID); err != nil {
		return err
	}

	s.logger.Info("deck deleted", zap.String("user_id", userID), zap.String("deck_id", deck.ID))
	s.publish(ctx, events.TypeDeckDeleted, deck, "deleted")
	return nil
}

// SetVisibility publishes or unpublishes a deck.
func (s *DeckService) SetVisibility(ctx context.Context, userID, deckID string, public bool) (*models.Deck, error) {
	deck, err := s.writable(ctx, s.store.Repos(), userID, deckID)
	if err != nil {
		return nil, err
	}

	deck.IsPublic = public
	deck.UpdatedAt = s.now()
	if err := s.store.Repos().Decks.Update(ctx, deck); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeDeckUpdated, deck, "visibility")
	return deck, nil
}

// SetImage sets or, when imageURL is empty, clears a deck's custom image.
func (s *DeckService) SetImage(ctx context.Context, userID, deckID, imageURL string) (*models.Deck, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL != "" {
		u, err := url.Parse(imageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, invalid("Image URL must be an http or https URL.")
		}
	}

	deck, err := s.writable(ctx, s.store.Repos(), userID, deckID)
	if err != nil {
		return nil, err
	}

	deck.CustomImageURL = nil
	if imageURL != "" {
		deck.CustomImageURL = &imageURL
	}
	deck.UpdatedAt = s.now()
	if err := s.store.Repos().Decks.Update(ctx, deck); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeDeckUpdated, deck, "image")
	return deck, nil
}

// AddCard adds copies of a card to board. The card is imported from Scryfall
// first when it is not in the catalog. Adding a card already on the board
// increases its quantity.
func (s *DeckService) AddCard(ctx context.Context, userID, deckID, board string, in AddCardInput) (*DeckView, error) {
	if err := checkBoard(board); err != nil {
		return nil, err
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return nil, invalid("Quantity must be at least 1.")
	}
	if _, err := s.writable(ctx, s.store.Repos(), userID, deckID); err != nil {
		return nil, err
	}

	card, err := s.resolveCard(ctx, in)
	if err != nil {
		return nil, err
	}

	var deck *models.Deck
	err = s.store.InTx(ctx, func(r *storage.Repos) error {
		deck, err = s.writable(ctx, r, userID, deckID)
		if err != nil {
			return err
		}

		if board == models.BoardSideboard {
			current, err := r.Decks.BoardQuantity(ctx, deck.ID, board)
			if err != nil {
				return err
			}
			if current+in.Quantity > MaxSideboardSize {
				return invalid("Sideboard cannot exceed 15 cards.")
			}
		}

		owned, err := s.ownsCard(ctx, r, deck.UserID, card.ID)
		if err != nil {
			return err
		}

		entry, err := r.Decks.GetEntry(ctx, deck.ID, card.ID, board)
		if err != nil {
			return err
		}
		if entry != nil {
			entry.Quantity += in.Quantity
			entry.Owned = entry.Owned || owned
			if tag := normalizeTag(in.Tag); tag != nil {
				entry.Tag = tag
			}
			if err := r.Decks.UpdateEntry(ctx, entry); err != nil {
				return err
			}
		} else {
			entry = &models.DeckEntry{
				DeckID:   deck.ID,
				CardID:   card.ID,
				Board:    board,
				Quantity: in.Quantity,
				Owned:    owned,
				Tag:      normalizeTag(in.Tag),
			}
			if err := r.Decks.InsertEntry(ctx, entry); err != nil {
				return err
			}
		}

		return s.touch(ctx, r, deck)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("card added to deck",
		zap.String("deck_id", deck.ID),
		zap.String("card_id", card.ID),
		zap.String("board", board),
		zap.Int("quantity", in.Quantity))
	s.publish(ctx, events.TypeDeckUpdated, deck, "card_added")
	return s.view(ctx, deck)
}

// AddSideboard adds copies of a card to the sideboard.
func (s *DeckService) AddSideboard(ctx context.Context, userID, deckID string, in AddCardInput) (*DeckView, error) {
	return s.AddCard(ctx, userID, deckID, models.BoardSideboard, in)
}

func (s *DeckService) resolveCard(ctx context.Context, in AddCardInput) (*models.Card, error) {
	switch {
	case in.CardID != "":
		return s.catalog.Get(ctx, in.CardID)
	case in.ScryfallID != "":
		return s.catalog.EnsureFromScryfall(ctx, in.ScryfallID)
	case in.Name != "" || in.Set != "":
		return s.catalog.EnsureByNameAndSet(ctx, in.Name, in.Set)
	default:
		return nil, invalid("Invalid card data")
	}
}

// UpdateQuantity sets the quantity of a card on board and refreshes its
// ownership flag.
func (s *DeckService) UpdateQuantity(ctx context.Context, userID, deckID, board, cardID string, quantity int) (*DeckView, error) {
	if err := checkBoard(board); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, invalid("Quantity must be at least 1.")
	}

	deck, err := s.updateEntry(ctx, userID, deckID, board, cardID, func(r *storage.Repos, deck *models.Deck, entry *models.DeckEntry) error {
		if board == models.BoardSideboard {
			current, err := r.Decks.BoardQuantity(ctx, deck.ID, board)
			if err != nil {
				return err
			}
			if current-entry.Quantity+quantity > MaxSideboardSize {
				return invalid("Sideboard cannot exceed 15 cards.")
			}
		}

		owned, err := s.ownsCard(ctx, r, deck.UserID, cardID)
		if err != nil {
			return err
		}
		entry.Quantity = quantity
		entry.Owned = owned
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeDeckUpdated, deck, "quantity")
	return s.view(ctx, deck)
}

// SetTag sets or, when tag is empty, clears the tag of a card on board.
func (s *DeckService) SetTag(ctx context.Context, userID, deckID, board, cardID string, tag *string) (*DeckView, error) {
	if err := checkBoard(board); err != nil {
		return nil, err
	}

	deck, err := s.updateEntry(ctx, userID, deckID, board, cardID, func(_ *storage.Repos, _ *models.Deck, entry *models.DeckEntry) error {
		entry.Tag = normalizeTag(tag)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeDeckUpdated, deck, "tag")
	return s.view(ctx, deck)
}

func (s *DeckService) updateEntry(ctx context.Context, userID, deckID, board, cardID string, change func(*storage.Repos, *models.Deck, *models.DeckEntry) error) (*models.Deck, error) {
	var deck *models.Deck
	err := s.store.InTx(ctx, func(r *storage.Repos) error {
		var err error
		deck, err = s.writable(ctx, r, userID, deckID)
		if err != nil {
			return err
		}

		entry, err := r.Decks.GetEntry(ctx, deck.ID, cardID, board)
		if err != nil {
			return err
		}
		if entry == nil {
			return notFound("Card not found in deck")
		}

		if err := change(r, deck, entry); err != nil {
			return err
		}
		if err := r.Decks.UpdateEntry(ctx, entry); err != nil {
			return err
		}
		return s.touch(ctx, r, deck)
	})
	return deck, err
}

// RemoveCard removes a card from board. Removing a card that is not on the
// board succeeds.
func (s *DeckService) RemoveCard(ctx context.Context, userID, deckID, board, cardID string) (*DeckView, error) {
	if err := checkBoard(board); err != nil {
		return nil, err
	}

	var deck *models.Deck
	var removed bool
	err := s.store.InTx(ctx, func(r *storage.Repos) error {
		var err error
		deck, err = s.writable(ctx, r, userID, deckID)
		if err != nil {
			return err
		}

		removed, err = r.Decks.DeleteEntry(ctx, deck.ID, cardID, board)
		if err != nil {
			return err
		}
		if !removed {
			return nil
		}
		return s.touch(ctx, r, deck)
	})
	if err != nil {
		return nil, err
	}

	if removed {
		s.publish(ctx, events.TypeDeckUpdated, deck, "card_removed")
	}
	return s.view(ctx, deck)
}

// Copy duplicates one of the caller's decks as a private deck named
// "<name> (Copy)".
func (s *DeckService) Copy(ctx context.Context, userID, deckID string) (*models.Deck, error) {
	source, err := s.writable(ctx, s.store.Repos(), userID, deckID)
	if err != nil {
		return nil, err
	}
	return s.duplicate(ctx, source, userID, source.Name+" (Copy)", "copied")
}

// Clone copies a public deck into the caller's account as a private deck.
func (s *DeckService) Clone(ctx context.Context, userID, deckID string) (*models.Deck, error) {
	source, err := s.store.Repos().Decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if source == nil || !source.IsPublic {
		return nil, notFound("Deck not found or not public")
	}
	return s.duplicate(ctx, source, userID, source.Name, "cloned")
}

func (s *DeckService) duplicate(ctx context.Context, source *models.Deck, userID, name, action string) (*models.Deck, error) {
	now := s.now()
	deck := &models.Deck{
		ID:             uuid.New().String(),
		UserID:         userID,
		Name:           name,
		Description:    source.Description,
		Format:         source.Format,
		IsPublic:       false,
		CustomImageURL: source.CustomImageURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.store.InTx(ctx, func(r *storage.Repos) error {
		if err := r.Decks.Create(ctx, deck); err != nil {
			return err
		}

		main, side, err := s.boards(ctx, r, source.ID)
		if err != nil {
			return err
		}
		all := append(main, side...)

		ids := make([]string, len(all))
		for i, e := range all {
			ids[i] = e.CardID
		}
		owned, err := r.Collection.OwnedCardIDs(ctx, userID, ids)
		if err != nil {
			return err
		}

		for _, e := range all {
			entry := &models.DeckEntry{
				DeckID:   deck.ID,
				CardID:   e.CardID,
				Board:    e.Board,
				Quantity: e.Quantity,
				Owned:    owned[e.CardID],
				Tag:      e.Tag,
			}
			if err := r.Decks.InsertEntry(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("deck duplicated",
		zap.String("source_id", source.ID),
		zap.String("deck_id", deck.ID),
		zap.String("action", action))
	s.publish(ctx, events.TypeDeckCreated, deck, action)
	return deck, nil
}

// Missing lists the main-list cards the deck's owner does not have.
func (s *DeckService) Missing(ctx context.Context, userID, deckID string) (*MissingReport, error) {
	deck, err := s.readable(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}

	main, err := s.store.Repos().Decks.GetEntries(ctx, deck.ID, models.BoardMain)
	if err != nil {
		return nil, err
	}

	report := &MissingReport{
		DeckID:       deck.ID,
		DeckName:     deck.Name,
		MissingCards: []*MissingCard{},
	}
	for _, e := range main {
		if e.Owned {
			continue
		}
		m := &MissingCard{CardID: e.CardID, Quantity: e.Quantity}
		if c := e.Card; c != nil {
			m.Name = c.Name
			m.Set = c.SetName
			m.ManaCost = c.ManaCost
			m.TypeLine = c.TypeLine
			m.Rarity = c.Rarity
			m.OracleText = c.OracleText
		}
		report.MissingCards = append(report.MissingCards, m)
		report.TotalMissing += e.Quantity
	}
	return report, nil
}

// Curve returns the deck's main-list mana curve.
func (s *DeckService) Curve(ctx context.Context, userID, deckID string) (*CurveReport, error) {
	deck, err := s.readable(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}

	main, err := s.store.Repos().Decks.GetEntries(ctx, deck.ID, models.BoardMain)
	if err != nil {
		return nil, err
	}

	return &CurveReport{
		DeckID:    deck.ID,
		DeckName:  deck.Name,
		Format:    deck.Format,
		ManaCurve: deckcheck.ManaCurve(main, s.curveMode),
	}, nil
}

// Stats summarizes the deck's main list.
func (s *DeckService) Stats(ctx context.Context, userID, deckID string) (*stats.Summary, error) {
	deck, err := s.readable(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}

	main, err := s.store.Repos().Decks.GetEntries(ctx, deck.ID, models.BoardMain)
	if err != nil {
		return nil, err
	}
	return stats.SummarizeDeck(main, s.curveMode), nil
}

// Export renders the deck in the given format.
func (s *DeckService) Export(ctx context.Context, userID, deckID string, format deckexport.ExportFormat) (*deckexport.DeckExport, error) {
	deck, err := s.readable(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}

	main, side, err := s.boards(ctx, s.store.Repos(), deck.ID)
	if err != nil {
		return nil, err
	}

	export, err := deckexport.Export(deck, main, side, format)
	if err != nil {
		return nil, invalid(err.Error())
	}
	return export, nil
}

// view loads both boards and analyses the deck.
func (s *DeckService) view(ctx context.Context, deck *models.Deck) (*DeckView, error) {
	main, side, err := s.boards(ctx, s.store.Repos(), deck.ID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	analysis := deckcheck.Analyze(deck.Format, main, side, deckcheck.Options{CurveMode: s.curveMode})
	if s.metrics != nil {
		s.metrics.RecordAnalysis(time.Since(start))
	}

	return &DeckView{
		Deck:      deck,
		Cards:     main,
		Sideboard: side,
		Analysis:  analysis,
	}, nil
}

func (s *DeckService) boards(ctx context.Context, r *storage.Repos, deckID string) (main, side []*models.DeckEntry, err error) {
	main, err = r.Decks.GetEntries(ctx, deckID, models.BoardMain)
	if err != nil {
		return nil, nil, err
	}
	side, err = r.Decks.GetEntries(ctx, deckID, models.BoardSideboard)
	if err != nil {
		return nil, nil, err
	}
	return main, side, nil
}

// readable returns a deck the caller may view. Private decks of other users
// are reported as missing.
func (s *DeckService) readable(ctx context.Context, userID, deckID string) (*models.Deck, error) {
	deck, err := s.store.Repos().Decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil || (deck.UserID != userID && !deck.IsPublic) {
		return nil, notFound("Deck not found")
	}
	return deck, nil
}

// writable returns a deck the caller owns.
func (s *DeckService) writable(ctx context.Context, r *storage.Repos, userID, deckID string) (*models.Deck, error) {
	deck, err := r.Decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, notFound("Deck not found")
	}
	if deck.UserID != userID {
		if !deck.IsPublic {
			return nil, notFound("Deck not found")
		}
		return nil, forbidden("Forbidden")
	}
	return deck, nil
}

func (s *DeckService) ownsCard(ctx context.Context, r *storage.Repos, userID, cardID string) (bool, error) {
	owned, err := r.Collection.OwnedCardIDs(ctx, userID, []string{cardID})
	if err != nil {
		return false, err
	}
	return owned[cardID], nil
}

func (s *DeckService) touch(ctx context.Context, r *storage.Repos, deck *models.Deck) error {
	deck.UpdatedAt = s.now()
	return r.Decks.Touch(ctx, deck.ID, deck.UpdatedAt)
}

func (s *DeckService) publish(ctx context.Context, eventType string, deck *models.Deck, action string) {
	s.events.Dispatch(events.NewTypedEvent(ctx, eventType, deck.UserID, events.DeckEvent{
		DeckID: deck.ID,
		Name:   deck.Name,
		Action: action,
	}))
}

func checkBoard(board string) error {
	if board != models.BoardMain && board != models.BoardSideboard {
		return invalid(fmt.Sprintf("Unknown board %q.", board))
	}
	return nil
}

// mergeCardInputs validates board lines and folds repeated cards into one
// line, keeping the first non-empty tag.
func mergeCardInputs(lines []DeckCardInput) ([]DeckCardInput, error) {
	merged := make([]DeckCardInput, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		l.CardID = strings.TrimSpace(l.CardID)
		if l.CardID == "" {
			return nil, invalid("Every card needs a card_id.")
		}
		if l.Quantity < 1 {
			return nil, invalid("Quantity must be at least 1.")
		}
		if i, ok := index[l.CardID]; ok {
			merged[i].Quantity += l.Quantity
			if merged[i].Tag == nil {
				merged[i].Tag = l.Tag
			}
			continue
		}
		index[l.CardID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

func quantityOfInputs(lines []DeckCardInput) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

func quantityOf(entries []*models.DeckEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total
}

func normalizeTag(tag *string) *string {
	if tag == nil {
		return nil
	}
	t := strings.TrimSpace(*tag)
	if t == "" {
		return nil
	}
	return &t
}
