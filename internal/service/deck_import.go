package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ramonehamilton/bulkbuddy/internal/mtg/decklist"
)

// ImportResult is the deck after an import, plus the list lines that were
// skipped.
type ImportResult struct {
	*DeckView
	Skipped []string `json:"skipped"`
}

// Import replaces both boards of a deck with a pasted deck list. Card names
// resolve against the catalog first and Scryfall second. Lines naming cards
// neither knows are skipped and reported; provider outages abort the import.
func (s *DeckService) Import(ctx context.Context, userID, deckID, text string) (*ImportResult, error) {
	list, err := decklist.Parse(text)
	switch {
	case errors.Is(err, decklist.ErrEmpty):
		return nil, invalid("Deck list is empty.")
	case errors.Is(err, decklist.ErrNoCards):
		return nil, invalid("No card lines found in the deck list.")
	case err != nil:
		return nil, err
	}

	if _, err := s.writable(ctx, s.store.Repos(), userID, deckID); err != nil {
		return nil, err
	}

	skipped := append([]string{}, list.Warnings...)
	main, mainSkipped, err := s.resolveLines(ctx, list.Main)
	if err != nil {
		return nil, err
	}
	side, sideSkipped, err := s.resolveLines(ctx, list.Sideboard)
	if err != nil {
		return nil, err
	}
	skipped = append(skipped, mainSkipped...)
	skipped = append(skipped, sideSkipped...)

	if len(main) == 0 && len(side) == 0 {
		return nil, notFound("None of the cards in the deck list could be found.")
	}

	view, err := s.Replace(ctx, userID, deckID, ReplaceDeckInput{Cards: main, Sideboard: side})
	if err != nil {
		return nil, err
	}

	s.logger.Info("deck imported",
		zap.String("deck_id", deckID),
		zap.Int("lines", list.Count()),
		zap.Int("skipped", len(skipped)))
	return &ImportResult{DeckView: view, Skipped: skipped}, nil
}

// resolveLines maps list lines to catalog cards. It always returns a non-nil
// slice so an empty board is cleared by Replace.
func (s *DeckService) resolveLines(ctx context.Context, lines []decklist.Line) ([]DeckCardInput, []string, error) {
	inputs := make([]DeckCardInput, 0, len(lines))
	var skipped []string

	for _, l := range lines {
		card, err := s.catalog.EnsureNamed(ctx, l.Name, l.SetCode)
		if errors.Is(err, ErrNotFound) {
			skipped = append(skipped, fmt.Sprintf("%s: card not found", describeLine(l)))
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		inputs = append(inputs, DeckCardInput{CardID: card.ID, Quantity: l.Quantity})
	}
	return inputs, skipped, nil
}

func describeLine(l decklist.Line) string {
	if l.SetCode == "" {
		return l.Name
	}
	return fmt.Sprintf("%s (%s)", l.Name, l.SetCode)
}

