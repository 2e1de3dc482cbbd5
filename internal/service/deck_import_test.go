package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/bulkbuddy/internal/events"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/scryfall"
)

func TestDeckService_Import(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.seedUser(t, "importer@example.com")
	bolt := env.seedCard(t, "Lightning Bolt", withColors("R"), withManaCost("{R}"))
	env.own(t, userID, bolt.ID, 4)
	deck := env.seedDeck(t, userID, "Gruul", "Modern")

	env.provider.On("Named", mock.Anything, "Llanowar Elves", "m21").
		Return(scryfallCard("sf-elves", "Llanowar Elves"), nil).Once()
	env.provider.On("Named", mock.Anything, "Unknown Card", "").
		Return(nil, &scryfall.NotFoundError{}).Once()

	list := `4 Lightning Bolt
2 Llanowar Elves (M21) 199
1 Unknown Card
not a card

Sideboard:
2 lightning bolt`

	result, err := env.svc.Decks.Import(ctx, userID, deck.ID, list)
	require.NoError(t, err)
	env.provider.AssertExpectations(t)

	require.Len(t, result.Cards, 2)
	assert.Equal(t, "Lightning Bolt", result.Cards[0].CardName())
	assert.Equal(t, 4, result.Cards[0].Quantity)
	assert.True(t, result.Cards[0].Owned)
	assert.Equal(t, "Llanowar Elves", result.Cards[1].CardName())
	assert.False(t, result.Cards[1].Owned)

	require.Len(t, result.Sideboard, 1)
	assert.Equal(t, bolt.ID, result.Sideboard[0].CardID)
	assert.Equal(t, 2, result.Sideboard[0].Quantity)

	assert.Equal(t, 6, result.TotalMainQuantity)
	assert.Len(t, result.Skipped, 2)
	assert.Contains(t, result.Skipped[1], "Unknown Card")
	assert.Contains(t, env.events.types(), events.TypeDeckUpdated)
}

func TestDeckService_ImportReplacesBoards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.seedUser(t, "replace@example.com")
	opt := env.seedCard(t, "Opt")
	negate := env.seedCard(t, "Negate")
	deck := env.seedDeck(t, userID, "Control", "")

	_, err := env.svc.Decks.AddCard(ctx, userID, deck.ID, "sideboard", AddCardInput{CardID: negate.ID, Quantity: 3})
	require.NoError(t, err)

	result, err := env.svc.Decks.Import(ctx, userID, deck.ID, "4 Opt")
	require.NoError(t, err)

	require.Len(t, result.Cards, 1)
	assert.Equal(t, opt.ID, result.Cards[0].CardID)
	assert.Empty(t, result.Sideboard)
	assert.Empty(t, result.Skipped)
}

func TestDeckService_ImportErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "owner@example.com")
	other := env.seedUser(t, "other@example.com")
	env.seedCard(t, "Opt")
	deck := env.seedDeck(t, owner, "Mine", "")

	_, err := env.svc.Decks.Import(ctx, owner, deck.ID, "   ")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "Deck list is empty.", PublicMessage(err))

	_, err = env.svc.Decks.Import(ctx, owner, deck.ID, "Deck\nSideboard")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = env.svc.Decks.Import(ctx, other, deck.ID, "4 Opt")
	assert.True(t, errors.Is(err, ErrNotFound), "private deck of another user")

	env.provider.On("Named", mock.Anything, "Ghost", "").Return(nil, &scryfall.NotFoundError{}).Once()
	_, err = env.svc.Decks.Import(ctx, owner, deck.ID, "1 Ghost")
	assert.True(t, errors.Is(err, ErrNotFound))

	env.provider.On("Named", mock.Anything, "Outage", "").Return(nil, &scryfall.APIError{Status: 503}).Once()
	_, err = env.svc.Decks.Import(ctx, owner, deck.ID, "1 Outage")
	assert.True(t, errors.Is(err, ErrUpstream))
}
