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
	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

func TestCatalogService_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedCard(t, "Llanowar Elves", withColors("G"))
	env.seedCard(t, "Elvish Mystic", withColors("G"))
	env.seedCard(t, "Counterspell", withColors("U"), withType("Instant"))
	env.seedCard(t, "Sol Ring", withType("Artifact"))

	t.Run("defaults", func(t *testing.T) {
		page, err := env.svc.Catalog.Search(ctx, models.CardFilter{})
		require.NoError(t, err)
		assert.Equal(t, 4, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, DefaultPageSize, page.Limit)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("limit is capped", func(t *testing.T) {
		page, err := env.svc.Catalog.Search(ctx, models.CardFilter{Limit: 5000})
		require.NoError(t, err)
		assert.Equal(t, MaxPageSize, page.Limit)
	})

	t.Run("paging", func(t *testing.T) {
		page, err := env.svc.Catalog.Search(ctx, models.CardFilter{Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 2, page.TotalPages)
		assert.Len(t, page.Results, 1)
	})

	t.Run("lower-case colours are accepted", func(t *testing.T) {
		page, err := env.svc.Catalog.Search(ctx, models.CardFilter{Colors: []string{"g"}})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})

	t.Run("unknown colour", func(t *testing.T) {
		_, err := env.svc.Catalog.Search(ctx, models.CardFilter{Colors: []string{"P"}})
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestCatalogService_Get(t *testing.T) {
	env := newTestEnv(t)
	card := env.seedCard(t, "Opt")

	got, err := env.svc.Catalog.Get(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, "Opt", got.Name)

	_, err = env.svc.Catalog.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Card not found", PublicMessage(err))
}

func TestCatalogService_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("imports and emits an event", func(t *testing.T) {
		env := newTestEnv(t)
		env.provider.On("GetCard", mock.Anything, "sf-1").Return(scryfallCard("sf-1", "Llanowar Elves"), nil).Once()

		card, err := env.svc.Catalog.Import(ctx, "sf-1")
		require.NoError(t, err)
		assert.NotEmpty(t, card.ID)
		assert.Equal(t, "m21", card.SetCode)
		require.NotNil(t, card.ManaCost)
		assert.Equal(t, "{1}{G}", *card.ManaCost)
		assert.Equal(t, []string{events.TypeCardImported}, env.events.types())

		_, err = env.svc.Catalog.Import(ctx, "sf-1")
		assert.True(t, errors.Is(err, ErrConflict))
		assert.Equal(t, "Card already exists in the database.", PublicMessage(err))
		env.provider.AssertExpectations(t)
	})

	t.Run("not on scryfall", func(t *testing.T) {
		env := newTestEnv(t)
		env.provider.On("GetCard", mock.Anything, "sf-x").Return(nil, &scryfall.NotFoundError{URL: "/cards/sf-x"})

		_, err := env.svc.Catalog.Import(ctx, "sf-x")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Equal(t, "Card not found on Scryfall.", PublicMessage(err))
	})

	t.Run("card without image", func(t *testing.T) {
		env := newTestEnv(t)
		remote := scryfallCard("sf-2", "Faceless")
		remote.ImageURIs = nil
		env.provider.On("GetCard", mock.Anything, "sf-2").Return(remote, nil)

		_, err := env.svc.Catalog.Import(ctx, "sf-2")
		assert.True(t, errors.Is(err, ErrInvalidInput))
		assert.Equal(t, "Card has no image; skipping.", PublicMessage(err))
	})

	t.Run("upstream failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.provider.On("GetCard", mock.Anything, "sf-3").Return(nil, &scryfall.APIError{Status: 500})

		_, err := env.svc.Catalog.Import(ctx, "sf-3")
		assert.True(t, errors.Is(err, ErrUpstream))
		assert.Equal(t, uint64(1), env.metrics.GetStats().ScryfallErrors)
	})
}

func TestCatalogService_EnsureFromScryfall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	remote := scryfallCard("sf-1", "Faceless")
	remote.ImageURIs = nil
	env.provider.On("GetCard", mock.Anything, "sf-1").Return(remote, nil).Once()

	first, err := env.svc.Catalog.EnsureFromScryfall(ctx, "sf-1")
	require.NoError(t, err)

	second, err := env.svc.Catalog.EnsureFromScryfall(ctx, "sf-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	env.provider.AssertExpectations(t)
}

func TestCatalogService_FindExact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedCard(t, "Opt")

	match, err := env.svc.Catalog.FindExact(ctx, "opt", "TST")
	require.NoError(t, err)
	assert.True(t, match.ExistsLocally)
	assert.Equal(t, "Opt", match.Card.Name)

	env.provider.On("Named", mock.Anything, "Shock", "m21").Return(scryfallCard("sf-9", "Shock"), nil)
	match, err = env.svc.Catalog.FindExact(ctx, "Shock", "m21")
	require.NoError(t, err)
	assert.False(t, match.ExistsLocally)
	assert.Equal(t, "sf-9", match.Scryfall.ID)

	env.provider.On("Named", mock.Anything, "Nope", "m21").Return(nil, &scryfall.NotFoundError{})
	_, err = env.svc.Catalog.FindExact(ctx, "Nope", "m21")
	assert.Equal(t, "Card not found on Scryfall.", PublicMessage(err))

	_, err = env.svc.Catalog.FindExact(ctx, "Shock", "")
	assert.Equal(t, "Name and set code are required.", PublicMessage(err))
}

func TestCatalogService_ScryfallPassthrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Catalog.ScryfallNamed(ctx, "Shock", "")
	assert.Equal(t, "Both card name and set are required.", PublicMessage(err))

	env.provider.On("Named", mock.Anything, "Shokc", "m21").Return(nil, &scryfall.NotFoundError{})
	_, err = env.svc.Catalog.ScryfallNamed(ctx, "Shokc", "m21")
	assert.Equal(t, "Card not found or incorrect card name/set.", PublicMessage(err))

	_, err = env.svc.Catalog.ScryfallSearch(ctx, " ")
	assert.Equal(t, "Name is required.", PublicMessage(err))

	env.provider.On("SearchCards", mock.Anything, "elves").Return(&scryfall.SearchResult{
		TotalCards: 1,
		Data:       []scryfall.Card{*scryfallCard("sf-1", "Llanowar Elves")},
	}, nil)
	result, err := env.svc.Catalog.ScryfallSearch(ctx, "elves")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCards)

	env.provider.On("SearchCards", mock.Anything, "zzz").Return(nil, &scryfall.NotFoundError{})
	_, err = env.svc.Catalog.ScryfallSearch(ctx, "zzz")
	assert.Equal(t, "No cards found.", PublicMessage(err))
}

func TestCatalogService_RefreshPrices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	card := env.seedCard(t, "Opt", withPrice("0.10"))

	remote := scryfallCard(card.ScryfallID, "Opt")
	env.provider.On("GetCard", mock.Anything, card.ScryfallID).Return(remote, nil)

	refreshed, err := env.svc.Catalog.RefreshPrices(ctx, card.ID)
	require.NoError(t, err)
	require.NotNil(t, refreshed.Prices.USD)
	assert.Equal(t, "1.25", *refreshed.Prices.USD)

	stored, err := env.svc.Catalog.Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.25", *stored.Prices.USD)
	assert.Equal(t, "legal", stored.Legalities["standard"])
}
