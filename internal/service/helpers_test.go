package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ramonehamilton/bulkbuddy/internal/auth"
	"github.com/ramonehamilton/bulkbuddy/internal/events"
	"github.com/ramonehamilton/bulkbuddy/internal/metrics"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/scryfall"
	"github.com/ramonehamilton/bulkbuddy/internal/storage"
	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) GetCard(ctx context.Context, id string) (*scryfall.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scryfall.Card), args.Error(1)
}

func (m *mockProvider) Named(ctx context.Context, name, set string) (*scryfall.Card, error) {
	args := m.Called(ctx, name, set)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scryfall.Card), args.Error(1)
}

func (m *mockProvider) SearchCards(ctx context.Context, query string) (*scryfall.SearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scryfall.SearchResult), args.Error(1)
}

// eventRecorder collects dispatched events.
type eventRecorder struct {
	events []events.Event
}

func (r *eventRecorder) Dispatch(e events.Event) { r.events = append(r.events, e) }

func (r *eventRecorder) types() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	svc      *Services
	store    *storage.Service
	provider *mockProvider
	events   *eventRecorder
	metrics  *metrics.ServerMetrics
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := storage.NewTestService(t)
	tokens, err := auth.NewTokenIssuer("test-secret-0123456789", time.Hour, "bulkbuddy-test")
	require.NoError(t, err)

	env := &testEnv{
		store:    store,
		provider: &mockProvider{},
		events:   &eventRecorder{},
		metrics:  metrics.NewServerMetrics(),
		now:      time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	env.svc = New(Deps{
		Store:    store,
		Provider: env.provider,
		Tokens:   tokens,
		Events:   env.events,
		Metrics:  env.metrics,
		Options: Options{
			BcryptCost: bcrypt.MinCost,
			Now:        func() time.Time { return env.now },
		},
	})
	return env
}

type cardOption func(*models.Card)

func withColors(colors ...string) cardOption {
	return func(c *models.Card) { c.Colors = colors }
}

func withManaCost(cost string) cardOption {
	return func(c *models.Card) { c.ManaCost = &cost }
}

func withRarity(rarity string) cardOption {
	return func(c *models.Card) { c.Rarity = rarity }
}

func withPrice(usd string) cardOption {
	return func(c *models.Card) { c.Prices.USD = &usd }
}

func withType(typeLine string) cardOption {
	return func(c *models.Card) { c.TypeLine = typeLine }
}

// seedCard inserts a card straight into the catalog.
func (e *testEnv) seedCard(t *testing.T, name string, opts ...cardOption) *models.Card {
	t.Helper()

	card := &models.Card{
		ID:         uuid.New().String(),
		ScryfallID: uuid.New().String(),
		Name:       name,
		TypeLine:   "Creature",
		Rarity:     "common",
		SetCode:    "tst",
		SetName:    "Test Set",
		Colors:     []string{},
		Legalities: map[string]string{},
		CreatedAt:  e.now,
		UpdatedAt:  e.now,
	}
	for _, opt := range opts {
		opt(card)
	}
	require.NoError(t, e.store.Repos().Cards.Create(context.Background(), card))
	return card
}

// seedUser registers an account and returns its ID.
func (e *testEnv) seedUser(t *testing.T, email string) string {
	t.Helper()

	user, err := e.svc.Accounts.Register(context.Background(), email, "secret123")
	require.NoError(t, err)
	return user.ID
}

func (e *testEnv) seedDeck(t *testing.T, userID, name, format string) *models.Deck {
	t.Helper()

	deck, err := e.svc.Decks.Create(context.Background(), userID, CreateDeckInput{Name: name, Format: format})
	require.NoError(t, err)
	return deck
}

func (e *testEnv) own(t *testing.T, userID, cardID string, qty int) {
	t.Helper()

	_, _, err := e.svc.Collection.Add(context.Background(), userID, AddCollectionInput{CardID: cardID, Quantity: qty})
	require.NoError(t, err)
}

func scryfallCard(id, name string) *scryfall.Card {
	usd := "1.25"
	return &scryfall.Card{
		ID:         id,
		Name:       name,
		ManaCost:   "{1}{G}",
		TypeLine:   "Creature - Elf",
		Colors:     []string{"G"},
		SetCode:    "M21",
		SetName:    "Core Set 2021",
		Rarity:     "common",
		ImageURIs:  &scryfall.ImageURIs{Normal: "https://img.example/" + id + ".jpg"},
		Legalities: map[string]string{"standard": "legal"},
		Prices:     scryfall.Prices{USD: &usd},
	}
}
