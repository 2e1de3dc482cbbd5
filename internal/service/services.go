// Package service implements the application operations behind the HTTP
// API: accounts, the card catalog, personal collections and decks.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ramonehamilton/bulkbuddy/internal/auth"
	"github.com/ramonehamilton/bulkbuddy/internal/events"
	"github.com/ramonehamilton/bulkbuddy/internal/metrics"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/manacost"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/scryfall"
	"github.com/ramonehamilton/bulkbuddy/internal/storage"
)

// CardProvider looks cards up at the external card database.
type CardProvider interface {
	GetCard(ctx context.Context, id string) (*scryfall.Card, error)
	Named(ctx context.Context, name, set string) (*scryfall.Card, error)
	SearchCards(ctx context.Context, query string) (*scryfall.SearchResult, error)
}

var _ CardProvider = (*scryfall.Client)(nil)

// Options tunes service behaviour.
type Options struct {
	CurveMode  manacost.CurveMode
	BcryptCost int
	Now        func() time.Time
}

// Deps are the collaborators shared by all services.
type Deps struct {
	Store    *storage.Service
	Provider CardProvider
	Tokens   *auth.TokenIssuer
	Events   events.Publisher       // Optional
	Metrics  *metrics.ServerMetrics // Optional
	Logger   *zap.Logger            // Optional
	Options  Options
}

// Services groups the application services.
type Services struct {
	Accounts   *AccountService
	Catalog    *CatalogService
	Collection *CollectionService
	Decks      *DeckService
}

// New wires the services from deps.
func New(deps Deps) *Services {
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Options.Now == nil {
		deps.Options.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Options.CurveMode == "" {
		deps.Options.CurveMode = manacost.CurveModeDigits
	}
	if deps.Metrics != nil && deps.Provider != nil {
		deps.Provider = &instrumentedProvider{next: deps.Provider, metrics: deps.Metrics}
	}

	catalog := &CatalogService{
		store:    deps.Store,
		provider: deps.Provider,
		events:   deps.Events,
		logger:   deps.Logger.Named("catalog"),
		now:      deps.Options.Now,
	}

	return &Services{
		Accounts: &AccountService{
			store:      deps.Store,
			tokens:     deps.Tokens,
			bcryptCost: deps.Options.BcryptCost,
			logger:     deps.Logger.Named("accounts"),
			now:        deps.Options.Now,
		},
		Catalog: catalog,
		Collection: &CollectionService{
			store:  deps.Store,
			events: deps.Events,
			logger: deps.Logger.Named("collection"),
			now:    deps.Options.Now,
		},
		Decks: &DeckService{
			store:     deps.Store,
			catalog:   catalog,
			events:    deps.Events,
			metrics:   deps.Metrics,
			logger:    deps.Logger.Named("decks"),
			curveMode: deps.Options.CurveMode,
			now:       deps.Options.Now,
		},
	}
}

// instrumentedProvider records latency and failures of provider calls.
type instrumentedProvider struct {
	next    CardProvider
	metrics *metrics.ServerMetrics
}

func (p *instrumentedProvider) GetCard(ctx context.Context, id string) (*scryfall.Card, error) {
	start := time.Now()
	card, err := p.next.GetCard(ctx, id)
	p.metrics.RecordScryfall(time.Since(start), upstreamFailure(err))
	return card, err
}

func (p *instrumentedProvider) Named(ctx context.Context, name, set string) (*scryfall.Card, error) {
	start := time.Now()
	card, err := p.next.Named(ctx, name, set)
	p.metrics.RecordScryfall(time.Since(start), upstreamFailure(err))
	return card, err
}

func (p *instrumentedProvider) SearchCards(ctx context.Context, query string) (*scryfall.SearchResult, error) {
	start := time.Now()
	result, err := p.next.SearchCards(ctx, query)
	p.metrics.RecordScryfall(time.Since(start), upstreamFailure(err))
	return result, err
}

// upstreamFailure ignores not-found answers, which are successful lookups.
func upstreamFailure(err error) error {
	if err == nil || scryfall.IsNotFound(err) {
		return nil
	}
	return err
}
