package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ramonehamilton/bulkbuddy/internal/api/handlers"
	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	systemHandler := handlers.NewSystemHandler(s.db, s.metrics, s.wsHub.ClientCount, s.logger)

	// Health check endpoint (no versioning)
	s.router.Get("/health", systemHandler.Health)

	// WebSocket endpoint (no JSON content-type requirement)
	s.router.Get("/ws", s.serveWebSocket)

	// API v1 routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		// System routes
		r.Route("/system", func(r chi.Router) {
			r.Get("/version", systemHandler.GetVersion)
			r.With(s.requireAuth).Get("/metrics", systemHandler.GetMetrics)
		})

		// Auth routes
		authHandler := handlers.NewAuthHandler(s.services.Accounts, s.logger)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(s.requireAuth).Get("/me", authHandler.Me)
		})

		// Card routes
		cardHandler := handlers.NewCardHandler(s.services.Catalog, s.logger)
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cardHandler.SearchCards)
			r.Get("/exact", cardHandler.FindExact)
			r.Get("/scryfall/named", cardHandler.ScryfallNamed)
			r.Get("/scryfall/search", cardHandler.ScryfallSearch)
			r.Get("/{cardID}", cardHandler.GetCard)
			r.With(s.requireAuth).Post("/import", cardHandler.ImportCard)
			r.With(s.requireAuth).Post("/{cardID}/refresh", cardHandler.RefreshPrices)
		})

		// Collection routes
		collectionHandler := handlers.NewCollectionHandler(s.services.Collection, s.logger)
		r.Route("/collection", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", collectionHandler.GetCollection)
			r.Post("/", collectionHandler.AddToCollection)
			r.Get("/stats", collectionHandler.GetCollectionStats)
			r.Get("/growth", collectionHandler.GetCollectionGrowth)
			r.Get("/export", collectionHandler.ExportCollection)
			r.Patch("/{entryID}", collectionHandler.UpdateEntry)
			r.Delete("/{entryID}", collectionHandler.DeleteEntry)
		})

		// Deck routes
		deckHandler := handlers.NewDeckHandler(s.services.Decks, s.logger)
		r.Route("/decks", func(r chi.Router) {
			r.Get("/public", deckHandler.GetPublicDecks)
			r.Get("/public/{deckID}", deckHandler.GetPublicDeck)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)

				r.Get("/", deckHandler.GetDecks)
				r.Post("/", deckHandler.CreateDeck)
				r.Get("/{deckID}", deckHandler.GetDeck)
				r.Patch("/{deckID}", deckHandler.UpdateDeck)
				r.Put("/{deckID}", deckHandler.ReplaceDeck)
				r.Delete("/{deckID}", deckHandler.DeleteDeck)
				r.Patch("/{deckID}/visibility", deckHandler.SetVisibility)
				r.Patch("/{deckID}/image", deckHandler.SetImage)
				r.Post("/{deckID}/copy", deckHandler.CopyDeck)
				r.Post("/{deckID}/clone", deckHandler.CloneDeck)
				r.Post("/{deckID}/import", deckHandler.ImportDeck)

				r.Post("/{deckID}/cards", deckHandler.AddCard(models.BoardMain))
				r.Patch("/{deckID}/cards/{cardID}", deckHandler.UpdateQuantity(models.BoardMain))
				r.Patch("/{deckID}/cards/{cardID}/tag", deckHandler.SetTag(models.BoardMain))
				r.Delete("/{deckID}/cards/{cardID}", deckHandler.RemoveCard(models.BoardMain))

				r.Post("/{deckID}/sideboard", deckHandler.AddCard(models.BoardSideboard))
				r.Patch("/{deckID}/sideboard/{cardID}", deckHandler.UpdateQuantity(models.BoardSideboard))
				r.Patch("/{deckID}/sideboard/{cardID}/tag", deckHandler.SetTag(models.BoardSideboard))
				r.Delete("/{deckID}/sideboard/{cardID}", deckHandler.RemoveCard(models.BoardSideboard))

				r.Get("/{deckID}/missing", deckHandler.GetMissing)
				r.Get("/{deckID}/analysis", deckHandler.GetCurve)
				r.Get("/{deckID}/stats", deckHandler.GetStats)
				r.Get("/{deckID}/export", deckHandler.ExportDeck)
				r.Get("/{deckID}/export/text", deckHandler.ExportDeckText)
			})
		})
	})
}
