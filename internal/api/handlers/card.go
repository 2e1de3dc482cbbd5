package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ramonehamilton/bulkbuddy/internal/api/response"
	"github.com/ramonehamilton/bulkbuddy/internal/service"
)

// CardHandler handles catalog and Scryfall lookups.
type CardHandler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(catalog *service.CatalogService, logger *zap.Logger) *CardHandler {
	return &CardHandler{catalog: catalog, logger: logger}
}

// SearchCards returns one page of catalog cards.
func (h *CardHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Search(r.Context(), parseCardFilter(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, page)
}

// GetCard returns a catalog card.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.catalog.Get(r.Context(), chi.URLParam(r, "cardID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, card)
}

// FindExact looks a card up by exact name and set.
func (h *CardHandler) FindExact(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	match, err := h.catalog.FindExact(r.Context(), q.Get("name"), q.Get("set"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, match)
}

// ImportCardRequest names the Scryfall card to import.
type ImportCardRequest struct {
	ScryfallID string `json:"scryfall_id"`
}

// ImportCard copies a Scryfall card into the catalog.
func (h *CardHandler) ImportCard(w http.ResponseWriter, r *http.Request) {
	var req ImportCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.catalog.Import(r.Context(), req.ScryfallID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, card)
}

// RefreshPrices re-fetches a catalog card's prices.
func (h *CardHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	card, err := h.catalog.RefreshPrices(r.Context(), chi.URLParam(r, "cardID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, card)
}

// ScryfallNamed passes an exact lookup through to Scryfall.
func (h *CardHandler) ScryfallNamed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	card, err := h.catalog.ScryfallNamed(r.Context(), q.Get("name"), q.Get("set"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, card)
}

// ScryfallSearch passes a full-text search through to Scryfall.
func (h *CardHandler) ScryfallSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		q = r.URL.Query().Get("name")
	}
	result, err := h.catalog.ScryfallSearch(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, result)
}
