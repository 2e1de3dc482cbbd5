package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ramonehamilton/bulkbuddy/internal/api/response"
	"github.com/ramonehamilton/bulkbuddy/internal/mtg/deckexport"
	"github.com/ramonehamilton/bulkbuddy/internal/service"
)

// DeckHandler handles deck-related API requests.
type DeckHandler struct {
	decks  *service.DeckService
	logger *zap.Logger
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(decks *service.DeckService, logger *zap.Logger) *DeckHandler {
	return &DeckHandler{decks: decks, logger: logger}
}

func (h *DeckHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, err)
}

func deckID(r *http.Request) string {
	return chi.URLParam(r, "deckID")
}

// GetDecks returns the caller's decks.
func (h *DeckHandler) GetDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.decks.ListMine(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, decks)
}

// GetPublicDecks returns every public deck.
func (h *DeckHandler) GetPublicDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.decks.ListPublic(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, decks)
}

// GetPublicDeck returns the shared view of a public deck.
func (h *DeckHandler) GetPublicDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := h.decks.GetPublic(r.Context(), deckID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, deck)
}

// CreateDeckRequest represents a request to create a deck.
type CreateDeckRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Format      string `json:"format"`
}

// CreateDeck creates a new deck.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var req CreateDeckRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deck, err := h.decks.Create(r.Context(), currentUser(r), service.CreateDeckInput(req))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, deck)
}

// GetDeck returns a deck with both boards and its analysis.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	view, err := h.decks.Get(r.Context(), currentUser(r), deckID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, view)
}

// UpdateDeckRequest represents a request to update deck details.
type UpdateDeckRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Format      *string `json:"format,omitempty"`
}

// UpdateDeck changes deck details.
func (h *DeckHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	var req UpdateDeckRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deck, err := h.decks.UpdateDetails(r.Context(), currentUser(r), deckID(r), service.UpdateDeckInput(req))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, deck)
}

// DeckCardRequest is one card line of a replaced board.
type DeckCardRequest struct {
	CardID   string  `json:"card_id"`
	Quantity int     `json:"quantity"`
	Tag      *string `json:"tag"`
}

// ReplaceDeckRequest replaces details and boards. Omitted boards are kept.
type ReplaceDeckRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Format      string            `json:"format"`
	Cards       []DeckCardRequest `json:"cards"`
	Sideboard   []DeckCardRequest `json:"sideboard"`
}

// ReplaceDeck overwrites a deck.
func (h *DeckHandler) ReplaceDeck(w http.ResponseWriter, r *http.Request) {
	var req ReplaceDeckRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.decks.Replace(r.Context(), currentUser(r), deckID(r), service.ReplaceDeckInput{
		Name:        req.Name,
		Description: req.Description,
		Format:      req.Format,
		Cards:       toCardInputs(req.Cards),
		Sideboard:   toCardInputs(req.Sideboard),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, view)
}

func toCardInputs(lines []DeckCardRequest) []service.DeckCardInput {
	if lines == nil {
		return nil
	}
	out := make([]service.DeckCardInput, len(lines))
	for i, l := range lines {
		out[i] = service.DeckCardInput(l)
	}
	return out
}

// DeleteDeck deletes a deck.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	if err := h.decks.Delete(r.Context(), currentUser(r), deckID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	response.Message(w, "Deck deleted", nil)
}

// VisibilityRequest publishes or unpublishes a deck.
type VisibilityRequest struct {
	IsPublic bool `json:"is_public"`
}

// SetVisibility publishes or unpublishes a deck.
func (h *DeckHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req VisibilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deck, err := h.decks.SetVisibility(r.Context(), currentUser(r), deckID(r), req.IsPublic)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, deck)
}

// ImageRequest sets a deck's custom image.
type ImageRequest struct {
	CustomImageURL string `json:"custom_image_url"`
}

// SetImage sets or clears a deck's custom image.
func (h *DeckHandler) SetImage(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deck, err := h.decks.SetImage(r.Context(), currentUser(r), deckID(r), req.CustomImageURL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, deck)
}

// AddCardRequest identifies a card by catalog ID, Scryfall ID (either
// scryfall_id or a Scryfall card object under "card"), or name and set.
type AddCardRequest struct {
	CardID     string `json:"card_id"`
	ScryfallID string `json:"scryfall_id"`
	Card       *struct {
		ID string `json:"id"`
	} `json:"card"`
	Name     string  `json:"name"`
	Set      string  `json:"set"`
	Quantity int     `json:"quantity"`
	Tag      *string `json:"tag"`
}

func (req AddCardRequest) input() service.AddCardInput {
	in := service.AddCardInput{
		CardID:     req.CardID,
		ScryfallID: req.ScryfallID,
		Name:       req.Name,
		Set:        req.Set,
		Quantity:   req.Quantity,
		Tag:        req.Tag,
	}
	if in.ScryfallID == "" && req.Card != nil {
		in.ScryfallID = req.Card.ID
	}
	return in
}

// AddCard returns a handler adding a card to board.
func (h *DeckHandler) AddCard(board string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddCardRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		view, err := h.decks.AddCard(r.Context(), currentUser(r), deckID(r), board, req.input())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		response.Success(w, view)
	}
}

// QuantityRequest sets a card's quantity.
type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateQuantity returns a handler setting a card's quantity on board.
func (h *DeckHandler) UpdateQuantity(board string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuantityRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		view, err := h.decks.UpdateQuantity(r.Context(), currentUser(r), deckID(r), board, chi.URLParam(r, "cardID"), req.Quantity)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		response.Success(w, view)
	}
}

// TagRequest sets or clears a card's tag.
type TagRequest struct {
	Tag *string `json:"tag"`
}

// SetTag returns a handler tagging a card on board.
func (h *DeckHandler) SetTag(board string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TagRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		view, err := h.decks.SetTag(r.Context(), currentUser(r), deckID(r), board, chi.URLParam(r, "cardID"), req.Tag)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		response.Success(w, view)
	}
}

// RemoveCard returns a handler removing a card from board.
func (h *DeckHandler) RemoveCard(board string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := h.decks.RemoveCard(r.Context(), currentUser(r), deckID(r), board, chi.URLParam(r, "cardID"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		response.Success(w, view)
	}
}

// CopyDeck duplicates one of the caller's decks.
func (h *DeckHandler) CopyDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := h.decks.Copy(r.Context(), currentUser(r), deckID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, deck)
}

// CloneDeck copies a public deck into the caller's account.
func (h *DeckHandler) CloneDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := h.decks.Clone(r.Context(), currentUser(r), deckID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, deck)
}

// GetMissing lists the unowned main-list cards.
func (h *DeckHandler) GetMissing(w http.ResponseWriter, r *http.Request) {
	report, err := h.decks.Missing(r.Context(), currentUser(r), deckID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, report)
}

// GetCurve returns the main-list mana curve.
func (h *DeckHandler) GetCurve(w http.ResponseWriter, r *http.Request) {
	report, err := h.decks.Curve(r.Context(), currentUser(r), deckID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, report)
}

// GetStats summarizes the main list.
func (h *DeckHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.decks.Stats(r.Context(), currentUser(r), deckID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, summary)
}

// ImportRequest is the body of a deck import.
type ImportRequest struct {
	List string `json:"list"`
}

// ImportDeck replaces the deck's boards with a pasted deck list.
func (h *DeckHandler) ImportDeck(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.decks.Import(r.Context(), currentUser(r), deckID(r), req.List)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, result)
}

// ExportDeck downloads the deck. The format query parameter selects csv
// (default), text, arena or mtgo.
func (h *DeckHandler) ExportDeck(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(deckexport.FormatCSV)
	}
	h.export(w, r, name)
}

// ExportDeckText downloads the deck as a plain-text list.
func (h *DeckHandler) ExportDeckText(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, string(deckexport.FormatText))
}

func (h *DeckHandler) export(w http.ResponseWriter, r *http.Request, name string) {
	format, err := deckexport.ParseFormat(name)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	export, err := h.decks.Export(r.Context(), currentUser(r), deckID(r), format)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.File(w, export)
}
