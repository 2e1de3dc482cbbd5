package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ramonehamilton/bulkbuddy/internal/api/response"
	"github.com/ramonehamilton/bulkbuddy/internal/service"
)

// CollectionHandler handles the caller's card collection.
type CollectionHandler struct {
	collection *service.CollectionService
	logger     *zap.Logger
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(collection *service.CollectionService, logger *zap.Logger) *CollectionHandler {
	return &CollectionHandler{collection: collection, logger: logger}
}

// GetCollection returns the caller's entries, narrowed by the card filters.
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	entries, err := h.collection.List(r.Context(), currentUser(r), parseCardFilter(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, entries)
}

// GetCollectionStats summarizes the caller's collection.
func (h *CollectionHandler) GetCollectionStats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.collection.Stats(r.Context(), currentUser(r), parseCardFilter(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, summary)
}

// GetCollectionGrowth reports copies added per month.
func (h *CollectionHandler) GetCollectionGrowth(w http.ResponseWriter, r *http.Request) {
	points, err := h.collection.Growth(r.Context(), currentUser(r), queryInt(r, "months", 0))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, points)
}

// ExportCollection downloads the collection as a text list.
func (h *CollectionHandler) ExportCollection(w http.ResponseWriter, r *http.Request) {
	export, err := h.collection.ExportText(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.File(w, export)
}

// AddCollectionRequest is the body of an add request.
type AddCollectionRequest struct {
	CardID       string `json:"card_id"`
	Quantity     int    `json:"quantity"`
	Notes        string `json:"notes"`
	AcquiredDate string `json:"acquired_date"`
}

// AddToCollection adds copies of a card. It answers 201 for a new entry and
// 200 when an existing entry's quantity was increased.
func (h *CollectionHandler) AddToCollection(w http.ResponseWriter, r *http.Request) {
	var req AddCollectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	acquired, ok := parseDate(req.AcquiredDate)
	if !ok {
		response.BadRequest(w, "Invalid acquired_date")
		return
	}

	entry, created, err := h.collection.Add(r.Context(), currentUser(r), service.AddCollectionInput{
		CardID:       req.CardID,
		Quantity:     req.Quantity,
		Notes:        req.Notes,
		AcquiredDate: acquired,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if created {
		response.Created(w, entry)
		return
	}
	response.Message(w, "Quantity updated", entry)
}

// UpdateCollectionRequest is the body of an update request. Absent fields
// are left alone.
type UpdateCollectionRequest struct {
	Quantity     *int    `json:"quantity"`
	Notes        *string `json:"notes"`
	AcquiredDate *string `json:"acquired_date"`
}

// UpdateEntry changes one of the caller's entries.
func (h *CollectionHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req UpdateCollectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := service.UpdateCollectionInput{Quantity: req.Quantity, Notes: req.Notes}
	if req.AcquiredDate != nil {
		acquired, ok := parseDate(*req.AcquiredDate)
		if !ok {
			response.BadRequest(w, "Invalid acquired_date")
			return
		}
		in.AcquiredDate = acquired
	}

	entry, err := h.collection.Update(r.Context(), currentUser(r), chi.URLParam(r, "entryID"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, entry)
}

// DeleteEntry removes one of the caller's entries.
func (h *CollectionHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.collection.Delete(r.Context(), currentUser(r), chi.URLParam(r, "entryID")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Message(w, "Collection entry deleted", nil)
}
