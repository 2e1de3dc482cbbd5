package scryfall

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// Card represents a Magic card as returned by Scryfall.
type Card struct {
	ID         string            `json:"id"`
	OracleID   string            `json:"oracle_id"`
	Name       string            `json:"name"`
	Lang       string            `json:"lang"`
	Layout     string            `json:"layout"`
	ImageURIs  *ImageURIs        `json:"image_uris,omitempty"`
	ManaCost   string            `json:"mana_cost,omitempty"`
	CMC        float64           `json:"cmc"`
	TypeLine   string            `json:"type_line"`
	OracleText string            `json:"oracle_text,omitempty"`
	Colors     []string          `json:"colors,omitempty"`
	SetCode    string            `json:"set"`
	SetName    string            `json:"set_name"`
	Rarity     string            `json:"rarity"`
	CardFaces  []CardFace        `json:"card_faces,omitempty"`
	Legalities map[string]string `json:"legalities"`
	Prices     Prices            `json:"prices"`
}

// CardFace represents one face of a multi-faced card.
type CardFace struct {
	Name       string     `json:"name"`
	ManaCost   string     `json:"mana_cost,omitempty"`
	TypeLine   string     `json:"type_line"`
	OracleText string     `json:"oracle_text,omitempty"`
	Colors     []string   `json:"colors,omitempty"`
	ImageURIs  *ImageURIs `json:"image_uris,omitempty"`
}

// ImageURIs contains URLs for card images in various sizes.
type ImageURIs struct {
	Small  string `json:"small"`
	Normal string `json:"normal"`
	Large  string `json:"large"`
	PNG    string `json:"png"`
}

// Prices represents the prices of a card in various currencies.
type Prices struct {
	USD     *string `json:"usd,omitempty"`
	USDFoil *string `json:"usd_foil,omitempty"`
	EUR     *string `json:"eur,omitempty"`
	TIX     *string `json:"tix,omitempty"`
}

// SearchResult represents search results from Scryfall.
type SearchResult struct {
	Object     string `json:"object"`
	TotalCards int    `json:"total_cards"`
	HasMore    bool   `json:"has_more"`
	NextPage   string `json:"next_page,omitempty"`
	Data       []Card `json:"data"`
}

// HasImage reports whether the card carries a top-level image.
func (c *Card) HasImage() bool {
	return c.ImageURIs != nil && c.ImageURIs.Normal != ""
}

// NormalImage returns the normal-size image URL, falling back to the first
// face that has one. Empty when the card has no image at all.
func (c *Card) NormalImage() string {
	if c.HasImage() {
		return c.ImageURIs.Normal
	}
	for _, face := range c.CardFaces {
		if face.ImageURIs != nil && face.ImageURIs.Normal != "" {
			return face.ImageURIs.Normal
		}
	}
	return ""
}

// ToModel converts the Scryfall card into a catalog card.
// The catalog ID and timestamps are left for the caller to assign.
func (c *Card) ToModel() *models.Card {
	card := &models.Card{
		ScryfallID: c.ID,
		Name:       c.Name,
		TypeLine:   c.TypeLine,
		Rarity:     c.Rarity,
		SetCode:    strings.ToLower(c.SetCode),
		SetName:    c.SetName,
		OracleText: c.OracleText,
		Colors:     c.Colors,
		ImageURL:   c.NormalImage(),
		Prices: models.Prices{
			USD:     c.Prices.USD,
			USDFoil: c.Prices.USDFoil,
			EUR:     c.Prices.EUR,
			Tix:     c.Prices.TIX,
		},
		Legalities: c.Legalities,
	}
	if c.ManaCost != "" {
		cost := c.ManaCost
		card.ManaCost = &cost
	}
	if card.Colors == nil {
		card.Colors = []string{}
	}
	if card.Legalities == nil {
		card.Legalities = map[string]string{}
	}
	return card
}

// APIError represents an error response from the Scryfall API.
type APIError struct {
	Object   string   `json:"object"`
	Code     string   `json:"code"`
	Status   int      `json:"status"`
	Details  string   `json:"details"`
	Type     string   `json:"type,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Details)
	}
	return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Code)
}

// NotFoundError represents a 404 error from the API.
type NotFoundError struct {
	URL string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}

// IsNotFound returns true if the error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
