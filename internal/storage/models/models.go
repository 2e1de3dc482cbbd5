package models

import (
	"time"
)

// Board names for deck entries.
const (
	BoardMain      = "main"
	BoardSideboard = "sideboard"
)

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Card represents a card imported into the shared catalog.
// Cards are immutable after import except for price and legality refreshes.
type Card struct {
	ID         string            `json:"id"`
	ScryfallID string            `json:"scryfall_id"`
	Name       string            `json:"name"`
	TypeLine   string            `json:"type_line"`
	Rarity     string            `json:"rarity"`
	SetCode    string            `json:"set"`
	SetName    string            `json:"set_name"`
	OracleText string            `json:"oracle_text"`
	ManaCost   *string           `json:"mana_cost"` // Nullable
	Colors     []string          `json:"colors"`
	ImageURL   string            `json:"image_url"`
	Prices     Prices            `json:"prices"`
	Legalities map[string]string `json:"legalities"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Prices holds the provider's price strings. Any of them may be absent.
type Prices struct {
	USD     *string `json:"usd"`
	USDFoil *string `json:"usd_foil"`
	EUR     *string `json:"eur"`
	Tix     *string `json:"tix"`
}

// CollectionEntry records how many copies of a card a user owns.
// There is at most one entry per (user, card).
type CollectionEntry struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	CardID       string     `json:"card_id"`
	Quantity     int        `json:"quantity"`
	Notes        string     `json:"notes"`
	AcquiredDate *time.Time `json:"acquired_date"` // Nullable
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Card is populated by joined reads. Nil when the card row is gone.
	Card *Card `json:"card,omitempty"`
}

// Deck represents a user-owned deck. Its cards live in DeckEntry rows.
type Deck struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Format         string    `json:"format"`
	IsPublic       bool      `json:"is_public"`
	CustomImageURL *string   `json:"custom_image_url"` // Nullable
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DeckEntry is one card line in a deck's main list or sideboard.
type DeckEntry struct {
	DeckID   string  `json:"-"`
	CardID   string  `json:"card_id"`
	Board    string  `json:"board"`
	Quantity int     `json:"quantity"`
	Owned    bool    `json:"owned"`
	Tag      *string `json:"tag"` // Nullable
	Position int     `json:"-"`

	// Card is populated by joined reads. Nil when the card row is gone.
	Card *Card `json:"card"`
}

// CardName returns the entry's card name, or an empty string when the card is unresolved.
func (e *DeckEntry) CardName() string {
	if e == nil || e.Card == nil {
		return ""
	}
	return e.Card.Name
}

// DeckWithEntries is a deck together with both of its boards.
type DeckWithEntries struct {
	Deck      *Deck        `json:"deck"`
	Main      []*DeckEntry `json:"cards"`
	Sideboard []*DeckEntry `json:"sideboard"`
}

// CardFilter narrows catalog searches. Empty fields do not filter.
type CardFilter struct {
	Name      string   // Case-insensitive substring of the name
	TypeLine  string   // Case-insensitive substring of the type line
	Rarity    string   // Exact rarity
	SetCode   string   // Exact set code
	Colors    []string // Colour letters
	MatchAny  bool     // Match any listed colour instead of all of them
	Colorless bool     // Only cards without colours; overrides Colors
	Page      int      // 1-based
	Limit     int
}

// Offset returns the row offset for the filter's page.
func (f CardFilter) Offset() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// CardPage is one page of catalog search results.
type CardPage struct {
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	Limit      int     `json:"limit"`
	Results    []*Card `json:"results"`
}
