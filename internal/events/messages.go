package events

// Event types emitted by the application services.
const (
	TypeDeckCreated       = "deck:created"
	TypeDeckUpdated       = "deck:updated"
	TypeDeckDeleted       = "deck:deleted"
	TypeCollectionUpdated = "collection:updated"
	TypeCardImported      = "card:imported"
)

// DeckEvent is the payload for deck:created, deck:updated and deck:deleted events.
type DeckEvent struct {
	DeckID string `json:"deckId"`
	Name   string `json:"name"`
	Action string `json:"action,omitempty"` // What changed, e.g. "card_added", "visibility"
}

// CollectionUpdatedEvent is the payload for collection:updated events.
// Quantity is the entry's quantity after the change; zero when removed.
type CollectionUpdatedEvent struct {
	EntryID  string `json:"entryId"`
	CardID   string `json:"cardId"`
	Quantity int    `json:"quantity"`
	Removed  bool   `json:"removed,omitempty"`
}

// CardImportedEvent is the payload for card:imported events.
// Sent when a card enters the shared catalog.
type CardImportedEvent struct {
	CardID     string `json:"cardId"`
	ScryfallID string `json:"scryfallId"`
	Name       string `json:"name"`
}
