package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// DeckRepository handles database operations for decks and their entries.
type DeckRepository interface {
	// Create inserts a new deck.
	Create(ctx context.Context, deck *models.Deck) error

	// Update writes every mutable deck attribute.
	Update(ctx context.Context, deck *models.Deck) error

	// Touch sets a deck's updated_at.
	Touch(ctx context.Context, id string, at time.Time) error

	// GetByID retrieves a deck by its ID. Returns nil if not found.
	GetByID(ctx context.Context, id string) (*models.Deck, error)

	// ListByUser retrieves a user's decks, most recently updated first.
	ListByUser(ctx context.Context, userID string) ([]*models.Deck, error)

	// ListPublic retrieves every public deck, most recently updated first.
	ListPublic(ctx context.Context) ([]*models.Deck, error)

	// Delete deletes a deck and, by cascade, its entries.
	Delete(ctx context.Context, id string) error

	// GetEntries retrieves one board's entries in insertion order with their cards.
	GetEntries(ctx context.Context, deckID, board string) ([]*models.DeckEntry, error)

	// GetEntry retrieves a single entry. Returns nil if not found.
	GetEntry(ctx context.Context, deckID, cardID, board string) (*models.DeckEntry, error)

	// InsertEntry appends an entry to the end of its board.
	InsertEntry(ctx context.Context, entry *models.DeckEntry) error

	// UpdateEntry writes an entry's quantity, owned flag and tag.
	UpdateEntry(ctx context.Context, entry *models.DeckEntry) error

	// DeleteEntry removes an entry. It reports whether a row was removed.
	DeleteEntry(ctx context.Context, deckID, cardID, board string) (bool, error)

	// ClearBoard removes every entry of one board.
	ClearBoard(ctx context.Context, deckID, board string) error

	// BoardQuantity sums the quantities of one board.
	BoardQuantity(ctx context.Context, deckID, board string) (int, error)
}

type deckRepository struct {
	db DBTX
}

// NewDeckRepository creates a new deck repository.
func NewDeckRepository(db DBTX) DeckRepository {
	return &deckRepository{db: db}
}

const deckColumns = `id, user_id, name, description, format, is_public, custom_image_url, created_at, updated_at`

func scanDeck(s rowScanner) (*models.Deck, error) {
	deck := &models.Deck{}
	var image sql.NullString
	err := s.Scan(
		&deck.ID,
		&deck.UserID,
		&deck.Name,
		&deck.Description,
		&deck.Format,
		&deck.IsPublic,
		&image,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	deck.CustomImageURL = nullStringPtr(image)
	return deck, nil
}

func (r *deckRepository) Create(ctx context.Context, deck *models.Deck) error {
	query := `
		INSERT INTO decks (` + deckColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		deck.ID,
		deck.UserID,
		deck.Name,
		deck.Description,
		deck.Format,
		boolToInt(deck.IsPublic),
		deck.CustomImageURL,
		deck.CreatedAt,
		deck.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deck: %w", err)
	}
	return nil
}

func (r *deckRepository) Update(ctx context.Context, deck *models.Deck) error {
	query := `
		UPDATE decks
		SET name = ?, description = ?, format = ?, is_public = ?, custom_image_url = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		deck.Name,
		deck.Description,
		deck.Format,
		boolToInt(deck.IsPublic),
		deck.CustomImageURL,
		deck.UpdatedAt,
		deck.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update deck: %w", err)
	}
	return nil
}

func (r *deckRepository) Touch(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE decks SET updated_at = ? WHERE id = ?`, at, id); err != nil {
		return fmt.Errorf("failed to touch deck: %w", err)
	}
	return nil
}

func (r *deckRepository) GetByID(ctx context.Context, id string) (*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks WHERE id = ?`

	deck, err := scanDeck(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	return deck, nil
}

func (r *deckRepository) ListByUser(ctx context.Context, userID string) ([]*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks WHERE user_id = ? ORDER BY updated_at DESC, id`
	return r.list(ctx, query, userID)
}

func (r *deckRepository) ListPublic(ctx context.Context) ([]*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks WHERE is_public = 1 ORDER BY updated_at DESC, id`
	return r.list(ctx, query)
}

func (r *deckRepository) list(ctx context.Context, query string, args ...any) ([]*models.Deck, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	decks := []*models.Deck{}
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		decks = append(decks, deck)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decks: %w", err)
	}
	return decks, nil
}

func (r *deckRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	return nil
}

const deckEntryColumns = `de.deck_id, de.card_id, de.board, de.quantity, de.owned, de.tag, de.position`

func scanDeckEntry(s rowScanner) (*models.DeckEntry, error) {
	entry := &models.DeckEntry{}
	var tag sql.NullString
	var card cardRow

	dest := []any{
		&entry.DeckID, &entry.CardID, &entry.Board, &entry.Quantity,
		&entry.Owned, &tag, &entry.Position,
	}
	dest = append(dest, card.dest()...)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	entry.Tag = nullStringPtr(tag)

	c, err := card.toModel()
	if err != nil {
		return nil, err
	}
	entry.Card = c
	return entry, nil
}

func (r *deckRepository) GetEntries(ctx context.Context, deckID, board string) ([]*models.DeckEntry, error) {
	query := `SELECT ` + deckEntryColumns + `, ` + cardColumns("c") + `
		FROM deck_entries de
		LEFT JOIN cards c ON c.id = de.card_id
		WHERE de.deck_id = ? AND de.board = ?
		ORDER BY de.position`

	rows, err := r.db.QueryContext(ctx, query, deckID, board)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*models.DeckEntry{}
	for rows.Next() {
		entry, err := scanDeckEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deck entries: %w", err)
	}
	return entries, nil
}

func (r *deckRepository) GetEntry(ctx context.Context, deckID, cardID, board string) (*models.DeckEntry, error) {
	query := `SELECT ` + deckEntryColumns + `, ` + cardColumns("c") + `
		FROM deck_entries de
		LEFT JOIN cards c ON c.id = de.card_id
		WHERE de.deck_id = ? AND de.card_id = ? AND de.board = ?`

	entry, err := scanDeckEntry(r.db.QueryRowContext(ctx, query, deckID, cardID, board))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck entry: %w", err)
	}
	return entry, nil
}

func (r *deckRepository) InsertEntry(ctx context.Context, entry *models.DeckEntry) error {
	query := `
		INSERT INTO deck_entries (deck_id, card_id, board, quantity, owned, tag, position)
		VALUES (?, ?, ?, ?, ?, ?, (
			SELECT COALESCE(MAX(position), -1) + 1 FROM deck_entries WHERE deck_id = ? AND board = ?
		))
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.DeckID,
		entry.CardID,
		entry.Board,
		entry.Quantity,
		boolToInt(entry.Owned),
		entry.Tag,
		entry.DeckID,
		entry.Board,
	)
	if err != nil {
		return fmt.Errorf("failed to insert deck entry: %w", err)
	}
	return nil
}

func (r *deckRepository) UpdateEntry(ctx context.Context, entry *models.DeckEntry) error {
	query := `
		UPDATE deck_entries SET quantity = ?, owned = ?, tag = ?
		WHERE deck_id = ? AND card_id = ? AND board = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.Quantity,
		boolToInt(entry.Owned),
		entry.Tag,
		entry.DeckID,
		entry.CardID,
		entry.Board,
	)
	if err != nil {
		return fmt.Errorf("failed to update deck entry: %w", err)
	}
	return nil
}

func (r *deckRepository) DeleteEntry(ctx context.Context, deckID, cardID, board string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM deck_entries WHERE deck_id = ? AND card_id = ? AND board = ?`,
		deckID, cardID, board)
	if err != nil {
		return false, fmt.Errorf("failed to delete deck entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *deckRepository) ClearBoard(ctx context.Context, deckID, board string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM deck_entries WHERE deck_id = ? AND board = ?`, deckID, board); err != nil {
		return fmt.Errorf("failed to clear deck board: %w", err)
	}
	return nil
}

func (r *deckRepository) BoardQuantity(ctx context.Context, deckID, board string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM deck_entries WHERE deck_id = ? AND board = ?`,
		deckID, board).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum deck board: %w", err)
	}
	return total, nil
}
