package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// CollectionRepository handles database operations for users' card collections.
type CollectionRepository interface {
	// Create inserts a new collection entry.
	Create(ctx context.Context, entry *models.CollectionEntry) error

	// Update writes quantity, notes and acquired date of an existing entry.
	Update(ctx context.Context, entry *models.CollectionEntry) error

	// AddQuantity increments an entry's quantity by delta.
	AddQuantity(ctx context.Context, id string, delta int, updatedAt time.Time) error

	// Delete removes an entry by ID.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves an entry with its card. Returns nil if not found.
	GetByID(ctx context.Context, id string) (*models.CollectionEntry, error)

	// GetByUserAndCard retrieves the entry for (user, card). Returns nil if not found.
	GetByUserAndCard(ctx context.Context, userID, cardID string) (*models.CollectionEntry, error)

	// ListByUser retrieves a user's entries with their cards, narrowed by filter.
	// Pagination fields of the filter are ignored.
	ListByUser(ctx context.Context, userID string, filter models.CardFilter) ([]*models.CollectionEntry, error)

	// OwnedCardIDs reports which of cardIDs the user has an entry for.
	OwnedCardIDs(ctx context.Context, userID string, cardIDs []string) (map[string]bool, error)
}

type collectionRepository struct {
	db DBTX
}

// NewCollectionRepository creates a new collection repository.
func NewCollectionRepository(db DBTX) CollectionRepository {
	return &collectionRepository{db: db}
}

const collectionEntryColumns = `ce.id, ce.user_id, ce.card_id, ce.quantity, ce.notes, ce.acquired_date, ce.created_at, ce.updated_at`

func scanCollectionEntry(s rowScanner) (*models.CollectionEntry, error) {
	entry := &models.CollectionEntry{}
	var acquired sql.NullTime
	var card cardRow

	dest := []any{
		&entry.ID, &entry.UserID, &entry.CardID, &entry.Quantity, &entry.Notes,
		&acquired, &entry.CreatedAt, &entry.UpdatedAt,
	}
	dest = append(dest, card.dest()...)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	entry.AcquiredDate = nullTimePtr(acquired)

	c, err := card.toModel()
	if err != nil {
		return nil, err
	}
	entry.Card = c
	return entry, nil
}

func (r *collectionRepository) Create(ctx context.Context, entry *models.CollectionEntry) error {
	query := `
		INSERT INTO collection_entries (
			id, user_id, card_id, quantity, notes, acquired_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.CardID,
		entry.Quantity,
		entry.Notes,
		entry.AcquiredDate,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create collection entry: %w", err)
	}
	return nil
}

func (r *collectionRepository) Update(ctx context.Context, entry *models.CollectionEntry) error {
	query := `
		UPDATE collection_entries
		SET quantity = ?, notes = ?, acquired_date = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.Quantity,
		entry.Notes,
		entry.AcquiredDate,
		entry.UpdatedAt,
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update collection entry: %w", err)
	}
	return nil
}

func (r *collectionRepository) AddQuantity(ctx context.Context, id string, delta int, updatedAt time.Time) error {
	query := `UPDATE collection_entries SET quantity = quantity + ?, updated_at = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, delta, updatedAt, id); err != nil {
		return fmt.Errorf("failed to add collection quantity: %w", err)
	}
	return nil
}

func (r *collectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM collection_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete collection entry: %w", err)
	}
	return nil
}

func (r *collectionRepository) GetByID(ctx context.Context, id string) (*models.CollectionEntry, error) {
	query := `SELECT ` + collectionEntryColumns + `, ` + cardColumns("c") + `
		FROM collection_entries ce
		LEFT JOIN cards c ON c.id = ce.card_id
		WHERE ce.id = ?`
	return r.getOne(ctx, query, id)
}

func (r *collectionRepository) GetByUserAndCard(ctx context.Context, userID, cardID string) (*models.CollectionEntry, error) {
	query := `SELECT ` + collectionEntryColumns + `, ` + cardColumns("c") + `
		FROM collection_entries ce
		LEFT JOIN cards c ON c.id = ce.card_id
		WHERE ce.user_id = ? AND ce.card_id = ?`
	return r.getOne(ctx, query, userID, cardID)
}

func (r *collectionRepository) getOne(ctx context.Context, query string, args ...any) (*models.CollectionEntry, error) {
	entry, err := scanCollectionEntry(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection entry: %w", err)
	}
	return entry, nil
}

func (r *collectionRepository) ListByUser(ctx context.Context, userID string, filter models.CardFilter) ([]*models.CollectionEntry, error) {
	where, args := cardFilterClause("c", filter)

	query := `SELECT ` + collectionEntryColumns + `, ` + cardColumns("c") + `
		FROM collection_entries ce
		LEFT JOIN cards c ON c.id = ce.card_id
		WHERE ce.user_id = ? AND ` + where + `
		ORDER BY ce.created_at, ce.id`

	rows, err := r.db.QueryContext(ctx, query, append([]any{userID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*models.CollectionEntry{}
	for rows.Next() {
		entry, err := scanCollectionEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection: %w", err)
	}
	return entries, nil
}

func (r *collectionRepository) OwnedCardIDs(ctx context.Context, userID string, cardIDs []string) (map[string]bool, error) {
	owned := make(map[string]bool, len(cardIDs))
	if len(cardIDs) == 0 {
		return owned, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cardIDs)), ",")
	query := `SELECT card_id FROM collection_entries WHERE user_id = ? AND card_id IN (` + placeholders + `)`

	args := make([]any, 0, len(cardIDs)+1)
	args = append(args, userID)
	for _, id := range cardIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check owned cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan owned card: %w", err)
		}
		owned[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owned cards: %w", err)
	}
	return owned, nil
}
