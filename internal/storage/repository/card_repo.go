package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// CardRepository handles database operations for the shared card catalog.
type CardRepository interface {
	// Create inserts a new card.
	Create(ctx context.Context, card *models.Card) error

	// UpdatePrices replaces a card's prices and legalities.
	UpdatePrices(ctx context.Context, card *models.Card) error

	// GetByID retrieves a card by internal ID. Returns nil if not found.
	GetByID(ctx context.Context, id string) (*models.Card, error)

	// GetByScryfallID retrieves a card by its provider ID. Returns nil if not found.
	GetByScryfallID(ctx context.Context, scryfallID string) (*models.Card, error)

	// GetByIDs retrieves cards keyed by internal ID. Unknown IDs are absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Card, error)

	// FindExact retrieves a card by case-insensitive exact name and set code. Returns nil if not found.
	FindExact(ctx context.Context, name, setCode string) (*models.Card, error)

	// FindByName retrieves the most recently imported printing with the
	// case-insensitive exact name. Returns nil if not found.
	FindByName(ctx context.Context, name string) (*models.Card, error)

	// Search returns one page of cards matching the filter and the total match count.
	Search(ctx context.Context, filter models.CardFilter) ([]*models.Card, int, error)
}

type cardRepository struct {
	db DBTX
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db DBTX) CardRepository {
	return &cardRepository{db: db}
}

// cardColumns lists the card columns in scan order for the given table alias.
func cardColumns(alias string) string {
	cols := []string{
		"id", "scryfall_id", "name", "type_line", "rarity", "set_code", "set_name",
		"oracle_text", "mana_cost", "colors", "image_url", "price_usd", "price_usd_foil",
		"price_eur", "price_tix", "legalities", "created_at", "updated_at",
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// cardRow scans card columns that may all be NULL when read through a LEFT JOIN.
type cardRow struct {
	id, scryfallID, name, typeLine, rarity, setCode, setName, oracleText   sql.NullString
	manaCost, colors, imageURL, priceUSD, priceUSDFoil, priceEUR, priceTix sql.NullString
	legalities                                                             sql.NullString
	createdAt, updatedAt                                                   sql.NullTime
}

func (r *cardRow) dest() []any {
	return []any{
		&r.id, &r.scryfallID, &r.name, &r.typeLine, &r.rarity, &r.setCode, &r.setName,
		&r.oracleText, &r.manaCost, &r.colors, &r.imageURL, &r.priceUSD, &r.priceUSDFoil,
		&r.priceEUR, &r.priceTix, &r.legalities, &r.createdAt, &r.updatedAt,
	}
}

// toModel returns nil when the joined card row is absent.
func (r *cardRow) toModel() (*models.Card, error) {
	if !r.id.Valid {
		return nil, nil
	}

	card := &models.Card{
		ID:         r.id.String,
		ScryfallID: r.scryfallID.String,
		Name:       r.name.String,
		TypeLine:   r.typeLine.String,
		Rarity:     r.rarity.String,
		SetCode:    r.setCode.String,
		SetName:    r.setName.String,
		OracleText: r.oracleText.String,
		ManaCost:   nullStringPtr(r.manaCost),
		ImageURL:   r.imageURL.String,
		Prices: models.Prices{
			USD:     nullStringPtr(r.priceUSD),
			USDFoil: nullStringPtr(r.priceUSDFoil),
			EUR:     nullStringPtr(r.priceEUR),
			Tix:     nullStringPtr(r.priceTix),
		},
		CreatedAt: r.createdAt.Time,
		UpdatedAt: r.updatedAt.Time,
	}

	card.Colors = []string{}
	if r.colors.Valid && r.colors.String != "" {
		if err := json.Unmarshal([]byte(r.colors.String), &card.Colors); err != nil {
			return nil, fmt.Errorf("failed to decode colors for card %s: %w", card.ID, err)
		}
	}

	card.Legalities = map[string]string{}
	if r.legalities.Valid && r.legalities.String != "" {
		if err := json.Unmarshal([]byte(r.legalities.String), &card.Legalities); err != nil {
			return nil, fmt.Errorf("failed to decode legalities for card %s: %w", card.ID, err)
		}
	}

	return card, nil
}

func scanCard(s rowScanner) (*models.Card, error) {
	var row cardRow
	if err := s.Scan(row.dest()...); err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	colors, legalities, err := encodeCardJSON(card)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cards (
			id, scryfall_id, name, type_line, rarity, set_code, set_name,
			oracle_text, mana_cost, colors, image_url, price_usd, price_usd_foil,
			price_eur, price_tix, legalities, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		card.ID,
		card.ScryfallID,
		card.Name,
		card.TypeLine,
		card.Rarity,
		card.SetCode,
		card.SetName,
		card.OracleText,
		card.ManaCost,
		colors,
		card.ImageURL,
		card.Prices.USD,
		card.Prices.USDFoil,
		card.Prices.EUR,
		card.Prices.Tix,
		legalities,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

func (r *cardRepository) UpdatePrices(ctx context.Context, card *models.Card) error {
	_, legalities, err := encodeCardJSON(card)
	if err != nil {
		return err
	}

	query := `
		UPDATE cards SET
			price_usd = ?, price_usd_foil = ?, price_eur = ?, price_tix = ?,
			legalities = ?, updated_at = ?
		WHERE id = ?
	`

	_, err = r.db.ExecContext(ctx, query,
		card.Prices.USD,
		card.Prices.USDFoil,
		card.Prices.EUR,
		card.Prices.Tix,
		legalities,
		card.UpdatedAt,
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card prices: %w", err)
	}
	return nil
}

func (r *cardRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	query := `SELECT ` + cardColumns("c") + ` FROM cards c WHERE c.id = ?`
	return r.getOne(ctx, query, id)
}

func (r *cardRepository) GetByScryfallID(ctx context.Context, scryfallID string) (*models.Card, error) {
	query := `SELECT ` + cardColumns("c") + ` FROM cards c WHERE c.scryfall_id = ?`
	return r.getOne(ctx, query, scryfallID)
}

func (r *cardRepository) FindExact(ctx context.Context, name, setCode string) (*models.Card, error) {
	query := `SELECT ` + cardColumns("c") + ` FROM cards c
		WHERE c.name = ? COLLATE NOCASE AND c.set_code = ? COLLATE NOCASE
		LIMIT 1`
	return r.getOne(ctx, query, name, setCode)
}

func (r *cardRepository) FindByName(ctx context.Context, name string) (*models.Card, error) {
	query := `SELECT ` + cardColumns("c") + ` FROM cards c
		WHERE c.name = ? COLLATE NOCASE
		ORDER BY c.created_at DESC, c.rowid DESC
		LIMIT 1`
	return r.getOne(ctx, query, name)
}

func (r *cardRepository) getOne(ctx context.Context, query string, args ...any) (*models.Card, error) {
	card, err := scanCard(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

func (r *cardRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Card, error) {
	result := make(map[string]*models.Card, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT ` + cardColumns("c") + ` FROM cards c WHERE c.id IN (` + placeholders + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		result[card.ID] = card
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}
	return result, nil
}

func (r *cardRepository) Search(ctx context.Context, filter models.CardFilter) ([]*models.Card, int, error) {
	where, args := cardFilterClause("c", filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM cards c WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cards: %w", err)
	}

	query := `SELECT ` + cardColumns("c") + ` FROM cards c WHERE ` + where +
		` ORDER BY c.name COLLATE NOCASE, c.set_code`
	pageArgs := append([]any{}, args...)
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		pageArgs = append(pageArgs, filter.Limit, filter.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cards := []*models.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating cards: %w", err)
	}

	return cards, total, nil
}

// cardFilterClause builds a WHERE clause over the card table alias.
// Colours are stored as a JSON array and matched with json_each.
func cardFilterClause(alias string, f models.CardFilter) (string, []any) {
	conds := []string{"1 = 1"}
	var args []any

	if f.Name != "" {
		conds = append(conds, alias+`.name LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Name))
	}
	if f.TypeLine != "" {
		conds = append(conds, alias+`.type_line LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.TypeLine))
	}
	if f.Rarity != "" {
		conds = append(conds, alias+`.rarity = ? COLLATE NOCASE`)
		args = append(args, f.Rarity)
	}
	if f.SetCode != "" {
		conds = append(conds, alias+`.set_code = ? COLLATE NOCASE`)
		args = append(args, f.SetCode)
	}

	switch {
	case f.Colorless:
		conds = append(conds, `json_array_length(`+alias+`.colors) = 0`)
	case len(f.Colors) > 0 && f.MatchAny:
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Colors)), ",")
		conds = append(conds, `EXISTS (SELECT 1 FROM json_each(`+alias+`.colors) WHERE value IN (`+placeholders+`))`)
		for _, c := range f.Colors {
			args = append(args, strings.ToUpper(c))
		}
	case len(f.Colors) > 0:
		for _, c := range f.Colors {
			conds = append(conds, `EXISTS (SELECT 1 FROM json_each(`+alias+`.colors) WHERE value = ?)`)
			args = append(args, strings.ToUpper(c))
		}
	}

	return strings.Join(conds, " AND "), args
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func encodeCardJSON(card *models.Card) (string, string, error) {
	colors := card.Colors
	if colors == nil {
		colors = []string{}
	}
	colorsJSON, err := json.Marshal(colors)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode colors: %w", err)
	}

	legalities := card.Legalities
	if legalities == nil {
		legalities = map[string]string{}
	}
	legalitiesJSON, err := json.Marshal(legalities)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode legalities: %w", err)
	}

	return string(colorsJSON), string(legalitiesJSON), nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
