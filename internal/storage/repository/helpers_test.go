package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// setupTestDB creates an in-memory database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE cards (
			id TEXT PRIMARY KEY,
			scryfall_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			type_line TEXT NOT NULL DEFAULT '',
			rarity TEXT NOT NULL DEFAULT '',
			set_code TEXT NOT NULL DEFAULT '',
			set_name TEXT NOT NULL DEFAULT '',
			oracle_text TEXT NOT NULL DEFAULT '',
			mana_cost TEXT,
			colors TEXT NOT NULL DEFAULT '[]',
			image_url TEXT NOT NULL DEFAULT '',
			price_usd TEXT,
			price_usd_foil TEXT,
			price_eur TEXT,
			price_tix TEXT,
			legalities TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE collection_entries (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			card_id TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK(quantity >= 1),
			notes TEXT NOT NULL DEFAULT '',
			acquired_date DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			UNIQUE(user_id, card_id)
		);

		CREATE TABLE decks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			format TEXT NOT NULL DEFAULT '',
			is_public INTEGER NOT NULL DEFAULT 0,
			custom_image_url TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE TABLE deck_entries (
			deck_id TEXT NOT NULL,
			card_id TEXT NOT NULL,
			board TEXT NOT NULL CHECK(board IN ('main', 'sideboard')),
			quantity INTEGER NOT NULL CHECK(quantity >= 1),
			owned INTEGER NOT NULL DEFAULT 0,
			tag TEXT,
			position INTEGER NOT NULL,
			FOREIGN KEY (deck_id) REFERENCES decks(id) ON DELETE CASCADE,
			PRIMARY KEY (deck_id, card_id, board)
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func createTestUser(t *testing.T, db *sql.DB, id string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createTestCard(t *testing.T, db *sql.DB, id, name, set string, colors []string) *models.Card {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	card := &models.Card{
		ID:         id,
		ScryfallID: "sf-" + id,
		Name:       name,
		TypeLine:   "Instant",
		Rarity:     "common",
		SetCode:    set,
		SetName:    set + " set",
		ManaCost:   strPtr("{1}{U}"),
		Colors:     colors,
		Prices:     models.Prices{USD: strPtr("0.25")},
		Legalities: map[string]string{"standard": "legal"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := NewCardRepository(db).Create(context.Background(), card); err != nil {
		t.Fatalf("failed to create card: %v", err)
	}
	return card
}
