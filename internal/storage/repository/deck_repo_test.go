package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

func createTestDeck(t *testing.T, repo DeckRepository, id, userID string, public bool) *models.Deck {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	deck := &models.Deck{
		ID:          id,
		UserID:      userID,
		Name:        "Deck " + id,
		Description: "test deck",
		Format:      "Standard",
		IsPublic:    public,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(context.Background(), deck); err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	return deck
}

func TestDeckRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "u1")
	deck := createTestDeck(t, repo, "d1", "u1", true)

	got, err := repo.GetByID(ctx, "d1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil || got.Name != deck.Name || !got.IsPublic || got.CustomImageURL != nil {
		t.Errorf("unexpected deck: %+v", got)
	}

	missing, err := repo.GetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetByID(nope) = %v, %v", missing, err)
	}
}

func TestDeckRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "u1")
	deck := createTestDeck(t, repo, "d1", "u1", false)

	deck.Name = "Renamed"
	deck.IsPublic = true
	deck.CustomImageURL = strPtr("https://img.example/x.png")
	if err := repo.Update(ctx, deck); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := repo.GetByID(ctx, "d1")
	if got.Name != "Renamed" || !got.IsPublic || got.CustomImageURL == nil || *got.CustomImageURL != "https://img.example/x.png" {
		t.Errorf("unexpected deck after update: %+v", got)
	}
}

func TestDeckRepository_Lists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "u1")
	createTestUser(t, db, "u2")
	createTestDeck(t, repo, "d1", "u1", false)
	createTestDeck(t, repo, "d2", "u1", true)
	createTestDeck(t, repo, "d3", "u2", true)

	mine, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("ListByUser returned %d decks, want 2", len(mine))
	}

	public, err := repo.ListPublic(ctx)
	if err != nil {
		t.Fatalf("ListPublic failed: %v", err)
	}
	if len(public) != 2 {
		t.Errorf("ListPublic returned %d decks, want 2", len(public))
	}
}

func TestDeckRepository_Entries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "u1")
	createTestCard(t, db, "c1", "Opt", "xln", []string{"U"})
	createTestCard(t, db, "c2", "Shock", "m21", []string{"R"})
	createTestDeck(t, repo, "d1", "u1", false)

	entries := []*models.DeckEntry{
		{DeckID: "d1", CardID: "c2", Board: models.BoardMain, Quantity: 4, Owned: true},
		{DeckID: "d1", CardID: "c1", Board: models.BoardMain, Quantity: 2, Tag: strPtr("cantrip")},
		{DeckID: "d1", CardID: "c1", Board: models.BoardSideboard, Quantity: 3},
		{DeckID: "d1", CardID: "gone", Board: models.BoardMain, Quantity: 1},
	}
	for _, e := range entries {
		if err := repo.InsertEntry(ctx, e); err != nil {
			t.Fatalf("InsertEntry failed: %v", err)
		}
	}

	main, err := repo.GetEntries(ctx, "d1", models.BoardMain)
	if err != nil {
		t.Fatalf("GetEntries failed: %v", err)
	}
	if len(main) != 3 {
		t.Fatalf("got %d main entries, want 3", len(main))
	}
	if main[0].CardID != "c2" || main[1].CardID != "c1" || main[2].CardID != "gone" {
		t.Errorf("entries not in insertion order: %s, %s, %s", main[0].CardID, main[1].CardID, main[2].CardID)
	}
	if main[0].Card == nil || main[0].Card.Name != "Shock" || !main[0].Owned {
		t.Errorf("unexpected first entry: %+v", main[0])
	}
	if main[1].Tag == nil || *main[1].Tag != "cantrip" {
		t.Errorf("Tag = %v, want cantrip", main[1].Tag)
	}
	if main[2].Card != nil {
		t.Errorf("expected unresolved card for missing row, got %+v", main[2].Card)
	}

	side, err := repo.BoardQuantity(ctx, "d1", models.BoardSideboard)
	if err != nil || side != 3 {
		t.Errorf("BoardQuantity(sideboard) = %d, %v; want 3", side, err)
	}

	entry, err := repo.GetEntry(ctx, "d1", "c1", models.BoardMain)
	if err != nil || entry == nil {
		t.Fatalf("GetEntry = %v, %v", entry, err)
	}
	entry.Quantity = 3
	entry.Owned = true
	entry.Tag = nil
	if err := repo.UpdateEntry(ctx, entry); err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}
	entry, _ = repo.GetEntry(ctx, "d1", "c1", models.BoardMain)
	if entry.Quantity != 3 || !entry.Owned || entry.Tag != nil {
		t.Errorf("unexpected entry after update: %+v", entry)
	}

	removed, err := repo.DeleteEntry(ctx, "d1", "c1", models.BoardMain)
	if err != nil || !removed {
		t.Errorf("DeleteEntry = %v, %v; want true", removed, err)
	}
	removed, err = repo.DeleteEntry(ctx, "d1", "c1", models.BoardMain)
	if err != nil || removed {
		t.Errorf("second DeleteEntry = %v, %v; want false", removed, err)
	}

	if err := repo.ClearBoard(ctx, "d1", models.BoardMain); err != nil {
		t.Fatalf("ClearBoard failed: %v", err)
	}
	main, _ = repo.GetEntries(ctx, "d1", models.BoardMain)
	if len(main) != 0 {
		t.Errorf("expected empty main after clear, got %d", len(main))
	}
}

func TestDeckRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "u1")
	createTestDeck(t, repo, "d1", "u1", false)
	if err := repo.InsertEntry(ctx, &models.DeckEntry{DeckID: "d1", CardID: "c1", Board: models.BoardMain, Quantity: 1}); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}

	if err := repo.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM deck_entries`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected entries removed with deck, got %d", count)
	}
}

func TestDeckRepository_RunsInsideTransaction(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	createTestUser(t, db, "u1")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	createTestDeck(t, NewDeckRepository(tx), "d1", "u1", false)
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	got, err := NewDeckRepository(db).GetByID(ctx, "d1")
	if err != nil || got != nil {
		t.Errorf("rolled back deck still visible: %v, %v", got, err)
	}
}
