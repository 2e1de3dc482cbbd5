package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

func TestService_InTxCommits(t *testing.T) {
	svc := NewTestService(t)
	ctx := context.Background()

	err := svc.InTx(ctx, func(r *Repos) error {
		return r.Users.Create(ctx, &models.User{ID: "u1", Email: "a@example.com", PasswordHash: "x", CreatedAt: time.Now()})
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}

	user, err := svc.Repos().Users.GetByID(ctx, "u1")
	if err != nil || user == nil {
		t.Fatalf("committed user not found: %v, %v", user, err)
	}
}

func TestService_InTxRollsBackOnError(t *testing.T) {
	svc := NewTestService(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := svc.InTx(ctx, func(r *Repos) error {
		if err := r.Users.Create(ctx, &models.User{ID: "u1", Email: "a@example.com", PasswordHash: "x", CreatedAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}

	user, err := svc.Repos().Users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if user != nil {
		t.Error("expected rollback to discard the user")
	}
}

func TestService_InTxRollsBackOnPanic(t *testing.T) {
	svc := NewTestService(t)
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = svc.InTx(ctx, func(r *Repos) error {
			_ = r.Users.Create(ctx, &models.User{ID: "u1", Email: "a@example.com", PasswordHash: "x", CreatedAt: time.Now()})
			panic("boom")
		})
	}()

	user, _ := svc.Repos().Users.GetByID(ctx, "u1")
	if user != nil {
		t.Error("expected rollback after panic")
	}
}

func TestService_MigratedSchemaRoundTrip(t *testing.T) {
	svc := NewTestService(t)
	ctx := context.Background()
	repos := svc.Repos()
	now := time.Now().UTC().Truncate(time.Second)

	if err := repos.Users.Create(ctx, &models.User{ID: "u1", Email: "a@example.com", PasswordHash: "x", CreatedAt: now}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	card := &models.Card{
		ID: "c1", ScryfallID: "sf1", Name: "Opt", Colors: []string{"U"},
		CreatedAt: now, UpdatedAt: now,
	}
	if err := repos.Cards.Create(ctx, card); err != nil {
		t.Fatalf("create card: %v", err)
	}
	deck := &models.Deck{ID: "d1", UserID: "u1", Name: "Mono U", CreatedAt: now, UpdatedAt: now}
	if err := repos.Decks.Create(ctx, deck); err != nil {
		t.Fatalf("create deck: %v", err)
	}
	if err := repos.Decks.InsertEntry(ctx, &models.DeckEntry{DeckID: "d1", CardID: "c1", Board: models.BoardMain, Quantity: 4, Owned: true}); err != nil {
		t.Fatalf("insert entry: %v", err)
	}

	entries, err := repos.Decks.GetEntries(ctx, "d1", models.BoardMain)
	if err != nil {
		t.Fatalf("get entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Card == nil || entries[0].Card.Name != "Opt" || !entries[0].Owned {
		t.Errorf("unexpected entries: %+v", entries)
	}
	if !entries[0].Card.CreatedAt.Equal(now) {
		t.Errorf("card CreatedAt = %v, want %v", entries[0].Card.CreatedAt, now)
	}
}
