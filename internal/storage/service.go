package storage

import (
	"context"
	"database/sql"

	"github.com/ramonehamilton/bulkbuddy/internal/storage/repository"
)

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Users      repository.UserRepository
	Cards      repository.CardRepository
	Collection repository.CollectionRepository
	Decks      repository.DeckRepository
}

// NewRepos binds every repository to db, which may be a pool or a transaction.
func NewRepos(db repository.DBTX) *Repos {
	return &Repos{
		Users:      repository.NewUserRepository(db),
		Cards:      repository.NewCardRepository(db),
		Collection: repository.NewCollectionRepository(db),
		Decks:      repository.NewDeckRepository(db),
	}
}

// Service provides repository access on the connection pool and inside transactions.
type Service struct {
	db    *DB
	repos *Repos
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:    db,
		repos: NewRepos(db.Conn()),
	}
}

// Repos returns repositories that run each statement on the pool.
func (s *Service) Repos() *Repos {
	return s.repos
}

// InTx runs fn with repositories bound to a single transaction.
// The transaction commits if fn returns nil and rolls back otherwise.
func (s *Service) InTx(ctx context.Context, fn func(r *Repos) error) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(NewRepos(tx))
	})
}

// Ping verifies the database is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}

// DB returns the underlying database, for backups.
func (s *Service) DB() *DB {
	return s.db
}
