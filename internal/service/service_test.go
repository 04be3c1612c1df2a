package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vocab-manager/internal/auth"
	"vocab-manager/internal/repository/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqlite.Migrate(context.Background(), db, nil))
	return db
}

func newUserService(db *sql.DB) UserService {
	return NewUserService(sqlite.NewUserRepository(db), auth.NewPasswordHasher(bcrypt.MinCost))
}

func newVocabService(db *sql.DB) VocabService {
	return NewVocabService(
		sqlite.NewListRepository(db),
		sqlite.NewColumnRepository(db),
		sqlite.NewEntryRepository(db),
	)
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
