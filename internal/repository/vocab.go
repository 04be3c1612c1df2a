package repository

import (
	"context"

	"vocab-manager/internal/domain"
)

// ListRepository exposes persistence operations for VocabList aggregates.
type ListRepository interface {
	// Create inserts the list together with list.Columns in one transaction.
	Create(ctx context.Context, list *domain.VocabList) (int64, error)
	Get(ctx context.Context, id int64) (*domain.VocabList, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.VocabList, error)
	Update(ctx context.Context, list *domain.VocabList) error
	// Delete removes the list with its columns, entries and field values.
	Delete(ctx context.Context, id int64) error
}

// ColumnRepository manages the column layout of lists.
type ColumnRepository interface {
	// Add appends the column at the end of the list when position is nil.
	Add(ctx context.Context, column *domain.ListColumn, position *int) (int64, error)
	Get(ctx context.Context, id int64) (*domain.ListColumn, error)
	ListByList(ctx context.Context, listID int64) ([]domain.ListColumn, error)
	Delete(ctx context.Context, id int64) error
}

// EntryUpdate is applied to one entry in a single transaction.
type EntryUpdate struct {
	// Replace deletes every existing value of the entry before Values are
	// written. Without it a value overwrites the entry's first value in the
	// same column, or is added when there is none.
	Replace  bool
	Values   []domain.EntryFieldValue
	Position *int
}

// EntryRepository manages entries and their field values. Values whose
// Column is not stored yet get the column created in the same transaction.
type EntryRepository interface {
	// Create appends the entry at the end of the list when position is nil
	// and inserts entry.Values.
	Create(ctx context.Context, entry *domain.VocabEntry, position *int) (int64, error)
	Get(ctx context.Context, id int64) (*domain.VocabEntry, error)
	ListByList(ctx context.Context, listID int64) ([]domain.VocabEntry, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.VocabEntry, error)
	Update(ctx context.Context, id int64, upd EntryUpdate) error
	Delete(ctx context.Context, id int64) error

	AddValue(ctx context.Context, value *domain.EntryFieldValue) (int64, error)
	GetValue(ctx context.Context, id int64) (*domain.EntryFieldValue, error)
	UpdateValue(ctx context.Context, value *domain.EntryFieldValue) error
	DeleteValue(ctx context.Context, id int64) error
}
