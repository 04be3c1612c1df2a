package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vocab-manager/internal/domain"
	"vocab-manager/internal/repository"
)

type ListRepository struct {
	db *sql.DB
}

func NewListRepository(db *sql.DB) repository.ListRepository {
	return &ListRepository{db: db}
}

func (r *ListRepository) Create(ctx context.Context, list *domain.VocabList) (int64, error) {
	now := time.Now().UTC()
	list.CreatedAt = now
	list.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	res, err := tx.ExecContext(ctx, `
INSERT INTO vocab_lists (user_id, name, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		list.OwnerID,
		list.Name,
		list.Description,
		list.CreatedAt,
		list.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert vocab list: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("vocab list last insert id: %w", err)
	}

	for i := range list.Columns {
		list.Columns[i].ListID = id
		if _, err := insertColumn(ctx, tx, &list.Columns[i]); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit vocab list: %w", err)
	}
	list.ID = id
	return id, nil
}

func (r *ListRepository) Get(ctx context.Context, id int64) (*domain.VocabList, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, name, description, created_at, updated_at
FROM vocab_lists
WHERE id=?`,
		id,
	)
	return scanList(row)
}

func (r *ListRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.VocabList, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, name, description, created_at, updated_at
FROM vocab_lists
WHERE user_id=?
ORDER BY id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query vocab lists: %w", err)
	}
	defer rows.Close()

	lists := []domain.VocabList{}
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, *list)
	}

	return lists, rows.Err()
}

func (r *ListRepository) Update(ctx context.Context, list *domain.VocabList) error {
	list.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE vocab_lists
SET name=?, description=?, updated_at=?
WHERE id=?`,
		list.Name,
		list.Description,
		list.UpdatedAt,
		list.ID,
	)
	if err != nil {
		return fmt.Errorf("update vocab list: %w", err)
	}
	return requireAffected(res, domain.ErrListNotFound)
}

func (r *ListRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := deleteListTx(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vocab list delete: %w", err)
	}
	return nil
}

func deleteListTx(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, `
DELETE FROM entry_field_values
WHERE entry_id IN (SELECT id FROM vocab_entries WHERE vocab_list_id=?)
   OR column_id IN (SELECT id FROM list_columns WHERE vocab_list_id=?)`, id, id); err != nil {
		return fmt.Errorf("delete field values: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vocab_entries WHERE vocab_list_id=?`, id); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM list_columns WHERE vocab_list_id=?`, id); err != nil {
		return fmt.Errorf("delete columns: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM vocab_lists WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete vocab list: %w", err)
	}
	return requireAffected(res, domain.ErrListNotFound)
}

func scanList(scanner interface {
	Scan(dest ...any) error
}) (*domain.VocabList, error) {
	var list domain.VocabList
	if err := scanner.Scan(
		&list.ID,
		&list.OwnerID,
		&list.Name,
		&list.Description,
		&list.CreatedAt,
		&list.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrListNotFound
		}
		return nil, fmt.Errorf("scan vocab list: %w", err)
	}
	return &list, nil
}
