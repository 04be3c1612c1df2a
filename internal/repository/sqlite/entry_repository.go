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

type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) repository.EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Create(ctx context.Context, entry *domain.VocabEntry, position *int) (int64, error) {
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	exists, err := countRows(ctx, tx, `SELECT COUNT(*) FROM vocab_lists WHERE id=?`, entry.ListID)
	if err != nil {
		return 0, fmt.Errorf("check vocab list: %w", err)
	}
	if exists == 0 {
		return 0, domain.ErrListNotFound
	}

	if position != nil {
		if err := checkPosition(*position); err != nil {
			return 0, err
		}
		entry.Position = *position
	} else {
		n, err := countRows(ctx, tx, `SELECT COUNT(*) FROM vocab_entries WHERE vocab_list_id=?`, entry.ListID)
		if err != nil {
			return 0, fmt.Errorf("count entries: %w", err)
		}
		entry.Position = n
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO vocab_entries (vocab_list_id, position, created_at, updated_at)
VALUES (?, ?, ?, ?)`,
		entry.ListID,
		entry.Position,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry last insert id: %w", err)
	}

	if err := insertValues(ctx, tx, id, entry.ListID, entry.Values); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit entry: %w", err)
	}
	entry.ID = id
	return id, nil
}

func (r *EntryRepository) Get(ctx context.Context, id int64) (*domain.VocabEntry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, vocab_list_id, position, created_at, updated_at
FROM vocab_entries
WHERE id=?`, id)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, err
	}

	values, err := r.queryValues(ctx, `
SELECT id, entry_id, column_id, value
FROM entry_field_values
WHERE entry_id=?
ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	entry.Values = values[id]
	if entry.Values == nil {
		entry.Values = []domain.EntryFieldValue{}
	}
	return entry, nil
}

func (r *EntryRepository) ListByList(ctx context.Context, listID int64) ([]domain.VocabEntry, error) {
	entries, err := r.queryEntries(ctx, `
SELECT id, vocab_list_id, position, created_at, updated_at
FROM vocab_entries
WHERE vocab_list_id=?
ORDER BY position ASC, id ASC`, listID)
	if err != nil {
		return nil, err
	}

	values, err := r.queryValues(ctx, `
SELECT v.id, v.entry_id, v.column_id, v.value
FROM entry_field_values v
JOIN vocab_entries e ON e.id = v.entry_id
WHERE e.vocab_list_id=?
ORDER BY v.id ASC`, listID)
	if err != nil {
		return nil, err
	}
	return attachValues(entries, values), nil
}

func (r *EntryRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.VocabEntry, error) {
	entries, err := r.queryEntries(ctx, `
SELECT e.id, e.vocab_list_id, e.position, e.created_at, e.updated_at
FROM vocab_entries e
JOIN vocab_lists l ON l.id = e.vocab_list_id
WHERE l.user_id=?
ORDER BY e.vocab_list_id ASC, e.position ASC, e.id ASC`, ownerID)
	if err != nil {
		return nil, err
	}

	values, err := r.queryValues(ctx, `
SELECT v.id, v.entry_id, v.column_id, v.value
FROM entry_field_values v
JOIN vocab_entries e ON e.id = v.entry_id
JOIN vocab_lists l ON l.id = e.vocab_list_id
WHERE l.user_id=?
ORDER BY v.id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	return attachValues(entries, values), nil
}

// Update writes values and moves the entry in one transaction.
func (r *EntryRepository) Update(ctx context.Context, id int64, upd repository.EntryUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	listID, err := entryListID(ctx, tx, id)
	if err != nil {
		return err
	}

	if upd.Replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entry_field_values WHERE entry_id=?`, id); err != nil {
			return fmt.Errorf("delete field values: %w", err)
		}
	}
	for i := range upd.Values {
		if upd.Replace {
			err = insertValue(ctx, tx, id, listID, &upd.Values[i])
		} else {
			err = upsertValue(ctx, tx, id, listID, &upd.Values[i])
		}
		if err != nil {
			return err
		}
	}

	if upd.Position != nil {
		if err := checkPosition(*upd.Position); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE vocab_entries SET position=? WHERE id=?`, *upd.Position, id); err != nil {
			return fmt.Errorf("update entry position: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE vocab_entries SET updated_at=? WHERE id=?`, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("touch entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *EntryRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_field_values WHERE entry_id=?`, id); err != nil {
		return fmt.Errorf("delete field values: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM vocab_entries WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if err := requireAffected(res, domain.ErrEntryNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entry delete: %w", err)
	}
	return nil
}

func (r *EntryRepository) AddValue(ctx context.Context, value *domain.EntryFieldValue) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	listID, err := entryListID(ctx, tx, value.EntryID)
	if err != nil {
		return 0, err
	}
	if err := insertValue(ctx, tx, value.EntryID, listID, value); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit field value: %w", err)
	}
	return value.ID, nil
}

func (r *EntryRepository) GetValue(ctx context.Context, id int64) (*domain.EntryFieldValue, error) {
	var value domain.EntryFieldValue
	err := r.db.QueryRowContext(ctx, `
SELECT id, entry_id, column_id, value
FROM entry_field_values
WHERE id=?`, id).Scan(&value.ID, &value.EntryID, &value.ColumnID, &value.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFieldValueNotFound
		}
		return nil, fmt.Errorf("scan field value: %w", err)
	}
	return &value, nil
}

func (r *EntryRepository) UpdateValue(ctx context.Context, value *domain.EntryFieldValue) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	listID, err := entryListID(ctx, tx, value.EntryID)
	if err != nil {
		return err
	}
	if err := resolveColumn(ctx, tx, listID, value); err != nil {
		return err
	}
	if err := checkColumn(ctx, tx, value.ColumnID, listID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
UPDATE entry_field_values
SET column_id=?, value=?
WHERE id=?`,
		value.ColumnID,
		value.Value,
		value.ID,
	)
	if err != nil {
		return fmt.Errorf("update field value: %w", err)
	}
	if err := requireAffected(res, domain.ErrFieldValueNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit field value: %w", err)
	}
	return nil
}

func (r *EntryRepository) DeleteValue(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entry_field_values WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete field value: %w", err)
	}
	return requireAffected(res, domain.ErrFieldValueNotFound)
}

func (r *EntryRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.VocabEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.VocabEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (r *EntryRepository) queryValues(ctx context.Context, query string, args ...any) (map[int64][]domain.EntryFieldValue, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query field values: %w", err)
	}
	defer rows.Close()

	byEntry := make(map[int64][]domain.EntryFieldValue)
	for rows.Next() {
		var value domain.EntryFieldValue
		if err := rows.Scan(&value.ID, &value.EntryID, &value.ColumnID, &value.Value); err != nil {
			return nil, fmt.Errorf("scan field value: %w", err)
		}
		byEntry[value.EntryID] = append(byEntry[value.EntryID], value)
	}
	return byEntry, rows.Err()
}

func attachValues(entries []domain.VocabEntry, values map[int64][]domain.EntryFieldValue) []domain.VocabEntry {
	for i := range entries {
		entries[i].Values = values[entries[i].ID]
		if entries[i].Values == nil {
			entries[i].Values = []domain.EntryFieldValue{}
		}
	}
	return entries
}

// insertValues writes values for entryID, rejecting columns of other lists.
func insertValues(ctx context.Context, tx *sql.Tx, entryID, listID int64, values []domain.EntryFieldValue) error {
	for i := range values {
		if err := insertValue(ctx, tx, entryID, listID, &values[i]); err != nil {
			return err
		}
	}
	return nil
}

func insertValue(ctx context.Context, tx *sql.Tx, entryID, listID int64, value *domain.EntryFieldValue) error {
	if err := resolveColumn(ctx, tx, listID, value); err != nil {
		return err
	}
	if err := checkColumn(ctx, tx, value.ColumnID, listID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
INSERT INTO entry_field_values (entry_id, column_id, value)
VALUES (?, ?, ?)`,
		entryID,
		value.ColumnID,
		value.Value,
	)
	if err != nil {
		return fmt.Errorf("insert field value: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("field value last insert id: %w", err)
	}
	value.ID = id
	value.EntryID = entryID
	return nil
}

// upsertValue overwrites the entry's first value in the value's column.
func upsertValue(ctx context.Context, tx *sql.Tx, entryID, listID int64, value *domain.EntryFieldValue) error {
	if err := resolveColumn(ctx, tx, listID, value); err != nil {
		return err
	}

	var id int64
	err := tx.QueryRowContext(ctx, `
SELECT id FROM entry_field_values
WHERE entry_id=? AND column_id=?
ORDER BY id ASC
LIMIT 1`, entryID, value.ColumnID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return insertValue(ctx, tx, entryID, listID, value)
	}
	if err != nil {
		return fmt.Errorf("lookup field value: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE entry_field_values SET value=? WHERE id=?`, value.Value, id); err != nil {
		return fmt.Errorf("update field value: %w", err)
	}
	value.ID = id
	value.EntryID = entryID
	return nil
}

// resolveColumn points value at its Column, inserting a column that is not
// stored yet at the end of the list.
func resolveColumn(ctx context.Context, tx *sql.Tx, listID int64, value *domain.EntryFieldValue) error {
	if value.Column == nil {
		return nil
	}
	if value.Column.ID == 0 {
		n, err := countRows(ctx, tx, `SELECT COUNT(*) FROM list_columns WHERE vocab_list_id=?`, listID)
		if err != nil {
			return fmt.Errorf("count columns: %w", err)
		}
		value.Column.ListID = listID
		value.Column.Position = n
		if _, err := insertColumn(ctx, tx, value.Column); err != nil {
			return err
		}
	}
	value.ColumnID = value.Column.ID
	return nil
}

func entryListID(ctx context.Context, tx *sql.Tx, entryID int64) (int64, error) {
	var listID int64
	if err := tx.QueryRowContext(ctx, `SELECT vocab_list_id FROM vocab_entries WHERE id=?`, entryID).Scan(&listID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrEntryNotFound
		}
		return 0, fmt.Errorf("lookup entry: %w", err)
	}
	return listID, nil
}

func checkPosition(position int) error {
	if position < 0 {
		return fmt.Errorf("%w: position must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func checkColumn(ctx context.Context, tx *sql.Tx, columnID, listID int64) error {
	var owner int64
	err := tx.QueryRowContext(ctx, `SELECT vocab_list_id FROM list_columns WHERE id=?`, columnID).Scan(&owner)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup column: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) || owner != listID {
		return fmt.Errorf("%w: column %d does not belong to list %d", domain.ErrInvalidInput, columnID, listID)
	}
	return nil
}

func scanEntry(scanner interface {
	Scan(dest ...any) error
}) (*domain.VocabEntry, error) {
	var entry domain.VocabEntry
	if err := scanner.Scan(
		&entry.ID,
		&entry.ListID,
		&entry.Position,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	return &entry, nil
}
