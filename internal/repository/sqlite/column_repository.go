package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vocab-manager/internal/domain"
	"vocab-manager/internal/repository"
)

type ColumnRepository struct {
	db *sql.DB
}

func NewColumnRepository(db *sql.DB) repository.ColumnRepository {
	return &ColumnRepository{db: db}
}

func (r *ColumnRepository) Add(ctx context.Context, column *domain.ListColumn, position *int) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	exists, err := countRows(ctx, tx, `SELECT COUNT(*) FROM vocab_lists WHERE id=?`, column.ListID)
	if err != nil {
		return 0, fmt.Errorf("check vocab list: %w", err)
	}
	if exists == 0 {
		return 0, domain.ErrListNotFound
	}

	if position != nil {
		column.Position = *position
	} else {
		n, err := countRows(ctx, tx, `SELECT COUNT(*) FROM list_columns WHERE vocab_list_id=?`, column.ListID)
		if err != nil {
			return 0, fmt.Errorf("count columns: %w", err)
		}
		column.Position = n
	}

	id, err := insertColumn(ctx, tx, column)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit column: %w", err)
	}
	return id, nil
}

func (r *ColumnRepository) Get(ctx context.Context, id int64) (*domain.ListColumn, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, vocab_list_id, name, column_type, position, language_code, is_primary
FROM list_columns
WHERE id=?`, id)
	return scanColumn(row)
}

func (r *ColumnRepository) ListByList(ctx context.Context, listID int64) ([]domain.ListColumn, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, vocab_list_id, name, column_type, position, language_code, is_primary
FROM list_columns
WHERE vocab_list_id=?
ORDER BY position ASC, id ASC`, listID)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := []domain.ListColumn{}
	for rows.Next() {
		column, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		columns = append(columns, *column)
	}

	return columns, rows.Err()
}

func (r *ColumnRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_field_values WHERE column_id=?`, id); err != nil {
		return fmt.Errorf("delete column values: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM list_columns WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete column: %w", err)
	}
	if err := requireAffected(res, domain.ErrColumnNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit column delete: %w", err)
	}
	return nil
}

func insertColumn(ctx context.Context, q querier, column *domain.ListColumn) (int64, error) {
	columnType := column.ColumnType
	if columnType == "" {
		columnType = domain.ColumnTypeCustom
	}
	res, err := q.ExecContext(ctx, `
INSERT INTO list_columns (vocab_list_id, name, column_type, position, language_code, is_primary)
VALUES (?, ?, ?, ?, ?, ?)`,
		column.ListID,
		column.Name,
		columnType,
		column.Position,
		column.LanguageCode,
		column.IsPrimary,
	)
	if err != nil {
		return 0, fmt.Errorf("insert column: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("column last insert id: %w", err)
	}
	column.ID = id
	column.ColumnType = columnType
	return id, nil
}

func scanColumn(scanner interface {
	Scan(dest ...any) error
}) (*domain.ListColumn, error) {
	var column domain.ListColumn
	if err := scanner.Scan(
		&column.ID,
		&column.ListID,
		&column.Name,
		&column.ColumnType,
		&column.Position,
		&column.LanguageCode,
		&column.IsPrimary,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrColumnNotFound
		}
		return nil, fmt.Errorf("scan column: %w", err)
	}
	return &column, nil
}
