package postgresql

import (
	"context"
	"fmt"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/database"
)

// RowStore reads the imported attendance sheet mirror. Rows are stored
// uninterpreted (one text array per sheet row) with the original header row
// kept separately, so column positions are resolved by header-name lookup at
// read time exactly as the sheet consumers did.
type RowStore interface {
	// Headers returns the sheet's header row.
	Headers(ctx context.Context) ([]string, error)

	// ReadChunk returns up to limit rows starting at offset, in sheet
	// order. An empty result means the end of the dataset.
	ReadChunk(ctx context.Context, offset, limit int) ([][]string, error)
}

type rowStoreImpl struct {
	db *database.DB
}

func NewRowStore(db *database.DB) RowStore {
	return &rowStoreImpl{db: db}
}

func (r *rowStoreImpl) Headers(ctx context.Context) ([]string, error) {
	var headers []string
	err := r.db.QueryRow(ctx, `
		SELECT headers
		FROM attendance_sheets
		WHERE name = 'AttendanceLog'
	`).Scan(&headers)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet headers: %w", err)
	}
	return headers, nil
}

func (r *rowStoreImpl) ReadChunk(ctx context.Context, offset, limit int) ([][]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT cells
		FROM attendance_raw_rows
		WHERE sheet_name = 'AttendanceLog'
		ORDER BY row_index ASC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var cells []string
		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("failed to scan raw row: %w", err)
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate raw rows: %w", err)
	}
	return out, nil
}
