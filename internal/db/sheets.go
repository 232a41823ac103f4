package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mekoros/sourcesheet-ocr-service/internal/models"
)

// Sheet is a stored upload with its detection results.
type Sheet struct {
	ID        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	ImagePath string    `json:"image_path"`
	RawText   string    `json:"raw_text"`
	CreatedAt time.Time `json:"created_at"`
}

// SheetSource is one detected region persisted with its parent sheet.
type SheetSource struct {
	ID       uuid.UUID `json:"id"`
	SheetID  uuid.UUID `json:"sheet_id"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Text     string    `json:"text"`
	Title    *string   `json:"title"`
	Language string    `json:"language"`
}

// SaveSheet stores an analyzed sheet and its regions in one transaction.
func SaveSheet(ctx context.Context, sheet *Sheet, regions []models.SourceRegion) error {
	tx, err := Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO sheets (filename, image_path, raw_text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, sheet.Filename, sheet.ImagePath, sheet.RawText).Scan(&sheet.ID, &sheet.CreatedAt)
	if err != nil {
		return err
	}

	for _, r := range regions {
		_, err = tx.Exec(ctx, `
			INSERT INTO sheet_sources (sheet_id, x, y, width, height, text, title, language)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, sheet.ID, r.Box.X, r.Box.Y, r.Box.Width, r.Box.Height, r.Text, r.Title, string(r.Language))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetSheets returns the most recently uploaded sheets.
func GetSheets(ctx context.Context, limit int) ([]Sheet, error) {
	rows, err := Pool.Query(ctx, `
		SELECT id, COALESCE(filename, ''), COALESCE(image_path, ''), COALESCE(raw_text, ''), created_at
		FROM sheets
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheets []Sheet
	for rows.Next() {
		var s Sheet
		if err := rows.Scan(&s.ID, &s.Filename, &s.ImagePath, &s.RawText, &s.CreatedAt); err != nil {
			return nil, err
		}
		sheets = append(sheets, s)
	}
	return sheets, rows.Err()
}

// GetSheetByID retrieves one sheet and its stored sources.
func GetSheetByID(ctx context.Context, sheetID string) (*Sheet, []SheetSource, error) {
	var s Sheet
	err := Pool.QueryRow(ctx, `
		SELECT id, COALESCE(filename, ''), COALESCE(image_path, ''), COALESCE(raw_text, ''), created_at
		FROM sheets
		WHERE id = $1::uuid
	`, sheetID).Scan(&s.ID, &s.Filename, &s.ImagePath, &s.RawText, &s.CreatedAt)
	if err != nil {
		return nil, nil, err
	}

	rows, err := Pool.Query(ctx, `
		SELECT id, sheet_id, x, y, width, height, COALESCE(text, ''), title, COALESCE(language, 'english')
		FROM sheet_sources
		WHERE sheet_id = $1::uuid
		ORDER BY y, x
	`, sheetID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var sources []SheetSource
	for rows.Next() {
		var src SheetSource
		if err := rows.Scan(&src.ID, &src.SheetID, &src.X, &src.Y, &src.Width, &src.Height,
			&src.Text, &src.Title, &src.Language); err != nil {
			return nil, nil, err
		}
		sources = append(sources, src)
	}
	return &s, sources, rows.Err()
}

// DeleteSheet removes a sheet and its sources.
func DeleteSheet(ctx context.Context, sheetID string) error {
	if _, err := Pool.Exec(ctx, `DELETE FROM sheet_sources WHERE sheet_id = $1::uuid`, sheetID); err != nil {
		return err
	}
	_, err := Pool.Exec(ctx, `DELETE FROM sheets WHERE id = $1::uuid`, sheetID)
	return err
}
