package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lanting-project/lanting-api/internal/models"
)

// PendingRepository reads pending origs produced by the mail-ingestion
// pipeline. Rows are created out-of-band; this side only reads them and
// transitions their status.
type PendingRepository struct {
	db *sqlx.DB
}

// NewPendingRepository constructs the repository.
func NewPendingRepository(db *sqlx.DB) *PendingRepository {
	return &PendingRepository{db: db}
}

// FindClaimable returns the pending orig only when it is still pending and
// its sender is whitelisted for the user. A missing row and an unauthorized
// row are indistinguishable to the caller.
func (r *PendingRepository) FindClaimable(ctx context.Context, id, userID int64) (*models.PendingArchiveOrig, error) {
	const query = `SELECT p.id, p.sender_email, p.message_id, p.subject, p.original_filename, p.storage_url, p.file_type, p.status, p.created_at, p.updated_at
FROM pending_archive_origs p
WHERE p.id = $1
	AND p.status = $2
	AND p.sender_email IN (SELECT email FROM email_whitelists WHERE user_id = $3)`
	var pending models.PendingArchiveOrig
	if err := r.db.GetContext(ctx, &pending, query, id, models.PendingStatusPending, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find claimable pending orig %d: %w", id, err)
	}
	return &pending, nil
}

// ListForUser returns pending origs whose sender is whitelisted for the user,
// optionally filtered by status, newest first.
func (r *PendingRepository) ListForUser(ctx context.Context, userID int64, status string) ([]models.PendingArchiveOrig, error) {
	query := `SELECT p.id, p.sender_email, p.message_id, p.subject, p.original_filename, p.storage_url, p.file_type, p.status, p.created_at, p.updated_at
FROM pending_archive_origs p
WHERE p.sender_email IN (SELECT email FROM email_whitelists WHERE user_id = $1)`
	args := []interface{}{userID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	query += " ORDER BY p.id DESC"

	var items []models.PendingArchiveOrig
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list pending origs for user %d: %w", userID, err)
	}
	return items, nil
}
