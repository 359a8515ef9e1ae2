package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lanting-project/lanting-api/internal/models"
)

// CommentRepository persists archive comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository constructs the repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment and fills its generated fields.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	now := time.Now().UTC()
	const query = `INSERT INTO comments (archive_id, nickname, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
RETURNING id`
	if err := r.db.GetContext(ctx, &comment.ID, query, comment.ArchiveID, comment.Nickname, comment.Content, now); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	comment.CreatedAt = now
	comment.UpdatedAt = now
	return nil
}

// ListByArchive returns an archive's comments, oldest first.
func (r *CommentRepository) ListByArchive(ctx context.Context, archiveID int64) ([]models.Comment, error) {
	const query = `SELECT id, archive_id, nickname, content, created_at, updated_at
FROM comments
WHERE archive_id = $1
ORDER BY id ASC`
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, archiveID); err != nil {
		return nil, fmt.Errorf("list comments for archive %d: %w", archiveID, err)
	}
	return comments, nil
}

// GetByID fetches one comment; nil when it does not exist.
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	const query = `SELECT id, archive_id, nickname, content, created_at, updated_at FROM comments WHERE id = $1`
	var comment models.Comment
	if err := r.db.GetContext(ctx, &comment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return &comment, nil
}

// UpdateContent replaces a comment's content.
func (r *CommentRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	const query = `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update comment %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
