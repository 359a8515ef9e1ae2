package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lanting-project/lanting-api/internal/dto"
	"github.com/lanting-project/lanting-api/internal/models"
)

// OrigInsert describes one new content row destined for a slot position.
type OrigInsert struct {
	Position    int
	OriginalURL *string
	StorageURL  string
	FileType    *string
	StorageType string
}

// OrigMutation is the row-level outcome of reconciliation: which existing
// origs to drop and which new rows to insert.
type OrigMutation struct {
	DeleteIDs []int64
	Inserts   []OrigInsert
}

// DimensionUpdate carries requested relation changes. A nil pointer leaves the
// dimension untouched; a pointer to an empty slice (or empty string) clears it.
type DimensionUpdate struct {
	Authors   *[]string
	Tags      *[]string
	Publisher *string
	Date      *string
}

// ArchiveRepository persists archives, their content rows and dimension links.
type ArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository constructs the repository.
func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Create inserts the archive, its initial origs and dimension links in one
// transaction. Pending rows claimed during acquisition are marked consumed in
// the same transaction.
func (r *ArchiveRepository) Create(ctx context.Context, archive *models.Archive, inserts []OrigInsert, dims DimensionUpdate, consumedPendingIDs []int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const insertQuery = `INSERT INTO archives (title, chapter, remarks, likes, created_at, updated_at)
VALUES ($1, $2, $3, 0, $4, $4)
RETURNING id`
	if err = tx.GetContext(ctx, &archive.ID, insertQuery, archive.Title, archive.Chapter, archive.Remarks, now); err != nil {
		return fmt.Errorf("insert archive: %w", err)
	}
	archive.CreatedAt = now
	archive.UpdatedAt = now

	if err = insertOrigs(ctx, tx, archive.ID, inserts, now); err != nil {
		return err
	}
	if err = applyDimensions(ctx, tx, archive.ID, dims); err != nil {
		return err
	}
	if err = consumePending(ctx, tx, consumedPendingIDs, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit archive create: %w", err)
	}
	return nil
}

// Update applies metadata changes and the reconciliation mutation in one
// transaction, then compacts orig positions to stay dense and zero-based.
func (r *ArchiveRepository) Update(ctx context.Context, archive *models.Archive, mut OrigMutation, dims DimensionUpdate, consumedPendingIDs []int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const updateQuery = `UPDATE archives SET title = $2, chapter = $3, remarks = $4, updated_at = $5 WHERE id = $1`
	res, err := tx.ExecContext(ctx, updateQuery, archive.ID, archive.Title, archive.Chapter, archive.Remarks, now)
	if err != nil {
		return fmt.Errorf("update archive %d: %w", archive.ID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	archive.UpdatedAt = now

	if len(mut.DeleteIDs) > 0 {
		if _, err = tx.ExecContext(ctx, `DELETE FROM archive_origs WHERE archive_id = $1 AND id = ANY($2)`, archive.ID, pq.Array(mut.DeleteIDs)); err != nil {
			return fmt.Errorf("delete origs for archive %d: %w", archive.ID, err)
		}
	}
	if err = insertOrigs(ctx, tx, archive.ID, mut.Inserts, now); err != nil {
		return err
	}
	if err = compactPositions(ctx, tx, archive.ID); err != nil {
		return err
	}
	if err = applyDimensions(ctx, tx, archive.ID, dims); err != nil {
		return err
	}
	if err = consumePending(ctx, tx, consumedPendingIDs, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit archive update: %w", err)
	}
	return nil
}

func insertOrigs(ctx context.Context, tx *sqlx.Tx, archiveID int64, inserts []OrigInsert, now time.Time) error {
	const query = `INSERT INTO archive_origs (archive_id, position, original_url, storage_url, file_type, storage_type, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	for _, in := range inserts {
		if _, err := tx.ExecContext(ctx, query, archiveID, in.Position, in.OriginalURL, in.StorageURL, in.FileType, in.StorageType, now); err != nil {
			return fmt.Errorf("insert orig at position %d: %w", in.Position, err)
		}
	}
	return nil
}

// compactPositions renumbers the surviving origs 0..n-1 preserving their
// relative order, so the next reconciliation sees dense slot indexes.
func compactPositions(ctx context.Context, tx *sqlx.Tx, archiveID int64) error {
	const query = `UPDATE archive_origs SET position = t.rn - 1
FROM (
	SELECT id, ROW_NUMBER() OVER (ORDER BY position, id) AS rn
	FROM archive_origs
	WHERE archive_id = $1
) t
WHERE archive_origs.id = t.id`
	if _, err := tx.ExecContext(ctx, query, archiveID); err != nil {
		return fmt.Errorf("compact orig positions for archive %d: %w", archiveID, err)
	}
	return nil
}

func consumePending(ctx context.Context, tx *sqlx.Tx, ids []int64, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE pending_archive_origs SET status = $2, updated_at = $3 WHERE id = ANY($1)`
	if _, err := tx.ExecContext(ctx, query, pq.Array(ids), models.PendingStatusArchived, now); err != nil {
		return fmt.Errorf("mark pending origs archived: %w", err)
	}
	return nil
}

// applyDimensions relinks authors/tags/publisher/date. Join rows are dropped
// and recreated; dimension rows themselves are upserted on their natural key
// and never deleted, other archives may still reference them.
func applyDimensions(ctx context.Context, tx *sqlx.Tx, archiveID int64, dims DimensionUpdate) error {
	if dims.Authors != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM archive_authors WHERE archive_id = $1`, archiveID); err != nil {
			return fmt.Errorf("clear archive authors: %w", err)
		}
		ord := 0
		for _, name := range *dims.Authors {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			ord++
			id, err := upsertDimension(ctx, tx, "authors", "name", name)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO archive_authors (archive_id, author_id, ord) VALUES ($1, $2, $3)`, archiveID, id, ord); err != nil {
				return fmt.Errorf("link author %q: %w", name, err)
			}
		}
	}

	if dims.Tags != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM archive_tags WHERE archive_id = $1`, archiveID); err != nil {
			return fmt.Errorf("clear archive tags: %w", err)
		}
		for _, name := range *dims.Tags {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			id, err := upsertDimension(ctx, tx, "tags", "name", name)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO archive_tags (archive_id, tag_id) VALUES ($1, $2)`, archiveID, id); err != nil {
				return fmt.Errorf("link tag %q: %w", name, err)
			}
		}
	}

	if dims.Publisher != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM archive_publishers WHERE archive_id = $1`, archiveID); err != nil {
			return fmt.Errorf("clear archive publisher: %w", err)
		}
		if name := strings.TrimSpace(*dims.Publisher); name != "" {
			id, err := upsertDimension(ctx, tx, "publishers", "name", name)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO archive_publishers (archive_id, publisher_id) VALUES ($1, $2)`, archiveID, id); err != nil {
				return fmt.Errorf("link publisher %q: %w", name, err)
			}
		}
	}

	if dims.Date != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM archive_dates WHERE archive_id = $1`, archiveID); err != nil {
			return fmt.Errorf("clear archive date: %w", err)
		}
		if value := strings.TrimSpace(*dims.Date); value != "" {
			id, err := upsertDimension(ctx, tx, "dates", "value", value)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO archive_dates (archive_id, date_id) VALUES ($1, $2)`, archiveID, id); err != nil {
				return fmt.Errorf("link date %q: %w", value, err)
			}
		}
	}

	return nil
}

// upsertDimension finds or creates a dimension row by its natural key in a
// single idempotent statement.
func upsertDimension(ctx context.Context, tx *sqlx.Tx, table, column, value string) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1)
ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s
RETURNING id`, table, column, column, column, column)
	var id int64
	if err := tx.GetContext(ctx, &id, query, value); err != nil {
		return 0, fmt.Errorf("upsert %s %q: %w", table, value, err)
	}
	return id, nil
}

// ListOrigsByArchive returns the archive's content rows in slot order.
func (r *ArchiveRepository) ListOrigsByArchive(ctx context.Context, archiveID int64) ([]models.ArchiveOrig, error) {
	const query = `SELECT id, archive_id, position, original_url, storage_url, file_type, storage_type, created_at, updated_at
FROM archive_origs
WHERE archive_id = $1
ORDER BY position ASC, id ASC`
	var origs []models.ArchiveOrig
	if err := r.db.SelectContext(ctx, &origs, query, archiveID); err != nil {
		return nil, fmt.Errorf("list origs for archive %d: %w", archiveID, err)
	}
	return origs, nil
}

// GetByID fetches an archive with relations resolved. Returns nil when the
// archive does not exist.
func (r *ArchiveRepository) GetByID(ctx context.Context, id int64) (*models.ArchiveDetail, error) {
	const query = `SELECT id, title, chapter, remarks, likes, created_at, updated_at FROM archives WHERE id = $1`
	var archive models.Archive
	if err := r.db.GetContext(ctx, &archive, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get archive %d: %w", id, err)
	}

	details, err := r.loadRelations(ctx, []models.Archive{archive})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// List returns a page of archives with relations plus the total count.
func (r *ArchiveRepository) List(ctx context.Context, q dto.ListArchivesQuery) ([]models.ArchiveDetail, int, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT id, title, chapter, remarks, likes, created_at, updated_at FROM archives WHERE 1=1`)
	countQuery := strings.Builder{}
	countQuery.WriteString(`SELECT COUNT(*) FROM archives WHERE 1=1`)

	args := []interface{}{}
	if q.Chapter != "" {
		args = append(args, q.Chapter)
		fmt.Fprintf(&query, " AND chapter = $%d", len(args))
		fmt.Fprintf(&countQuery, " AND chapter = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count archives: %w", err)
	}

	query.WriteString(" ORDER BY id DESC")
	if q.PageSize > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		args = append(args, q.PageSize)
		fmt.Fprintf(&query, " LIMIT $%d", len(args))
		args = append(args, (page-1)*q.PageSize)
		fmt.Fprintf(&query, " OFFSET $%d", len(args))
	}

	var archives []models.Archive
	if err := r.db.SelectContext(ctx, &archives, query.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("list archives: %w", err)
	}

	details, err := r.loadRelations(ctx, archives)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// loadRelations batch-loads authors, tags, publisher, date and origs for the
// given archives.
func (r *ArchiveRepository) loadRelations(ctx context.Context, archives []models.Archive) ([]models.ArchiveDetail, error) {
	details := make([]models.ArchiveDetail, len(archives))
	if len(archives) == 0 {
		return details, nil
	}

	ids := make([]int64, len(archives))
	index := make(map[int64]*models.ArchiveDetail, len(archives))
	for i, a := range archives {
		ids[i] = a.ID
		details[i] = models.ArchiveDetail{Archive: a, Authors: []string{}, Tags: []string{}, Origs: []models.ArchiveOrig{}}
		index[a.ID] = &details[i]
	}
	idArray := pq.Array(ids)

	type namedRow struct {
		ArchiveID int64  `db:"archive_id"`
		Name      string `db:"name"`
	}

	var authors []namedRow
	const authorQuery = `SELECT aa.archive_id, a.name FROM archive_authors aa
JOIN authors a ON a.id = aa.author_id
WHERE aa.archive_id = ANY($1)
ORDER BY aa.archive_id, aa.ord`
	if err := r.db.SelectContext(ctx, &authors, authorQuery, idArray); err != nil {
		return nil, fmt.Errorf("load archive authors: %w", err)
	}
	for _, row := range authors {
		d := index[row.ArchiveID]
		d.Authors = append(d.Authors, row.Name)
	}

	var tags []namedRow
	const tagQuery = `SELECT at.archive_id, t.name FROM archive_tags at
JOIN tags t ON t.id = at.tag_id
WHERE at.archive_id = ANY($1)
ORDER BY at.archive_id, t.name`
	if err := r.db.SelectContext(ctx, &tags, tagQuery, idArray); err != nil {
		return nil, fmt.Errorf("load archive tags: %w", err)
	}
	for _, row := range tags {
		d := index[row.ArchiveID]
		d.Tags = append(d.Tags, row.Name)
	}

	var publishers []namedRow
	const publisherQuery = `SELECT ap.archive_id, p.name FROM archive_publishers ap
JOIN publishers p ON p.id = ap.publisher_id
WHERE ap.archive_id = ANY($1)`
	if err := r.db.SelectContext(ctx, &publishers, publisherQuery, idArray); err != nil {
		return nil, fmt.Errorf("load archive publishers: %w", err)
	}
	for _, row := range publishers {
		name := row.Name
		index[row.ArchiveID].Publisher = &name
	}

	type valueRow struct {
		ArchiveID int64  `db:"archive_id"`
		Value     string `db:"value"`
	}
	var dates []valueRow
	const dateQuery = `SELECT ad.archive_id, d.value FROM archive_dates ad
JOIN dates d ON d.id = ad.date_id
WHERE ad.archive_id = ANY($1)`
	if err := r.db.SelectContext(ctx, &dates, dateQuery, idArray); err != nil {
		return nil, fmt.Errorf("load archive dates: %w", err)
	}
	for _, row := range dates {
		value := row.Value
		index[row.ArchiveID].Date = &value
	}

	var origs []models.ArchiveOrig
	const origQuery = `SELECT id, archive_id, position, original_url, storage_url, file_type, storage_type, created_at, updated_at
FROM archive_origs
WHERE archive_id = ANY($1)
ORDER BY archive_id, position ASC, id ASC`
	if err := r.db.SelectContext(ctx, &origs, origQuery, idArray); err != nil {
		return nil, fmt.Errorf("load archive origs: %w", err)
	}
	for _, o := range origs {
		d := index[o.ArchiveID]
		d.Origs = append(d.Origs, o)
	}

	return details, nil
}

// Delete removes an archive and everything it owns.
func (r *ArchiveRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM archive_authors WHERE archive_id = $1`,
		`DELETE FROM archive_tags WHERE archive_id = $1`,
		`DELETE FROM archive_publishers WHERE archive_id = $1`,
		`DELETE FROM archive_dates WHERE archive_id = $1`,
		`DELETE FROM archive_origs WHERE archive_id = $1`,
		`DELETE FROM comments WHERE archive_id = $1`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade delete archive %d: %w", id, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM archives WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete archive %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit archive delete: %w", err)
	}
	return nil
}

// AdjustLikes shifts the like counter by delta, clamped at zero, and returns
// the new value.
func (r *ArchiveRepository) AdjustLikes(ctx context.Context, id int64, delta int) (int64, error) {
	const query = `UPDATE archives SET likes = GREATEST(likes + $2, 0), updated_at = $3 WHERE id = $1 RETURNING likes`
	var likes int64
	if err := r.db.GetContext(ctx, &likes, query, id, delta, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("adjust likes for archive %d: %w", id, err)
	}
	return likes, nil
}
