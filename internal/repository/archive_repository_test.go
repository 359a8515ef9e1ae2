package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/lanting-project/lanting-api/internal/models"
)

func newArchiveRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func strPtr(s string) *string { return &s }

func TestArchiveRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newArchiveRepoMock(t)
	defer cleanup()

	repo := NewArchiveRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO archives")).
		WithArgs("史记选读", models.ChapterBenji, "remarks", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO archive_origs")).
		WithArgs(int64(7), 0, nil, "archives/origs/abc.html", strPtr("html"), models.StorageTypeS3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// authors: delete joins, upsert dimension, relink with 1-based ord
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM archive_authors")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO authors (name)")).
		WithArgs("司马迁").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO archive_authors")).
		WithArgs(int64(7), int64(3), 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	archive := &models.Archive{Title: "史记选读", Chapter: models.ChapterBenji, Remarks: "remarks"}
	inserts := []OrigInsert{{Position: 0, StorageURL: "archives/origs/abc.html", FileType: strPtr("html"), StorageType: models.StorageTypeS3}}
	authors := []string{" 司马迁 ", ""}

	err := repo.Create(context.Background(), archive, inserts, DimensionUpdate{Authors: &authors}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(7), archive.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryUpdateAppliesMutation(t *testing.T) {
	db, mock, cleanup := newArchiveRepoMock(t)
	defer cleanup()

	repo := NewArchiveRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE archives SET title = $2")).
		WithArgs(int64(7), "t", models.ChapterShijia, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM archive_origs WHERE archive_id = $1 AND id = ANY($2)")).
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO archive_origs")).
		WithArgs(int64(7), 2, strPtr("https://example.com/x"), "archives/origs/def.html", strPtr("html"), models.StorageTypeS3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE archive_origs SET position = t.rn - 1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pending_archive_origs SET status = $2")).
		WithArgs(sqlmock.AnyArg(), models.PendingStatusArchived, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	archive := &models.Archive{ID: 7, Title: "t", Chapter: models.ChapterShijia}
	mut := OrigMutation{
		DeleteIDs: []int64{11},
		Inserts:   []OrigInsert{{Position: 2, OriginalURL: strPtr("https://example.com/x"), StorageURL: "archives/origs/def.html", FileType: strPtr("html"), StorageType: models.StorageTypeS3}},
	}

	err := repo.Update(context.Background(), archive, mut, DimensionUpdate{}, []int64{42})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryUpdateMissingArchive(t *testing.T) {
	db, mock, cleanup := newArchiveRepoMock(t)
	defer cleanup()

	repo := NewArchiveRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE archives SET title = $2")).
		WithArgs(int64(99), "t", models.ChapterShijia, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	archive := &models.Archive{ID: 99, Title: "t", Chapter: models.ChapterShijia}
	err := repo.Update(context.Background(), archive, OrigMutation{}, DimensionUpdate{}, nil)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryListOrigsOrderedByPosition(t *testing.T) {
	db, mock, cleanup := newArchiveRepoMock(t)
	defer cleanup()

	repo := NewArchiveRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "archive_id", "position", "original_url", "storage_url", "file_type", "storage_type", "created_at", "updated_at"}).
		AddRow(int64(1), int64(7), 0, nil, "archives/origs/a.html", "html", models.StorageTypeS3, now, now).
		AddRow(int64(2), int64(7), 1, "https://example.com", "archives/origs/b.html", "html", models.StorageTypeS3, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, archive_id, position")).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	origs, err := repo.ListOrigsByArchive(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, origs, 2)
	require.Equal(t, 0, origs[0].Position)
	require.Equal(t, 1, origs[1].Position)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryAdjustLikesClampsAtZero(t *testing.T) {
	db, mock, cleanup := newArchiveRepoMock(t)
	defer cleanup()

	repo := NewArchiveRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE archives SET likes = GREATEST(likes + $2, 0)")).
		WithArgs(int64(7), -1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"likes"}).AddRow(int64(0)))

	likes, err := repo.AdjustLikes(context.Background(), 7, -1)
	require.NoError(t, err)
	require.Equal(t, int64(0), likes)
	require.NoError(t, mock.ExpectationsWereMet())
}
