package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/lanting-project/lanting-api/internal/models"
)

func newCommentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCommentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newCommentRepoMock(t)
	defer cleanup()

	repo := NewCommentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO comments")).
		WithArgs(int64(7), "reader", "great find", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	comment := &models.Comment{ArchiveID: 7, Nickname: "reader", Content: "great find"}
	require.NoError(t, repo.Create(context.Background(), comment))
	require.Equal(t, int64(3), comment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryUpdateContentMissing(t *testing.T) {
	db, mock, cleanup := newCommentRepoMock(t)
	defer cleanup()

	repo := NewCommentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE comments SET content = $2")).
		WithArgs(int64(99), "edited", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateContent(context.Background(), 99, "edited")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newCommentRepoMock(t)
	defer cleanup()

	repo := NewCommentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}
