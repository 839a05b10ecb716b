package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteRepository_AddIsInsertIfAbsent(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFavoriteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "favorites" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.Add(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoriteRepository_SQLite(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewFavoriteRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "jake")
	fan := createUser(t, db, "fan")
	other := createUser(t, db, "other")
	a1 := createArticle(t, db, author, time.Now())
	a2 := createArticle(t, db, author, time.Now())

	t.Run("add twice keeps one row", func(t *testing.T) {
		require.NoError(t, repo.Add(ctx, fan.ID, a1.ID))
		require.NoError(t, repo.Add(ctx, fan.ID, a1.ID))

		count, err := repo.Count(ctx, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		ok, err := repo.Exists(ctx, fan.ID, a1.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("batch counts and membership", func(t *testing.T) {
		require.NoError(t, repo.Add(ctx, other.ID, a1.ID))

		counts, err := repo.CountByArticleIDs(ctx, []uint{a1.ID, a2.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[a1.ID])
		_, present := counts[a2.ID]
		assert.False(t, present)

		ids, err := repo.FavoritedArticleIDs(ctx, fan.ID, []uint{a1.ID, a2.ID})
		require.NoError(t, err)
		assert.Equal(t, []uint{a1.ID}, ids)

		empty, err := repo.CountByArticleIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, repo.Remove(ctx, fan.ID, a1.ID))
		require.NoError(t, repo.Remove(ctx, fan.ID, a1.ID))
		require.NoError(t, repo.Remove(ctx, fan.ID, a2.ID))

		ok, err := repo.Exists(ctx, fan.ID, a1.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		count, err := repo.Count(ctx, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestFavoriteRepository_CountQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFavoriteRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "favorites" WHERE article_id = $1`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.Count(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
