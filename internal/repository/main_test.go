package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"conduit/internal/database"
	"conduit/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns a private in-memory database with the full schema.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func createTag(t *testing.T, db *gorm.DB, name string) models.Tag {
	t.Helper()
	tag, err := NewTagRepository(db).GetOrCreate(context.Background(), name)
	require.NoError(t, err)
	return *tag
}

var articleSeq int

// createArticle inserts an article with the given tags. created shifts
// CreatedAt so listings have a deterministic order.
func createArticle(t *testing.T, db *gorm.DB, author *models.User, created time.Time, tagNames ...string) *models.Article {
	t.Helper()
	articleSeq++
	tags := make([]models.Tag, 0, len(tagNames))
	for _, name := range tagNames {
		tags = append(tags, createTag(t, db, name))
	}
	article := &models.Article{
		Slug:        fmt.Sprintf("article-%d", articleSeq),
		Title:       fmt.Sprintf("Article %d", articleSeq),
		Description: "desc",
		Body:        "body",
		AuthorID:    author.ID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, NewArticleRepository(db).Create(context.Background(), article, tags))
	return article
}
