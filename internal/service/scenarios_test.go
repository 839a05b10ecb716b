package service

import (
	"context"
	"testing"

	"conduit/internal/database"
	"conduit/internal/models"
	"conduit/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stack wires every service over a private in-memory SQLite database.
type stack struct {
	db        *gorm.DB
	users     repository.UserRepository
	articles  *ArticleService
	comments  *CommentService
	favorites *FavoriteService
	profiles  *ProfileService
	tags      *TagService
	views     *ViewComposer
}

func newStack(t *testing.T) *stack {
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

	userRepo := repository.NewUserRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	followRepo := repository.NewFollowRepository(db)
	tags := NewTagService(repository.NewTagRepository(db))
	favorites := NewFavoriteService(favoriteRepo, articleRepo)

	return &stack{
		db:        db,
		users:     userRepo,
		articles:  NewArticleService(articleRepo, userRepo, tags, favorites),
		comments:  NewCommentService(repository.NewCommentRepository(db), articleRepo),
		favorites: favorites,
		profiles:  NewProfileService(userRepo, followRepo),
		tags:      tags,
		views:     NewViewComposer(favoriteRepo, followRepo),
	}
}

func (s *stack) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, s.users.Create(context.Background(), u))
	return u
}

func TestScenario_CreateArticleView(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	a := s.user(t, "jake")

	article, err := s.articles.Create(ctx, a, CreateArticleInput{
		Title:       "How to train your dragon",
		Description: "Ever wonder how?",
		Body:        "You have to believe",
		TagList:     []string{"dragons", "training"},
	})
	require.NoError(t, err)

	found, err := s.articles.FindBySlug(ctx, "how-to-train-your-dragon")
	require.NoError(t, err)
	view, err := s.views.Article(ctx, nil, found)
	require.NoError(t, err)
	assert.Equal(t, article.Slug, view.Slug)
	assert.Equal(t, []string{"dragons", "training"}, view.TagList)
	assert.Zero(t, view.FavoritesCount)
	assert.False(t, view.Favorited)
	assert.Equal(t, "jake", view.Author.Username)

	again, err := s.articles.Create(ctx, a, CreateArticleInput{Title: "How to train your dragon", Body: "Part two"})
	require.NoError(t, err)
	assert.Regexp(t, `^how-to-train-your-dragon-[a-z0-9]{6}$`, again.Slug)
}

func TestScenario_UpdateOwnership(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	a := s.user(t, "jake")
	b := s.user(t, "jane")

	article, err := s.articles.Create(ctx, a, CreateArticleInput{Title: "How to train your dragon", Body: "b"})
	require.NoError(t, err)

	_, err = s.articles.Update(ctx, b, article.Slug, UpdateArticleInput{Title: strPtr("Hijacked")})
	assertForbiddenError(t, err)

	updated, err := s.articles.Update(ctx, a, article.Slug, UpdateArticleInput{Title: strPtr("Did you train your dragon?")})
	require.NoError(t, err)
	assert.Equal(t, "did-you-train-your-dragon", updated.Slug)

	_, err = s.articles.FindBySlug(ctx, article.Slug)
	assertNotFoundError(t, err)
}

func TestScenario_CommentDeletion(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	a := s.user(t, "jake")
	b := s.user(t, "jane")

	article, err := s.articles.Create(ctx, a, CreateArticleInput{Title: "X", Body: "b"})
	require.NoError(t, err)
	comment, err := s.comments.Create(ctx, a, CreateCommentInput{ArticleSlug: article.Slug, Body: "first!"})
	require.NoError(t, err)

	err = s.comments.Delete(ctx, b, DeleteCommentInput{ArticleSlug: article.Slug, CommentID: comment.ID})
	assertForbiddenError(t, err)

	other, err := s.articles.Create(ctx, a, CreateArticleInput{Title: "Y", Body: "b"})
	require.NoError(t, err)
	err = s.comments.Delete(ctx, a, DeleteCommentInput{ArticleSlug: other.Slug, CommentID: comment.ID})
	assertNotFoundError(t, err)

	require.NoError(t, s.comments.Delete(ctx, a, DeleteCommentInput{ArticleSlug: article.Slug, CommentID: comment.ID}))
	remaining, err := s.comments.ListByArticle(ctx, article.Slug)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestScenario_FavoriteAndFollowIdempotence(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	u := s.user(t, "jake")
	v := s.user(t, "jane")

	article, err := s.articles.Create(ctx, v, CreateArticleInput{Title: "Z", Body: "b"})
	require.NoError(t, err)

	for range 2 {
		_, err := s.favorites.Favorite(ctx, u, article.Slug)
		require.NoError(t, err)
		_, err = s.profiles.Follow(ctx, u, "jane")
		require.NoError(t, err)
	}
	count, err := s.favorites.Count(ctx, article)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var follows int64
	require.NoError(t, s.db.Model(&models.Follow{}).Count(&follows).Error)
	assert.Equal(t, int64(1), follows)

	_, err = s.profiles.Follow(ctx, u, "jake")
	assertAppErrorCode(t, err, models.CodeInvalidOperation)

	feed, total, err := s.articles.Feed(ctx, u, Page{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, feed, 1)

	views, err := s.views.Articles(ctx, u, feed)
	require.NoError(t, err)
	assert.True(t, views[0].Favorited)
	assert.True(t, views[0].Author.Following)

	favorited, _, err := s.articles.ListFavoritedBy(ctx, "jake", Page{})
	require.NoError(t, err)
	require.Len(t, favorited, 1)
	assert.Equal(t, article.Slug, favorited[0].Slug)
}

func TestScenario_DeleteArticleLeavesNoOrphans(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	a := s.user(t, "jake")
	b := s.user(t, "jane")

	article, err := s.articles.Create(ctx, a, CreateArticleInput{Title: "Doomed", Body: "b", TagList: []string{"temp"}})
	require.NoError(t, err)
	_, err = s.comments.Create(ctx, b, CreateCommentInput{ArticleSlug: article.Slug, Body: "nice"})
	require.NoError(t, err)
	_, err = s.favorites.Favorite(ctx, b, article.Slug)
	require.NoError(t, err)

	assertForbiddenError(t, s.articles.Delete(ctx, b, article.Slug))
	require.NoError(t, s.articles.Delete(ctx, a, article.Slug))

	for _, model := range []interface{}{&models.Comment{}, &models.Favorite{}, &models.ArticleTag{}} {
		var n int64
		require.NoError(t, s.db.Model(model).Where("article_id = ?", article.ID).Count(&n).Error)
		assert.Zero(t, n, "%T rows survived", model)
	}
	_, err = s.comments.ListByArticle(ctx, article.Slug)
	assertNotFoundError(t, err)
}

func TestScenario_ListAllTags(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	for _, name := range []string{"training", "dragons", "dragons"} {
		_, err := s.tags.ResolveOrCreate(ctx, name)
		require.NoError(t, err)
	}
	names, err := s.tags.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dragons", "training"}, names)
}
