package service

import (
	"context"
	"strings"
	"testing"

	"conduit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commentFixture(articleID, authorID uint) *models.Comment {
	return &models.Comment{ID: 3, Body: "Thank you so much!", ArticleID: articleID, AuthorID: authorID}
}

func TestCommentService_Create(t *testing.T) {
	t.Parallel()

	t.Run("attaches to the resolved article", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.createFn = func(_ context.Context, c *models.Comment) error {
			c.ID = 42
			return nil
		}
		svc := NewCommentService(comments, noopArticleRepo().withArticle(existing()))

		comment, err := svc.Create(context.Background(), jane, CreateCommentInput{ArticleSlug: "how-to-train-your-dragon", Body: "Great read"})
		require.NoError(t, err)
		assert.Equal(t, uint(42), comment.ID)
		assert.Equal(t, uint(5), comment.ArticleID)
		assert.Equal(t, jane.ID, comment.AuthorID)
		assert.Equal(t, "jane", comment.Author.Username)
	})

	t.Run("missing article", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(noopCommentRepo(), noopArticleRepo())
		_, err := svc.Create(context.Background(), jane, CreateCommentInput{ArticleSlug: "ghost", Body: "hi"})
		assertNotFoundError(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(noopCommentRepo(), noopArticleRepo().withArticle(existing()))
		_, err := svc.Create(context.Background(), jane, CreateCommentInput{ArticleSlug: "how-to-train-your-dragon"})
		assertValidationError(t, err)
		_, err = svc.Create(context.Background(), jane, CreateCommentInput{
			ArticleSlug: "how-to-train-your-dragon",
			Body:        strings.Repeat("x", 10001),
		})
		assertValidationError(t, err)
	})
}

func TestCommentService_ListByArticle(t *testing.T) {
	t.Parallel()

	comments := noopCommentRepo()
	comments.listByArticleFn = func(_ context.Context, articleID uint) ([]*models.Comment, error) {
		return []*models.Comment{commentFixture(articleID, jane.ID)}, nil
	}
	svc := NewCommentService(comments, noopArticleRepo().withArticle(existing()))

	list, err := svc.ListByArticle(context.Background(), "how-to-train-your-dragon")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint(5), list[0].ArticleID)

	_, err = svc.ListByArticle(context.Background(), "ghost")
	assertNotFoundError(t, err)
}

func TestCommentService_Delete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		actor    *models.User
		slug     string
		comment  *models.Comment
		wantCode string
	}{
		{"article missing", jane, "ghost", commentFixture(5, jane.ID), models.CodeNotFound},
		{"comment missing", jane, "how-to-train-your-dragon", nil, models.CodeNotFound},
		{"comment under another article", jane, "how-to-train-your-dragon", commentFixture(99, jane.ID), models.CodeNotFound},
		{"not the author", jake, "how-to-train-your-dragon", commentFixture(5, jane.ID), models.CodeForbidden},
		{"no actor", nil, "how-to-train-your-dragon", commentFixture(5, jane.ID), models.CodeInternal},
		{"author deletes", jane, "how-to-train-your-dragon", commentFixture(5, jane.ID), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			deleted := false
			comments := noopCommentRepo()
			if tt.comment != nil {
				comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
					return tt.comment, nil
				}
			}
			comments.deleteFn = func(_ context.Context, id uint) error {
				deleted = true
				return nil
			}
			svc := NewCommentService(comments, noopArticleRepo().withArticle(existing()))

			err := svc.Delete(context.Background(), tt.actor, DeleteCommentInput{ArticleSlug: tt.slug, CommentID: 3})
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.True(t, deleted)
				return
			}
			assertAppErrorCode(t, err, tt.wantCode)
			assert.False(t, deleted, "nothing may be removed when a check fails")
		})
	}
}
