package service

import (
	"context"
	"log/slog"

	"conduit/internal/middleware"
	"conduit/internal/models"
	"conduit/internal/observability"
	"conduit/internal/repository"
	"conduit/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	articleRepo repository.ArticleRepository
}

type CreateCommentInput struct {
	ArticleSlug string
	Body        string
}

type DeleteCommentInput struct {
	ArticleSlug string
	CommentID   uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	articleRepo repository.ArticleRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		articleRepo: articleRepo,
	}
}

func (s *CommentService) Create(ctx context.Context, actor *models.User, in CreateCommentInput) (*models.Comment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validation.ValidateCommentBody(in.Body); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	article, err := s.articleRepo.GetBySlug(ctx, in.ArticleSlug)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Body:      in.Body,
		ArticleID: article.ID,
		AuthorID:  actor.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = *actor
	observability.CommentEvents.WithLabelValues("create").Inc()
	return comment, nil
}

// ListByArticle returns the article's comments, newest first.
func (s *CommentService) ListByArticle(ctx context.Context, articleSlug string) ([]*models.Comment, error) {
	article, err := s.articleRepo.GetBySlug(ctx, articleSlug)
	if err != nil {
		return nil, err
	}
	return s.commentRepo.ListByArticle(ctx, article.ID)
}

// Delete removes a comment. A comment that exists under a different article
// is reported as not found.
func (s *CommentService) Delete(ctx context.Context, actor *models.User, in DeleteCommentInput) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	article, err := s.articleRepo.GetBySlug(ctx, in.ArticleSlug)
	if err != nil {
		return err
	}
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.ArticleID != article.ID {
		return models.NewNotFoundError("Comment", in.CommentID)
	}
	if !CanModify(actor, comment.AuthorID) {
		return models.NewForbiddenError("You can only delete your own comments")
	}

	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return err
	}
	observability.CommentEvents.WithLabelValues("delete").Inc()
	middleware.Logger.DebugContext(ctx, "comment deleted",
		slog.String("slug", article.Slug),
		slog.Uint64("comment_id", uint64(comment.ID)),
	)
	return nil
}
