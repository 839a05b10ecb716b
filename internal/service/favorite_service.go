package service

import (
	"context"

	"conduit/internal/models"
	"conduit/internal/observability"
	"conduit/internal/repository"
)

// FavoriteService is the user-to-article favorite graph.
type FavoriteService struct {
	favoriteRepo repository.FavoriteRepository
	articleRepo  repository.ArticleRepository
}

func NewFavoriteService(
	favoriteRepo repository.FavoriteRepository,
	articleRepo repository.ArticleRepository,
) *FavoriteService {
	return &FavoriteService{
		favoriteRepo: favoriteRepo,
		articleRepo:  articleRepo,
	}
}

// IsFavorited is always false for an anonymous user.
func (s *FavoriteService) IsFavorited(ctx context.Context, article *models.Article, user *models.User) (bool, error) {
	if user == nil || article == nil {
		return false, nil
	}
	return s.favoriteRepo.Exists(ctx, user.ID, article.ID)
}

func (s *FavoriteService) Count(ctx context.Context, article *models.Article) (int64, error) {
	return s.favoriteRepo.Count(ctx, article.ID)
}

// Favorite marks the article as liked by actor. Repeating it is a no-op.
func (s *FavoriteService) Favorite(ctx context.Context, actor *models.User, articleSlug string) (*models.Article, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	article, err := s.articleRepo.GetBySlug(ctx, articleSlug)
	if err != nil {
		return nil, err
	}
	if err := s.favoriteRepo.Add(ctx, actor.ID, article.ID); err != nil {
		return nil, err
	}
	observability.AssociationEvents.WithLabelValues("favorite", "add").Inc()
	return article, nil
}

// Unfavorite removes actor's like. Removing an absent like is a no-op.
func (s *FavoriteService) Unfavorite(ctx context.Context, actor *models.User, articleSlug string) (*models.Article, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	article, err := s.articleRepo.GetBySlug(ctx, articleSlug)
	if err != nil {
		return nil, err
	}
	if err := s.favoriteRepo.Remove(ctx, actor.ID, article.ID); err != nil {
		return nil, err
	}
	observability.AssociationEvents.WithLabelValues("favorite", "remove").Inc()
	return article, nil
}

// ListFavoritedArticles returns the articles user has favorited, most
// recently favorited first.
func (s *FavoriteService) ListFavoritedArticles(ctx context.Context, user *models.User, page Page) ([]*models.Article, int64, error) {
	if user == nil {
		return []*models.Article{}, 0, nil
	}
	return s.articleRepo.List(ctx, repository.ArticleQuery{
		FavoritedByID: user.ID,
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
}
