package service

import (
	"context"

	"conduit/internal/models"
	"conduit/internal/repository"
)

// ViewComposer renders entities for a viewer. Favorite and follow state is
// read fresh on every call; nothing is cached. A nil viewer is anonymous.
type ViewComposer struct {
	favoriteRepo repository.FavoriteRepository
	followRepo   repository.FollowRepository
}

func NewViewComposer(favoriteRepo repository.FavoriteRepository, followRepo repository.FollowRepository) *ViewComposer {
	return &ViewComposer{favoriteRepo: favoriteRepo, followRepo: followRepo}
}

func profileView(user *models.User, following bool) models.ProfileView {
	return models.ProfileView{
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.Image,
		Following: following,
	}
}

func (v *ViewComposer) isFollowing(ctx context.Context, viewer *models.User, target *models.User) (bool, error) {
	if viewer == nil || target == nil {
		return false, nil
	}
	return v.followRepo.Exists(ctx, viewer.ID, target.ID)
}

// followedSet returns which of userIDs the viewer follows.
func (v *ViewComposer) followedSet(ctx context.Context, viewer *models.User, userIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(userIDs))
	if viewer == nil || len(userIDs) == 0 {
		return set, nil
	}
	ids, err := v.followRepo.FollowedAmong(ctx, viewer.ID, uniqueIDs(userIDs))
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Profile renders user with the viewer's follow state.
func (v *ViewComposer) Profile(ctx context.Context, viewer, user *models.User) (models.ProfileView, error) {
	following, err := v.isFollowing(ctx, viewer, user)
	if err != nil {
		return models.ProfileView{}, err
	}
	return profileView(user, following), nil
}

// ProfileDetail adds follower and following counts to the profile view.
func (v *ViewComposer) ProfileDetail(ctx context.Context, viewer, user *models.User) (models.ProfileDetailView, error) {
	base, err := v.Profile(ctx, viewer, user)
	if err != nil {
		return models.ProfileDetailView{}, err
	}
	followers, err := v.followRepo.CountFollowers(ctx, user.ID)
	if err != nil {
		return models.ProfileDetailView{}, err
	}
	following, err := v.followRepo.CountFollowing(ctx, user.ID)
	if err != nil {
		return models.ProfileDetailView{}, err
	}
	return models.ProfileDetailView{
		ProfileView:    base,
		FollowersCount: followers,
		FollowingCount: following,
	}, nil
}

func articleView(article *models.Article, favorited bool, count int64, author models.ProfileView) models.ArticleView {
	return models.ArticleView{
		Slug:           article.Slug,
		Title:          article.Title,
		Description:    article.Description,
		Body:           article.Body,
		TagList:        article.TagNames(),
		CreatedAt:      article.CreatedAt,
		UpdatedAt:      article.UpdatedAt,
		Favorited:      favorited,
		FavoritesCount: count,
		Author:         author,
	}
}

// Article renders one article for the viewer.
func (v *ViewComposer) Article(ctx context.Context, viewer *models.User, article *models.Article) (models.ArticleView, error) {
	views, err := v.Articles(ctx, viewer, []*models.Article{article})
	if err != nil {
		return models.ArticleView{}, err
	}
	return views[0], nil
}

// Articles renders a listing with one batched query per derived field.
func (v *ViewComposer) Articles(ctx context.Context, viewer *models.User, articles []*models.Article) ([]models.ArticleView, error) {
	views := make([]models.ArticleView, 0, len(articles))
	if len(articles) == 0 {
		return views, nil
	}

	articleIDs := make([]uint, 0, len(articles))
	authorIDs := make([]uint, 0, len(articles))
	for _, a := range articles {
		articleIDs = append(articleIDs, a.ID)
		authorIDs = append(authorIDs, a.AuthorID)
	}

	counts, err := v.favoriteRepo.CountByArticleIDs(ctx, articleIDs)
	if err != nil {
		return nil, err
	}
	favorited := make(map[uint]bool)
	if viewer != nil {
		ids, err := v.favoriteRepo.FavoritedArticleIDs(ctx, viewer.ID, articleIDs)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			favorited[id] = true
		}
	}
	followed, err := v.followedSet(ctx, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	for _, a := range articles {
		author := profileView(&a.Author, followed[a.AuthorID])
		views = append(views, articleView(a, favorited[a.ID], counts[a.ID], author))
	}
	return views, nil
}

// Comment renders one comment for the viewer.
func (v *ViewComposer) Comment(ctx context.Context, viewer *models.User, comment *models.Comment) (models.CommentView, error) {
	views, err := v.Comments(ctx, viewer, []*models.Comment{comment})
	if err != nil {
		return models.CommentView{}, err
	}
	return views[0], nil
}

func (v *ViewComposer) Comments(ctx context.Context, viewer *models.User, comments []*models.Comment) ([]models.CommentView, error) {
	views := make([]models.CommentView, 0, len(comments))
	authorIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	followed, err := v.followedSet(ctx, viewer, authorIDs)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		views = append(views, models.CommentView{
			ID:        c.ID,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			Author:    profileView(&c.Author, followed[c.AuthorID]),
		})
	}
	return views, nil
}
