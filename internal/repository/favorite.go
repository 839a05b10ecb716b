package repository

import (
	"context"

	"conduit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteRepository stores the user/article favorite pairs.
type FavoriteRepository interface {
	Exists(ctx context.Context, userID, articleID uint) (bool, error)
	Count(ctx context.Context, articleID uint) (int64, error)
	CountByArticleIDs(ctx context.Context, articleIDs []uint) (map[uint]int64, error)
	FavoritedArticleIDs(ctx context.Context, userID uint, articleIDs []uint) ([]uint, error)
	Add(ctx context.Context, userID, articleID uint) error
	Remove(ctx context.Context, userID, articleID uint) error
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new FavoriteRepository
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, articleID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *favoriteRepository) Count(ctx context.Context, articleID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("article_id = ?", articleID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

type favoriteCountRow struct {
	ArticleID uint
	Total     int64
}

// CountByArticleIDs returns favorite counts keyed by article id. Articles
// without favorites are absent from the map.
func (r *favoriteRepository) CountByArticleIDs(ctx context.Context, articleIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(articleIDs))
	if len(articleIDs) == 0 {
		return counts, nil
	}
	var rows []favoriteCountRow
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Select("article_id, COUNT(*) AS total").
		Where("article_id IN ?", articleIDs).
		Group("article_id").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		counts[row.ArticleID] = row.Total
	}
	return counts, nil
}

func (r *favoriteRepository) FavoritedArticleIDs(ctx context.Context, userID uint, articleIDs []uint) ([]uint, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND article_id IN ?", userID, articleIDs).
		Pluck("article_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// Add inserts the pair if absent. An existing pair, including one written by
// a concurrent request, is left untouched.
func (r *favoriteRepository) Add(ctx context.Context, userID, articleID uint) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favorite{UserID: userID, ArticleID: articleID}).Error
	if err != nil && !isUniqueConstraintError(err) {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, articleID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&models.Favorite{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
