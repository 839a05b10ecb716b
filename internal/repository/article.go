package repository

import (
	"context"
	"time"

	"conduit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleQuery narrows an article listing. Zero-valued fields do not filter.
type ArticleQuery struct {
	AuthorID      uint
	TagName       string
	FavoritedByID uint
	FollowedByID  uint
	Limit         int
	Offset        int
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article, tags []models.Tag) error
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, q ArticleQuery) ([]*models.Article, int64, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id uint) error
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

// Create inserts the article and its ordered tag links in one transaction.
func (r *articleRepository) Create(ctx context.Context, article *models.Article, tags []models.Tag) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(article).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		links := make([]models.ArticleTag, 0, len(tags))
		for i, tag := range tags {
			links = append(links, models.ArticleTag{ArticleID: article.ID, TagID: tag.ID, Position: i})
		}
		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&links).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("An article with this slug already exists")
		}
		return models.NewInternalError(err)
	}
	article.Tags = append([]models.Tag{}, tags...)
	return nil
}

func (r *articleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("slug = ?", slug).
		First(&article).Error; err != nil {
		return nil, notFoundOr(err, "Article", slug)
	}
	if err := r.loadTags(ctx, []*models.Article{&article}); err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *articleRepository) filtered(ctx context.Context, q ArticleQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&models.Article{})
	if q.AuthorID != 0 {
		db = db.Where("articles.author_id = ?", q.AuthorID)
	}
	if q.TagName != "" {
		tagged := r.db.Table("article_tags").
			Select("article_tags.article_id").
			Joins("JOIN tags ON tags.id = article_tags.tag_id").
			Where("tags.name = ?", q.TagName)
		db = db.Where("articles.id IN (?)", tagged)
	}
	if q.FollowedByID != 0 {
		followed := r.db.Model(&models.Follow{}).
			Select("following_id").
			Where("follower_id = ?", q.FollowedByID)
		db = db.Where("articles.author_id IN (?)", followed)
	}
	if q.FavoritedByID != 0 {
		db = db.Joins("JOIN favorites ON favorites.article_id = articles.id AND favorites.user_id = ?", q.FavoritedByID)
	}
	return db
}

// List returns one page of matching articles, newest first, plus the total
// match count. Favorited listings follow favoriting order instead.
func (r *articleRepository) List(ctx context.Context, q ArticleQuery) ([]*models.Article, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	db := r.filtered(ctx, q).Preload("Author")
	if q.FavoritedByID != 0 {
		db = db.Order("favorites.created_at DESC").Order("articles.id DESC")
	} else {
		db = db.Order("articles.created_at DESC").Order("articles.id DESC")
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	articles := []*models.Article{}
	if err := db.Find(&articles).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if err := r.loadTags(ctx, articles); err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

type articleTagRow struct {
	ArticleID uint
	TagID     uint
	Name      string
}

// loadTags fills Tags on each article in link position order.
func (r *articleRepository) loadTags(ctx context.Context, articles []*models.Article) error {
	if len(articles) == 0 {
		return nil
	}
	byID := make(map[uint]*models.Article, len(articles))
	ids := make([]uint, 0, len(articles))
	for _, a := range articles {
		a.Tags = []models.Tag{}
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	var rows []articleTagRow
	if err := r.db.WithContext(ctx).
		Table("article_tags").
		Select("article_tags.article_id, tags.id AS tag_id, tags.name").
		Joins("JOIN tags ON tags.id = article_tags.tag_id").
		Where("article_tags.article_id IN ?", ids).
		Order("article_tags.article_id, article_tags.position").
		Scan(&rows).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, row := range rows {
		if a, ok := byID[row.ArticleID]; ok {
			a.Tags = append(a.Tags, models.Tag{ID: row.TagID, Name: row.Name})
		}
	}
	return nil
}

// Update writes title, slug, description and body in a single statement so a
// concurrent reader never sees a partially applied edit.
func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	article.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Article{ID: article.ID}).
		Updates(map[string]interface{}{
			"title":       article.Title,
			"slug":        article.Slug,
			"description": article.Description,
			"body":        article.Body,
			"updated_at":  article.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return models.NewConflictError("An article with this slug already exists")
		}
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Article", article.Slug)
	}
	return nil
}

// Delete removes the article with its comments, favorites and tag links.
func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&models.Comment{}, &models.Favorite{}, &models.ArticleTag{}} {
			if err := tx.Where("article_id = ?", id).Delete(child).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		result := tx.Delete(&models.Article{}, id)
		if result.Error != nil {
			return models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Article", id)
		}
		return nil
	})
	return err
}
