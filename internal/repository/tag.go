package repository

import (
	"context"
	"errors"

	"conduit/internal/models"
	"conduit/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository is the name-keyed tag registry.
type TagRepository interface {
	// GetOrCreate returns the tag called name, inserting it if absent.
	// A concurrent insert of the same name is absorbed, never surfaced.
	GetOrCreate(ctx context.Context, name string) (*models.Tag, error)
	ListNames(ctx context.Context) ([]string, error)
	Popular(ctx context.Context, limit int) ([]models.TagCount, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) findByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	tag, err := r.findByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	tag = &models.Tag{Name: name}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(tag)
	if result.Error != nil && !isUniqueConstraintError(result.Error) {
		return nil, models.NewInternalError(result.Error)
	}
	if result.Error == nil && result.RowsAffected > 0 && tag.ID != 0 {
		return tag, nil
	}

	// Another writer won the race; the row is there now.
	observability.TagCreateRaces.Inc()
	existing, err := r.findByName(ctx, name)
	if err != nil {
		return nil, notFoundOr(err, "Tag", name)
	}
	return existing, nil
}

func (r *tagRepository) ListNames(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := r.db.WithContext(ctx).
		Model(&models.Tag{}).
		Distinct().
		Order("name asc").
		Pluck("name", &names).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return names, nil
}

func (r *tagRepository) Popular(ctx context.Context, limit int) ([]models.TagCount, error) {
	counts := []models.TagCount{}
	if err := r.db.WithContext(ctx).
		Table("tags").
		Select("tags.name AS name, COUNT(article_tags.article_id) AS count").
		Joins("JOIN article_tags ON article_tags.tag_id = tags.id").
		Group("tags.name").
		Order("COUNT(article_tags.article_id) DESC, tags.name ASC").
		Limit(limit).
		Scan(&counts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return counts, nil
}
