package service

import (
	"context"

	"conduit/internal/models"
	"conduit/internal/repository"
)

const defaultPopularTags = 10

// TagService is the shared tag registry.
type TagService struct {
	tagRepo repository.TagRepository
}

func NewTagService(tagRepo repository.TagRepository) *TagService {
	return &TagService{tagRepo: tagRepo}
}

// ResolveOrCreate returns the tag called name, creating it on first use.
func (s *TagService) ResolveOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	return s.tagRepo.GetOrCreate(ctx, name)
}

// ResolveAll resolves names in order, collapsing duplicates to their first
// occurrence.
func (s *TagService) ResolveAll(ctx context.Context, names []string) ([]models.Tag, error) {
	seen := make(map[string]struct{}, len(names))
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		tag, err := s.ResolveOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// ListAll returns every tag name once, sorted.
func (s *TagService) ListAll(ctx context.Context) ([]string, error) {
	return s.tagRepo.ListNames(ctx)
}

// Popular returns the most used tags, ties broken by name.
func (s *TagService) Popular(ctx context.Context, limit int) ([]models.TagCount, error) {
	if limit <= 0 {
		limit = defaultPopularTags
	}
	return s.tagRepo.Popular(ctx, limit)
}
