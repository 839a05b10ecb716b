package service

import (
	"context"
	"errors"
	"testing"

	"conduit/internal/models"
	"conduit/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	listFn          func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

// usersByName returns a user repo stub that knows exactly the given users.
func usersByName(users ...*models.User) *userRepoStub {
	find := func(match func(*models.User) bool, key interface{}) (*models.User, error) {
		for _, u := range users {
			if match(u) {
				clone := *u
				return &clone, nil
			}
		}
		return nil, models.NewNotFoundError("User", key)
	}
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return find(func(u *models.User) bool { return u.ID == id }, id)
		},
		getByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			return find(func(u *models.User) bool { return u.Email == email }, email)
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return find(func(u *models.User) bool { return u.Username == username }, username)
		},
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		updateFn: func(_ context.Context, _ *models.User) error { return nil },
		listFn:   func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// articleRepoStub is a stub for repository.ArticleRepository.
type articleRepoStub struct {
	createFn       func(context.Context, *models.Article, []models.Tag) error
	getBySlugFn    func(context.Context, string) (*models.Article, error)
	existsBySlugFn func(context.Context, string) (bool, error)
	listFn         func(context.Context, repository.ArticleQuery) ([]*models.Article, int64, error)
	updateFn       func(context.Context, *models.Article) error
	deleteFn       func(context.Context, uint) error
}

func (s *articleRepoStub) Create(ctx context.Context, article *models.Article, tags []models.Tag) error {
	return s.createFn(ctx, article, tags)
}
func (s *articleRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *articleRepoStub) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	return s.existsBySlugFn(ctx, slug)
}
func (s *articleRepoStub) List(ctx context.Context, q repository.ArticleQuery) ([]*models.Article, int64, error) {
	return s.listFn(ctx, q)
}
func (s *articleRepoStub) Update(ctx context.Context, article *models.Article) error {
	return s.updateFn(ctx, article)
}
func (s *articleRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopArticleRepo() *articleRepoStub {
	return &articleRepoStub{
		createFn: func(_ context.Context, _ *models.Article, _ []models.Tag) error { return nil },
		getBySlugFn: func(_ context.Context, slug string) (*models.Article, error) {
			return nil, models.NewNotFoundError("Article", slug)
		},
		existsBySlugFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
		listFn: func(_ context.Context, _ repository.ArticleQuery) ([]*models.Article, int64, error) {
			return []*models.Article{}, 0, nil
		},
		updateFn: func(_ context.Context, _ *models.Article) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// withArticle makes GetBySlug return a fresh copy of article for its slug.
func (s *articleRepoStub) withArticle(article models.Article) *articleRepoStub {
	s.getBySlugFn = func(_ context.Context, slug string) (*models.Article, error) {
		if slug != article.Slug {
			return nil, models.NewNotFoundError("Article", slug)
		}
		clone := article
		return &clone, nil
	}
	return s
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	getOrCreateFn func(context.Context, string) (*models.Tag, error)
	listNamesFn   func(context.Context) ([]string, error)
	popularFn     func(context.Context, int) ([]models.TagCount, error)
}

func (s *tagRepoStub) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	return s.getOrCreateFn(ctx, name)
}
func (s *tagRepoStub) ListNames(ctx context.Context) ([]string, error) {
	return s.listNamesFn(ctx)
}
func (s *tagRepoStub) Popular(ctx context.Context, limit int) ([]models.TagCount, error) {
	return s.popularFn(ctx, limit)
}

// sequentialTagRepo hands out ids in first-seen order, like the real registry.
func sequentialTagRepo() *tagRepoStub {
	ids := map[string]uint{}
	return &tagRepoStub{
		getOrCreateFn: func(_ context.Context, name string) (*models.Tag, error) {
			if _, ok := ids[name]; !ok {
				ids[name] = uint(len(ids) + 1)
			}
			return &models.Tag{ID: ids[name], Name: name}, nil
		},
		listNamesFn: func(_ context.Context) ([]string, error) { return []string{}, nil },
		popularFn:   func(_ context.Context, _ int) ([]models.TagCount, error) { return nil, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn        func(context.Context, *models.Comment) error
	getByIDFn       func(context.Context, uint) (*models.Comment, error)
	listByArticleFn func(context.Context, uint) ([]*models.Comment, error)
	deleteFn        func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByArticle(ctx context.Context, articleID uint) ([]*models.Comment, error) {
	return s.listByArticleFn(ctx, articleID)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return nil, models.NewNotFoundError("Comment", id)
		},
		listByArticleFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return []*models.Comment{}, nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

type pair struct{ a, b uint }

// memFavoriteRepo is an in-memory repository.FavoriteRepository.
type memFavoriteRepo struct {
	rows map[pair]bool
	err  error
}

func newMemFavoriteRepo() *memFavoriteRepo { return &memFavoriteRepo{rows: map[pair]bool{}} }

func (r *memFavoriteRepo) Exists(_ context.Context, userID, articleID uint) (bool, error) {
	return r.rows[pair{userID, articleID}], r.err
}
func (r *memFavoriteRepo) Count(_ context.Context, articleID uint) (int64, error) {
	var n int64
	for p := range r.rows {
		if p.b == articleID {
			n++
		}
	}
	return n, r.err
}
func (r *memFavoriteRepo) CountByArticleIDs(ctx context.Context, articleIDs []uint) (map[uint]int64, error) {
	out := map[uint]int64{}
	for _, id := range articleIDs {
		if n, _ := r.Count(ctx, id); n > 0 {
			out[id] = n
		}
	}
	return out, r.err
}
func (r *memFavoriteRepo) FavoritedArticleIDs(_ context.Context, userID uint, articleIDs []uint) ([]uint, error) {
	var out []uint
	for _, id := range articleIDs {
		if r.rows[pair{userID, id}] {
			out = append(out, id)
		}
	}
	return out, r.err
}
func (r *memFavoriteRepo) Add(_ context.Context, userID, articleID uint) error {
	if r.err != nil {
		return r.err
	}
	r.rows[pair{userID, articleID}] = true
	return nil
}
func (r *memFavoriteRepo) Remove(_ context.Context, userID, articleID uint) error {
	if r.err != nil {
		return r.err
	}
	delete(r.rows, pair{userID, articleID})
	return nil
}

// memFollowRepo is an in-memory repository.FollowRepository.
type memFollowRepo struct {
	rows  map[pair]bool
	calls int
}

func newMemFollowRepo() *memFollowRepo { return &memFollowRepo{rows: map[pair]bool{}} }

func (r *memFollowRepo) Exists(_ context.Context, followerID, followingID uint) (bool, error) {
	r.calls++
	return r.rows[pair{followerID, followingID}], nil
}
func (r *memFollowRepo) FollowedAmong(_ context.Context, followerID uint, userIDs []uint) ([]uint, error) {
	r.calls++
	var out []uint
	for _, id := range userIDs {
		if r.rows[pair{followerID, id}] {
			out = append(out, id)
		}
	}
	return out, nil
}
func (r *memFollowRepo) Add(_ context.Context, followerID, followingID uint) error {
	r.rows[pair{followerID, followingID}] = true
	return nil
}
func (r *memFollowRepo) Remove(_ context.Context, followerID, followingID uint) error {
	delete(r.rows, pair{followerID, followingID})
	return nil
}
func (r *memFollowRepo) CountFollowers(_ context.Context, userID uint) (int64, error) {
	var n int64
	for p := range r.rows {
		if p.b == userID {
			n++
		}
	}
	return n, nil
}
func (r *memFollowRepo) CountFollowing(_ context.Context, userID uint) (int64, error) {
	var n int64
	for p := range r.rows {
		if p.a == userID {
			n++
		}
	}
	return n, nil
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeForbidden)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeNotFound)
}
