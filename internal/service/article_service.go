package service

import (
	"context"
	"log/slog"

	"conduit/internal/middleware"
	"conduit/internal/models"
	"conduit/internal/observability"
	"conduit/internal/repository"
	"conduit/internal/slug"
	"conduit/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Page is an offset window over a listing. A zero Limit means unbounded.
type Page struct {
	Limit  int
	Offset int
}

type ArticleService struct {
	articleRepo repository.ArticleRepository
	userRepo    repository.UserRepository
	tags        *TagService
	favorites   *FavoriteService
	slugSuffix  func() string
}

type CreateArticleInput struct {
	Title       string
	Description string
	Body        string
	TagList     []string
}

// UpdateArticleInput carries optional replacements; nil fields keep their
// current value.
type UpdateArticleInput struct {
	Title       *string
	Description *string
	Body        *string
}

// ListArticlesInput combines the listing filters. Author and FavoritedBy are
// usernames and must exist.
type ListArticlesInput struct {
	Tag         string
	Author      string
	FavoritedBy string
	Page
}

func NewArticleService(
	articleRepo repository.ArticleRepository,
	userRepo repository.UserRepository,
	tags *TagService,
	favorites *FavoriteService,
) *ArticleService {
	return &ArticleService{
		articleRepo: articleRepo,
		userRepo:    userRepo,
		tags:        tags,
		favorites:   favorites,
		slugSuffix:  slug.RandomSuffix,
	}
}

// generateSlug derives a slug for title. current is the slug the article
// already holds, which never counts as a collision with itself.
func (s *ArticleService) generateSlug(ctx context.Context, title, current string) (string, error) {
	exists := func(ctx context.Context, candidate string) (bool, error) {
		if current != "" && candidate == current {
			return false, nil
		}
		return s.articleRepo.ExistsBySlug(ctx, candidate)
	}
	generated, err := slug.NewGenerator(exists).WithSuffix(s.slugSuffix).Generate(ctx, title)
	if err != nil {
		return "", err
	}
	if base := slug.Normalize(title); base != "" && generated != base {
		observability.SlugCollisions.Inc()
		middleware.Logger.DebugContext(ctx, "slug collision suffixed",
			slog.String("base", base),
			slog.String("slug", generated),
		)
	}
	return generated, nil
}

func validateArticle(title, description, body string) error {
	for _, err := range []error{
		validation.ValidateTitle(title),
		validation.ValidateDescription(description),
		validation.ValidateBody(body),
	} {
		if err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}

// Create publishes a new article authored by actor.
func (s *ArticleService) Create(ctx context.Context, actor *models.User, in CreateArticleInput) (_ *models.Article, err error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateArticle(in.Title, in.Description, in.Body); err != nil {
		return nil, err
	}
	if err := validation.ValidateTagList(in.TagList); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	ctx, span := observability.StartSpan(ctx, "article", "create",
		attribute.Int64("author.id", int64(actor.ID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	articleSlug, err := s.generateSlug(ctx, in.Title, "")
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ResolveAll(ctx, in.TagList)
	if err != nil {
		return nil, err
	}

	article := &models.Article{
		Slug:        articleSlug,
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		AuthorID:    actor.ID,
	}
	if err := s.articleRepo.Create(ctx, article, tags); err != nil {
		return nil, err
	}
	article.Author = *actor
	span.SetAttributes(attribute.String("article.slug", article.Slug))

	observability.ArticlesCreated.Inc()
	middleware.Logger.InfoContext(ctx, "article created",
		slog.String("slug", article.Slug),
		slog.Int("tags", len(tags)),
	)
	return article, nil
}

func (s *ArticleService) FindBySlug(ctx context.Context, articleSlug string) (*models.Article, error) {
	return s.articleRepo.GetBySlug(ctx, articleSlug)
}

// ListAll returns articles newest first.
func (s *ArticleService) ListAll(ctx context.Context, page Page) ([]*models.Article, int64, error) {
	return s.articleRepo.List(ctx, repository.ArticleQuery{Limit: page.Limit, Offset: page.Offset})
}

func (s *ArticleService) ListByAuthor(ctx context.Context, username string, page Page) ([]*models.Article, int64, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	return s.articleRepo.List(ctx, repository.ArticleQuery{AuthorID: author.ID, Limit: page.Limit, Offset: page.Offset})
}

func (s *ArticleService) ListByTag(ctx context.Context, tag string, page Page) ([]*models.Article, int64, error) {
	return s.articleRepo.List(ctx, repository.ArticleQuery{TagName: tag, Limit: page.Limit, Offset: page.Offset})
}

// ListFavoritedBy returns the articles username has favorited, most recently
// favorited first.
func (s *ArticleService) ListFavoritedBy(ctx context.Context, username string, page Page) ([]*models.Article, int64, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	return s.favorites.ListFavoritedArticles(ctx, user, page)
}

// List applies any combination of tag, author and favorited filters.
func (s *ArticleService) List(ctx context.Context, in ListArticlesInput) ([]*models.Article, int64, error) {
	q := repository.ArticleQuery{TagName: in.Tag, Limit: in.Limit, Offset: in.Offset}
	if in.Author != "" {
		author, err := s.userRepo.GetByUsername(ctx, in.Author)
		if err != nil {
			return nil, 0, err
		}
		q.AuthorID = author.ID
	}
	if in.FavoritedBy != "" {
		fan, err := s.userRepo.GetByUsername(ctx, in.FavoritedBy)
		if err != nil {
			return nil, 0, err
		}
		q.FavoritedByID = fan.ID
	}
	return s.articleRepo.List(ctx, q)
}

// Feed lists articles by authors the viewer follows, newest first.
func (s *ArticleService) Feed(ctx context.Context, viewer *models.User, page Page) ([]*models.Article, int64, error) {
	if err := requireActor(viewer); err != nil {
		return nil, 0, err
	}
	return s.articleRepo.List(ctx, repository.ArticleQuery{FollowedByID: viewer.ID, Limit: page.Limit, Offset: page.Offset})
}

// Update edits an article owned by actor. A changed title regenerates the
// slug, so the previous slug stops resolving.
func (s *ArticleService) Update(ctx context.Context, actor *models.User, articleSlug string, in UpdateArticleInput) (_ *models.Article, err error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	article, err := s.articleRepo.GetBySlug(ctx, articleSlug)
	if err != nil {
		return nil, err
	}
	if !CanModify(actor, article.AuthorID) {
		return nil, models.NewForbiddenError("You can only edit your own articles")
	}

	ctx, span := observability.StartSpan(ctx, "article", "update",
		attribute.String("article.slug", articleSlug),
	)
	defer func() { observability.EndSpan(span, err) }()

	titleChanged := in.Title != nil && *in.Title != article.Title
	if in.Title != nil {
		article.Title = *in.Title
	}
	if in.Description != nil {
		article.Description = *in.Description
	}
	if in.Body != nil {
		article.Body = *in.Body
	}
	if err := validateArticle(article.Title, article.Description, article.Body); err != nil {
		return nil, err
	}

	if titleChanged {
		newSlug, err := s.generateSlug(ctx, article.Title, article.Slug)
		if err != nil {
			return nil, err
		}
		article.Slug = newSlug
	}

	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}
	if article.Slug != articleSlug {
		middleware.Logger.InfoContext(ctx, "article slug changed",
			slog.String("from", articleSlug),
			slog.String("to", article.Slug),
		)
	}
	return article, nil
}

// Delete removes an article owned by actor together with its comments,
// favorites and tag links.
func (s *ArticleService) Delete(ctx context.Context, actor *models.User, articleSlug string) (err error) {
	if err := requireActor(actor); err != nil {
		return err
	}
	article, err := s.articleRepo.GetBySlug(ctx, articleSlug)
	if err != nil {
		return err
	}
	if !CanModify(actor, article.AuthorID) {
		return models.NewForbiddenError("You can only delete your own articles")
	}

	ctx, span := observability.StartSpan(ctx, "article", "delete",
		attribute.String("article.slug", articleSlug),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := s.articleRepo.Delete(ctx, article.ID); err != nil {
		return err
	}
	observability.ArticlesDeleted.Inc()
	middleware.Logger.InfoContext(ctx, "article deleted", slog.String("slug", articleSlug))
	return nil
}
