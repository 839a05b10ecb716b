// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conduit/internal/models"
	"conduit/internal/repository"
	"conduit/internal/slug"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account logs in with.
const DefaultPassword = "password123"

// Factory builds domain entities with gofakeit and persists them through the
// repositories, so seeded rows obey the same constraints as API writes.
type Factory struct {
	faker    *gofakeit.Faker
	maxDays  int
	password string

	users     repository.UserRepository
	articles  repository.ArticleRepository
	tags      repository.TagRepository
	comments  repository.CommentRepository
	favorites repository.FavoriteRepository
	follows   repository.FollowRepository
}

// NewFactory creates a Factory bound to db. A zero seed picks a random one.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	faker := gofakeit.New(opts.RandomSeed)

	cost := bcrypt.DefaultCost
	if opts.FastHash {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}

	return &Factory{
		faker:     faker,
		maxDays:   maxDays,
		password:  string(hashed),
		users:     repository.NewUserRepository(db),
		articles:  repository.NewArticleRepository(db),
		tags:      repository.NewTagRepository(db),
		comments:  repository.NewCommentRepository(db),
		favorites: repository.NewFavoriteRepository(db),
		follows:   repository.NewFollowRepository(db),
	}, nil
}

// pastTime returns a moment within the last maxDays.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.IntRange(0, f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// BuildUser returns an unsaved user. Usernames carry a numeric suffix so
// large batches stay unique.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	username := strings.ToLower(f.faker.Username()) + fmt.Sprintf("%d", f.faker.Number(100, 99999))
	username = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			return r
		}
		return -1
	}, username)

	user := &models.User{
		Username: username,
		Email:    username + "@" + f.faker.DomainName(),
		Password: f.password,
		Bio:      f.faker.Sentence(10),
		Image:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildArticle returns an unsaved article by author with a backdated
// creation time.
func (f *Factory) BuildArticle(author *models.User, overrides ...func(*models.Article)) *models.Article {
	created := f.pastTime()
	article := &models.Article{
		Title:       strings.TrimSuffix(f.faker.Sentence(f.faker.IntRange(3, 8)), "."),
		Description: f.faker.Sentence(12),
		Body:        f.faker.Paragraph(f.faker.IntRange(2, 5), 4, 12, "\n\n"),
		AuthorID:    author.ID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, override := range overrides {
		override(article)
	}
	return article
}

// CreateArticle persists an article with a unique slug and the given tags,
// resolving each tag name through the registry.
func (f *Factory) CreateArticle(ctx context.Context, author *models.User, tagNames []string, overrides ...func(*models.Article)) (*models.Article, error) {
	article := f.BuildArticle(author, overrides...)

	generated, err := slug.NewGenerator(f.articles.ExistsBySlug).Generate(ctx, article.Title)
	if err != nil {
		return nil, err
	}
	article.Slug = generated

	tags := make([]models.Tag, 0, len(tagNames))
	seen := make(map[string]struct{}, len(tagNames))
	for _, name := range tagNames {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		tag, err := f.tags.GetOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}

	if err := f.articles.Create(ctx, article, tags); err != nil {
		return nil, err
	}
	article.Author = *author
	return article, nil
}

// CreateComment persists a comment by author on article, dated after the article.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, article *models.Article) (*models.Comment, error) {
	created := article.CreatedAt.Add(time.Duration(f.faker.IntRange(1, 72*60)) * time.Minute)
	if created.After(time.Now()) {
		created = time.Now()
	}
	comment := &models.Comment{
		Body:      f.faker.Sentence(f.faker.IntRange(5, 25)),
		ArticleID: article.ID,
		AuthorID:  author.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Favorite records user liking article. Repeats are no-ops.
func (f *Factory) Favorite(ctx context.Context, user *models.User, article *models.Article) error {
	return f.favorites.Add(ctx, user.ID, article.ID)
}

// Follow records follower following target. Self-follows are skipped.
func (f *Factory) Follow(ctx context.Context, follower, target *models.User) error {
	if models.SameUser(follower, target) {
		return nil
	}
	return f.follows.Add(ctx, follower.ID, target.ID)
}

// PickTags returns between lo and hi distinct names from pool.
func (f *Factory) PickTags(pool []string, lo, hi int) []string {
	if len(pool) == 0 || hi <= 0 {
		return nil
	}
	hi = min(hi, len(pool))
	lo = min(max(lo, 0), hi)
	n := f.faker.IntRange(lo, hi)
	shuffled := append([]string(nil), pool...)
	f.faker.ShuffleStrings(shuffled)
	return shuffled[:n]
}
