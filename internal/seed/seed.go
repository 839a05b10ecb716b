package seed

import (
	"context"
	"fmt"
	"log/slog"

	"conduit/internal/middleware"
	"conduit/internal/models"

	"gorm.io/gorm"
)

// Options sizes a seeding run.
type Options struct {
	Users                 int      `yaml:"users"`
	Articles              int      `yaml:"articles"`
	MaxCommentsPerArticle int      `yaml:"max_comments_per_article"`
	FollowsPerUser        int      `yaml:"follows_per_user"`
	FavoritesPerUser      int      `yaml:"favorites_per_user"`
	MaxTagsPerArticle     int      `yaml:"max_tags_per_article"`
	Tags                  []string `yaml:"tags"`
	MaxDays               int      `yaml:"max_days"`

	// Clean removes existing rows first.
	Clean bool `yaml:"clean"`
	// FastHash hashes the shared password at bcrypt's minimum cost.
	FastHash   bool  `yaml:"fast_hash"`
	RandomSeed int64 `yaml:"random_seed"`
}

// DefaultTags is the tag pool used when Options.Tags is empty.
var DefaultTags = []string{
	"go", "databases", "distributed-systems", "testing", "devops", "security",
	"frontend", "career", "open-source", "performance", "dragons", "training",
}

// Summary counts what a run created.
type Summary struct {
	Users     int
	Articles  int
	Comments  int
	Follows   int
	Favorites int
}

// Seeder populates the database with a connected graph of demo content.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder prepares a seeding run against db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	if opts.Users < 0 || opts.Articles < 0 {
		return nil, fmt.Errorf("seed counts must not be negative")
	}
	if len(opts.Tags) == 0 {
		opts.Tags = DefaultTags
	}
	if opts.MaxTagsPerArticle <= 0 {
		opts.MaxTagsPerArticle = 3
	}
	factory, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: opts, factory: factory}, nil
}

// Tables in dependency order, children first.
var seededTables = []string{"comments", "favorites", "article_tags", "articles", "tags", "follows", "users"}

// ClearAll deletes every seeded row.
func (s *Seeder) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range seededTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Run creates users, the follow graph, articles with tags, comments and
// favorites, in that order.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	logger := middleware.Logger

	if s.opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return sum, err
		}
		logger.InfoContext(ctx, "cleared existing data")
	}

	users, err := s.seedUsers(ctx)
	if err != nil {
		return sum, fmt.Errorf("seed users: %w", err)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	if sum.Follows, err = s.seedFollows(ctx, users); err != nil {
		return sum, fmt.Errorf("seed follows: %w", err)
	}

	articles, err := s.seedArticles(ctx, users)
	if err != nil {
		return sum, fmt.Errorf("seed articles: %w", err)
	}
	sum.Articles = len(articles)

	if sum.Comments, err = s.seedComments(ctx, users, articles); err != nil {
		return sum, fmt.Errorf("seed comments: %w", err)
	}
	if sum.Favorites, err = s.seedFavorites(ctx, users, articles); err != nil {
		return sum, fmt.Errorf("seed favorites: %w", err)
	}

	logger.InfoContext(ctx, "seeding complete",
		slog.Int("users", sum.Users),
		slog.Int("follows", sum.Follows),
		slog.Int("articles", sum.Articles),
		slog.Int("comments", sum.Comments),
		slog.Int("favorites", sum.Favorites),
	)
	return sum, nil
}

const maxUserAttempts = 5

func (s *Seeder) seedUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.Users)
	for len(users) < s.opts.Users {
		var (
			user *models.User
			err  error
		)
		for attempt := 0; attempt < maxUserAttempts; attempt++ {
			user, err = s.factory.CreateUser(ctx)
			if !models.HasCode(err, models.CodeConflict) {
				break
			}
		}
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedFollows(ctx context.Context, users []*models.User) (int, error) {
	if s.opts.FollowsPerUser <= 0 || len(users) < 2 {
		return 0, nil
	}
	total := 0
	for _, follower := range users {
		for _, target := range s.sample(users, s.opts.FollowsPerUser, follower) {
			if err := s.factory.Follow(ctx, follower, target); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

func (s *Seeder) seedArticles(ctx context.Context, users []*models.User) ([]*models.Article, error) {
	articles := make([]*models.Article, 0, s.opts.Articles)
	for i := 0; i < s.opts.Articles; i++ {
		author := users[s.factory.faker.IntRange(0, len(users)-1)]
		tags := s.factory.PickTags(s.opts.Tags, 0, s.opts.MaxTagsPerArticle)
		article, err := s.factory.CreateArticle(ctx, author, tags)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func (s *Seeder) seedComments(ctx context.Context, users []*models.User, articles []*models.Article) (int, error) {
	if s.opts.MaxCommentsPerArticle <= 0 {
		return 0, nil
	}
	total := 0
	for _, article := range articles {
		n := s.factory.faker.IntRange(0, s.opts.MaxCommentsPerArticle)
		for i := 0; i < n; i++ {
			author := users[s.factory.faker.IntRange(0, len(users)-1)]
			if _, err := s.factory.CreateComment(ctx, author, article); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

func (s *Seeder) seedFavorites(ctx context.Context, users []*models.User, articles []*models.Article) (int, error) {
	if s.opts.FavoritesPerUser <= 0 || len(articles) == 0 {
		return 0, nil
	}
	total := 0
	for _, user := range users {
		for _, article := range sampleArticles(s.factory, articles, s.opts.FavoritesPerUser) {
			if err := s.factory.Favorite(ctx, user, article); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

// sample picks up to n distinct users, never exclude.
func (s *Seeder) sample(users []*models.User, n int, exclude *models.User) []*models.User {
	candidates := make([]*models.User, 0, len(users))
	for _, u := range users {
		if !models.SameUser(u, exclude) {
			candidates = append(candidates, u)
		}
	}
	shuffle(s.factory, len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates[:min(n, len(candidates))]
}

func sampleArticles(f *Factory, articles []*models.Article, n int) []*models.Article {
	picked := append([]*models.Article(nil), articles...)
	shuffle(f, len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:min(n, len(picked))]
}

// shuffle is a Fisher-Yates pass driven by the factory's seeded source.
func shuffle(f *Factory, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, f.faker.IntRange(0, i))
	}
}
