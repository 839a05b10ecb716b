// Command main fills the database with demo users, articles and activity.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"conduit/internal/config"
	"conduit/internal/database"
	"conduit/internal/middleware"
	"conduit/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numArticles := flag.Int("articles", 60, "Number of articles to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Seed from a named preset (overrides -users and -articles)")
	presetFile := flag.String("presets", "", "YAML file with extra presets")
	fastHash := flag.Bool("fast-hash", false, "Hash the shared password at bcrypt's minimum cost")
	randomSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 picks one)")
	flag.Parse()

	opts, err := resolveOptions(*preset, *presetFile)
	if err != nil {
		log.Fatalf("Failed to resolve preset: %v", err)
	}
	if *preset == "" {
		opts.Users = *numUsers
		opts.Articles = *numArticles
	}
	opts.Clean = *shouldClean
	opts.FastHash = opts.FastHash || *fastHash
	if *randomSeed != 0 {
		opts.RandomSeed = *randomSeed
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		log.Fatalf("Invalid seed options: %v", err)
	}

	middleware.Logger.Info("Seeding database",
		slog.String("preset", *preset),
		slog.Int("users", opts.Users),
		slog.Int("articles", opts.Articles),
		slog.Bool("clean", opts.Clean),
	)
	if _, err := s.Run(ctx); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	middleware.Logger.Info("Seeded users share one password", slog.String("password", seed.DefaultPassword))
}

// resolveOptions returns the selected preset, or the "demo" sizing for the
// secondary counters when no preset is named.
func resolveOptions(name, file string) (seed.Options, error) {
	presets := seed.BuiltInPresets
	if file != "" {
		loaded, err := seed.LoadPresetFile(file)
		if err != nil {
			return seed.Options{}, err
		}
		presets = loaded
	}
	if name == "" {
		name = "demo"
	}
	return presets.Lookup(name)
}
