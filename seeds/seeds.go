// Package seeds loads demo rating logs for local development. Rating
// counts are chosen to land users on interesting sides of the learning
// thresholds.
package seeds

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Setup(ctx context.Context, pool *pgxpool.Pool) error {
	rng := rand.New(rand.NewSource(42))

	// Truncate existing data before insert
	log.Println("[seed] truncating existing data")
	if _, err := pool.Exec(ctx, `
		TRUNCATE user_ratings, watchlist, user_demographics RESTART IDENTITY CASCADE
	`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	log.Println("[seed] inserting demographics")
	if err := seedDemographics(ctx, pool); err != nil {
		return fmt.Errorf("seed demographics: %w", err)
	}

	log.Println("[seed] inserting ratings")
	if err := seedRatings(ctx, pool, rng); err != nil {
		return fmt.Errorf("seed ratings: %w", err)
	}

	log.Println("[seed] seeding complete")
	return nil
}

type demoUser struct {
	id       int64
	ratings  int // numeric ratings to generate
	age      int
	country  string
	language string
}

// Demo users: one below the generation gate, one just past it, one deep
// in the optimizing phase.
var demoUsers = []demoUser{
	{id: 1, ratings: 6, age: 24, country: "US", language: "en"},
	{id: 2, ratings: 11, age: 35, country: "GB", language: "en"},
	{id: 3, ratings: 34, age: 29, country: "DE", language: "de"},
}

// Real catalog ids so local runs against the live catalog resolve
// metadata. Movies first, shows after.
var seedContentIDs = []struct {
	id    int
	media string
}{
	{550, "movie"}, {680, "movie"}, {155, "movie"}, {27205, "movie"},
	{603, "movie"}, {157336, "movie"}, {120, "movie"}, {122, "movie"},
	{24428, "movie"}, {299536, "movie"}, {11, "movie"}, {1891, "movie"},
	{238, "movie"}, {278, "movie"}, {13, "movie"}, {769, "movie"},
	{1399, "tv"}, {1396, "tv"}, {66732, "tv"}, {82856, "tv"},
	{60059, "tv"}, {1402, "tv"}, {456, "tv"}, {2316, "tv"},
	{87108, "tv"}, {76479, "tv"}, {71912, "tv"}, {85271, "tv"},
	{94605, "tv"}, {60625, "tv"}, {63174, "tv"}, {1416, "tv"},
	{46648, "tv"}, {69050, "tv"},
}

func seedDemographics(ctx context.Context, pool *pgxpool.Pool) error {
	for _, u := range demoUsers {
		if _, err := pool.Exec(ctx,
			`INSERT INTO user_demographics (user_id, age, gender, country, language, education, relationship_status, has_children, children_ages)
			 VALUES ($1, $2, '', $3, $4, '', '', FALSE, '{}')`,
			u.id, u.age, u.country, u.language,
		); err != nil {
			return err
		}
	}
	return nil
}

func seedRatings(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand) error {
	rows := []string{}
	args := []any{}

	for _, u := range demoUsers {
		start := time.Now().AddDate(0, -6, 0)
		for i := 0; i < u.ratings && i < len(seedContentIDs); i++ {
			content := seedContentIDs[i]
			// Skew toward high ratings so genre affinities form.
			rating := 6 + rng.Intn(5)
			ratedAt := start.Add(time.Duration(i) * 36 * time.Hour)

			base := len(args)
			rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
			args = append(args, u.id, content.id, rating, content.media, ratedAt)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	query := "INSERT INTO user_ratings (user_id, content_id, rating, media_type, rated_at) VALUES " + strings.Join(rows, ", ")
	_, err := pool.Exec(ctx, query, args...)
	return err
}
