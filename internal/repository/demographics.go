package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reelsense/taste-engine/internal/domain"
)

// GetDemographics returns the user's externally supplied demographics,
// nil when none were ever provided.
func (r *Repository) GetDemographics(ctx context.Context, userID int64) (*domain.Demographics, error) {
	d := &domain.Demographics{}
	var childrenAges []int

	err := r.pool.QueryRow(ctx,
		`SELECT age, gender, country, language, education, relationship_status, has_children, children_ages
		 FROM user_demographics WHERE user_id = $1`,
		userID,
	).Scan(&d.Age, &d.Gender, &d.Country, &d.Language, &d.Education, &d.RelationshipStatus, &d.HasChildren, &childrenAges)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query demographics for user %d: %w", userID, err)
	}
	d.ChildrenAges = childrenAges
	return d, nil
}

// UpsertDemographics stores the user's demographics verbatim.
func (r *Repository) UpsertDemographics(ctx context.Context, userID int64, d domain.Demographics) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_demographics
		   (user_id, age, gender, country, language, education, relationship_status, has_children, children_ages)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id) DO UPDATE SET
		   age = EXCLUDED.age, gender = EXCLUDED.gender, country = EXCLUDED.country,
		   language = EXCLUDED.language, education = EXCLUDED.education,
		   relationship_status = EXCLUDED.relationship_status,
		   has_children = EXCLUDED.has_children, children_ages = EXCLUDED.children_ages`,
		userID, d.Age, d.Gender, d.Country, d.Language, d.Education, d.RelationshipStatus, d.HasChildren, d.ChildrenAges,
	)
	if err != nil {
		return fmt.Errorf("upsert demographics for user %d: %w", userID, err)
	}
	return nil
}
