package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/store"
)

type profileRepo struct {
	db *pgxpool.Pool
}

const profileColumns = `id, email, role, tier, name, bio, location, avatar_url,
	linkedin_url, twitter_url, website_url, venture_name, venture_stage,
	investment_focus, expertise, hourly_rate, created_at, updated_at`

func scanProfile(row pgx.Row) (*model.Identity, error) {
	var p model.Identity
	err := row.Scan(
		&p.ID, &p.Email, &p.Role, &p.Tier, &p.Name, &p.Bio, &p.Location,
		&p.AvatarURL, &p.LinkedInURL, &p.TwitterURL, &p.WebsiteURL,
		&p.VentureName, &p.VentureStage, &p.InvestmentFocus, &p.Expertise,
		&p.HourlyRate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (r *profileRepo) Get(ctx context.Context, id string) (*model.Identity, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(r.db.QueryRow(ctx, q, id))
}

func (r *profileRepo) Create(ctx context.Context, identity *model.Identity) error {
	q := `
		INSERT INTO profiles (id, email, role, tier, name, bio, location, avatar_url,
			linkedin_url, twitter_url, website_url, venture_name, venture_stage,
			investment_focus, expertise, hourly_rate, created_at, updated_at)
		VALUES (@id, @email, @role, @tier, @name, @bio, @location, @avatar_url,
			@linkedin_url, @twitter_url, @website_url, @venture_name, @venture_stage,
			@investment_focus, @expertise, @hourly_rate, @created_at, @updated_at)
	`
	_, err := r.db.Exec(ctx, q, profileArgs(identity))
	if err != nil {
		return translateError(err)
	}
	return nil
}

func (r *profileRepo) Update(ctx context.Context, identity *model.Identity) error {
	q := `
		UPDATE profiles SET email = @email, role = @role, tier = @tier, name = @name,
			bio = @bio, location = @location, avatar_url = @avatar_url,
			linkedin_url = @linkedin_url, twitter_url = @twitter_url,
			website_url = @website_url, venture_name = @venture_name,
			venture_stage = @venture_stage, investment_focus = @investment_focus,
			expertise = @expertise, hourly_rate = @hourly_rate, updated_at = @updated_at
		WHERE id = @id
	`
	tag, err := r.db.Exec(ctx, q, profileArgs(identity))
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *profileRepo) List(ctx context.Context, filter store.ListProfilesFilter) ([]model.Identity, int, error) {
	where := `WHERE ($1 = '' OR role = $1) AND ($2 = '' OR id::text <> $2)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles `+where,
		string(filter.Role), filter.ExcludeID).Scan(&total); err != nil {
		return nil, 0, translateError(err)
	}

	q := `SELECT ` + profileColumns + ` FROM profiles ` + where + `
		ORDER BY LOWER(name) LIMIT $3 OFFSET $4`
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, q, string(filter.Role), filter.ExcludeID, limit, filter.Offset)
	if err != nil {
		return nil, 0, translateError(err)
	}
	defer rows.Close()

	var out []model.Identity
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan profile: %w", err)
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func profileArgs(p *model.Identity) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":               p.ID,
		"email":            p.Email,
		"role":             string(p.Role),
		"tier":             string(p.Tier),
		"name":             p.Name,
		"bio":              p.Bio,
		"location":         p.Location,
		"avatar_url":       p.AvatarURL,
		"linkedin_url":     p.LinkedInURL,
		"twitter_url":      p.TwitterURL,
		"website_url":      p.WebsiteURL,
		"venture_name":     p.VentureName,
		"venture_stage":    p.VentureStage,
		"investment_focus": p.InvestmentFocus,
		"expertise":        p.Expertise,
		"hourly_rate":      p.HourlyRate,
		"created_at":       p.CreatedAt,
		"updated_at":       p.UpdatedAt,
	}
}
