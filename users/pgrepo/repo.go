package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jrsteele09/go-hr-portal/users"
)

var _ users.Repo = (*Repo)(nil)

// Repo implements users.Repo on PostgreSQL.
type Repo struct {
	db      DB
	nowTime func() time.Time
}

func New(db DB) *Repo {
	return &Repo{db: db, nowTime: time.Now}
}

func (r *Repo) FetchRole(ctx context.Context, userID string) (users.Role, error) {
	var raw string
	err := r.db.QueryRow(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", users.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("[pgrepo.FetchRole] %w", err)
	}
	role, err := users.ParseRole(raw)
	if err != nil {
		return "", fmt.Errorf("[pgrepo.FetchRole] %w", err)
	}
	return role, nil
}

func (r *Repo) FetchProfile(ctx context.Context, userID string) (*users.Profile, error) {
	const query = `
		SELECT id, user_id, full_name, email, company_name, country, created_at, updated_at
		FROM profiles
		WHERE user_id = $1`

	var (
		p       users.Profile
		country string
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.FullName, &p.Email, &p.CompanyName, &country, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[pgrepo.FetchProfile] %w", err)
	}
	p.Country = users.Country(country)
	return &p, nil
}

func (r *Repo) InsertProfile(ctx context.Context, profile *users.Profile) error {
	const query = `
		INSERT INTO profiles (id, user_id, full_name, email, company_name, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	now := r.nowTime().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	_, err := r.db.Exec(ctx, query,
		profile.ID,
		profile.UserID,
		profile.FullName,
		profile.Email,
		profile.CompanyName,
		string(profile.Country),
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("[pgrepo.InsertProfile] %w", err)
	}
	return nil
}

func (r *Repo) InsertRole(ctx context.Context, userID string, role users.Role) error {
	if _, err := r.db.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, userID, string(role)); err != nil {
		return fmt.Errorf("[pgrepo.InsertRole] %w", err)
	}
	return nil
}

// UpdateProfile writes only the columns present in update.
func (r *Repo) UpdateProfile(ctx context.Context, userID string, update users.ProfileUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.FullName != nil {
		add("full_name", *update.FullName)
	}
	if update.Email != nil {
		add("email", *update.Email)
	}
	if update.CompanyName != nil {
		add("company_name", *update.CompanyName)
	}
	if update.Country != nil {
		add("country", string(*update.Country))
	}
	add("updated_at", r.nowTime().UTC())
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE profiles SET %s WHERE user_id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("[pgrepo.UpdateProfile] %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}
