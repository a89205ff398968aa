package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hirely/api-service/internal/apperr"
	"hirely/api-service/internal/db"
)

const (
	msgEmailInUse   = "This email is already in use by another account."
	msgUserNotFound = "User not found."
)

// NewAccount is what the store needs to create a user.
type NewAccount struct {
	Name              string
	Email             string
	PasswordHash      string
	Phone             *string
	Location          string
	PreferredDistance int
	Role              string
}

// Store persists users and their ratings and reports.
type Store interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	// Create returns an apperr Conflict when the email is taken.
	Create(ctx context.Context, a NewAccount) (Account, error)
	// Credentials returns the account and password hash for email, or an
	// apperr NotFound.
	Credentials(ctx context.Context, email string) (Account, string, error)
	Update(ctx context.Context, id int64, u ProfileUpdate) (Account, error)
	ProfileByEmail(ctx context.Context, email string) (Profile, error)
	ProfileByID(ctx context.Context, id, viewerID int64) (Profile, error)
	Search(ctx context.Context, f SearchFilter) ([]Profile, error)
	UpsertRating(ctx context.Context, ratedID, raterID int64, r Rating) (RatingSummary, error)
	InsertReport(ctx context.Context, reportedID, reporterID int64, reason string, details *string) error
}

// ─── Postgres ────────────────────────────────────────────────────────────────

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const accountColumns = `id, name, email, phone, location, preferred_distance, role,
	avatar_url, total_jobs_worked, total_hours_worked::float8, created_at, updated_at`

func accountDest(a *Account) []any {
	return []any{
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.Location, &a.PreferredDistance, &a.Role,
		&a.AvatarURL, &a.TotalJobsWorked, &a.TotalHoursWorked, &a.CreatedAt, &a.UpdatedAt,
	}
}

// profileColumns expects the users table to be aliased as u.
const profileColumns = `u.id, u.name, u.email, u.phone, u.location, u.avatar_url, u.role,
	(SELECT AVG(rating)::float8 FROM user_ratings WHERE rated_user_id = u.id),
	(SELECT COUNT(*) FROM user_ratings WHERE rated_user_id = u.id)`

func profileDest(p *Profile) []any {
	return []any{
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.Location, &p.AvatarURL, &p.Role,
		&p.AverageRating, &p.TotalRatingsCount,
	}
}

func (s *PostgresStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("emailTaken: %w", err)
	}
	return taken, nil
}

func (s *PostgresStore) Create(ctx context.Context, a NewAccount) (Account, error) {
	var out Account
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, phone, location, preferred_distance, role)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+accountColumns,
		a.Name, a.Email, a.PasswordHash, a.Phone, a.Location, a.PreferredDistance, a.Role,
	).Scan(accountDest(&out)...)
	if db.IsUniqueViolation(err) {
		return Account{}, apperr.Wrap(apperr.KindConflict, msgEmailInUse, err)
	}
	if err != nil {
		return Account{}, fmt.Errorf("create user: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Credentials(ctx context.Context, email string) (Account, string, error) {
	var (
		a    Account
		hash string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+`, password_hash FROM users WHERE email = $1`, email,
	).Scan(append(accountDest(&a), &hash)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, "", apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return Account{}, "", fmt.Errorf("credentials: %w", err)
	}
	return a, hash, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, u ProfileUpdate) (Account, error) {
	dist := 0
	if u.PreferredDistance != nil {
		dist = *u.PreferredDistance
	}
	var out Account
	err := s.pool.QueryRow(ctx,
		`UPDATE users
		 SET name = $2, email = $3, phone = $4, location = $5,
		     preferred_distance = $6, avatar_url = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+accountColumns,
		id, u.Name, u.Email, u.Phone, u.Location, dist, u.AvatarURL,
	).Scan(accountDest(&out)...)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Account{}, apperr.NotFound(msgUserNotFound)
	case db.IsUniqueViolation(err):
		return Account{}, apperr.Wrap(apperr.KindConflict, msgEmailInUse, err)
	case err != nil:
		return Account{}, fmt.Errorf("update user %d: %w", id, err)
	}
	return out, nil
}

func (s *PostgresStore) profile(ctx context.Context, sql string, args ...any) (Profile, error) {
	var p Profile
	err := s.pool.QueryRow(ctx, sql, args...).Scan(profileDest(&p)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ProfileByEmail(ctx context.Context, email string) (Profile, error) {
	return s.profile(ctx, `SELECT `+profileColumns+` FROM users u WHERE u.email = $1`, email)
}

func (s *PostgresStore) ProfileByID(ctx context.Context, id, viewerID int64) (Profile, error) {
	var p Profile
	err := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+`,
		        (SELECT rating FROM user_ratings WHERE rated_user_id = u.id AND rater_user_id = $2)
		 FROM users u WHERE u.id = $1`,
		id, viewerID,
	).Scan(append(profileDest(&p), &p.MyRating)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("profile %d: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) Search(ctx context.Context, f SearchFilter) ([]Profile, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + profileColumns + ` FROM users u WHERE TRUE`)
	arg := func(v string) string {
		args = append(args, "%"+v+"%")
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Keywords != "" {
		ph := arg(f.Keywords)
		sb.WriteString(` AND (u.name ILIKE ` + ph + ` OR u.email ILIKE ` + ph + `)`)
	}
	if f.Location != "" {
		sb.WriteString(` AND u.location ILIKE ` + arg(f.Location))
	}
	if f.Role != "" {
		sb.WriteString(` AND u.role ILIKE ` + arg(f.Role))
	}
	sb.WriteString(` ORDER BY u.name ASC, u.id ASC`)

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searchUsers query: %w", err)
	}
	defer rows.Close()

	out := make([]Profile, 0)
	for rows.Next() {
		var p Profile
		if err := rows.Scan(profileDest(&p)...); err != nil {
			return nil, fmt.Errorf("searchUsers scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertRating(ctx context.Context, ratedID, raterID int64, r Rating) (RatingSummary, error) {
	var sum RatingSummary
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO user_ratings (rated_user_id, rater_user_id, rating, comment)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (rated_user_id, rater_user_id) DO UPDATE
			 SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, created_at = NOW()`,
			ratedID, raterID, r.Rating, r.Comment)
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx,
			`SELECT AVG(rating)::float8, COUNT(*) FROM user_ratings WHERE rated_user_id = $1`,
			ratedID).Scan(&sum.AverageRating, &sum.TotalRatingsCount)
	})
	if db.IsForeignKeyViolation(err) {
		return RatingSummary{}, apperr.Wrap(apperr.KindNotFound, msgUserNotFound, err)
	}
	if err != nil {
		return RatingSummary{}, fmt.Errorf("rate user %d: %w", ratedID, err)
	}
	return sum, nil
}

func (s *PostgresStore) InsertReport(ctx context.Context, reportedID, reporterID int64, reason string, details *string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_reports (reported_user_id, reporter_user_id, reason, details)
		 VALUES ($1, $2, $3, $4)`,
		reportedID, reporterID, reason, details)
	if db.IsForeignKeyViolation(err) {
		return apperr.Wrap(apperr.KindNotFound, msgUserNotFound, err)
	}
	if err != nil {
		return fmt.Errorf("report user %d: %w", reportedID, err)
	}
	return nil
}
