package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/chatline/chatline/internal/database"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("email or username already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. Uniqueness of email and username is enforced
// by the database so concurrent signups cannot both succeed.
func (r *Repository) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	dbUser := &database.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByIdentifier retrieves a user by email or username, whichever matches.
func (r *Repository) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("email = ?", identifier).WhereOr("username = ?", identifier)
		}).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by identifier: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SetResetToken stores the hash and expiry of an outstanding reset
// credential in one update. A second request overwrites the first, so a
// user has at most one active reset credential.
func (r *Repository) SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiry time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("reset_token_hash = ?", tokenHash).
		Set("reset_token_expiry = ?", expiry).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// RedeemResetToken sets a new password hash for the user holding the
// given reset token hash and clears the reset columns, all in a single
// statement whose match condition includes the token hash and a future
// expiry. Two concurrent redemptions of the same credential cannot both
// match; the loser gets ErrNotFound.
func (r *Repository) RedeemResetToken(ctx context.Context, tokenHash, newPasswordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", newPasswordHash).
		Set("reset_token_hash = NULL").
		Set("reset_token_expiry = NULL").
		Set("updated_at = NOW()").
		Where("reset_token_hash = ?", tokenHash).
		Where("reset_token_expiry > NOW()").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to redeem reset token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateProfile updates the mutable profile fields and returns the new row.
func (r *Repository) UpdateProfile(ctx context.Context, userID uuid.UUID, username, email, profilePicture string) (*User, error) {
	dbUser := new(database.User)
	q := r.db.NewUpdate().
		Model(dbUser).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Returning("*")

	if username != "" {
		q = q.Set("username = ?", username)
	}
	if email != "" {
		q = q.Set("email = ?", email)
	}
	if profilePicture != "" {
		q = q.Set("profile_picture = ?", profilePicture)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

// ListOthers returns every user except the given one, for the contact list.
func (r *Repository) ListOthers(ctx context.Context, excludeID uuid.UUID) ([]Projection, error) {
	var dbUsers []database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		Where("id != ?", excludeID).
		Order("username ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	projections := make([]Projection, 0, len(dbUsers))
	for i := range dbUsers {
		projections = append(projections, mapDBUserToModel(&dbUsers[i]).Project())
	}

	return projections, nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:               dbu.ID,
		Username:         dbu.Username,
		Email:            dbu.Email,
		PasswordHash:     dbu.PasswordHash,
		ProfilePicture:   dbu.ProfilePicture,
		ResetTokenHash:   dbu.ResetTokenHash,
		ResetTokenExpiry: dbu.ResetTokenExpiry,
		CreatedAt:        dbu.CreatedAt,
		UpdatedAt:        dbu.UpdatedAt,
	}
}
