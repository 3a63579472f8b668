package repository

import (
	"context"
	"database/sql"
	"fmt"

	"taskboard/internal/models"
	"taskboard/pkg/crypto"

	"github.com/google/uuid"
)

// UserStore is the credential store used by auth, the session verifier and
// the update coordinator.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error
}

type UserRepository struct {
	db     DBTX
	sealer *crypto.Sealer
}

// NewUserRepository seals device tokens with sealer when it is non-nil.
func NewUserRepository(db DBTX, sealer *crypto.Sealer) *UserRepository {
	return &UserRepository{db: db, sealer: sealer}
}

// WithTx returns a copy bound to tx.
func (r *UserRepository) WithTx(tx DBTX) *UserRepository {
	return &UserRepository{db: tx, sealer: r.sealer}
}

const userColumns = `id, email, password, COALESCE(name, ''), COALESCE(profile_picture, ''),
	COALESCE(bio, ''), COALESCE(device_token, ''), user_type, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Kind == "" {
		user.Kind = models.AccountKindUser
	}
	deviceToken, err := r.seal(user.DeviceToken)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, password, name, profile_picture, bio, device_token, user_type)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
		RETURNING created_at, updated_at`,
		user.ID, user.Email, user.Password, user.Name, user.ProfilePicture, user.Bio, deviceToken, string(user.Kind),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapError(err))
	}
	return nil
}

// FindByEmail returns the user including its password hash.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	return r.scan(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return r.scan(row)
}

// UpdateProfile only touches fields that are non-nil in upd.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error {
	var deviceToken *string
	if upd.DeviceToken != nil {
		sealed, err := r.seal(*upd.DeviceToken)
		if err != nil {
			return err
		}
		deviceToken = &sealed
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = COALESCE($2, email),
			name = COALESCE($3, name),
			profile_picture = COALESCE($4, profile_picture),
			bio = COALESCE($5, bio),
			device_token = COALESCE($6, device_token),
			updated_at = NOW()
		WHERE id = $1`,
		id, upd.Email, upd.Name, upd.ProfilePicture, upd.Bio, deviceToken,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) scan(row *sql.Row) (*models.User, error) {
	var (
		u    models.User
		kind string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.ProfilePicture,
		&u.Bio, &u.DeviceToken, &kind, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	u.Kind = models.AccountKind(kind)

	if u.DeviceToken, err = r.open(u.DeviceToken); err != nil {
		return nil, fmt.Errorf("open device token: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) seal(v string) (string, error) {
	if r.sealer == nil {
		return v, nil
	}
	return r.sealer.Seal(v)
}

func (r *UserRepository) open(v string) (string, error) {
	if r.sealer == nil {
		return v, nil
	}
	return r.sealer.Open(v)
}
