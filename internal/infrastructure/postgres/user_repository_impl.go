package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/domain/entity"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/domain/repository"
)

const userColumns = `id, email, password_hash, refresh_token, otp_code,
	first_name, last_name, role, is_online, is_email_verified, verified,
	created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(u *entity.User) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, refresh_token, otp_code,
			first_name, last_name, role, is_online, is_email_verified, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, u.Email, u.PasswordHash, u.RefreshToken, u.OTPCode,
		u.FirstName, u.LastName, u.Role, u.IsOnline, u.IsEmailVerified, u.Verified)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(id string) (*entity.User, error) {
	return r.getBy(`WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(email string) (*entity.User, error) {
	return r.getBy(`WHERE email = $1`, email)
}

func (r *UserRepository) getBy(where string, arg any) (*entity.User, error) {
	ctx := context.Background()
	u := &entity.User{}

	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, arg)

	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.RefreshToken, &u.OTPCode,
		&u.FirstName, &u.LastName, &u.Role, &u.IsOnline, &u.IsEmailVerified, &u.Verified,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return u, nil
}

func (r *UserRepository) Update(u *entity.User) error {
	ctx := context.Background()
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, password_hash = $2, refresh_token = $3, otp_code = $4,
			first_name = $5, last_name = $6, role = $7, is_online = $8,
			is_email_verified = $9, verified = $10, updated_at = $11
		WHERE id = $12
	`, u.Email, u.PasswordHash, u.RefreshToken, u.OTPCode,
		u.FirstName, u.LastName, u.Role, u.IsOnline,
		u.IsEmailVerified, u.Verified, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}

	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
