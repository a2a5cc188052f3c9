package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListAdmins(ctx context.Context) ([]domain.User, error)
	SetResetCode(ctx context.Context, id int64, code string, expiry time.Time) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type PGUserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &PGUserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, COALESCE(avatar, ''), COALESCE(reset_code, ''),
	reset_code_expiry, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Avatar, &u.ResetCode,
		&u.ResetCodeExpiry, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`, user.Name, user.Email, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapErr(err, "user"))
	}
	return nil
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err, "user")
	}
	return u, nil
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	if err != nil {
		return nil, mapErr(err, "user")
	}
	return u, nil
}

func (r *PGUserRepository) ListAdmins(ctx context.Context) ([]domain.User, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT `+userColumns+` FROM users WHERE role=$1 ORDER BY id`, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var admins []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *u)
	}
	return admins, rows.Err()
}

func (r *PGUserRepository) SetResetCode(ctx context.Context, id int64, code string, expiry time.Time) error {
	cmd, err := conn(ctx, r.db).Exec(ctx, `UPDATE users SET reset_code=$1, reset_code_expiry=$2, updated_at=now() WHERE id=$3`, code, expiry, id)
	if err != nil {
		return fmt.Errorf("set reset code: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("user not found")
	}
	return nil
}

// UpdatePassword stores the new hash and clears any outstanding reset code.
func (r *PGUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	cmd, err := conn(ctx, r.db).Exec(ctx, `UPDATE users SET password_hash=$1, reset_code=NULL, reset_code_expiry=NULL, updated_at=now() WHERE id=$2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFoundf("user not found")
	}
	return nil
}

var _ UserRepository = (*PGUserRepository)(nil)
