package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	intconfig "ridemate/internal/config"
	"ridemate/internal/domain"
	"ridemate/internal/domain/models"
)

type UserRepo struct {
	DB *sql.DB
}

func (r UserRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const userColumns = `id, name, email, phone, password_hash, role, COALESCE(gender, ''),
		rating, is_verified, is_active, last_login, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.Gender,
		&u.Rating, &u.IsVerified, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return u, nil
}

func (r UserRepo) GetByID(ctx context.Context, id int64) (models.User, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, domain.NotFoundError{Resource: "user"}
		}
		return models.User{}, domain.InternalError{Err: err}
	}
	return u, nil
}

func (r UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.db().QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=?`, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, domain.NotFoundError{Resource: "user"}
		}
		return models.User{}, domain.InternalError{Err: err}
	}
	return u, nil
}

func (r UserRepo) EmailOrPhoneExists(ctx context.Context, email, phone string) (bool, error) {
	var n int
	err := r.db().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email=? OR phone=?`,
		strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(phone)).Scan(&n)
	if err != nil {
		return false, domain.InternalError{Err: err}
	}
	return n > 0, nil
}

func (r UserRepo) Create(ctx context.Context, u *models.User) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO users (name, email, phone, password_hash, role, gender, rating, is_verified, is_active)
		VALUES (?,?,?,?,?,?,5.0,0,1)`,
		strings.TrimSpace(u.Name), strings.ToLower(strings.TrimSpace(u.Email)),
		strings.TrimSpace(u.Phone), u.PasswordHash, u.Role, nullIfEmpty(u.Gender),
	)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	u.ID = id
	u.Rating = 5.0
	u.IsActive = true
	return nil
}

func (r UserRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db().ExecContext(ctx, `UPDATE users SET last_login=? WHERE id=?`, at, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

func (r UserRepo) SetVerified(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `UPDATE users SET is_verified=1 WHERE id=?`, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "user"}
	}
	return nil
}

func (r UserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db().ExecContext(ctx, `UPDATE users SET is_active=? WHERE id=?`, active, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "user"}
	}
	return nil
}

type UserFilter struct {
	Search   string
	Verified *bool
	Active   *bool
	Page     int
	PageSize int
}

// List returns regular accounts for the admin view, newest first.
func (r UserRepo) List(ctx context.Context, f UserFilter) ([]models.User, int, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 10
	}

	where := []string{"role='user'"}
	args := []any{}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(name LIKE ? OR email LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like)
	}
	if f.Verified != nil {
		where = append(where, "is_verified=?")
		args = append(args, *f.Verified)
	}
	if f.Active != nil {
		where = append(where, "is_active=?")
		args = append(args, *f.Active)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, domain.InternalError{Err: err}
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	rows, err := r.db().QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+cond+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, 0, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, domain.InternalError{Err: err}
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.InternalError{Err: err}
	}
	return out, total, nil
}
