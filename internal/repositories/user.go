// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"go-task-plans/backend/internal/models"
)

var (
	ErrDuplicateUser = errors.New("duplicate email or login")
	ErrUserNotFound  = errors.New("user not found")
)

// HashPassword は与えられたパスワードをbcryptでハッシュ化します。
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// VerifyPassword はハッシュ化されたパスワードと平文のパスワードを比較します。
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// UserRepository はusersテーブルへのアクセスを提供します。
type UserRepository struct {
	DB *sql.DB
}

// NewUserRepository は新しいUserRepositoryインスタンスを作成します。
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Create は新しいユーザーをデータベースに挿入します。
// email/loginのUNIQUE制約違反は ErrDuplicateUser として返します。
func (r *UserRepository) Create(u *models.User) (*models.User, error) {
	createdAt := time.Now().UTC()
	query := "INSERT INTO users (email, login, password_hash, created_at) VALUES (?, ?, ?, ?)"
	result, err := r.DB.Exec(query, u.Email, u.Login, u.PasswordHash, createdAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("could not insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	u.ID = int(id)
	u.CreatedAt = createdAt
	return u, nil
}

// FindByID は指定IDのユーザーを取得します。ハッシュは含めません。
func (r *UserRepository) FindByID(id int) (*models.User, error) {
	query := "SELECT id, email, login, created_at FROM users WHERE id = ?"
	var u models.User
	err := r.DB.QueryRow(query, id).Scan(&u.ID, &u.Email, &u.Login, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not query user: %w", err)
	}
	return &u, nil
}

// FindByEmail はメールアドレスのみでユーザーを検索します。
// パスワードリセットのようにメールの持ち主だけを対象にしたい場面で使います。
func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	query := "SELECT id, email, login, password_hash, created_at FROM users WHERE email = lower(?)"
	var u models.User
	err := r.DB.QueryRow(query, email).Scan(
		&u.ID, &u.Email, &u.Login, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not query user: %w", err)
	}
	return &u, nil
}

// FindByIdentifier はメールアドレスまたはログイン名でユーザーを検索します。
// メールアドレスは小文字で保存されているため、小文字化して比較します。
func (r *UserRepository) FindByIdentifier(identifier string) (*models.User, error) {
	query := "SELECT id, email, login, password_hash, created_at FROM users WHERE email = lower(?) OR login = ?"
	var u models.User
	err := r.DB.QueryRow(query, identifier, identifier).Scan(
		&u.ID, &u.Email, &u.Login, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not query user: %w", err)
	}
	return &u, nil
}

// UpdatePassword はユーザーのパスワードハッシュを更新します。
func (r *UserRepository) UpdatePassword(userID int, newHash string) error {
	res, err := r.DB.Exec("UPDATE users SET password_hash = ? WHERE id = ?", newHash, userID)
	if err != nil {
		return fmt.Errorf("could not update password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
