package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrEmailTaken は同じメールアドレスのユーザーが既に存在する場合に返されます。
var ErrEmailTaken = errors.New("email already registered")

// Users は users テーブルへのアクセスを提供します。
type Users struct {
	db bun.IDB
}

// NewUsers は Users を作成します。
func NewUsers(db bun.IDB) *Users {
	return &Users{db: db}
}

// NormalizeEmail はメールアドレスを保存・検索用の形に揃えます。
// 大文字小文字は区別しません。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindUserByEmail はメールアドレスでユーザーを検索します。存在しない場合は nil を返します。
func (r *Users) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("u.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

// FindUserByID はIDでユーザーを検索します。存在しない場合は nil を返します。
func (r *Users) FindUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

// InsertUser はユーザーを作成します。
// メールアドレスが重複している場合は ErrEmailTaken を返します。
func (r *Users) InsertUser(ctx context.Context, email, passwordHash string) (*User, error) {
	user := &User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := r.db.NewInsert().Model(user).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}
