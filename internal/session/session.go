// Package session はセッショントークンの発行・検証・破棄を提供します。
//
// トークンは HS256 で署名した JWT で、jti をキーにしたミラーレコードを
// サーバー側に保存します。署名・有効期限・ミラーの3点が揃ったトークンだけが有効です。
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session は検証済みのセッションです。
type Session struct {
	ID        string
	Token     string
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Record はサーバー側に保存するミラーレコードです。
type Record struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired は now 時点で期限切れかどうかを返します。
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Channel はクライアントごとにトークンを1つだけ保持できる入れ物です（Cookie など）。
type Channel interface {
	Token() string
	Put(token string) error
	Clear() error
}

// Mirror はミラーレコードの保存先です。
// Load は存在しない場合 (nil, nil) を返します。Delete は存在しなくてもエラーにしません。
type Mirror interface {
	Save(ctx context.Context, record *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
}
