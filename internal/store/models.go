// Package store はユーザーと課題(issue)の永続化を提供します。
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User はサインアップで作成されるユーザーです。
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:varchar(36)" json:"id"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// Issue はユーザーが所有する課題です。読み取り専用で扱います。
type Issue struct {
	bun.BaseModel `bun:"table:issues,alias:i"`

	ID        uuid.UUID `bun:"id,pk,type:varchar(36)" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:varchar(36)" json:"userId"`
	User      *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
