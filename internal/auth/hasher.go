package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はパスワードの一方向ハッシュと照合を行います。
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher は bcrypt による Hasher です。ソルトはダイジェストに埋め込まれます。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は BcryptHasher を作成します。範囲外のコストは既定値に置き換えます。
func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{cost: cost}
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は一致すれば true を返します。ダイジェストが壊れている場合も false です。
func (h BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
