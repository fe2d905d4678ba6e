package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "issuehub"

var errInvalidToken = errors.New("invalid session token")

type tokenClaims struct {
	jwt.RegisteredClaims
}

type signer struct {
	key []byte
}

func (s signer) mint(record *Record) (string, error) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        record.ID,
			Subject:   record.UserID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(record.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(record.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// parse は署名と有効期限を検証してクレームを返します。
// verifyExpiry が false の場合、期限切れトークンも受け付けます（破棄処理用）。
func (s signer) parse(raw string, now time.Time, verifyExpiry bool) (*tokenClaims, uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if verifyExpiry {
		opts = append(opts, jwt.WithExpirationRequired())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if claims.ID == "" {
		return nil, uuid.Nil, fmt.Errorf("%w: missing jti", errInvalidToken)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: bad subject", errInvalidToken)
	}
	return claims, userID, nil
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
