package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL はセッションの既定の有効期間です。
const DefaultTTL = 7 * 24 * time.Hour

// Options は Store の設定です。
type Options struct {
	Secret []byte
	TTL    time.Duration
	// Now は現在時刻の取得に使います。nil の場合は time.Now。
	Now func() time.Time
}

// Store はセッションの発行・解決・破棄を行います。
type Store struct {
	mirror Mirror
	signer signer
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewStore は Store を作成します。
func NewStore(mirror Mirror, opts Options, logger *slog.Logger) (*Store, error) {
	if mirror == nil {
		return nil, errors.New("mirror is nil")
	}
	if len(opts.Secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		mirror: mirror,
		signer: signer{key: opts.Secret},
		ttl:    ttl,
		now:    now,
		logger: logger,
	}, nil
}

// Create はユーザーに紐づくセッションを発行し、トークンをチャネルに書き込みます。
// チャネルに古いトークンがあれば、そのミラーは削除します。
func (s *Store) Create(ctx context.Context, ch Channel, userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", errors.New("user id is required")
	}

	id, err := newSessionID()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	now := s.now().UTC()
	record := &Record{
		ID:        id,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	token, err := s.signer.mint(record)
	if err != nil {
		return "", err
	}
	if err := s.mirror.Save(ctx, record); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	prev := ch.Token()
	if err := ch.Put(token); err != nil {
		_ = s.mirror.Delete(ctx, id)
		return "", fmt.Errorf("write session token: %w", err)
	}
	// 書き込みに失敗した場合は古いトークンを生かしておく
	if prev != "" && prev != token {
		s.revoke(ctx, prev)
	}
	return token, nil
}

// Resolve はトークンからセッションを取得します。
// トークンが空・不正・期限切れ・ミラー無しの場合は (nil, nil) を返します。
// エラーはミラーの読み込み失敗時のみ返します。
func (s *Store) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	now := s.now()
	claims, userID, err := s.signer.parse(token, now, true)
	if err != nil {
		return nil, nil
	}

	record, err := s.mirror.Load(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if record == nil || record.UserID != userID || record.Expired(now) {
		return nil, nil
	}

	return &Session{
		ID:        record.ID,
		Token:     token,
		UserID:    record.UserID,
		IssuedAt:  record.IssuedAt,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// Destroy はチャネルのセッションを削除し、トークンをクリアします。
// セッションが存在しなくてもエラーにはしません。
func (s *Store) Destroy(ctx context.Context, ch Channel) error {
	var errs []error
	if token := ch.Token(); token != "" {
		if claims, _, err := s.signer.parse(token, s.now(), false); err == nil {
			if err := s.mirror.Delete(ctx, claims.ID); err != nil {
				errs = append(errs, fmt.Errorf("delete session: %w", err))
			}
		}
	}
	if err := ch.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("clear session token: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Store) revoke(ctx context.Context, token string) {
	claims, _, err := s.signer.parse(token, s.now(), false)
	if err != nil {
		return
	}
	if err := s.mirror.Delete(ctx, claims.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke previous session", "error", err)
	}
}
