package auth

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yourusername/issuehub/internal/session"
	"github.com/yourusername/issuehub/internal/store"
)

type sessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

type userFinder interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*store.User, error)
}

// Identity はリクエストのセッションから現在のユーザーを解決します。
// 失敗は「未認証」として扱い、呼び出し側にエラーは返しません。
type Identity struct {
	sessions sessionResolver
	users    userFinder
	logger   *slog.Logger
}

// NewIdentity は Identity を作成します。
func NewIdentity(sessions sessionResolver, users userFinder, logger *slog.Logger) *Identity {
	if logger == nil {
		logger = slog.Default()
	}
	return &Identity{
		sessions: sessions,
		users:    users,
		logger:   logger,
	}
}

// CurrentSession は有効なセッションを返します。無ければ nil です。
func (i *Identity) CurrentSession(ctx context.Context, ch session.Channel) *session.Session {
	sess, err := i.resolve(ctx, ch)
	if err != nil {
		i.logger.ErrorContext(ctx, "resolve session failed", "error", err)
		return nil
	}
	return sess
}

// CurrentUser はセッションに紐づくユーザーを返します。無ければ nil です。
func (i *Identity) CurrentUser(ctx context.Context, ch session.Channel) *store.User {
	sess := i.CurrentSession(ctx, ch)
	if sess == nil {
		return nil
	}
	user, _ := i.userOf(ctx, sess)
	return user
}

func (i *Identity) resolve(ctx context.Context, ch session.Channel) (*session.Session, error) {
	return i.sessions.Resolve(ctx, ch.Token())
}

// userOf はセッションのユーザーを取得します。取得失敗はログに残して返します。
func (i *Identity) userOf(ctx context.Context, sess *session.Session) (*store.User, error) {
	user, err := i.users.FindUserByID(ctx, sess.UserID)
	if err != nil {
		i.logger.ErrorContext(ctx, "find current user failed", "user_id", sess.UserID, "error", err)
		return nil, err
	}
	if user == nil {
		i.logger.WarnContext(ctx, "session refers to missing user", "user_id", sess.UserID)
	}
	return user, nil
}
