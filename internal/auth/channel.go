package auth

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/issuehub/internal/session"
)

const (
	SessionCookieName = "ih_session"
	sessionKeyToken   = "session_token"
	sessionKeyCSRF    = "csrf_token"
)

// cookieChannel は署名付きクッキーをセッションチャネルとして使います。
type cookieChannel struct {
	s sessions.Session
}

// CookieChannel はリクエストのクッキーセッションをチャネルとして返します。
// sessions.Sessions ミドルウェアが登録されている必要があります。
func CookieChannel(c *gin.Context) session.Channel {
	return &cookieChannel{s: sessions.Default(c)}
}

func (ch *cookieChannel) Token() string {
	token, _ := ch.s.Get(sessionKeyToken).(string)
	return token
}

func (ch *cookieChannel) Put(token string) error {
	ch.s.Set(sessionKeyToken, token)
	return ch.s.Save()
}

// Clear はトークンと CSRF トークンを削除し、クッキーを失効させます。
func (ch *cookieChannel) Clear() error {
	ch.s.Clear()
	ch.s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return ch.s.Save()
}
