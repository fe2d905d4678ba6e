package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequireLogin はセッションを検証するミドルウェアを返します。
// クッキーを消すのはトークン自体が無効な場合だけで、ストア障害では残します。
func (h *Handler) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ch := CookieChannel(c)

		sess, err := h.identity.resolve(ctx, ch)
		if err != nil {
			h.logger.ErrorContext(ctx, "resolve session failed", "error", err)
			abortUnauthorized(c)
			return
		}
		if sess == nil {
			// 失効したトークンが残っていればクッキーごと消す
			if ch.Token() != "" {
				_ = ch.Clear()
			}
			abortUnauthorized(c)
			return
		}

		user, err := h.identity.userOf(ctx, sess)
		if err != nil || user == nil {
			abortUnauthorized(c)
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "UNAUTHORIZED",
		"message": "Sign in required",
	})
}

// VerifyCSRF は X-CSRF-Token ヘッダーを検証するミドルウェアです。
func VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		session := sessions.Default(c)
		expected, ok := session.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "CSRF token is not set",
			})
			return
		}

		received := c.GetHeader(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "CSRF token does not match",
			})
			return
		}

		c.Next()
	}
}

// RequestTimeout はリクエストのコンテキストにタイムアウトを設定します。
// ストアやセッションの I/O はこのコンテキストで打ち切られます。
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
