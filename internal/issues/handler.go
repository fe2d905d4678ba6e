// Package issues は課題一覧の読み取り API を提供します。
package issues

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/issuehub/internal/auth"
	"github.com/yourusername/issuehub/internal/store"
)

// Lister は所有ユーザー付きの課題一覧を返します。
type Lister interface {
	ListIssuesWithOwner(ctx context.Context) ([]store.Issue, error)
}

// ListHandler は GET /api/issues のハンドラーを返します。auth.Handler.RequireLogin の後ろで使います。
func ListHandler(lister Lister, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		viewer := auth.CurrentUser(c)
		if viewer == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Sign in required",
			})
			return
		}

		issues, err := lister.ListIssuesWithOwner(c.Request.Context())
		if err != nil {
			logger.ErrorContext(c.Request.Context(), "list issues failed", "user_id", viewer.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to load issues",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"viewer": viewer,
			"issues": issues,
		})
	}
}
