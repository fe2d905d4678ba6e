package auth

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/issuehub/internal/store"
)

// SigninPath はサインアウト後のリダイレクト先です。
const SigninPath = "/signin"

// ContextUserKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
const ContextUserKey = "auth.user"

const csrfHeader = "X-CSRF-Token"

// Handler は /api/auth/* のハンドラーと認証ミドルウェアをまとめた構造体です。
type Handler struct {
	svc      *Service
	identity *Identity
	logger   *slog.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(svc *Service, identity *Identity, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:      svc,
		identity: identity,
		logger:   logger,
	}
}

// Signup は /auth/signup のハンドラーです。
func (h *Handler) Signup(c *gin.Context) {
	var in SignupInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, malformedBody())
		return
	}

	res := h.svc.Signup(c.Request.Context(), CookieChannel(c), in)
	if res.Success {
		h.issueCSRF(c)
		c.JSON(http.StatusCreated, res)
		return
	}
	c.JSON(statusFor(res), res)
}

// Signin は /auth/signin のハンドラーです。
func (h *Handler) Signin(c *gin.Context) {
	var in SigninInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, malformedBody())
		return
	}

	res := h.svc.Signin(c.Request.Context(), CookieChannel(c), in)
	if res.Success {
		h.issueCSRF(c)
	}
	c.JSON(statusFor(res), res)
}

// Signout は /auth/signout のハンドラーです。失敗してもサインイン画面へリダイレクトします。
func (h *Handler) Signout(c *gin.Context) {
	err := h.svc.Signout(c.Request.Context(), CookieChannel(c), func() {
		c.Redirect(http.StatusSeeOther, SigninPath)
	})
	if err != nil {
		_ = c.Error(err)
	}
}

// Me は /auth/me のハンドラーです。
func (h *Handler) Me(c *gin.Context) {
	user := h.identity.CurrentUser(c.Request.Context(), CookieChannel(c))
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Sign in required",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// CurrentUser は RequireLogin が設定したユーザーを返します。
func CurrentUser(c *gin.Context) *store.User {
	user, _ := c.Get(ContextUserKey)
	u, _ := user.(*store.User)
	return u
}

// issueCSRF はダブルサブミット用の CSRF トークンをセッションに保存し、ヘッダーで返します。
func (h *Handler) issueCSRF(c *gin.Context) {
	token, err := generateToken()
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "generate csrf token failed", "error", err)
		return
	}
	s := sessions.Default(c)
	s.Set(sessionKeyCSRF, token)
	if err := s.Save(); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "save csrf token failed", "error", err)
		return
	}
	c.Header(csrfHeader, token)
}

func statusFor(res Result) int {
	switch res.outcome {
	case outcomeOK:
		return http.StatusOK
	case outcomeInvalid:
		return http.StatusBadRequest
	case outcomeUnauthorized:
		return http.StatusUnauthorized
	case outcomeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func malformedBody() Result {
	return validationFailed(map[string][]string{"form": {"Malformed request body"}})
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
