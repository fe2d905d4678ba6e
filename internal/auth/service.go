// Package auth はサインアップ・サインイン・サインアウトと現在ユーザーの解決を提供します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yourusername/issuehub/internal/session"
	"github.com/yourusername/issuehub/internal/store"
)

// 呼び出し側（フォーム）が依存するメッセージ
const (
	MsgValidationFailed   = "Validation failed"
	MsgInvalidCredentials = "Invalid email or password"
	MsgSignedIn           = "Signed in successfully"
	MsgSomethingWrong     = "Something went wrong"
	MsgAccountCreated     = "Account created successfully"
	MsgTryAgain           = "try again"
	MsgCreateUserFailed   = "failed to create user"
	MsgEmailTaken         = "Email is already registered"
	MsgSignupError        = "An error occurred while creating your account"
	MsgSignupErrorDetail  = "Failed to create account"
)

type outcome int

const (
	outcomeOK outcome = iota
	outcomeInvalid
	outcomeUnauthorized
	outcomeConflict
	outcomeInternal
)

// Result はサインイン/サインアップの結果です。
type Result struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Error   string              `json:"error,omitempty"`

	outcome outcome
}

// UserStore はユーザーの永続化層です。
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*store.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	InsertUser(ctx context.Context, email, passwordHash string) (*store.User, error)
}

// SessionStore はセッションの発行・解決・破棄を行います。
type SessionStore interface {
	Create(ctx context.Context, ch session.Channel, userID uuid.UUID) (string, error)
	Resolve(ctx context.Context, token string) (*session.Session, error)
	Destroy(ctx context.Context, ch session.Channel) error
}

// Service は認証のユースケースをまとめます。リクエスト間で状態は持ちません。
type Service struct {
	users    UserStore
	sessions SessionStore
	hasher   Hasher
	logger   *slog.Logger

	// 存在しないユーザーでも照合コストを揃えるためのダミー
	dummyDigest string
}

// NewService は Service を作成します。
func NewService(users UserStore, sessions SessionStore, hasher Hasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, errors.New("users is nil")
	}
	if sessions == nil {
		return nil, errors.New("sessions is nil")
	}
	if hasher == nil {
		return nil, errors.New("hasher is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy digest: %w", err)
	}
	return &Service{
		users:       users,
		sessions:    sessions,
		hasher:      hasher,
		logger:      logger,
		dummyDigest: dummy,
	}, nil
}

// Signin は資格情報を検証し、成功時にセッションを発行します。
// 「ユーザーが存在しない」と「パスワード違い」は同じ結果を返します。
func (s *Service) Signin(ctx context.Context, ch session.Channel, in SigninInput) Result {
	in.Email = trimEmail(in.Email)
	if err := in.Validate(); err != nil {
		if errs, ok := fieldErrors(err); ok {
			return validationFailed(errs)
		}
		s.logger.ErrorContext(ctx, "signin: validation error", "error", err)
		return Result{Message: MsgSomethingWrong, outcome: outcomeInternal}
	}

	user, err := s.users.FindUserByEmail(ctx, in.Email)
	if err != nil {
		s.logger.ErrorContext(ctx, "signin: find user failed", "error", err)
		return Result{Message: MsgSomethingWrong, outcome: outcomeInternal}
	}
	if user == nil {
		s.hasher.Verify(in.Password, s.dummyDigest)
		return invalidCredentials()
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return invalidCredentials()
	}

	if _, err := s.sessions.Create(ctx, ch, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "signin: create session failed", "user_id", user.ID, "error", err)
		return Result{Message: MsgSomethingWrong, outcome: outcomeInternal}
	}

	s.logger.InfoContext(ctx, "user signed in", "user_id", user.ID)
	return Result{Success: true, Message: MsgSignedIn, outcome: outcomeOK}
}

// Signup はユーザーを作成し、成功時にセッションを発行します。
func (s *Service) Signup(ctx context.Context, ch session.Channel, in SignupInput) Result {
	in.Email = trimEmail(in.Email)
	if err := in.Validate(); err != nil {
		if errs, ok := fieldErrors(err); ok {
			return validationFailed(errs)
		}
		s.logger.ErrorContext(ctx, "signup: validation error", "error", err)
		return signupError()
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.ErrorContext(ctx, "signup: hash password failed", "error", err)
		return signupError()
	}

	user, err := s.users.InsertUser(ctx, in.Email, digest)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return Result{
				Message: MsgTryAgain,
				Error:   MsgCreateUserFailed,
				Errors:  map[string][]string{"email": {MsgEmailTaken}},
				outcome: outcomeConflict,
			}
		}
		s.logger.ErrorContext(ctx, "signup: insert user failed", "error", err)
		return signupError()
	}
	if user == nil {
		return Result{Message: MsgTryAgain, Error: MsgCreateUserFailed, outcome: outcomeInternal}
	}

	if _, err := s.sessions.Create(ctx, ch, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "signup: create session failed", "user_id", user.ID, "error", err)
		return signupError()
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return Result{Success: true, Message: MsgAccountCreated, outcome: outcomeOK}
}

// Signout はセッションを破棄します。redirect は成功・失敗にかかわらず必ず呼ばれます。
// 破棄に失敗した場合はログに残したうえでエラーを返します。
func (s *Service) Signout(ctx context.Context, ch session.Channel, redirect func()) error {
	if redirect != nil {
		defer redirect()
	}
	if err := s.sessions.Destroy(ctx, ch); err != nil {
		s.logger.ErrorContext(ctx, "signout: destroy session failed", "error", err)
		return fmt.Errorf("signout: %w", err)
	}
	return nil
}

func validationFailed(errs map[string][]string) Result {
	return Result{Message: MsgValidationFailed, Errors: errs, outcome: outcomeInvalid}
}

func invalidCredentials() Result {
	return Result{
		Message: MsgInvalidCredentials,
		Errors:  map[string][]string{"email": {MsgInvalidCredentials}},
		outcome: outcomeUnauthorized,
	}
}

func signupError() Result {
	return Result{Message: MsgSignupError, Error: MsgSignupErrorDetail, outcome: outcomeInternal}
}
