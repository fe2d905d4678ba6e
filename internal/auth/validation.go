package auth

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	minPasswordLength = 6
	// bcrypt が受け付ける最大バイト数
	maxPasswordBytes = 72
)

// SigninInput はサインインフォームの入力です。
type SigninInput struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate は入力の形式を検証します。
func (in SigninInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Invalid email address"),
		),
		validation.Field(&in.Password,
			validation.Required.Error("Password is required"),
		),
	)
}

// SignupInput はサインアップフォームの入力です。
type SignupInput struct {
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword"`
}

// Validate は入力の形式を検証します。
// パスワード不一致のエラーは confirmPassword に付きます。
func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Invalid email address"),
		),
		validation.Field(&in.Password,
			validation.Required.Error("Password is required"),
			validation.RuneLength(minPasswordLength, 0).Error("Password must be at least 6 characters"),
			validation.By(maxBytes(maxPasswordBytes, "Password must be at most 72 bytes")),
		),
		validation.Field(&in.ConfirmPassword,
			validation.Required.Error("Please confirm your password"),
			validation.By(equalsString(in.Password, "Passwords do not match")),
		),
	)
}

func equalsString(expected, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != expected {
			return errors.New(message)
		}
		return nil
	}
}

func maxBytes(limit int, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > limit {
			return errors.New(message)
		}
		return nil
	}
}

func trimEmail(email string) string {
	return strings.TrimSpace(email)
}

// fieldErrors は ozzo-validation のエラーをフィールドごとのメッセージに変換します。
// フィールドエラーでない場合は false を返します。
func fieldErrors(err error) (map[string][]string, bool) {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out := make(map[string][]string, len(verrs))
	for field, ferr := range verrs {
		if ferr == nil {
			continue
		}
		out[field] = []string{ferr.Error()}
	}
	return out, true
}
