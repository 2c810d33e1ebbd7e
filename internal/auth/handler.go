package auth

import (
	"errors"
	"net/http"
	"regexp"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/basic-auth/internal/session"
	"github.com/yourusername/basic-auth/internal/storage"
	"github.com/yourusername/basic-auth/internal/views"
)

// 画面に表示するメッセージ
const (
	MsgSignupFieldsRequired = "All fields are mandatory. Please provide your username, email and password."
	MsgWeakPassword         = "Password needs to have at least 6 chars and must contain at least one number, one lowercase and one uppercase letter."
	MsgPasswordTooLong      = "Password must be at most 72 bytes long."
	MsgLoginFieldsRequired  = "Please enter both, email and password to login."
	// ログイン失敗とサインアップ時の重複の両方で同じ文言を使う
	MsgInvalidCredentials = "User not found and/or incorrect password."
)

const (
	minPasswordLength = 6
	// bcrypt が扱えるのは先頭 72 バイトまで
	maxPasswordBytes = 72
)

var (
	hasDigit = regexp.MustCompile(`\d`)
	hasLower = regexp.MustCompile(`[a-z]`)
	hasUpper = regexp.MustCompile(`[A-Z]`)
)

// StrongPassword は 6 文字以上で数字・小文字・大文字をそれぞれ含むかを判定します。
func StrongPassword(password string) bool {
	return utf8.RuneCountInString(password) >= minPasswordLength &&
		hasDigit.MatchString(password) &&
		hasLower.MatchString(password) &&
		hasUpper.MatchString(password)
}

// SignupForm は GET /signup のハンドラーです。
func (m *Manager) SignupForm(c *gin.Context) {
	views.Render(c, http.StatusOK, views.Signup, nil)
}

// Signup は POST /signup のハンドラーです。
func (m *Manager) Signup(c *gin.Context) {
	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")

	rerender := func(msg string) {
		views.Render(c, http.StatusOK, views.Signup, gin.H{
			"errorMessage": msg,
			"username":     username,
			"email":        email,
		})
	}

	if username == "" || email == "" || password == "" {
		rerender(MsgSignupFieldsRequired)
		return
	}
	if len(password) > maxPasswordBytes {
		rerender(MsgPasswordTooLong)
		return
	}
	if !StrongPassword(password) {
		rerender(MsgWeakPassword)
		return
	}

	hash, err := m.hasher.Hash(password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	user := &storage.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := m.users.Create(c.Request.Context(), user); err != nil {
		var validationErr *storage.ValidationError
		switch {
		case errors.As(err, &validationErr):
			rerender(validationErr.Message)
		case errors.Is(err, storage.ErrDuplicateKey):
			log.Info().Str("email", email).Msg("signup rejected: username or email already registered")
			rerender(MsgInvalidCredentials)
		default:
			_ = c.Error(err)
		}
		return
	}

	log.Info().Str("user_id", user.ID).Msg("user signed up")
	redirect(c, ProfilePath)
}

// LoginForm は GET /login のハンドラーです。
func (m *Manager) LoginForm(c *gin.Context) {
	views.Render(c, http.StatusOK, views.Login, nil)
}

// Login は POST /login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	rerender := func(msg string) {
		views.Render(c, http.StatusOK, views.Login, gin.H{
			"errorMessage": msg,
			"email":        email,
		})
	}

	// 未送信のフィールドも PostForm では空文字になるため、空と同じ扱いになる
	if email == "" || password == "" {
		rerender(MsgLoginFieldsRequired)
		return
	}

	user, err := m.authenticate(c.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			log.Warn().Str("email", email).Msg("failed login attempt")
			rerender(MsgInvalidCredentials)
			return
		}
		_ = c.Error(err)
		return
	}

	if err := session.Establish(m.sessionOf(c), toCurrentUser(user), m.now()); err != nil {
		_ = c.Error(err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("user logged in")
	redirect(c, ProfilePath)
}

// Logout は POST /logout のハンドラーです。
func (m *Manager) Logout(c *gin.Context) {
	if err := session.Destroy(m.sessionOf(c)); err != nil {
		_ = c.Error(err)
		return
	}
	redirect(c, HomePath)
}

// Profile は GET /userProfile のハンドラーです。RequireLogin の後に置きます。
// セッションの内容ではなく、ユーザーストアの最新のレコードを表示します。
func (m *Manager) Profile(c *gin.Context) {
	current, ok := CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, LoginPath)
		return
	}

	user, err := m.users.FindByID(c.Request.Context(), current.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if user == nil {
		// セッションは残っているがユーザーが削除されている
		log.Info().Str("user_id", current.ID).Msg("session refers to a missing user")
		if err := session.Destroy(m.sessionOf(c)); err != nil {
			_ = c.Error(err)
			return
		}
		c.Redirect(http.StatusFound, LoginPath)
		return
	}

	views.Render(c, http.StatusOK, views.UserProfile, gin.H{"user": user})
}
