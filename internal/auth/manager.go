// Package auth はサインアップ・ログイン・ログアウトとルートガードを提供します。
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/basic-auth/internal/session"
	"github.com/yourusername/basic-auth/internal/storage"
)

const (
	SessionCookieName = "basic_auth_session"

	HomePath    = "/"
	LoginPath   = "/login"
	ProfilePath = "/userProfile"
)

// contextUserKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
const contextUserKey = "auth.user"

// ErrInvalidCredentials はメールアドレスが未登録、またはパスワードが一致しない場合に返されます。
// どちらの理由かは呼び出し側に区別させません。
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore はユーザーの永続化先です。
type UserStore interface {
	Create(ctx context.Context, user *storage.User) error
	FindByEmail(ctx context.Context, email string) (*storage.User, error)
	FindByID(ctx context.Context, id string) (*storage.User, error)
}

// PasswordHasher はパスワードのハッシュ化と検証を行います。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	users     UserStore
	hasher    PasswordHasher
	policy    session.Policy
	sessionOf func(*gin.Context) sessions.Session
	now       func() time.Time
}

// Option は Manager の設定を変更します。
type Option func(*Manager)

// WithSessionAccessor はリクエストからセッションを取り出す関数を差し替えます。
func WithSessionAccessor(fn func(*gin.Context) sessions.Session) Option {
	return func(m *Manager) { m.sessionOf = fn }
}

// WithClock は現在時刻の取得関数を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager は認証マネージャーを作成します。
func NewManager(users UserStore, hasher PasswordHasher, policy session.Policy, opts ...Option) *Manager {
	m := &Manager{
		users:     users,
		hasher:    hasher,
		policy:    policy,
		sessionOf: sessions.Default,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SessionMaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func (m *Manager) SessionMaxAgeSeconds() int {
	return int(m.policy.MaxLifetime.Seconds())
}

// authenticate はメールアドレスとパスワードを検証し、該当ユーザーを返します。
func (m *Manager) authenticate(ctx context.Context, email, password string) (*storage.User, error) {
	user, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !m.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func redirect(c *gin.Context, path string) {
	c.Redirect(http.StatusSeeOther, path)
}

func toCurrentUser(user *storage.User) session.CurrentUser {
	return session.CurrentUser{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
