package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/basic-auth/internal/session"
	"github.com/yourusername/basic-auth/internal/views"
)

const userInSessionKey = "userInSession"

// RequireLogin はログイン済みのセッションのみを通すミドルウェアを返します。
// 未ログインや期限切れの場合はハンドラーを呼ばずにログイン画面へリダイレクトします。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := m.sessionOf(c)
		user, ok, err := session.Current(s)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if !ok {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		now := m.now()
		if reason := m.policy.Check(s, now); reason != session.ExpiryNone {
			log.Info().Str("user_id", user.ID).Str("reason", string(reason)).Msg("session expired")
			if err := session.Destroy(s); err != nil {
				abortWithError(c, err)
				return
			}
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		if err := session.Touch(s, now); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to refresh session activity")
		}

		c.Set(contextUserKey, user)
		views.SetLocal(c, userInSessionKey, &user)
		c.Next()
	}
}

// RequireLogout は未ログインのセッションのみを通すミドルウェアを返します。
// ログイン済みの場合はプロフィール画面へリダイレクトします。
func (m *Manager) RequireLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, ok, err := session.Current(m.sessionOf(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		if ok {
			c.Redirect(http.StatusFound, ProfilePath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ExposeUser はログイン中であればユーザー情報をテンプレートの共通値に載せます。
// ガードではないため、未ログインでもハンドラーは常に実行されます。
func (m *Manager) ExposeUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok, err := session.Current(m.sessionOf(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		if ok {
			views.SetLocal(c, userInSessionKey, &user)
		}
		c.Next()
	}
}

// CurrentUser は RequireLogin が設定したログインユーザーを返します。
func CurrentUser(c *gin.Context) (session.CurrentUser, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return session.CurrentUser{}, false
	}
	user, ok := v.(session.CurrentUser)
	return user, ok
}

// abortWithError はセッションストアの障害を ErrorHandler に渡し、後続のハンドラーを止めます。
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
