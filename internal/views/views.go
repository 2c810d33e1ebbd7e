// Package views はサーバーサイドレンダリング用のテンプレートと描画ヘルパーを提供します。
package views

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

//go:embed templates
var templateFS embed.FS

const localsKey = "views.locals"

// テンプレート名
const (
	Index       = "index"
	Signup      = "auth/signup"
	Login       = "auth/login"
	UserProfile = "users/user-profile"
	Main        = "main"
	Private     = "private"
	Error       = "error"
	NotFoundTpl = "not-found"
)

// Templates は埋め込まれたテンプレートを全て読み込みます。
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS,
		"templates/*.tmpl",
		"templates/auth/*.tmpl",
		"templates/users/*.tmpl",
	)
}

// Locals は全テンプレートで共通に使う値（アプリ名など）を登録するミドルウェアです。
func Locals(title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetLocal(c, "title", title)
		c.Next()
	}
}

// SetLocal は以降の描画で使う共通値をリクエストに登録します。
func SetLocal(c *gin.Context, key string, value any) {
	locals := localsOf(c)
	locals[key] = value
	c.Set(localsKey, locals)
}

// Render は共通値と data をマージしてテンプレートを描画します。data 側の値が優先されます。
func Render(c *gin.Context, status int, name string, data gin.H) {
	merged := gin.H{}
	for k, v := range localsOf(c) {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	c.HTML(status, name, merged)
}

// Page は固定テンプレートを描画するだけのハンドラーを返します。
func Page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		Render(c, http.StatusOK, name, nil)
	}
}

// NotFound は未定義ルート用のハンドラーです。
func NotFound(c *gin.Context) {
	Render(c, http.StatusNotFound, NotFoundTpl, nil)
}

// ErrorHandler はハンドラーが c.Error で報告した想定外のエラーを記録し、
// まだレスポンスが書かれていなければ汎用エラーページを返します。
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			log.Error().Err(e.Err).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("unhandled request error")
		}

		if c.Writer.Written() {
			return
		}
		Render(c, http.StatusInternalServerError, Error, nil)
	}
}

func localsOf(c *gin.Context) gin.H {
	if v, ok := c.Get(localsKey); ok {
		if locals, ok := v.(gin.H); ok {
			return locals
		}
	}
	return gin.H{}
}
