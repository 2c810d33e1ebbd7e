package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gorilla/securecookie"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/basic-auth/internal/config"
	"github.com/yourusername/basic-auth/internal/session"
)

// newSessionStore は設定に応じたセッションストアを作成します。
// 返り値の関数はストアが保持する接続を閉じます。
func newSessionStore(cfg *config.Config) (sessions.Store, func(), error) {
	secret, err := sessionSecret(cfg)
	if err != nil {
		return nil, nil, err
	}

	var (
		store   sessions.Store
		closeFn = func() {}
	)
	switch cfg.SessionStore {
	case config.SessionStoreCookie:
		store = cookie.NewStore(secret)
	case config.SessionStoreRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opt)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}

		store = session.NewRedisStore(rdb, secret)
		closeFn = func() { _ = rdb.Close() }
	default:
		return nil, nil, fmt.Errorf("unsupported session store: %s", cfg.SessionStore)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAgeMinutes * 60,
		HttpOnly: true,
		Secure:   cfg.IsRelease(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, closeFn, nil
}

// sessionSecret は署名鍵を返します。開発時に未設定の場合は起動ごとの一時鍵を生成します。
func sessionSecret(cfg *config.Config) ([]byte, error) {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret), nil
	}
	if cfg.IsRelease() {
		return nil, errors.New("SESSION_SECRET is required in release mode")
	}
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return nil, errors.New("failed to generate session secret")
	}
	log.Warn().Msg("SESSION_SECRET is not set; using a temporary key, sessions will not survive restarts")
	return key, nil
}
