// Package session はサーバー側セッションの保存先とセッション値の操作を提供します。
package session

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	gsessions "github.com/gorilla/sessions"
	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	defaultTTL       = 24 * time.Hour
)

// RedisStore はセッション値を Redis に保存する gin-contrib/sessions のストアです。
// Cookie には署名付きのセッションIDのみを載せます。
type RedisStore struct {
	rdb     *redis.Client
	codecs  []securecookie.Codec
	options *gsessions.Options
}

var _ sessions.Store = (*RedisStore)(nil)

// NewRedisStore は RedisStore を作成します。keyPairs はセッションIDの署名に使います。
func NewRedisStore(rdb *redis.Client, keyPairs ...[]byte) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: &gsessions.Options{
			Path:   "/",
			MaxAge: int(defaultTTL.Seconds()),
		},
	}
}

// Options は Cookie 属性と保存期間を設定します。
func (s *RedisStore) Options(opts sessions.Options) {
	s.options = opts.ToGorillaOptions()
	if opts.MaxAge > 0 {
		for _, codec := range s.codecs {
			if sc, ok := codec.(*securecookie.SecureCookie); ok {
				sc.MaxAge(opts.MaxAge)
			}
		}
	}
}

// Get はリクエスト単位でキャッシュされたセッションを返します。
func (s *RedisStore) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New は Cookie からセッションIDを復元し、Redis から値を読み込みます。
// Cookie が無い・改ざんされている・Redis 側が失効している場合は空のセッションを返します。
// Redis への問い合わせ自体が失敗した場合は、エラーを返すとともにセッションにも記録します（Current で取り出せます）。
func (s *RedisStore) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, cookie.Value, &session.ID, s.codecs...); err != nil {
		session.ID = ""
		return session, nil
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		session.Values[loadErrorKey{}] = err
		return session, err
	}
	if !found {
		session.ID = ""
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

// Save はセッションを保存します。MaxAge が負の場合は Redis 側のレコードを削除し Cookie を失効させます。
// ID の振り直しが要求されている場合は、旧IDのレコードを削除して新しいIDで保存します。
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.rdb.Del(ctx, sessionKey(session.ID)).Err(); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		session.ID = ""
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	delete(session.Values, loadErrorKey{})
	if _, rotate := session.Values[keyRotateID]; rotate {
		delete(session.Values, keyRotateID)
		if session.ID != "" {
			if err := s.rdb.Del(ctx, sessionKey(session.ID)).Err(); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			session.ID = ""
		}
	}

	if session.ID == "" {
		id, err := generateID()
		if err != nil {
			return err
		}
		session.ID = id
	}
	if err := s.save(ctx, session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *RedisStore) load(ctx context.Context, session *gsessions.Session) (bool, error) {
	data, err := s.rdb.Get(ctx, sessionKey(session.ID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("load session: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&session.Values); err != nil {
		return false, fmt.Errorf("decode session: %w", err)
	}
	return true, nil
}

func (s *RedisStore) save(ctx context.Context, session *gsessions.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := defaultTTL
	if session.Options.MaxAge > 0 {
		ttl = time.Duration(session.Options.MaxAge) * time.Second
	}
	if err := s.rdb.Set(ctx, sessionKey(session.ID), buf.Bytes(), ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func generateID() (string, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", errors.New("failed to generate session id")
	}
	return strings.TrimRight(base32.StdEncoding.EncodeToString(key), "="), nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
