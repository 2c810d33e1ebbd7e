package session

import (
	"encoding/gob"
	"time"

	"github.com/gin-contrib/sessions"
)

const (
	keyCurrentUser  = "currentUser"
	keyIssuedAt     = "issued_at"
	keyLastActivity = "last_activity"
	// 値が入っている間は、次の保存時にストアがセッションIDを振り直す
	keyRotateID = "rotate_id"
)

// loadErrorKey はストアからの読み込みに失敗したことをセッションに載せるキーです。
// gin-contrib/sessions は Store.Get のエラーを呼び出し側に返さないため、値として運びます。
type loadErrorKey struct{}

// CurrentUser はログイン時にセッションへ書き込むユーザー情報です。
// パスワードハッシュはセッションに載せません。
type CurrentUser struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
}

func init() {
	// Cookie ストア・Redis ストアともに gob でシリアライズするため登録が必要
	gob.Register(CurrentUser{})
}

// ExpiryReason はセッションが無効になった理由です。
type ExpiryReason string

const (
	ExpiryNone     ExpiryReason = ""
	ExpiryLifetime ExpiryReason = "lifetime"
	ExpiryIdle     ExpiryReason = "idle"
)

// Policy はセッションの有効期限ポリシーです。
type Policy struct {
	MaxLifetime time.Duration
	IdleTimeout time.Duration
}

// Current はセッションからログインユーザーを取り出します。
// ストアからの読み込み自体に失敗していた場合はそのエラーを返します。
func Current(s sessions.Session) (CurrentUser, bool, error) {
	if err, ok := s.Get(loadErrorKey{}).(error); ok {
		return CurrentUser{}, false, err
	}
	user, ok := s.Get(keyCurrentUser).(CurrentUser)
	if !ok || user.ID == "" {
		return CurrentUser{}, false, nil
	}
	return user, true, nil
}

// Establish はログインユーザーをセッションに書き込み、保存します。
// 既存のセッションIDがある場合は、ログイン前のIDを引き継がないよう振り直しを要求します。
func Establish(s sessions.Session, user CurrentUser, now time.Time) error {
	s.Clear()
	if s.ID() != "" {
		s.Set(keyRotateID, true)
	}
	s.Set(keyCurrentUser, user)
	s.Set(keyIssuedAt, now.Unix())
	s.Set(keyLastActivity, now.Unix())
	return s.Save()
}

// Touch は最終操作時刻を更新して保存します。
func Touch(s sessions.Session, now time.Time) error {
	s.Set(keyLastActivity, now.Unix())
	return s.Save()
}

// Destroy はセッションを完全に破棄します（サーバー側の値と Cookie の両方）。
func Destroy(s sessions.Session) error {
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}

// Check はポリシーに照らしてセッションが失効していないかを判定します。
func (p Policy) Check(s sessions.Session, now time.Time) ExpiryReason {
	issuedAt := readUnix(s.Get(keyIssuedAt))
	lastActive := readUnix(s.Get(keyLastActivity))

	if p.MaxLifetime > 0 && (issuedAt.IsZero() || now.Sub(issuedAt) > p.MaxLifetime) {
		return ExpiryLifetime
	}
	if p.IdleTimeout > 0 && (lastActive.IsZero() || now.Sub(lastActive) > p.IdleTimeout) {
		return ExpiryIdle
	}
	return ExpiryNone
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}
