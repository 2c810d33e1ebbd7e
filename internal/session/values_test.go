package session

import (
	"errors"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	id      string
	values  map[interface{}]interface{}
	options *sessions.Options
	saves   int
	saveErr error
}

func newFakeSession() *fakeSession {
	return &fakeSession{id: "fake", values: map[interface{}]interface{}{}}
}

func (f *fakeSession) ID() string { return f.id }
func (f *fakeSession) Get(key interface{}) interface{} { return f.values[key] }
func (f *fakeSession) Set(key interface{}, val interface{}) { f.values[key] = val }
func (f *fakeSession) Delete(key interface{}) { delete(f.values, key) }
func (f *fakeSession) Clear() { f.values = map[interface{}]interface{}{} }
func (f *fakeSession) AddFlash(interface{}, ...string) {}
func (f *fakeSession) Flashes(...string) []interface{} { return nil }
func (f *fakeSession) Options(o sessions.Options) { f.options = &o }

func (f *fakeSession) Save() error {
	f.saves++
	return f.saveErr
}

func TestEstablishAndCurrent(t *testing.T) {
	s := newFakeSession()
	s.Set("stale", "value")

	_, ok, err := Current(s)
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Unix(1_700_000_000, 0)
	user := CurrentUser{ID: "u-1", Username: "alice", Email: "alice@example.com"}
	require.NoError(t, Establish(s, user, now))

	got, ok, err := Current(s)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user, got)
	assert.Nil(t, s.Get("stale"))
	assert.Equal(t, now.Unix(), s.Get(keyIssuedAt))
	assert.Equal(t, 1, s.saves)
}

func TestEstablishRequestsNewID(t *testing.T) {
	s := newFakeSession()
	require.NoError(t, Establish(s, CurrentUser{ID: "u-1"}, time.Now()))
	assert.Equal(t, true, s.Get(keyRotateID))

	// ID を持たないストア（Cookie ストア）では何も要求しない
	cookieBacked := newFakeSession()
	cookieBacked.id = ""
	require.NoError(t, Establish(cookieBacked, CurrentUser{ID: "u-1"}, time.Now()))
	assert.Nil(t, cookieBacked.Get(keyRotateID))
}

func TestCurrentReportsLoadError(t *testing.T) {
	s := newFakeSession()
	s.Set(keyCurrentUser, CurrentUser{ID: "u-1"})
	s.Set(loadErrorKey{}, errors.New("connection refused"))

	_, ok, err := Current(s)
	assert.False(t, ok)
	assert.EqualError(t, err, "connection refused")
}

func TestEstablishSaveError(t *testing.T) {
	s := newFakeSession()
	s.saveErr = errors.New("redis down")

	err := Establish(s, CurrentUser{ID: "u-1"}, time.Now())
	assert.EqualError(t, err, "redis down")
}

func TestDestroy(t *testing.T) {
	s := newFakeSession()
	require.NoError(t, Establish(s, CurrentUser{ID: "u-1"}, time.Now()))

	require.NoError(t, Destroy(s))

	_, ok, err := Current(s)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, s.options)
	assert.Equal(t, -1, s.options.MaxAge)
}

func TestPolicyCheck(t *testing.T) {
	policy := Policy{MaxLifetime: 12 * time.Hour, IdleTimeout: 30 * time.Minute}
	issued := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name       string
		lastActive time.Time
		now        time.Time
		want       ExpiryReason
	}{
		{name: "fresh", lastActive: issued, now: issued.Add(time.Minute), want: ExpiryNone},
		{name: "active within lifetime", lastActive: issued.Add(11 * time.Hour), now: issued.Add(11*time.Hour + time.Minute), want: ExpiryNone},
		{name: "idle", lastActive: issued, now: issued.Add(31 * time.Minute), want: ExpiryIdle},
		{name: "lifetime exceeded", lastActive: issued.Add(12 * time.Hour), now: issued.Add(12*time.Hour + time.Minute), want: ExpiryLifetime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSession()
			s.Set(keyIssuedAt, issued.Unix())
			s.Set(keyLastActivity, tt.lastActive.Unix())
			assert.Equal(t, tt.want, policy.Check(s, tt.now))
		})
	}
}

func TestPolicyCheckMissingTimestamps(t *testing.T) {
	policy := Policy{MaxLifetime: time.Hour, IdleTimeout: time.Minute}
	assert.Equal(t, ExpiryLifetime, policy.Check(newFakeSession(), time.Now()))
}

func TestTouch(t *testing.T) {
	s := newFakeSession()
	now := time.Unix(1_700_000_500, 0)
	require.NoError(t, Touch(s, now))
	assert.Equal(t, now.Unix(), s.Get(keyLastActivity))
}
