package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperless/internal/model"
)

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return tok
}

func employee() *model.User {
	return &model.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", Role: model.RoleEmployee}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state)

	user := employee()
	require.NoError(t, store.Save(&State{Token: "tok", User: user}))

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	state, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", state.Token)
	assert.Equal(t, user.ID, state.User.ID)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	state, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSessionInit(t *testing.T) {
	tests := []struct {
		name   string
		state  *State
		authed bool
	}{
		{name: "empty store", state: nil, authed: false},
		{name: "valid token", state: &State{Token: token(t, time.Now().Add(time.Hour)), User: employee()}, authed: true},
		{name: "expired token", state: &State{Token: token(t, time.Now().Add(-time.Minute)), User: employee()}, authed: false},
		{name: "garbage token", state: &State{Token: "not-a-jwt", User: employee()}, authed: false},
		{name: "missing user", state: &State{Token: token(t, time.Now().Add(time.Hour))}, authed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MemoryStore{}
			if tt.state != nil {
				require.NoError(t, store.Save(tt.state))
			}
			session := NewSession(store)
			require.NoError(t, session.Init())
			assert.Equal(t, tt.authed, session.Authenticated())

			stored, err := store.Load()
			require.NoError(t, err)
			if tt.authed {
				assert.NotNil(t, stored)
				assert.Equal(t, "alice", session.User().Username)
			} else {
				assert.Nil(t, stored, "discarded sessions are removed from the store")
				assert.Nil(t, session.User())
			}
		})
	}
}

func TestSessionCorruptFileIsDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	session := NewSession(&FileStore{Path: path})
	assert.Error(t, session.Init())
	assert.False(t, session.Authenticated())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSessionTransitions(t *testing.T) {
	session := NewSession(&MemoryStore{})
	assert.ErrorIs(t, session.SetUser(employee()), ErrLoginRequired)
	assert.Error(t, session.Establish("", employee()))

	user := employee()
	require.NoError(t, session.Establish("tok", user))
	assert.Equal(t, "tok", session.Token())

	// User returns a copy
	session.User().Username = "mallory"
	assert.Equal(t, "alice", session.User().Username)

	refreshed := *user
	refreshed.Department = "finance"
	require.NoError(t, session.SetUser(&refreshed))
	assert.Equal(t, "finance", session.User().Department)
	assert.Equal(t, "tok", session.Token())

	require.NoError(t, session.Purge())
	assert.False(t, session.Authenticated())
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	got, err := TokenExpiry(token(t, exp))
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = TokenExpiry(noExp)
	assert.Error(t, err)
}

func TestGuard(t *testing.T) {
	anonymous := NewSession(&MemoryStore{})
	staff := NewSession(&MemoryStore{})
	require.NoError(t, staff.Establish("tok", employee()))
	boss := NewSession(&MemoryStore{})
	require.NoError(t, boss.Establish("tok", &model.User{ID: uuid.New(), Role: model.RoleBoss}))

	for view := range Views {
		assert.ErrorIs(t, Guard(anonymous, view), ErrLoginRequired, view)
		assert.NoError(t, Guard(boss, view), view)
	}
	assert.NoError(t, Guard(staff, ViewDashboard))
	assert.NoError(t, Guard(staff, ViewUpload))
	assert.ErrorIs(t, Guard(staff, ViewUsers), ErrRedirectHome)
	assert.ErrorIs(t, Guard(staff, View("settings")), ErrUnknownView)
}
