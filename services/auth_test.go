package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/models"
)

type memoryUsers struct {
	users   map[string]*models.User
	nextID  uint
	updates int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*models.User)}
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, errs.NewNotFound("user")
	}
	copied := *u
	return &copied, nil
}

func (m *memoryUsers) Add(_ context.Context, user *models.User) error {
	m.nextID++
	user.ID = m.nextID
	copied := *user
	m.users[user.Username] = &copied
	return nil
}

func (m *memoryUsers) UpdatePasswordHash(_ context.Context, id uint, hash string) error {
	for _, u := range m.users {
		if u.ID == id {
			u.PasswordHash = hash
			m.updates++
			return nil
		}
	}
	return errs.NewNotFound("user")
}

type authFixture struct {
	users *memoryUsers
	auth  *AuthService
	clock *time.Time
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	users := newMemoryUsers()
	auth, err := NewAuthService(users, NewSessionStore(), "test-secret")
	require.NoError(t, err)
	auth.cost = bcrypt.MinCost

	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return clock }

	require.NoError(t, auth.EnsureAdmin(context.Background(), "admin", "s3cret"))
	return authFixture{users: users, auth: auth, clock: &clock}
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	_, err := NewAuthService(newMemoryUsers(), NewSessionStore(), "")
	require.Error(t, err)
	assert.True(t, errs.IsConfigMissingError(err))
}

func TestAuth_LoginAuthenticateLogout(t *testing.T) {
	f := newAuthFixture(t)

	token, session, err := f.auth.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "admin", session.Username)
	assert.Equal(t, f.clock.Add(SessionLifetime), session.ExpiresAt)

	got, err := f.auth.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	f.auth.Logout(token)
	_, err = f.auth.Authenticate(token)
	require.Error(t, err)
	assert.True(t, errs.IsSessionError(err))
}

func TestAuth_LoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := f.auth.Login(ctx, "admin", "wrong")
	assert.True(t, errs.IsInvalidCredentialsError(err))

	_, _, err = f.auth.Login(ctx, "nobody", "s3cret")
	assert.True(t, errs.IsInvalidCredentialsError(err))

	_, _, err = f.auth.Login(ctx, "", "s3cret")
	assert.True(t, errs.IsMissingRequiredFieldError(err))

	_, _, err = f.auth.Login(ctx, "admin", "")
	assert.True(t, errs.IsMissingRequiredFieldError(err))
}

func TestAuth_SessionExpiresAfterLifetime(t *testing.T) {
	f := newAuthFixture(t)

	token, _, err := f.auth.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)

	*f.clock = f.clock.Add(SessionLifetime - time.Minute)
	_, err = f.auth.Authenticate(token)
	require.NoError(t, err)

	*f.clock = f.clock.Add(2 * time.Minute)
	_, err = f.auth.Authenticate(token)
	assert.ErrorIs(t, err, errs.ErrSessionExpired)
	assert.Equal(t, 1, f.auth.PurgeExpired())
	assert.Zero(t, f.auth.sessions.Len())
}

func TestAuth_RejectsForgedTokens(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.Authenticate("")
	assert.ErrorIs(t, err, errs.ErrMissingSession)

	_, err = f.auth.Authenticate("not-a-token")
	assert.ErrorIs(t, err, errs.ErrInvalidSession)

	other, err := NewAuthService(f.users, NewSessionStore(), "another-secret")
	require.NoError(t, err)
	other.now = f.auth.now
	token, _, err := other.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)

	_, err = f.auth.Authenticate(token)
	assert.ErrorIs(t, err, errs.ErrInvalidSession)
}

func TestAuth_EnsureAdminRotatesOnlyWhenPasswordChanges(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin", "s3cret"))
	assert.Equal(t, 0, f.users.updates)

	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin", "new-pass"))
	assert.Equal(t, 1, f.users.updates)

	_, _, err := f.auth.Login(ctx, "admin", "s3cret")
	assert.True(t, errs.IsInvalidCredentialsError(err))
	_, _, err = f.auth.Login(ctx, "admin", "new-pass")
	assert.NoError(t, err)
}

func TestSessionStore_Purge(t *testing.T) {
	store := NewSessionStore()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	store.Put(Session{ID: "old", ExpiresAt: now.Add(-time.Second)})
	store.Put(Session{ID: "live", ExpiresAt: now.Add(time.Hour)})

	assert.Equal(t, 1, store.Purge(now))
	_, ok := store.Get("live", now)
	assert.True(t, ok)
	_, ok = store.Get("old", now)
	assert.False(t, ok)
}
