package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bidvault/internal/engine"
	"bidvault/internal/model"
	"bidvault/internal/util"
)

type fakeUserStore struct {
	nextID int
	users  map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: map[string]*model.User{}}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, u *model.User) error {
	u.ID = f.nextID
	f.nextID++
	u.CreatedAt = time.Now()
	f.users[u.Email] = u
	return nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, engine.ErrNotFound
}

func TestRegister(t *testing.T) {
	svc := NewService(newFakeUserStore(), "secret", zap.NewNop())
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, 1, u.ID)
	require.NotEqual(t, "password123", u.PasswordHash)

	_, err = svc.Register(ctx, "a@example.com", "password123")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc := NewService(newFakeUserStore(), "secret", zap.NewNop())
	ctx := context.Background()

	u, err := svc.Register(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	userID, err := util.ParseJWT(token, "secret")
	require.NoError(t, err)
	require.Equal(t, u.ID, userID)

	_, err = svc.Login(ctx, "a@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
