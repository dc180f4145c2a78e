package profile_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/profile"
	"github.com/world-in-pieces/wip-backend/internal/store"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type fakeStore struct {
	store.Store

	nextID  uint64
	users   map[string]*schema.User
	socials map[uint64]*schema.UserSocials
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[string]*schema.User{},
		socials: map[uint64]*schema.UserSocials{},
	}
}

func (f *fakeStore) GetUserByWallet(_ context.Context, wallet string) (*schema.User, error) {
	user, ok := f.users[domain.NormalizeWallet(wallet)]
	if !ok {
		return nil, nil
	}
	copied := *user
	if socials, ok := f.socials[user.ID]; ok {
		socialsCopy := *socials
		copied.Socials = &socialsCopy
	}
	return &copied, nil
}

func (f *fakeStore) GetOrCreateUserByWallet(_ context.Context, wallet string) (*schema.User, error) {
	wallet = domain.NormalizeWallet(wallet)
	if user, ok := f.users[wallet]; ok {
		copied := *user
		return &copied, nil
	}
	f.nextID++
	user := &schema.User{ID: f.nextID, WalletAddress: wallet}
	f.users[wallet] = user
	copied := *user
	return &copied, nil
}

func (f *fakeStore) UpdateUserProfile(_ context.Context, userID uint64, username, description *string) error {
	for _, user := range f.users {
		if user.ID == userID {
			user.Username = username
			user.Description = description
		}
	}
	return nil
}

func (f *fakeStore) UpsertUserSocials(_ context.Context, socials *schema.UserSocials) error {
	f.socials[socials.UserID] = socials
	return nil
}

func str(s string) *string { return &s }

func TestGet_UnknownWallet(t *testing.T) {
	svc := profile.NewService(newFakeStore())

	_, err := svc.Get(context.Background(), "0xaaaa")

	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSet_CreatesUserRow(t *testing.T) {
	st := newFakeStore()
	svc := profile.NewService(st)

	user, err := svc.Set(context.Background(), "0xAAAA", profile.Update{
		Username:    str("piecemaker"),
		Description: str("landlord of Avalon"),
	})

	require.NoError(t, err)
	assert.Equal(t, "0xaaaa", user.WalletAddress)
	require.NotNil(t, user.Username)
	assert.Equal(t, "piecemaker", *user.Username)
	assert.Nil(t, user.Socials)
}

func TestSet_UpsertsSocials(t *testing.T) {
	st := newFakeStore()
	svc := profile.NewService(st)
	ctx := context.Background()

	_, err := svc.Set(ctx, "0xaaaa", profile.Update{
		Username: str("piecemaker"),
		Socials:  &profile.SocialsUpdate{Twitter: str("@piece"), Discord: str("piece#1")},
	})
	require.NoError(t, err)

	// A second update without socials keeps the stored row
	user, err := svc.Set(ctx, "0xaaaa", profile.Update{Username: str("renamed")})
	require.NoError(t, err)

	require.NotNil(t, user.Username)
	assert.Equal(t, "renamed", *user.Username)
	require.NotNil(t, user.Socials)
	require.NotNil(t, user.Socials.Twitter)
	assert.Equal(t, "@piece", *user.Socials.Twitter)

	// Overwriting replaces all social fields
	user, err = svc.Set(ctx, "0xaaaa", profile.Update{
		Username: str("renamed"),
		Socials:  &profile.SocialsUpdate{Instagram: str("piece.gram")},
	})
	require.NoError(t, err)
	require.NotNil(t, user.Socials)
	assert.Nil(t, user.Socials.Twitter)
	require.NotNil(t, user.Socials.Instagram)
	assert.Equal(t, "piece.gram", *user.Socials.Instagram)
}
