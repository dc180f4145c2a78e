// Package profile manages the off-chain user profile: display name,
// description and social links keyed by wallet address.
package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/store"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// Service reads and writes user profiles
type Service struct {
	store store.Store
}

// NewService creates a new profile service
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// SocialsUpdate carries the social links of a profile update. Nil fields
// clear the stored value.
type SocialsUpdate struct {
	Twitter   *string
	Discord   *string
	Instagram *string
}

// Update carries the editable profile fields. A nil Socials leaves the
// stored socials untouched.
type Update struct {
	Username    *string
	Description *string
	Socials     *SocialsUpdate
}

// Get retrieves the profile behind a wallet with socials attached
func (s *Service) Get(ctx context.Context, wallet string) (*schema.User, error) {
	user, err := s.store.GetUserByWallet(ctx, domain.NormalizeWallet(wallet))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// Set overwrites the profile of a wallet, creating the user row if the
// wallet was never seen. A wallet may own segments without a user row, so
// updates never require prior state.
func (s *Service) Set(ctx context.Context, wallet string, update Update) (*schema.User, error) {
	wallet = domain.NormalizeWallet(wallet)

	user, err := s.store.GetOrCreateUserByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateUserProfile(ctx, user.ID, update.Username, update.Description); err != nil {
		return nil, err
	}

	if update.Socials != nil {
		socials := &schema.UserSocials{
			UserID:    user.ID,
			Twitter:   update.Socials.Twitter,
			Discord:   update.Socials.Discord,
			Instagram: update.Socials.Instagram,
		}
		if err := s.store.UpsertUserSocials(ctx, socials); err != nil {
			return nil, err
		}
	}

	logger.InfoCtx(ctx, "user profile updated", zap.String("wallet", wallet))

	return s.Get(ctx, wallet)
}
