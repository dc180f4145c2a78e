package game

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/domain"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

// weiPerToken converts the PIECE balance from wei to whole tokens
var weiPerToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// JoinGame enrolls a wallet in the game. The wallet must hold enough PIECE
// tokens and must hold exactly one of the two token types; the starting game
// balance is seeded from the on-chain PIECE balance.
func (s *Service) JoinGame(ctx context.Context, wallet string) (*schema.CivilizationUser, error) {
	wallet = domain.NormalizeWallet(wallet)

	existing, err := s.store.GetCivilizationUserByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyInGame
	}

	balanceWei, err := s.pieceToken.BalanceOf(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to read token balance: %w", err)
	}

	balance := new(big.Int).Div(balanceWei, weiPerToken).Int64()
	if balance < s.cfg.MinJoinBalance {
		return nil, domain.ErrNotEnoughTokens
	}

	// SyncUser determines the role, creates the game user and pulls in the
	// wallet's current holdings
	if err := s.resync.SyncUser(ctx, wallet); err != nil {
		return nil, err
	}

	civUser, err := s.store.GetCivilizationUserByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if civUser == nil {
		return nil, domain.ErrUserNotFound
	}

	if balance > 0 {
		if err := s.store.AddCivilizationUserBalance(ctx, civUser.ID, balance); err != nil {
			return nil, err
		}
		civUser.Balance += balance
	}

	logger.InfoCtx(ctx, "wallet joined the game",
		zap.String("wallet", wallet),
		zap.String("role", string(civUser.Role)),
		zap.Int64("balance", civUser.Balance))

	return civUser, nil
}

// GetUser returns the game user behind a wallet
func (s *Service) GetUser(ctx context.Context, wallet string) (*schema.CivilizationUser, error) {
	return s.civilizationUser(ctx, wallet)
}
