package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/world-in-pieces/wip-backend/internal/adapter"
)

const erc20ABI = `[{
	"constant": true,
	"inputs": [{"name": "owner", "type": "address"}],
	"name": "balanceOf",
	"outputs": [{"name": "", "type": "uint256"}],
	"type": "function"
}]`

// PieceToken defines the interface for PIECE token reads to enable mocking
//
//go:generate mockgen -source=piece_token.go -destination=../../mocks/piece_token.go -package=mocks -mock_names=PieceToken=MockPieceToken
type PieceToken interface {
	// BalanceOf returns the PIECE balance of a wallet
	BalanceOf(ctx context.Context, wallet string) (*big.Int, error)
}

// PieceTokenReader implements PieceToken against an ERC-20 contract
type PieceTokenReader struct {
	client   adapter.EthClient
	contract common.Address
	abi      abi.ABI
}

// NewPieceTokenReader creates a new PIECE token reader
func NewPieceTokenReader(client adapter.EthClient, contractAddress string) (*PieceTokenReader, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}

	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address: %s", contractAddress)
	}

	return &PieceTokenReader{
		client:   client,
		contract: common.HexToAddress(contractAddress),
		abi:      parsed,
	}, nil
}

// BalanceOf returns the PIECE balance of a wallet
func (r *PieceTokenReader) BalanceOf(ctx context.Context, wallet string) (*big.Int, error) {
	if !common.IsHexAddress(wallet) {
		return nil, fmt.Errorf("invalid wallet address: %s", wallet)
	}

	input, err := r.abi.Pack("balanceOf", common.HexToAddress(wallet))
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	output, err := r.client.CallContract(ctx, goethereum.CallMsg{
		To:   &r.contract,
		Data: input,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	results, err := r.abi.Unpack("balanceOf", output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("unexpected balanceOf result arity: %d", len(results))
	}

	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type: %T", results[0])
	}

	return balance, nil
}
