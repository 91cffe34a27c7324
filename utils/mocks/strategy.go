package mocks

import (
	"context"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/vaultfi/omnivault/types"
)

var _ types.YieldStrategy = (*Strategy)(nil)

// Strategy is an in-memory yield strategy backed by a Bank. Allocations move
// coins from the vault address into strategy custody and grow the vault's
// position 1:1; withdrawals do the reverse. Error fields force individual
// operations to fail, and PreviewOverride lets a test make the strategy
// promise liquidity it cannot deliver.
type Strategy struct {
	mu        sync.Mutex
	address   string
	denom     string
	vaultAddr string
	bank      *Bank
	positions map[string]sdkmath.Int

	PreviewErr      error
	WithdrawErr     error
	InvokeErr       error
	BalanceErr      error
	PreviewOverride *sdkmath.Int

	// LastWithdraw records the asset amount of the most recent Withdraw call.
	LastWithdraw sdkmath.Int
	// LastInvokeData records the payload of the most recent Invoke call.
	LastInvokeData []byte
}

// NewStrategy creates a strategy holding no positions.
func NewStrategy(bank *Bank, address, denom, vaultAddr string) *Strategy {
	return &Strategy{
		address:      address,
		denom:        denom,
		vaultAddr:    vaultAddr,
		bank:         bank,
		positions:    make(map[string]sdkmath.Int),
		LastWithdraw: sdkmath.ZeroInt(),
	}
}

func (s *Strategy) Address() string { return s.address }

func (s *Strategy) AssetDenom() string { return s.denom }

func (s *Strategy) BalanceOf(_ context.Context, owner string) (sdkmath.Int, error) {
	if s.BalanceErr != nil {
		return sdkmath.Int{}, s.BalanceErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position(owner), nil
}

func (s *Strategy) PreviewWithdraw(ctx context.Context, assets sdkmath.Int) (sdkmath.Int, error) {
	if s.PreviewErr != nil {
		return sdkmath.Int{}, s.PreviewErr
	}
	if s.PreviewOverride != nil {
		return *s.PreviewOverride, nil
	}
	return sdkmath.MinInt(assets, s.bank.GetBalance(ctx, s.address, s.denom).Amount), nil
}

func (s *Strategy) Withdraw(ctx context.Context, assets sdkmath.Int, receiver, owner string) (sdkmath.Int, error) {
	s.mu.Lock()
	s.LastWithdraw = assets
	s.mu.Unlock()
	if s.WithdrawErr != nil {
		return sdkmath.Int{}, s.WithdrawErr
	}

	s.mu.Lock()
	if s.position(owner).LT(assets) {
		held := s.position(owner)
		s.mu.Unlock()
		return sdkmath.Int{}, fmt.Errorf("position of %s is %s, needs %s", owner, held, assets)
	}
	s.positions[owner] = s.position(owner).Sub(assets)
	s.mu.Unlock()

	if err := s.bank.SendCoins(ctx, s.address, receiver, sdk.NewCoins(sdk.NewCoin(s.denom, assets))); err != nil {
		return sdkmath.Int{}, err
	}
	return assets, nil
}

func (s *Strategy) Invoke(ctx context.Context, amount sdkmath.Int, data []byte) error {
	s.mu.Lock()
	s.LastInvokeData = data
	s.mu.Unlock()
	if s.InvokeErr != nil {
		return s.InvokeErr
	}

	if err := s.bank.SendCoins(ctx, s.vaultAddr, s.address, sdk.NewCoins(sdk.NewCoin(s.denom, amount))); err != nil {
		return err
	}
	s.mu.Lock()
	s.positions[s.vaultAddr] = s.position(s.vaultAddr).Add(amount)
	s.mu.Unlock()
	return nil
}

// SetPosition overrides the position held by owner, for seeding yield.
func (s *Strategy) SetPosition(owner string, amount sdkmath.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[owner] = amount
}

func (s *Strategy) position(owner string) sdkmath.Int {
	if amt, ok := s.positions[owner]; ok {
		return amt
	}
	return sdkmath.ZeroInt()
}
