package mocks

import (
	"context"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/vaultfi/omnivault/types"
)

var _ types.TokenKeeper = (*Bank)(nil)

// Bank is an in-memory TokenKeeper with standard balance, supply, and
// allowance semantics. Individual operations can be forced to fail to test
// external-call failure handling.
type Bank struct {
	mu         sync.Mutex
	balances   map[string]map[string]sdkmath.Int
	supply     map[string]sdkmath.Int
	allowances map[string]map[string]map[string]sdkmath.Int

	FailSend error
	FailMint error
	FailBurn error
}

// NewBank creates an empty in-memory token ledger.
func NewBank() *Bank {
	return &Bank{
		balances:   make(map[string]map[string]sdkmath.Int),
		supply:     make(map[string]sdkmath.Int),
		allowances: make(map[string]map[string]map[string]sdkmath.Int),
	}
}

// Fund credits coins to addr and bumps supply accordingly.
func (b *Bank) Fund(addr string, coins ...sdk.Coin) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range coins {
		b.credit(addr, c.Denom, c.Amount)
		b.supply[c.Denom] = b.supplyOf(c.Denom).Add(c.Amount)
	}
}

func (b *Bank) SendCoins(_ context.Context, fromAddr, toAddr string, amt sdk.Coins) error {
	if b.FailSend != nil {
		return b.FailSend
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range amt {
		if b.balanceOf(fromAddr, c.Denom).LT(c.Amount) {
			return fmt.Errorf("insufficient funds: %s has %s%s, needs %s", fromAddr, b.balanceOf(fromAddr, c.Denom), c.Denom, c)
		}
	}
	for _, c := range amt {
		b.debit(fromAddr, c.Denom, c.Amount)
		b.credit(toAddr, c.Denom, c.Amount)
	}
	return nil
}

func (b *Bank) GetBalance(_ context.Context, addr, denom string) sdk.Coin {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sdk.NewCoin(denom, b.balanceOf(addr, denom))
}

func (b *Bank) GetSupply(_ context.Context, denom string) sdk.Coin {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sdk.NewCoin(denom, b.supplyOf(denom))
}

func (b *Bank) MintCoin(_ context.Context, toAddr string, coin sdk.Coin) error {
	if b.FailMint != nil {
		return b.FailMint
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(toAddr, coin.Denom, coin.Amount)
	b.supply[coin.Denom] = b.supplyOf(coin.Denom).Add(coin.Amount)
	return nil
}

func (b *Bank) BurnCoin(_ context.Context, fromAddr string, coin sdk.Coin) error {
	if b.FailBurn != nil {
		return b.FailBurn
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balanceOf(fromAddr, coin.Denom).LT(coin.Amount) {
		return fmt.Errorf("insufficient balance to burn %s from %s", coin, fromAddr)
	}
	b.debit(fromAddr, coin.Denom, coin.Amount)
	b.supply[coin.Denom] = b.supplyOf(coin.Denom).Sub(coin.Amount)
	return nil
}

func (b *Bank) Approve(_ context.Context, owner, spender string, coin sdk.Coin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	byOwner, ok := b.allowances[owner]
	if !ok {
		byOwner = make(map[string]map[string]sdkmath.Int)
		b.allowances[owner] = byOwner
	}
	bySpender, ok := byOwner[spender]
	if !ok {
		bySpender = make(map[string]sdkmath.Int)
		byOwner[spender] = bySpender
	}
	bySpender[coin.Denom] = coin.Amount
	return nil
}

func (b *Bank) SpendAllowance(_ context.Context, owner, spender string, coin sdk.Coin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.allowanceOf(owner, spender, coin.Denom)
	if current.LT(coin.Amount) {
		return fmt.Errorf("allowance of %s for %s is %s, needs %s", owner, spender, current, coin)
	}
	b.allowances[owner][spender][coin.Denom] = current.Sub(coin.Amount)
	return nil
}

// Allowance reports the remaining allowance of spender over owner's denom.
func (b *Bank) Allowance(owner, spender, denom string) sdkmath.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allowanceOf(owner, spender, denom)
}

func (b *Bank) balanceOf(addr, denom string) sdkmath.Int {
	if amt, ok := b.balances[addr][denom]; ok {
		return amt
	}
	return sdkmath.ZeroInt()
}

func (b *Bank) supplyOf(denom string) sdkmath.Int {
	if amt, ok := b.supply[denom]; ok {
		return amt
	}
	return sdkmath.ZeroInt()
}

func (b *Bank) allowanceOf(owner, spender, denom string) sdkmath.Int {
	if amt, ok := b.allowances[owner][spender][denom]; ok {
		return amt
	}
	return sdkmath.ZeroInt()
}

func (b *Bank) credit(addr, denom string, amount sdkmath.Int) {
	if _, ok := b.balances[addr]; !ok {
		b.balances[addr] = make(map[string]sdkmath.Int)
	}
	b.balances[addr][denom] = b.balanceOf(addr, denom).Add(amount)
}

func (b *Bank) debit(addr, denom string, amount sdkmath.Int) {
	b.balances[addr][denom] = b.balanceOf(addr, denom).Sub(amount)
}
