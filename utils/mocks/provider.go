package mocks

import (
	"context"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultfi/omnivault/types"
)

var _ types.RateProvider = (*RateProvider)(nil)

// RateProvider serves unit-of-account rates from an in-memory table. Setting
// Err makes every lookup fail, for exercising external-call error paths.
type RateProvider struct {
	mu    sync.Mutex
	rates map[string]sdkmath.Int

	Err error
}

// NewRateProvider creates a provider with no rates configured.
func NewRateProvider() *RateProvider {
	return &RateProvider{rates: make(map[string]sdkmath.Int)}
}

// SetRate installs or replaces the rate for an asset or strategy identifier.
func (p *RateProvider) SetRate(id string, rate sdkmath.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rates[id] = rate
}

func (p *RateProvider) GetRate(_ context.Context, assetID string) (sdkmath.Int, error) {
	if p.Err != nil {
		return sdkmath.Int{}, p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	rate, ok := p.rates[assetID]
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("no rate for %q", assetID)
	}
	return rate, nil
}
