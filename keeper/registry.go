package keeper

import (
	"github.com/vaultfi/omnivault/types"
)

// The registries keep an insertion-ordered slice next to a position map.
// Lookups report membership explicitly instead of reusing index zero as a
// "not registered" sentinel, which would be ambiguous for the legitimately
// first entry.

type assetRegistry struct {
	entries []types.AssetEntry
	index   map[string]int
}

func newAssetRegistry() assetRegistry {
	return assetRegistry{index: make(map[string]int)}
}

func (r *assetRegistry) add(entry types.AssetEntry) {
	r.index[entry.Denom] = len(r.entries)
	r.entries = append(r.entries, entry)
}

func (r *assetRegistry) get(denom string) (types.AssetEntry, bool) {
	i, ok := r.index[denom]
	if !ok {
		return types.AssetEntry{}, false
	}
	return r.entries[i], true
}

func (r *assetRegistry) has(denom string) bool {
	_, ok := r.index[denom]
	return ok
}

// mut returns a pointer into the backing slice for in-place updates.
func (r *assetRegistry) mut(denom string) (*types.AssetEntry, bool) {
	i, ok := r.index[denom]
	if !ok {
		return nil, false
	}
	return &r.entries[i], true
}

type strategyRegistry struct {
	entries []types.StrategyEntry
	index   map[string]int
	impls   map[string]types.YieldStrategy
}

func newStrategyRegistry() strategyRegistry {
	return strategyRegistry{
		index: make(map[string]int),
		impls: make(map[string]types.YieldStrategy),
	}
}

func (r *strategyRegistry) add(entry types.StrategyEntry, impl types.YieldStrategy) {
	r.index[entry.Address] = len(r.entries)
	r.entries = append(r.entries, entry)
	r.impls[entry.Address] = impl
}

func (r *strategyRegistry) get(address string) (types.StrategyEntry, bool) {
	i, ok := r.index[address]
	if !ok {
		return types.StrategyEntry{}, false
	}
	return r.entries[i], true
}

func (r *strategyRegistry) impl(address string) (types.YieldStrategy, bool) {
	s, ok := r.impls[address]
	return s, ok
}

func (r *strategyRegistry) mut(address string) (*types.StrategyEntry, bool) {
	i, ok := r.index[address]
	if !ok {
		return nil, false
	}
	return &r.entries[i], true
}

// GetAssets returns all registered assets in insertion order. The first
// entry is the primary asset. The returned slice is a copy.
func (k *Keeper) GetAssets() []types.AssetEntry {
	out := make([]types.AssetEntry, len(k.assets.entries))
	copy(out, k.assets.entries)
	return out
}

// GetAsset returns the registry entry for a denom, reporting membership.
func (k *Keeper) GetAsset(denom string) (types.AssetEntry, bool) {
	return k.assets.get(denom)
}

// GetStrategies returns all registered strategies in insertion order.
// The returned slice is a copy.
func (k *Keeper) GetStrategies() []types.StrategyEntry {
	out := make([]types.StrategyEntry, len(k.strategies.entries))
	copy(out, k.strategies.entries)
	return out
}

// GetStrategy returns the registry entry for an address, reporting membership.
func (k *Keeper) GetStrategy(address string) (types.StrategyEntry, bool) {
	return k.strategies.get(address)
}

// BufferStrategy returns the buffer strategy address, empty if unset.
func (k *Keeper) BufferStrategy() string {
	return k.bufferStrategy
}

// primaryAsset returns the first registered asset, whose decimals define the
// vault's own decimals.
func (k *Keeper) primaryAsset() (types.AssetEntry, error) {
	if len(k.assets.entries) == 0 {
		return types.AssetEntry{}, types.ErrInvalidState.Wrap("no assets registered")
	}
	return k.assets.entries[0], nil
}
