package keeper

import (
	"context"
	"sync/atomic"

	"cosmossdk.io/log"

	"github.com/vaultfi/omnivault/types"
)

// Keeper owns all vault state: the global vault record, the parameters, and
// the asset and strategy registries. No other component mutates them; the
// rate provider and strategies are only ever queried or instructed.
type Keeper struct {
	logger    log.Logger
	authority string

	// vaultAddr is the custody address all asset balances are held at.
	vaultAddr string

	bank     types.TokenKeeper
	provider types.RateProvider

	state  types.VaultState
	params types.Params

	assets     assetRegistry
	strategies strategyRegistry

	// bufferStrategy is the address of the designated fallback liquidity
	// source. Empty until configured.
	bufferStrategy string

	limiter   types.RedeemLimiter
	listeners []types.EventListener

	// busy serializes the mutating entry points. A nested call fails with
	// ErrReentrantCall instead of blocking: intermediate states are unsafe
	// to observe, and blocking would deadlock the single caller.
	busy atomic.Bool
}

// NewKeeper creates a vault keeper. The vault starts paused; registries are
// populated through the admin surface or InitGenesis. The redeem limiter
// defaults to the owner's full share balance.
func NewKeeper(
	logger log.Logger,
	bank types.TokenKeeper,
	authority string,
	vaultAddr string,
	shareDenom string,
	unitDenom string,
	params types.Params,
) (*Keeper, error) {
	if bank == nil {
		return nil, types.ErrInvalidInput.Wrap("token keeper cannot be nil")
	}
	if authority == "" {
		return nil, types.ErrInvalidInput.Wrap("authority cannot be empty")
	}
	if vaultAddr == "" {
		return nil, types.ErrInvalidInput.Wrap("vault address cannot be empty")
	}
	state := types.NewVaultState(shareDenom, unitDenom)
	if err := state.Validate(); err != nil {
		return nil, types.ErrInvalidInput.Wrap(err.Error())
	}
	if err := params.Validate(); err != nil {
		return nil, types.ErrInvalidInput.Wrap(err.Error())
	}

	k := &Keeper{
		logger:     logger.With("module", types.ModuleName),
		authority:  authority,
		vaultAddr:  vaultAddr,
		bank:       bank,
		state:      state,
		params:     params,
		assets:     newAssetRegistry(),
		strategies: newStrategyRegistry(),
	}
	k.limiter = shareBalanceLimiter{k}
	return k, nil
}

// GetAuthority returns the vault's authority.
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// VaultAddress returns the custody address assets are held at.
func (k *Keeper) VaultAddress() string {
	return k.vaultAddr
}

// Provider returns the configured rate provider, or nil if unset.
func (k *Keeper) Provider() types.RateProvider {
	return k.provider
}

// SetRedeemLimiter replaces the redeem limit policy. Intended for designs
// that bound redemptions by withdrawable liquidity rather than balance.
func (k *Keeper) SetRedeemLimiter(limiter types.RedeemLimiter) {
	if limiter != nil {
		k.limiter = limiter
	}
}

// AddEventListener registers a listener for the vault's typed events.
func (k *Keeper) AddEventListener(l types.EventListener) {
	if l != nil {
		k.listeners = append(k.listeners, l)
	}
}

// requireAuthority checks the opaque capability of the caller.
func (k *Keeper) requireAuthority(authority string) error {
	if authority != k.authority {
		return types.ErrAccessDenied.Wrapf("expected authority, got %q", authority)
	}
	return nil
}

// acquire takes the non-reentrant guard. The returned release function must
// run on every exit path of the enclosing operation.
func (k *Keeper) acquire() (func(), error) {
	if !k.busy.CompareAndSwap(false, true) {
		return nil, types.ErrReentrantCall.Wrap("vault operation already in progress")
	}
	return func() { k.busy.Store(false) }, nil
}

func (k *Keeper) emitEvent(ctx context.Context, event any) {
	k.logger.Debug("event", "type", eventName(event), "event", event)
	for _, l := range k.listeners {
		l.Handle(event)
	}
}

func eventName(event any) string {
	switch event.(type) {
	case *types.EventDeposit:
		return "deposit"
	case *types.EventWithdraw:
		return "withdraw"
	case *types.EventBufferPull:
		return "buffer_pull"
	case *types.EventTotalAssetsRefreshed:
		return "total_assets_refreshed"
	case *types.EventAllocationProcessed:
		return "allocation_processed"
	case *types.EventPauseChanged:
		return "pause_changed"
	default:
		return "admin"
	}
}
