package keeper_test

import (
	"errors"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"

	"github.com/vaultfi/omnivault/keeper"
	"github.com/vaultfi/omnivault/types"
	"github.com/vaultfi/omnivault/utils"
	"github.com/vaultfi/omnivault/utils/mocks"
)

// newBareKeeper builds an unconfigured keeper with its own bank and provider,
// for tests that need to start before SetupTest's wiring.
func (s *TestSuite) newBareKeeper(params types.Params) (*keeper.Keeper, *mocks.Bank, *mocks.RateProvider) {
	bank := mocks.NewBank()
	provider := mocks.NewRateProvider()
	k, err := keeper.NewKeeper(log.NewNopLogger(), bank, authority, "barevault", shareDenom, unitDenom, params)
	s.Require().NoError(err)
	return k, bank, provider
}

func (s *TestSuite) TestAdminSurface_RequiresAuthority() {
	s.Require().ErrorIs(s.k.AddAsset(s.ctx, "intruder", "altcoin", 6), types.ErrAccessDenied)
	s.Require().ErrorIs(s.k.ToggleAsset(s.ctx, "intruder", stableDenom, false), types.ErrAccessDenied)
	s.Require().ErrorIs(s.k.SetPaused(s.ctx, "intruder", true), types.ErrAccessDenied)
	s.Require().ErrorIs(s.k.SetBaseWithdrawalFee(s.ctx, "intruder", 1), types.ErrAccessDenied)
	s.Require().ErrorIs(s.k.SetBufferStrategy(s.ctx, "intruder", strategyAddr), types.ErrAccessDenied)
	s.Require().ErrorIs(s.k.ProcessAllocation(s.ctx, "intruder", nil), types.ErrAccessDenied)
}

func (s *TestSuite) TestAddAsset_AppendOnly() {
	s.Require().NoError(s.k.AddAsset(s.ctx, authority, "altcoin", 3))

	assets := s.k.GetAssets()
	s.Require().Len(assets, 2)
	s.Assert().Equal(stableDenom, assets[0].Denom, "primary asset must stay first")
	s.Assert().Equal("altcoin", assets[1].Denom)

	// Re-registering is the only way to "remove", and it is rejected.
	err := s.k.AddAsset(s.ctx, authority, stableDenom, stableDecimals)
	s.Require().ErrorIs(err, types.ErrInvalidAsset)
	s.Require().Len(s.k.GetAssets(), 2)

	// Deactivation hides an asset from deposits but keeps its registry slot.
	s.Require().NoError(s.k.ToggleAsset(s.ctx, authority, "altcoin", false))
	assets = s.k.GetAssets()
	s.Require().Len(assets, 2)
	s.Assert().False(assets[1].Active)
}

func (s *TestSuite) TestAddAsset_FirstAssetFixesDecimals() {
	params := types.DefaultParams()
	params.DecimalsOffset = 2
	k, _, _ := s.newBareKeeper(params)

	s.Require().NoError(k.AddAsset(s.ctx, authority, stableDenom, 6))
	s.Assert().Equal(uint8(8), k.Decimals())

	// A second asset does not move them.
	s.Require().NoError(k.AddAsset(s.ctx, authority, "altcoin", 18))
	s.Assert().Equal(uint8(8), k.Decimals())
}

func (s *TestSuite) TestAddAsset_DecimalsOverflowRejected() {
	params := types.DefaultParams()
	params.DecimalsOffset = 250
	k, _, _ := s.newBareKeeper(params)

	err := k.AddAsset(s.ctx, authority, stableDenom, 18)
	s.Require().ErrorIs(err, types.ErrInvalidInput)
	s.Require().Empty(k.GetAssets())

	// Within range the sum still stands.
	s.Require().NoError(k.AddAsset(s.ctx, authority, stableDenom, 5))
	s.Assert().Equal(uint8(255), k.Decimals())
}

func (s *TestSuite) TestToggleStrategy_EmitsEvent() {
	rec := &eventRecorder{}
	s.k.AddEventListener(rec)

	s.Require().NoError(s.k.ToggleStrategy(s.ctx, authority, strategyAddr, false))
	entry, found := s.k.GetStrategy(strategyAddr)
	s.Require().True(found)
	s.Assert().False(entry.Active)

	s.Require().Len(rec.events, 1)
	toggled, ok := rec.events[0].(*types.EventStrategyToggled)
	s.Require().True(ok, "expected a strategy toggle event, got %T", rec.events[0])
	s.Assert().Equal(strategyAddr, toggled.Address)
	s.Assert().False(toggled.Active)
}

func (s *TestSuite) TestToggleAsset_UnknownRejected() {
	err := s.k.ToggleAsset(s.ctx, authority, "othercoin", false)
	s.Require().ErrorIs(err, types.ErrInvalidAsset)
}

func (s *TestSuite) TestAddStrategy_Validation() {
	err := s.k.AddStrategy(s.ctx, authority, nil, 6)
	s.Require().ErrorIs(err, types.ErrInvalidInput)

	err = s.k.AddStrategy(s.ctx, authority, s.buffer, stableDecimals)
	s.Require().ErrorIs(err, types.ErrInvalidStrategy, "duplicate registration must fail")
	s.Require().Len(s.k.GetStrategies(), 1)
}

func (s *TestSuite) TestSetBufferStrategy_Validation() {
	err := s.k.SetBufferStrategy(s.ctx, authority, "ghostStrategy")
	s.Require().ErrorIs(err, types.ErrInvalidStrategy)

	s.Require().NoError(s.k.ToggleStrategy(s.ctx, authority, strategyAddr, false))
	err = s.k.SetBufferStrategy(s.ctx, authority, strategyAddr)
	s.Require().ErrorIs(err, types.ErrInvalidStrategy)
	s.Require().ErrorContains(err, "inactive")
	s.Require().NoError(s.k.ToggleStrategy(s.ctx, authority, strategyAddr, true))

	// A strategy in a different asset cannot back the primary asset.
	other := mocks.NewStrategy(s.bank, "otherStrategy", "altcoin", vaultAddr)
	s.Require().NoError(s.k.AddStrategy(s.ctx, authority, other, 3))
	err = s.k.SetBufferStrategy(s.ctx, authority, "otherStrategy")
	s.Require().ErrorIs(err, types.ErrInvalidStrategy)
	s.Require().ErrorContains(err, "must match primary asset")
}

func (s *TestSuite) TestSetPaused_UnpauseRequiresConfiguration() {
	k, _, provider := s.newBareKeeper(types.DefaultParams())
	s.Require().NoError(k.AddAsset(s.ctx, authority, stableDenom, stableDecimals))

	err := k.SetPaused(s.ctx, authority, false)
	s.Require().ErrorIs(err, types.ErrInvalidState)
	s.Require().ErrorContains(err, "rate provider")

	s.Require().NoError(k.SetRateProvider(s.ctx, authority, provider))
	err = k.SetPaused(s.ctx, authority, false)
	s.Require().ErrorIs(err, types.ErrInvalidState)
	s.Require().ErrorContains(err, "buffer strategy")

	s.Assert().True(k.Paused())
}

func (s *TestSuite) TestSetPaused_RoundTrip() {
	s.Require().NoError(s.k.SetPaused(s.ctx, authority, true))
	s.Assert().True(s.k.Paused())
	s.Require().NoError(s.k.SetPaused(s.ctx, authority, false))
	s.Assert().False(s.k.Paused())
}

func (s *TestSuite) TestSetBaseWithdrawalFee() {
	s.Require().NoError(s.k.SetBaseWithdrawalFee(s.ctx, authority, 250_000))
	s.Assert().Equal(uint64(250_000), s.k.Params().BaseWithdrawalFeeBps)

	err := s.k.SetBaseWithdrawalFee(s.ctx, authority, utils.FeeScaleBps)
	s.Require().ErrorIs(err, types.ErrInvalidInput)
	s.Assert().Equal(uint64(250_000), s.k.Params().BaseWithdrawalFeeBps)
}

func (s *TestSuite) TestProcessAllocation_StrategyInvoke() {
	s.fundAndDeposit(s.aliceAddr, 100)

	err := s.k.ProcessAllocation(s.ctx, authority, []types.Allocation{
		{Target: strategyAddr, Amount: sdkmath.NewInt(70), Data: []byte("allocate")},
	})
	s.Require().NoError(err)

	s.assertBalance(vaultAddr, stableDenom, 30)
	s.assertBalance(strategyAddr, stableDenom, 70)
	s.Assert().Equal([]byte("allocate"), s.buffer.LastInvokeData)

	entry, found := s.k.GetStrategy(strategyAddr)
	s.Require().True(found)
	s.Assert().Equal(sdkmath.NewInt(70), entry.IdleBalance, "idle balance refreshed after the call")
}

func (s *TestSuite) TestProcessAllocation_AssetApproval() {
	s.fundAndDeposit(s.aliceAddr, 100)

	err := s.k.ProcessAllocation(s.ctx, authority, []types.Allocation{
		{Target: stableDenom, Spender: "marketAddr", Amount: sdkmath.NewInt(25)},
	})
	s.Require().NoError(err)

	s.Assert().Equal(sdkmath.NewInt(25), s.bank.Allowance(vaultAddr, "marketAddr", stableDenom))
}

func (s *TestSuite) TestProcessAllocation_AssetTargetConstraints() {
	s.fundAndDeposit(s.aliceAddr, 100)

	err := s.k.ProcessAllocation(s.ctx, authority, []types.Allocation{
		{Target: stableDenom, Spender: "marketAddr", Amount: sdkmath.OneInt(), Data: []byte("call")},
	})
	s.Require().ErrorIs(err, types.ErrInvalidInput)
	s.Require().ErrorContains(err, "only permits an approval")

	err = s.k.ProcessAllocation(s.ctx, authority, []types.Allocation{
		{Target: stableDenom, Amount: sdkmath.OneInt()},
	})
	s.Require().ErrorIs(err, types.ErrInvalidInput)
	s.Require().ErrorContains(err, "requires a spender")
}

func (s *TestSuite) TestProcessAllocation_UnknownTargetFailsWholeBatch() {
	s.fundAndDeposit(s.aliceAddr, 100)

	err := s.k.ProcessAllocation(s.ctx, authority, []types.Allocation{
		{Target: strategyAddr, Amount: sdkmath.NewInt(70)},
		{Target: "ghostTarget", Amount: sdkmath.OneInt()},
	})
	s.Require().ErrorIs(err, types.ErrInvalidStrategy)

	// The valid first instruction must not have run.
	s.assertBalance(vaultAddr, stableDenom, 100)
	s.assertBalance(strategyAddr, stableDenom, 0)
}

func (s *TestSuite) TestProcessAllocation_InactiveTargetsRejected() {
	s.fundAndDeposit(s.aliceAddr, 100)

	s.Require().NoError(s.k.ToggleStrategy(s.ctx, authority, strategyAddr, false))
	err := s.k.ProcessAllocation(s.ctx, authority, []types.Allocation{
		{Target: strategyAddr, Amount: sdkmath.OneInt()},
	})
	s.Require().ErrorIs(err, types.ErrInvalidStrategy)

	s.Require().NoError(s.k.ToggleAsset(s.ctx, authority, stableDenom, false))
	err = s.k.ProcessAllocation(s.ctx, authority, []types.Allocation{
		{Target: stableDenom, Spender: "marketAddr", Amount: sdkmath.OneInt()},
	})
	s.Require().ErrorIs(err, types.ErrInvalidAsset)
}

func (s *TestSuite) TestProcessAllocation_CallFailureAborts() {
	s.fundAndDeposit(s.aliceAddr, 100)

	s.buffer.InvokeErr = errors.New("strategy rejected the call")
	err := s.k.ProcessAllocation(s.ctx, authority, []types.Allocation{
		{Target: strategyAddr, Amount: sdkmath.NewInt(70)},
	})
	s.Require().ErrorIs(err, types.ErrExternalCall)
	s.assertBalance(vaultAddr, stableDenom, 100)
}

func (s *TestSuite) TestProcessAllocation_LateFailureLeavesCachesUntouched() {
	s.fundAndDeposit(s.aliceAddr, 100)

	failing := mocks.NewStrategy(s.bank, "failingStrategyAddr", stableDenom, vaultAddr)
	failing.InvokeErr = errors.New("strategy rejected the call")
	s.Require().NoError(s.k.AddStrategy(s.ctx, authority, failing, stableDecimals))
	s.provider.SetRate("failingStrategyAddr", oneToOne(stableDecimals))

	err := s.k.ProcessAllocation(s.ctx, authority, []types.Allocation{
		{Target: strategyAddr, Amount: sdkmath.NewInt(30)},
		{Target: "failingStrategyAddr", Amount: sdkmath.NewInt(10)},
	})
	s.Require().ErrorIs(err, types.ErrExternalCall)

	// The first instruction's call already ran, but its idle-cache commit
	// must wait for the whole batch; the next refresh resyncs the position.
	entry, found := s.k.GetStrategy(strategyAddr)
	s.Require().True(found)
	s.Assert().True(entry.IdleBalance.IsZero(), "cache commit must wait for the whole batch")
}

func (s *TestSuite) TestProcessAllocation_EmptyBatchRejected() {
	err := s.k.ProcessAllocation(s.ctx, authority, nil)
	s.Require().ErrorIs(err, types.ErrInvalidInput)
}

func (s *TestSuite) TestSetRateProvider_NilRejected() {
	err := s.k.SetRateProvider(s.ctx, authority, nil)
	s.Require().ErrorIs(err, types.ErrInvalidInput)
	s.Assert().NotNil(s.k.Provider())
}
