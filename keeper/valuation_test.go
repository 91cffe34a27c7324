package keeper_test

import (
	"errors"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/vaultfi/omnivault/keeper"
	"github.com/vaultfi/omnivault/types"
	"github.com/vaultfi/omnivault/utils"
	"github.com/vaultfi/omnivault/utils/mocks"
)

func (s *TestSuite) TestConvertAssetToUnit() {
	// A 3-decimal asset worth half a unit each: rate 500 against 10^3.
	s.Require().NoError(s.k.AddAsset(s.ctx, authority, "altcoin", 3))
	s.provider.SetRate("altcoin", sdkmath.NewInt(500))

	tests := []struct {
		name     string
		assetID  string
		amount   sdkmath.Int
		expected sdkmath.Int
		expErr   error
	}{
		{
			name:     "one to one rate",
			assetID:  stableDenom,
			amount:   sdkmath.NewInt(100),
			expected: sdkmath.NewInt(100),
		},
		{
			name:     "fractional rate floors",
			assetID:  "altcoin",
			amount:   sdkmath.NewInt(7),
			expected: sdkmath.NewInt(3),
		},
		{
			name:     "zero amount",
			assetID:  stableDenom,
			amount:   sdkmath.ZeroInt(),
			expected: sdkmath.ZeroInt(),
		},
		{
			name:    "unregistered asset",
			assetID: "othercoin",
			amount:  sdkmath.NewInt(1),
			expErr:  types.ErrInvalidAsset,
		},
		{
			name:    "negative amount",
			assetID: stableDenom,
			amount:  sdkmath.NewInt(-1),
			expErr:  types.ErrInvalidAmount,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			got, err := s.k.ConvertAssetToUnit(s.ctx, tc.assetID, tc.amount)
			if tc.expErr != nil {
				s.Require().ErrorIs(err, tc.expErr)
				return
			}
			s.Require().NoError(err)
			s.Assert().Equal(tc.expected, got)
		})
	}
}

func (s *TestSuite) TestConvertUnitToAsset() {
	s.Require().NoError(s.k.AddAsset(s.ctx, authority, "altcoin", 3))
	s.provider.SetRate("altcoin", sdkmath.NewInt(500))

	got, err := s.k.ConvertUnitToAsset(s.ctx, "altcoin", sdkmath.NewInt(3))
	s.Require().NoError(err)
	s.Assert().Equal(sdkmath.NewInt(6), got)

	// A zero rate must fail loudly, never silently value to zero.
	s.provider.SetRate("altcoin", sdkmath.ZeroInt())
	_, err = s.k.ConvertUnitToAsset(s.ctx, "altcoin", sdkmath.NewInt(3))
	s.Require().ErrorIs(err, types.ErrRateZero)
}

func (s *TestSuite) TestConvertToShares_RoundingDirections() {
	s.fundAndDeposit(s.aliceAddr, 100)
	s.bank.Fund(vaultAddr, sdk.NewInt64Coin(stableDenom, 100))
	_, err := s.k.RefreshTotalAssets(s.ctx)
	s.Require().NoError(err)

	// 10 units against supply 100 and assets 200: 10 * 101 / 201.
	down, err := s.k.ConvertToShares(s.ctx, stableDenom, sdkmath.NewInt(10), utils.RoundDown)
	s.Require().NoError(err)
	s.Assert().Equal(sdkmath.NewInt(5), down)

	up, err := s.k.ConvertToShares(s.ctx, stableDenom, sdkmath.NewInt(10), utils.RoundUp)
	s.Require().NoError(err)
	s.Assert().Equal(sdkmath.NewInt(6), up)
}

func (s *TestSuite) TestConvertToShares_MonotoneInAmount() {
	s.fundAndDeposit(s.aliceAddr, 100)
	s.bank.Fund(vaultAddr, sdk.NewInt64Coin(stableDenom, 33))
	_, err := s.k.RefreshTotalAssets(s.ctx)
	s.Require().NoError(err)

	prev := sdkmath.ZeroInt()
	for amount := int64(1); amount <= 50; amount++ {
		shares, err := s.k.ConvertToShares(s.ctx, stableDenom, sdkmath.NewInt(amount), utils.RoundDown)
		s.Require().NoError(err)
		s.Require().True(shares.GTE(prev), "shares for %d dropped below shares for %d", amount, amount-1)
		prev = shares
	}
}

func (s *TestSuite) TestTotalAssets_ServesCacheUntilRefresh() {
	s.fundAndDeposit(s.aliceAddr, 100)

	// An out-of-band donation is invisible until the next refresh.
	s.bank.Fund(vaultAddr, sdk.NewInt64Coin(stableDenom, 50))
	s.assertTotalAssets(100)

	total, err := s.k.RefreshTotalAssets(s.ctx)
	s.Require().NoError(err)
	s.Assert().Equal(sdkmath.NewInt(150), total)
	s.assertTotalAssets(150)
}

func (s *TestSuite) TestRefreshTotalAssets_Idempotent() {
	s.fundAndDeposit(s.aliceAddr, 100)
	s.allocateToBuffer(70)

	first, err := s.k.RefreshTotalAssets(s.ctx)
	s.Require().NoError(err)
	second, err := s.k.RefreshTotalAssets(s.ctx)
	s.Require().NoError(err)

	s.Assert().Equal(first, second, "refresh must be idempotent")
	s.Assert().Equal(sdkmath.NewInt(100), first, "moving funds into a strategy does not change total value")
}

func (s *TestSuite) TestRefreshTotalAssets_CountsStrategiesAndNative() {
	s.fundAndDeposit(s.aliceAddr, 100)
	s.allocateToBuffer(70)
	s.bank.Fund(vaultAddr, sdk.NewInt64Coin(unitDenom, 5))

	total, err := s.k.RefreshTotalAssets(s.ctx)
	s.Require().NoError(err)
	s.Assert().Equal(sdkmath.NewInt(105), total)

	entry, found := s.k.GetStrategy(strategyAddr)
	s.Require().True(found)
	s.Assert().Equal(sdkmath.NewInt(70), entry.IdleBalance)
	asset, found := s.k.GetAsset(stableDenom)
	s.Require().True(found)
	s.Assert().Equal(sdkmath.NewInt(30), asset.IdleBalance)
}

func (s *TestSuite) TestRefreshTotalAssets_NoDoubleCountWhenUnitIsAsset() {
	s.fundAndDeposit(s.aliceAddr, 100)

	// Once the unit denom is itself a registered asset it is valued through
	// the registry and must not be added again as native balance.
	s.Require().NoError(s.k.AddAsset(s.ctx, authority, unitDenom, 0))
	s.provider.SetRate(unitDenom, sdkmath.OneInt())
	s.bank.Fund(vaultAddr, sdk.NewInt64Coin(unitDenom, 5))

	total, err := s.k.RefreshTotalAssets(s.ctx)
	s.Require().NoError(err)
	s.Assert().Equal(sdkmath.NewInt(105), total)
}

func (s *TestSuite) TestTotalAssets_AlwaysComputeMode() {
	params := types.DefaultParams()
	params.AlwaysComputeTotalAssets = true

	bank := mocks.NewBank()
	provider := mocks.NewRateProvider()
	provider.SetRate(stableDenom, oneToOne(stableDecimals))

	k, err := keeper.NewKeeper(log.NewNopLogger(), bank, authority, "livevault", shareDenom, unitDenom, params)
	s.Require().NoError(err)
	s.Require().NoError(k.AddAsset(s.ctx, authority, stableDenom, stableDecimals))
	s.Require().NoError(k.SetRateProvider(s.ctx, authority, provider))

	// Balances show up in total assets without any refresh.
	bank.Fund("livevault", sdk.NewInt64Coin(stableDenom, 80))
	total, err := k.TotalAssets(s.ctx)
	s.Require().NoError(err)
	s.Assert().Equal(sdkmath.NewInt(80), total)
}

func (s *TestSuite) TestValuation_ProviderFailure() {
	s.provider.Err = errors.New("oracle down")

	_, err := s.k.ConvertAssetToUnit(s.ctx, stableDenom, sdkmath.NewInt(1))
	s.Require().ErrorIs(err, types.ErrExternalCall)
}

func (s *TestSuite) TestValuation_NegativeRateRejected() {
	s.provider.SetRate(stableDenom, sdkmath.NewInt(-1))

	_, err := s.k.ConvertAssetToUnit(s.ctx, stableDenom, sdkmath.NewInt(1))
	s.Require().ErrorIs(err, types.ErrArithmetic)
}

func (s *TestSuite) TestRefreshTotalAssets_StrategyFailureKeepsCaches() {
	s.fundAndDeposit(s.aliceAddr, 100)

	// The donation would move the idle cache to 150 on a successful refresh.
	s.bank.Fund(vaultAddr, sdk.NewInt64Coin(stableDenom, 50))
	s.buffer.BalanceErr = errors.New("strategy offline")

	_, err := s.k.RefreshTotalAssets(s.ctx)
	s.Require().ErrorIs(err, types.ErrExternalCall)
	s.assertTotalAssets(100)

	// A failed refresh is all-or-nothing: the per-asset caches written before
	// the failing strategy query must not survive.
	entry, found := s.k.GetAsset(stableDenom)
	s.Require().True(found)
	s.Assert().Equal(sdkmath.NewInt(100), entry.IdleBalance, "idle cache must not move on a failed refresh")
}
