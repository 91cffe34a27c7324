package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vaultfi/omnivault/types"
	"github.com/vaultfi/omnivault/utils"
)

// AssetConfig declares one accepted deposit asset.
type AssetConfig struct {
	Denom    string `yaml:"denom"`
	Decimals uint8  `yaml:"decimals"`
}

// StrategyConfig declares one yield strategy to register at startup. The
// implementation is bound by address when the vault is wired up.
type StrategyConfig struct {
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
}

// Config is the vault's startup configuration. The first asset in Assets is
// the primary asset; BufferStrategy must name one of Strategies.
type Config struct {
	ShareDenom               string           `yaml:"share_denom"`
	UnitDenom                string           `yaml:"unit_denom"`
	VaultAddress             string           `yaml:"vault_address"`
	Authority                string           `yaml:"authority"`
	BaseWithdrawalFeeBps     uint64           `yaml:"base_withdrawal_fee_bps"`
	DecimalsOffset           uint8            `yaml:"decimals_offset"`
	CountNativeAsset         bool             `yaml:"count_native_asset"`
	AlwaysComputeTotalAssets bool             `yaml:"always_compute_total_assets"`
	Assets                   []AssetConfig    `yaml:"assets"`
	Strategies               []StrategyConfig `yaml:"strategies"`
	BufferStrategy           string           `yaml:"buffer_strategy"`
}

// Load reads and validates a vault configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return &cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.ShareDenom == "" {
		return errors.New("share_denom is required")
	}
	if c.UnitDenom == "" {
		return errors.New("unit_denom is required")
	}
	if c.VaultAddress == "" {
		return errors.New("vault_address is required")
	}
	if c.Authority == "" {
		return errors.New("authority is required")
	}
	if c.BaseWithdrawalFeeBps >= utils.FeeScaleBps {
		return errors.Errorf("base_withdrawal_fee_bps %d must be below %d", c.BaseWithdrawalFeeBps, utils.FeeScaleBps)
	}
	if len(c.Assets) == 0 {
		return errors.New("at least one asset is required")
	}

	seen := make(map[string]struct{}, len(c.Assets))
	for _, a := range c.Assets {
		if a.Denom == "" {
			return errors.New("asset denom cannot be empty")
		}
		if _, dup := seen[a.Denom]; dup {
			return errors.Errorf("duplicate asset %s", a.Denom)
		}
		seen[a.Denom] = struct{}{}
	}

	strategies := make(map[string]struct{}, len(c.Strategies))
	for _, s := range c.Strategies {
		if s.Address == "" {
			return errors.New("strategy address cannot be empty")
		}
		if _, dup := strategies[s.Address]; dup {
			return errors.Errorf("duplicate strategy %s", s.Address)
		}
		strategies[s.Address] = struct{}{}
	}

	if c.BufferStrategy != "" {
		if _, ok := strategies[c.BufferStrategy]; !ok {
			return errors.Errorf("buffer_strategy %s is not in strategies", c.BufferStrategy)
		}
	}
	return nil
}

// Params converts the configuration's tunables into vault parameters.
func (c *Config) Params() types.Params {
	return types.Params{
		BaseWithdrawalFeeBps:     c.BaseWithdrawalFeeBps,
		DecimalsOffset:           c.DecimalsOffset,
		CountNativeAsset:         c.CountNativeAsset,
		AlwaysComputeTotalAssets: c.AlwaysComputeTotalAssets,
	}
}
