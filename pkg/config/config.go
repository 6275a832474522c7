package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goccy/go-json"

	"github.com/smartcontractkit/automation-registry/pkg/access"
	"github.com/smartcontractkit/automation-registry/pkg/types"
)

var (
	ErrEncoding = fmt.Errorf("encoding/decoding failure")
	ErrInvalid  = fmt.Errorf("invalid configuration")
)

const (
	KeyModeAddress = "address"
	KeyModeOwner   = "owner"

	FirstExecutionImmediate     = "immediate"
	FirstExecutionAfterInterval = "afterInterval"
)

// Config selects the behavior of a registry instance.
type Config struct {
	// KeyMode is either "address" (one task per target address) or "owner"
	// (one task per owner and target address pair).
	KeyMode string `json:"keyMode"`
	// IntervalEnabled turns on the minimum time between executions.
	IntervalEnabled bool `json:"intervalEnabled"`
	// FirstExecution is either "afterInterval" or "immediate" and only applies
	// when IntervalEnabled is set.
	FirstExecution string `json:"firstExecution"`
	// Keepers are allowed to settle execution cost in addition to task owners.
	Keepers []common.Address `json:"keepers"`
	// Owner is the address that deployed the registry.
	Owner common.Address `json:"owner"`
}

// Default returns an address-keyed registry config with the interval enabled.
func Default() Config {
	return Config{
		KeyMode:         KeyModeAddress,
		IntervalEnabled: true,
		FirstExecution:  FirstExecutionAfterInterval,
		Keepers:         []common.Address{},
	}
}

// Decode parses a JSON config. Omitted fields fall back to defaults, with the
// exception of intervalEnabled which is false when absent.
func Decode(b []byte) (Config, error) {
	var conf Config

	if len(b) > 0 {
		if err := json.Unmarshal(b, &conf); err != nil {
			return conf, fmt.Errorf("%w: failed to decode registry config: %s", ErrEncoding, err.Error())
		}
	}

	conf.applyDefaults()

	return conf, conf.Validate()
}

func (c *Config) applyDefaults() {
	if c.KeyMode == "" {
		c.KeyMode = KeyModeAddress
	}

	if c.FirstExecution == "" {
		c.FirstExecution = FirstExecutionAfterInterval
	}

	if c.Keepers == nil {
		c.Keepers = []common.Address{}
	}
}

func (c Config) Encode() ([]byte, error) {
	b, err := json.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode registry config: %s", ErrEncoding, err.Error())
	}

	return b, nil
}

func (c Config) Validate() error {
	if _, err := c.Mode(); err != nil {
		return err
	}

	if _, err := c.FirstExecutionPolicy(); err != nil {
		return err
	}

	seen := make(map[common.Address]struct{}, len(c.Keepers))
	for idx, keeper := range c.Keepers {
		if keeper == (common.Address{}) {
			return fmt.Errorf("%w: keeper at index %d is the zero address", ErrInvalid, idx)
		}

		if _, ok := seen[keeper]; ok {
			return fmt.Errorf("%w: keeper %s listed more than once", ErrInvalid, keeper.Hex())
		}

		seen[keeper] = struct{}{}
	}

	return nil
}

func (c Config) Mode() (types.KeyMode, error) {
	switch c.KeyMode {
	case KeyModeAddress, "":
		return types.KeyedByAddress, nil
	case KeyModeOwner:
		return types.KeyedByOwner, nil
	default:
		return types.KeyedByAddress, fmt.Errorf("%w: unrecognized key mode '%s'", ErrInvalid, c.KeyMode)
	}
}

func (c Config) FirstExecutionPolicy() (types.FirstExecutionPolicy, error) {
	switch c.FirstExecution {
	case FirstExecutionAfterInterval, "":
		return types.AfterInterval, nil
	case FirstExecutionImmediate:
		return types.Immediate, nil
	default:
		return types.AfterInterval, fmt.Errorf("%w: unrecognized first execution policy '%s'", ErrInvalid, c.FirstExecution)
	}
}

func (c Config) KeeperSet() access.KeeperSet {
	return access.NewKeeperSet(c.Keepers...)
}
