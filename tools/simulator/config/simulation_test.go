package config

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	regconfig "github.com/smartcontractkit/automation-registry/pkg/config"
)

func TestSimulationPlan_EncodeDecode(t *testing.T) {
	target := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	plan := SimulationPlan{
		Registry: regconfig.Config{
			KeyMode:         regconfig.KeyModeOwner,
			IntervalEnabled: true,
			FirstExecution:  regconfig.FirstExecutionImmediate,
			Keepers:         []common.Address{},
		},
		Clock: Clock{
			Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Step:     regconfig.Duration(time.Minute),
			Duration: 120,
		},
		GasPrice: "25",
		Keeper: Keeper{
			GasUsedRatio:   0.5,
			CheckEveryStep: 2,
		},
		Accounts: 2,
		CreateTasks: []CreateTaskEvent{
			{
				Event:       Event{Type: CreateTaskEventType, AtStep: 0, Account: 1},
				TaskAddress: target,
				GasLimit:    200_000,
				Interval:    regconfig.Duration(10 * time.Minute),
				Funds:       "0.007",
			},
		},
		GenerateTasks: []GenerateTasksEvent{
			{
				Event:        Event{Type: GenerateTasksEventType, AtStep: 1},
				Count:        5,
				GasLimit:     100_000,
				IntervalFunc: "300 + 60x",
				FundsFunc:    "0.001x",
			},
		},
		AddFunds: []AddFundsEvent{
			{Event: Event{Type: AddFundsEventType, AtStep: 10, Account: 1}, TaskAddress: target, Amount: "0.007"},
		},
		CancelTasks: []CancelTaskEvent{
			{Event: Event{Type: CancelTaskEventType, AtStep: 60, Account: 1}, TaskAddress: target},
		},
		WithdrawFunds: []WithdrawFundsEvent{
			{Event: Event{Type: WithdrawFundsEventType, AtStep: 61, Account: 1}, TaskAddress: target},
		},
		UpdateGasLimits: []UpdateGasLimitEvent{
			{Event: Event{Type: UpdateGasLimitEventType, AtStep: 30, Account: 1}, TaskAddress: target, GasLimit: 300_000},
		},
	}

	encoded, err := plan.Encode()

	require.NoError(t, err, "no error expected from encoding the simulation plan")

	decodedPlan, err := DecodeSimulationPlan(encoded)

	require.NoError(t, err, "no error expected from decoding the simulation plan")

	assert.Equal(t, plan, decodedPlan, "simulation plan should match after encoding and decoding")
}

func TestDecodeSimulationPlan(t *testing.T) {
	t.Run("defaults are applied", func(t *testing.T) {
		plan, err := DecodeSimulationPlan([]byte(`{
			"clock": {"start": "2024-01-01T00:00:00Z", "step": "1m", "durationInSteps": 10},
			"events": [
				{"type": "createTask", "atStep": 0, "account": 0, "taskAddress": "0x5FbDB2315678afecb367f032d93F642f64180aa3", "gasLimit": 200000, "interval": "10m", "funds": "0.007"}
			]
		}`))

		require.NoError(t, err)
		assert.Equal(t, DefaultGasPrice, plan.GasPrice)
		assert.Equal(t, DefaultGasUsedRatio, plan.Keeper.GasUsedRatio)
		assert.Equal(t, 1, plan.Keeper.CheckEveryStep)
		assert.Equal(t, 1, plan.Accounts)
		assert.Equal(t, regconfig.KeyModeAddress, plan.Registry.KeyMode)
		require.Len(t, plan.CreateTasks, 1)
		assert.Equal(t, 10*time.Minute, plan.CreateTasks[0].Interval.Value())
	})

	for _, tc := range []struct {
		Name     string
		Encoded  string
		Expected error
	}{
		{
			Name:     "malformed json",
			Encoded:  `{"clock":`,
			Expected: ErrEncoding,
		},
		{
			Name:     "unknown event type",
			Encoded:  `{"clock": {"step": "1m", "durationInSteps": 10}, "events": [{"type": "launchRocket"}]}`,
			Expected: ErrEncoding,
		},
		{
			Name:     "missing clock step",
			Encoded:  `{"clock": {"durationInSteps": 10}}`,
			Expected: ErrInvalid,
		},
		{
			Name:     "event outside the simulation",
			Encoded:  `{"clock": {"step": "1m", "durationInSteps": 10}, "events": [{"type": "cancelTask", "atStep": 10}]}`,
			Expected: ErrInvalid,
		},
		{
			Name:     "unknown account",
			Encoded:  `{"clock": {"step": "1m", "durationInSteps": 10}, "accounts": 2, "events": [{"type": "cancelTask", "account": 2}]}`,
			Expected: ErrInvalid,
		},
		{
			Name:     "gas used ratio out of range",
			Encoded:  `{"clock": {"step": "1m", "durationInSteps": 10}, "keeper": {"gasUsedRatio": 1.5}}`,
			Expected: ErrInvalid,
		},
		{
			Name:     "invalid gas price",
			Encoded:  `{"clock": {"step": "1m", "durationInSteps": 10}, "gasPrice": "cheap"}`,
			Expected: ErrInvalid,
		},
		{
			Name:     "invalid registry config",
			Encoded:  `{"clock": {"step": "1m", "durationInSteps": 10}, "registry": {"keyMode": "target"}}`,
			Expected: regconfig.ErrInvalid,
		},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := DecodeSimulationPlan([]byte(tc.Encoded))

			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.Expected), err.Error())
		})
	}
}

func TestAccount(t *testing.T) {
	accounts, err := NewAccounts(3, rand.Reader)
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	assert.NotEqual(t, accounts[0].Address(), accounts[1].Address())

	signature, err := accounts[0].Sign([]byte("createAutomation"))
	require.NoError(t, err)
	assert.True(t, accounts[0].Verify([]byte("createAutomation"), signature))
	assert.False(t, accounts[1].Verify([]byte("createAutomation"), signature))

	raw, err := accounts[0].Marshal()
	require.NoError(t, err)

	var restored Account
	require.NoError(t, restored.Unmarshal(raw))
	assert.Equal(t, accounts[0].Address(), restored.Address())
}
