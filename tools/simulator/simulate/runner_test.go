package simulate

import (
	"context"
	"crypto/rand"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	regconfig "github.com/smartcontractkit/automation-registry/pkg/config"
	"github.com/smartcontractkit/automation-registry/pkg/ledger"
	"github.com/smartcontractkit/automation-registry/pkg/types"
	"github.com/smartcontractkit/automation-registry/tools/simulator/config"
)

type stepRecorder struct {
	steps []int
	funds []*big.Int
}

func (r *stepRecorder) ObserveStep(step int, _ time.Time, tasks []types.Task) {
	r.steps = append(r.steps, step)

	if len(tasks) > 0 {
		r.funds = append(r.funds, tasks[0].Funds)
	}
}

func TestRunner_Run(t *testing.T) {
	target := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	plan := config.SimulationPlan{
		Registry: regconfig.Default(),
		Clock: config.Clock{
			Start:    start,
			Step:     regconfig.Duration(time.Minute),
			Duration: 40,
		},
		GasPrice: "20",
		Keeper:   config.Keeper{GasUsedRatio: 0.75, CheckEveryStep: 1},
		Accounts: 2,
		CreateTasks: []config.CreateTaskEvent{
			{Event: config.Event{AtStep: 0}, TaskAddress: target, GasLimit: 200_000, Interval: regconfig.Duration(10 * time.Minute), Funds: "0.007"},
		},
		AddFunds: []config.AddFundsEvent{
			{Event: config.Event{AtStep: 5}, TaskAddress: target, Amount: "0.007"},
		},
		CancelTasks: []config.CancelTaskEvent{
			{Event: config.Event{AtStep: 2, Account: 1}, TaskAddress: target},
			{Event: config.Event{AtStep: 30}, TaskAddress: target},
		},
		WithdrawFunds: []config.WithdrawFundsEvent{
			{Event: config.Event{AtStep: 31}, TaskAddress: target},
		},
	}

	accounts, err := config.NewAccounts(plan.Accounts, rand.Reader)
	require.NoError(t, err)

	runner, err := NewRunner(plan, accounts, nil)
	require.NoError(t, err)

	recorder := &stepRecorder{}

	result, err := runner.Run(context.Background(), recorder)
	require.NoError(t, err)

	assert.Equal(t, 40, result.Steps)
	assert.Equal(t, 5, result.Actions)
	assert.Equal(t, 1, result.RejectedActions, "cancel by a non owner is rejected")
	assert.Equal(t, 30, result.Checks, "the keeper only checks active tasks")
	assert.Equal(t, 2, result.Settlements)
	assert.Equal(t, 0, result.SettlementFailures)
	assert.Len(t, recorder.steps, 40)
	assert.Equal(t, start.Add(39*time.Minute), runner.Clock().Now())

	tasks := runner.Registry().GetAllTasks()
	require.Len(t, tasks, 1)

	task := tasks[0]
	assert.Equal(t, types.Cancelled, task.State)
	assert.Equal(t, int64(0), task.Funds.Int64())
	require.Len(t, task.ExecList, 2)
	assert.NoError(t, ledger.Verify(&task))

	maxCost := big.NewInt(200_000 * 20_000_000_000)
	for _, rec := range task.ExecList {
		assert.Equal(t, types.KeeperSettlement, rec.Kind)
		assert.True(t, rec.Cost.Cmp(maxCost) <= 0, "gas used never exceeds the gas limit")
	}

	assert.Equal(t, start.Add(10*time.Minute), task.ExecList[0].Time)
	assert.Equal(t, start.Add(20*time.Minute), task.ExecList[1].Time)

	// withdrawn balance plus execution cost equals everything funded
	withdrawn := runner.Wallet().Balance(accounts[0].Address())
	total := new(big.Int).Add(withdrawn, task.TotalCostForExec)
	assert.Equal(t, 0, big.NewInt(14_000_000_000_000_000).Cmp(total))
}

func TestNewRunner_Errors(t *testing.T) {
	plan := config.SimulationPlan{
		Registry: regconfig.Default(),
		Clock:    config.Clock{Step: regconfig.Duration(time.Minute), Duration: 10},
		GasPrice: "20",
		Keeper:   config.Keeper{GasUsedRatio: 0.5, CheckEveryStep: 1},
		Accounts: 2,
	}

	accounts, err := config.NewAccounts(1, rand.Reader)
	require.NoError(t, err)

	_, err = NewRunner(plan, accounts, nil)
	assert.Error(t, err, "not enough accounts")

	plan.Accounts = 1
	plan.CreateTasks = []config.CreateTaskEvent{{TaskAddress: common.HexToAddress("0x1"), GasLimit: 1, Funds: "lots"}}

	_, err = NewRunner(plan, accounts, nil)
	assert.Error(t, err, "invalid funds")
}

func TestWallet(t *testing.T) {
	w := NewWallet()
	addr := common.HexToAddress("0x1")

	require.NoError(t, w.Transfer(context.Background(), addr, big.NewInt(5)))
	require.NoError(t, w.Transfer(context.Background(), addr, big.NewInt(7)))

	assert.Equal(t, int64(12), w.Balance(addr).Int64())
	assert.Equal(t, int64(0), w.Balance(common.HexToAddress("0x2")).Int64())
}
