package simulate

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/automation-registry/tools/simulator/config"
)

func TestGenerateAllTasks(t *testing.T) {
	owners := []common.Address{
		common.HexToAddress("0xAfF6aF0bE557873Fbc3d8038BAC733641f98F3B6"),
		common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
	}

	plan := config.SimulationPlan{
		CreateTasks: []config.CreateTaskEvent{
			{Event: config.Event{Type: config.CreateTaskEventType}, TaskAddress: common.HexToAddress("0x1"), GasLimit: 1, Funds: "0.007"},
		},
		GenerateTasks: []config.GenerateTasksEvent{
			{
				Event:        config.Event{AtStep: 3, Account: 1},
				Count:        4,
				GasLimit:     200_000,
				IntervalFunc: "60x + 300",
				FundsFunc:    "0.001x",
			},
			{
				Event:        config.Event{AtStep: 5},
				Count:        2,
				GasLimit:     100_000,
				IntervalFunc: "600",
				FundsFunc:    "0.007",
			},
		},
	}

	generated, err := GenerateAllTasks(plan, owners)
	require.NoError(t, err)
	require.Len(t, generated, 7)

	assert.Equal(t, common.HexToAddress("0x1"), generated[0].TaskAddress)

	first := generated[1]
	assert.Equal(t, config.CreateTaskEventType, first.Type)
	assert.Equal(t, 3, first.AtStep)
	assert.Equal(t, 1, first.Account)
	assert.Equal(t, uint64(200_000), first.GasLimit)
	assert.Equal(t, 360*time.Second, first.Interval.Value())
	assert.Equal(t, "0.001", first.Funds)

	assert.Equal(t, 540*time.Second, generated[4].Interval.Value())
	assert.Equal(t, "0.004", generated[4].Funds)

	assert.Equal(t, 600*time.Second, generated[5].Interval.Value())
	assert.Equal(t, "0.007", generated[6].Funds)

	seen := map[common.Address]struct{}{}
	for _, task := range generated {
		seen[task.TaskAddress] = struct{}{}
	}
	assert.Len(t, seen, 7, "generated target addresses are unique")

	again, err := GenerateAllTasks(plan, owners)
	require.NoError(t, err)
	assert.Equal(t, generated, again, "generation is deterministic")
}

func TestGenerateAllTasks_Errors(t *testing.T) {
	owners := []common.Address{common.HexToAddress("0x1")}

	_, err := GenerateAllTasks(config.SimulationPlan{
		GenerateTasks: []config.GenerateTasksEvent{{Event: config.Event{Account: 3}, Count: 1, GasLimit: 1}},
	}, owners)
	assert.ErrorIs(t, err, ErrTaskGeneration)

	_, err = GenerateAllTasks(config.SimulationPlan{
		GenerateTasks: []config.GenerateTasksEvent{{Count: 1, GasLimit: 0, IntervalFunc: "1", FundsFunc: "1"}},
	}, owners)
	assert.ErrorIs(t, err, ErrTaskGeneration)

	_, err = GenerateAllTasks(config.SimulationPlan{
		GenerateTasks: []config.GenerateTasksEvent{{Count: 2, GasLimit: 1, IntervalFunc: "x - 5", FundsFunc: "1"}},
	}, owners)
	assert.ErrorIs(t, err, ErrTaskGeneration)
}

func TestOperate(t *testing.T) {
	tests := []struct {
		Name string
		A    int64
		B    int64
		Op   string
		ExpZ int64
	}{
		{Name: "Addition", A: 1, B: 4, Op: "+", ExpZ: 5},
		{Name: "Multiplication", A: 3, B: 4, Op: "*", ExpZ: 12},
		{Name: "Subtraction", A: 4, B: 2, Op: "-", ExpZ: 2},
		{Name: "Unknown", A: 4, B: 2, Op: "%", ExpZ: 0},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			z := operate(decimal.NewFromInt(test.A), decimal.NewFromInt(test.B), test.Op)

			assert.True(t, decimal.NewFromInt(test.ExpZ).Equal(z))
		})
	}
}

func TestNewTaskAddress(t *testing.T) {
	owner := common.HexToAddress("0xAfF6aF0bE557873Fbc3d8038BAC733641f98F3B6")

	assert.Equal(t, newTaskAddress(owner, 0, 1), newTaskAddress(owner, 0, 1))
	assert.NotEqual(t, newTaskAddress(owner, 0, 1), newTaskAddress(owner, 1, 1))
	assert.NotEqual(t, newTaskAddress(owner, 0, 1), newTaskAddress(common.HexToAddress("0x2"), 0, 1))
	assert.NotEqual(t, common.Address{}, newTaskAddress(owner, 0, 0))
}
