package keeper

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/automation-registry/pkg/config"
	"github.com/smartcontractkit/automation-registry/pkg/registry"
	"github.com/smartcontractkit/automation-registry/pkg/types"
	"github.com/smartcontractkit/automation-registry/pkg/types/mocks"
)

var keeperAddress = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")

type staticLister []types.Task

func (l staticLister) GetAllTasks() []types.Task {
	return l
}

func TestKeeper_RunOnce(t *testing.T) {
	ctx := context.Background()

	lister := staticLister{
		{ID: 1, State: types.Active},
		{ID: 2, State: types.Active},
		{ID: 3, State: types.Cancelled},
		{ID: 4, State: types.Active},
		{ID: 5, State: types.Active},
	}

	estimate := big.NewInt(4_000)

	checker := mocks.NewAutomationChecker(t)
	checker.On("CheckAutomationStatus", mock.Anything, uint64(1)).Return(types.EligibilityResult{TaskID: 1, Eligible: true, EstimatedCost: estimate}, nil).Once()
	checker.On("CheckAutomationStatus", mock.Anything, uint64(2)).Return(types.EligibilityResult{TaskID: 2, Reason: types.ReasonIntervalNotElapsed}, nil).Once()
	checker.On("CheckAutomationStatus", mock.Anything, uint64(4)).Return(types.EligibilityResult{}, fmt.Errorf("oracle down")).Once()
	checker.On("CheckAutomationStatus", mock.Anything, uint64(5)).Return(types.EligibilityResult{TaskID: 5, Eligible: true, EstimatedCost: estimate}, nil).Once()

	settler := mocks.NewExecutionSettler(t)
	settler.On("SettleExecution", mock.Anything, keeperAddress, uint64(1), estimate).Return(nil).Once()
	settler.On("SettleExecution", mock.Anything, keeperAddress, uint64(5), estimate).Return(types.ErrInsufficientFunds).Once()

	k := New(keeperAddress, time.Second, lister, checker, settler, nil, nil)

	round, err := k.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, round.Checked)
	assert.Equal(t, 2, round.Eligible)
	assert.Equal(t, []uint64{1}, round.Settled)
	assert.Equal(t, 2, round.Failed)
}

func TestKeeper_RunOnce_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	k := New(keeperAddress, time.Second, staticLister{{ID: 1, State: types.Active}}, mocks.NewAutomationChecker(t), mocks.NewExecutionSettler(t), nil, nil)

	_, err := k.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeeper_WithRegistry(t *testing.T) {
	ctx := context.Background()
	owner := common.HexToAddress("0xAfF6aF0bE557873Fbc3d8038BAC733641f98F3B6")
	start := time.Unix(1_700_000_000, 0)
	clock := types.NewManualClock(start)

	conf := config.Default()
	conf.Keepers = []common.Address{keeperAddress}

	reg, err := registry.New(conf,
		registry.WithClock(clock),
		registry.WithGasPriceOracle(types.StaticGasPrice{Price: big.NewInt(20_000_000_000)}))
	require.NoError(t, err)

	id, err := reg.CreateAutomation(ctx, registry.CreateRequest{
		Owner:       owner,
		TaskAddress: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		GasLimit:    200_000,
		Interval:    600 * time.Second,
		Funds:       big.NewInt(7_000_000_000_000_000),
	})
	require.NoError(t, err)

	halfCost := func(_ types.Task, result types.EligibilityResult) *big.Int {
		return new(big.Int).Div(result.EstimatedCost, big.NewInt(2))
	}

	k := New(keeperAddress, time.Second, reg, reg, reg, halfCost, nil)

	round, err := k.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, round.Settled, "first interval has not elapsed")

	clock.Advance(600 * time.Second)

	round, err = k.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{id}, round.Settled)

	task, err := reg.GetTask(id)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000_000_000), task.Funds.Int64())
	require.Len(t, task.ExecList, 1)
	assert.Equal(t, keeperAddress, task.ExecList[0].Settler)

	round, err = k.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, round.Settled, "interval restarts after settlement")
}

func TestKeeper_StartClose(t *testing.T) {
	k := New(keeperAddress, 5*time.Millisecond, staticLister{}, mocks.NewAutomationChecker(t), mocks.NewExecutionSettler(t), nil, nil)

	assert.Error(t, k.Close(), "closing a stopped keeper fails")

	done := make(chan error, 1)
	go func() {
		done <- k.Start(context.Background())
	}()

	assert.Eventually(t, k.running.Load, time.Second, time.Millisecond)
	assert.Error(t, k.Start(context.Background()), "keeper is already running")

	require.NoError(t, k.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("keeper did not stop")
	}
}

func TestKeeper_Restart(t *testing.T) {
	k := New(keeperAddress, 5*time.Millisecond, staticLister{}, mocks.NewAutomationChecker(t), mocks.NewExecutionSettler(t), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- k.Start(ctx)
	}()

	assert.Eventually(t, k.running.Load, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("keeper did not stop on context cancellation")
	}

	assert.False(t, k.running.Load(), "cancellation resets the running flag")

	// a close that raced with the cancellation leaves its signal behind
	k.chClose <- struct{}{}

	go func() {
		done <- k.Start(context.Background())
	}()

	assert.Eventually(t, k.running.Load, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return len(done) > 0 }, 50*time.Millisecond, 5*time.Millisecond, "a stale close signal does not stop the next run")

	require.NoError(t, k.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("keeper did not stop")
	}
}
