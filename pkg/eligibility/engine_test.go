package eligibility

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/automation-registry/pkg/access"
	"github.com/smartcontractkit/automation-registry/pkg/ledger"
	"github.com/smartcontractkit/automation-registry/pkg/types"
)

var (
	owner    = common.HexToAddress("0xAfF6aF0bE557873Fbc3d8038BAC733641f98F3B6")
	keeper   = common.HexToAddress("0x000000000000000000000000000000000000beef")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	created  = time.Unix(1_700_000_000, 0)
	gasPrice = big.NewInt(20_000_000_000)
)

func newTask(t *testing.T) *types.Task {
	task := types.NewTask(owner, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), 200_000, 600*time.Second, created)
	task.ID = 1
	require.NoError(t, ledger.Credit(task, big.NewInt(7_000_000_000_000_000)))

	return task
}

func TestEngine_Check_Interval(t *testing.T) {
	tests := []struct {
		Name     string
		Policy   types.FirstExecutionPolicy
		Offset   time.Duration
		Eligible bool
	}{
		{Name: "after interval policy at creation", Policy: types.AfterInterval, Offset: 0, Eligible: false},
		{Name: "after interval policy one second early", Policy: types.AfterInterval, Offset: 599 * time.Second, Eligible: false},
		{Name: "after interval policy at interval", Policy: types.AfterInterval, Offset: 600 * time.Second, Eligible: true},
		{Name: "immediate policy at creation", Policy: types.Immediate, Offset: 0, Eligible: true},
		{Name: "immediate policy later", Policy: types.Immediate, Offset: 599 * time.Second, Eligible: true},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			engine := NewEngine(true, test.Policy, nil)
			result := engine.Check(newTask(t), gasPrice, created.Add(test.Offset))

			assert.Equal(t, test.Eligible, result.Eligible)
			if !test.Eligible {
				assert.Equal(t, types.ReasonIntervalNotElapsed, result.Reason)
			}
		})
	}
}

func TestEngine_Check(t *testing.T) {
	t.Run("interval disabled makes an active funded task always eligible", func(t *testing.T) {
		engine := NewEngine(false, types.AfterInterval, nil)
		result := engine.Check(newTask(t), gasPrice, created)

		assert.True(t, result.Eligible)
		assert.True(t, result.NextEligibleAt.IsZero())
	})

	t.Run("cancelled tasks are not eligible", func(t *testing.T) {
		engine := NewEngine(false, types.AfterInterval, nil)
		task := newTask(t)
		task.State = types.Cancelled

		result := engine.Check(task, gasPrice, created)
		assert.False(t, result.Eligible)
		assert.Equal(t, types.ReasonNotActive, result.Reason)
	})

	t.Run("funds below the estimated cost are not eligible", func(t *testing.T) {
		engine := NewEngine(false, types.AfterInterval, nil)
		expensive := big.NewInt(40_000_000_000)

		result := engine.Check(newTask(t), expensive, created)
		assert.False(t, result.Eligible)
		assert.Equal(t, types.ReasonInsufficientFunds, result.Reason)
		assert.Equal(t, 0, result.EstimatedCost.Cmp(big.NewInt(8_000_000_000_000_000)))
	})

	t.Run("interval counts from the last execution", func(t *testing.T) {
		engine := NewEngine(true, types.Immediate, nil)
		task := newTask(t)
		task.LastExecutionTime = created.Add(time.Hour)

		assert.False(t, engine.Check(task, gasPrice, created.Add(time.Hour+599*time.Second)).Eligible)
		assert.True(t, engine.Check(task, gasPrice, created.Add(time.Hour+600*time.Second)).Eligible)
	})
}

func TestEngine_Settle(t *testing.T) {
	cost := big.NewInt(50_000_000_000_000)

	t.Run("keeper settlement charges and moves the interval", func(t *testing.T) {
		engine := NewEngine(true, types.Immediate, access.NewKeeperSet(keeper))
		task := newTask(t)

		evt, err := engine.Settle(task, keeper, cost, created)
		require.NoError(t, err)
		assert.Equal(t, types.TaskDetailsUpdated, evt.Type)
		assert.Equal(t, created, task.LastExecutionTime)
		require.Len(t, task.ExecList, 1)
		assert.Equal(t, types.KeeperSettlement, task.ExecList[0].Kind)
		assert.NoError(t, ledger.Verify(task))

		_, err = engine.Settle(task, keeper, cost, created.Add(time.Minute))
		assert.True(t, errors.Is(err, types.ErrIntervalNotElapsed))
		assert.Len(t, task.ExecList, 1)
	})

	t.Run("strangers cannot settle", func(t *testing.T) {
		engine := NewEngine(false, types.Immediate, access.NewKeeperSet(keeper))
		task := newTask(t)

		_, err := engine.Settle(task, stranger, cost, created)
		assert.True(t, errors.Is(err, types.ErrUnauthorized))
		assert.Empty(t, task.ExecList)
	})

	t.Run("funds drained after the check fail the settlement", func(t *testing.T) {
		engine := NewEngine(false, types.Immediate, nil)
		task := newTask(t)

		require.True(t, engine.Check(task, gasPrice, created).Eligible)
		require.NoError(t, ledger.Debit(task, task.Funds))

		_, err := engine.Settle(task, owner, cost, created)
		assert.True(t, errors.Is(err, types.ErrInsufficientFunds))
		assert.True(t, task.LastExecutionTime.IsZero())
		assert.Equal(t, int64(0), task.TotalCostForExec.Int64())
	})

	t.Run("cancelled tasks cannot be settled", func(t *testing.T) {
		engine := NewEngine(false, types.Immediate, nil)
		task := newTask(t)
		task.State = types.Cancelled

		_, err := engine.Settle(task, owner, cost, created)
		assert.True(t, errors.Is(err, types.ErrTaskCancelled))
	})
}
