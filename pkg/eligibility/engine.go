package eligibility

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/smartcontractkit/automation-registry/pkg/access"
	"github.com/smartcontractkit/automation-registry/pkg/ledger"
	"github.com/smartcontractkit/automation-registry/pkg/types"
)

// Engine decides whether a task may be executed and settles execution cost
// against its escrow. It is stateless apart from its configuration.
type Engine struct {
	intervalEnabled bool
	firstExecution  types.FirstExecutionPolicy
	keepers         access.KeeperSet
}

func NewEngine(intervalEnabled bool, firstExecution types.FirstExecutionPolicy, keepers access.KeeperSet) *Engine {
	return &Engine{
		intervalEnabled: intervalEnabled,
		firstExecution:  firstExecution,
		keepers:         keepers,
	}
}

// EstimateCost returns gasLimit * gasPrice.
func EstimateCost(gasLimit uint64, gasPrice *big.Int) *big.Int {
	if gasPrice == nil {
		return new(big.Int)
	}

	return new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPrice)
}

// NextEligibleAt returns the earliest time the interval gate opens. The zero
// time means the gate is already open.
func (e *Engine) NextEligibleAt(task *types.Task) time.Time {
	if !e.intervalEnabled {
		return time.Time{}
	}

	last := task.LastExecutionTime
	if last.IsZero() {
		if e.firstExecution == types.Immediate {
			return time.Time{}
		}

		last = task.CreatedAt
	}

	return last.Add(task.Interval)
}

// Check evaluates state, interval and funds, in that order.
func (e *Engine) Check(task *types.Task, gasPrice *big.Int, now time.Time) types.EligibilityResult {
	result := types.EligibilityResult{
		TaskID:         task.ID,
		Funds:          new(big.Int).Set(task.Funds),
		EstimatedCost:  EstimateCost(task.GasLimit, gasPrice),
		NextEligibleAt: e.NextEligibleAt(task),
		CheckedAt:      now,
	}

	switch {
	case task.State != types.Active:
		result.Reason = types.ReasonNotActive
	case now.Before(result.NextEligibleAt):
		result.Reason = types.ReasonIntervalNotElapsed
	case task.Funds.Cmp(result.EstimatedCost) < 0:
		result.Reason = types.ReasonInsufficientFunds
	default:
		result.Eligible = true
	}

	return result
}

// Settle charges cost against the task after re-validating every
// precondition, since funds or state may have changed after the keeper's
// check. On success the last execution time moves to now.
func (e *Engine) Settle(task *types.Task, caller common.Address, cost *big.Int, now time.Time) (types.Event, error) {
	if err := access.RequireSettler(task, caller, e.keepers); err != nil {
		return types.Event{}, err
	}

	if err := access.RequireActive(task); err != nil {
		return types.Event{}, err
	}

	if next := e.NextEligibleAt(task); now.Before(next) {
		return types.Event{}, errors.Wrapf(types.ErrIntervalNotElapsed, "task %d eligible at %s", task.ID, next.Format(time.RFC3339))
	}

	if err := ledger.Charge(task, types.ExecRecord{
		Cost:    cost,
		Time:    now,
		Settler: caller,
		Kind:    types.KeeperSettlement,
	}); err != nil {
		return types.Event{}, err
	}

	task.LastExecutionTime = now

	return types.NewEvent(types.TaskDetailsUpdated, task, now).WithAmount(cost), nil
}
