// Package lifecycle implements the task state machine and the field updates
// an owner may apply while a task is Active. Each transition validates all of
// its preconditions before mutating, so a failure leaves the task untouched.
package lifecycle

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/smartcontractkit/automation-registry/pkg/access"
	"github.com/smartcontractkit/automation-registry/pkg/ledger"
	"github.com/smartcontractkit/automation-registry/pkg/types"
)

// Cancel moves an Active task to Cancelled. The remaining balance is not
// refunded; the owner reclaims it with a separate withdrawal.
func Cancel(task *types.Task, caller common.Address, now time.Time) (types.Event, error) {
	if err := access.RequireOwnerActive(task, caller); err != nil {
		return types.Event{}, err
	}

	task.State = types.Cancelled

	return types.NewEvent(types.AutoTaskCancelled, task, now), nil
}

// AddFunds credits the task escrow.
func AddFunds(task *types.Task, caller common.Address, amount *big.Int, now time.Time) (types.Event, error) {
	if err := access.RequireOwnerActive(task, caller); err != nil {
		return types.Event{}, err
	}

	if err := ledger.Credit(task, amount); err != nil {
		return types.Event{}, err
	}

	return types.NewEvent(types.TaskFundingSuccess, task, now).WithAmount(amount), nil
}

// UpdateGasLimit replaces the declared gas limit.
func UpdateGasLimit(task *types.Task, caller common.Address, limit uint64, now time.Time) (types.Event, error) {
	if err := access.RequireOwnerActive(task, caller); err != nil {
		return types.Event{}, err
	}

	if limit == 0 {
		return types.Event{}, errors.Wrapf(types.ErrInvalidGasLimit, "task %d", task.ID)
	}

	task.GasLimit = limit

	evt := types.NewEvent(types.GasLimitUpdated, task, now)
	evt.GasLimit = limit

	return evt, nil
}

// UpdateFunds debits the escrow directly, outside of any settlement.
func UpdateFunds(task *types.Task, caller common.Address, amount *big.Int, now time.Time) (types.Event, error) {
	if err := access.RequireOwnerActive(task, caller); err != nil {
		return types.Event{}, err
	}

	if err := ledger.Debit(task, amount); err != nil {
		return types.Event{}, err
	}

	return types.NewEvent(types.AutoMationCostDeducted, task, now).WithAmount(amount), nil
}

// UpdateExecDetails records a manually submitted execution cost. It charges
// the escrow exactly like a keeper settlement but leaves the last execution
// time alone.
func UpdateExecDetails(task *types.Task, caller common.Address, cost *big.Int, now time.Time) (types.Event, error) {
	if err := access.RequireOwnerActive(task, caller); err != nil {
		return types.Event{}, err
	}

	if err := ledger.Charge(task, types.ExecRecord{
		Cost:    cost,
		Time:    now,
		Settler: caller,
		Kind:    types.ManualSettlement,
	}); err != nil {
		return types.Event{}, err
	}

	return types.NewEvent(types.TaskDetailsUpdated, task, now).WithAmount(cost), nil
}
