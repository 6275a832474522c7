// Package ledger implements escrow accounting on a task's balance fields. It
// holds no state of its own; callers hand in the task under their write lock.
package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/smartcontractkit/automation-registry/pkg/types"
)

// ValidateAmount rejects nil and negative amounts.
func ValidateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrapf(types.ErrInvalidAmount, "amount %v", amount)
	}

	return nil
}

// Credit adds amount to the task balance.
func Credit(task *types.Task, amount *big.Int) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	task.Funds.Add(task.Funds, amount)
	task.Credited.Add(task.Credited, amount)

	return nil
}

// Debit removes amount from the task balance and fails without side effects
// when the balance does not cover it.
func Debit(task *types.Task, amount *big.Int) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	if amount.Cmp(task.Funds) > 0 {
		return errors.Wrapf(types.ErrInsufficientFunds, "task %d holds %s, requested %s", task.ID, task.Funds, amount)
	}

	task.Funds.Sub(task.Funds, amount)
	task.Debited.Add(task.Debited, amount)

	return nil
}

// Charge settles an execution cost: the balance is debited, the record is
// appended to the exec list and the cumulative cost increases by the same
// amount. Nothing changes when the debit fails.
func Charge(task *types.Task, record types.ExecRecord) error {
	if err := Debit(task, record.Cost); err != nil {
		return err
	}

	record.Cost = new(big.Int).Set(record.Cost)

	task.ExecList = append(task.ExecList, record)
	task.TotalCostForExec.Add(task.TotalCostForExec, record.Cost)

	return nil
}

// BeginWithdraw zeroes the balance and books the full amount as withdrawn. It
// must run before the external transfer so that any reentrant call observes
// the post-withdrawal balance.
func BeginWithdraw(task *types.Task) (*big.Int, error) {
	if task.Funds.Sign() == 0 {
		return nil, errors.Wrapf(types.ErrNothingToWithdraw, "task %d", task.ID)
	}

	amount := new(big.Int).Set(task.Funds)

	task.Funds.SetInt64(0)
	task.Withdrawn.Add(task.Withdrawn, amount)

	return amount, nil
}

// RollbackWithdraw reverses BeginWithdraw after a failed transfer. The amount
// is added back rather than restored, so credits that landed while the
// transfer was in flight are preserved.
func RollbackWithdraw(task *types.Task, amount *big.Int) {
	task.Withdrawn.Sub(task.Withdrawn, amount)
	task.Funds.Add(task.Funds, amount)
}

// Verify checks the accounting invariants of a task.
func Verify(task *types.Task) error {
	if task.Funds.Sign() < 0 {
		return errors.Errorf("task %d: negative balance %s", task.ID, task.Funds)
	}

	expected := new(big.Int).Sub(task.Credited, task.Debited)
	expected.Sub(expected, task.Withdrawn)

	if expected.Cmp(task.Funds) != 0 {
		return errors.Errorf("task %d: balance %s does not match ledger %s", task.ID, task.Funds, expected)
	}

	total := new(big.Int)
	for _, rec := range task.ExecList {
		total.Add(total, rec.Cost)
	}

	if total.Cmp(task.TotalCostForExec) != 0 {
		return errors.Errorf("task %d: total cost %s does not match exec list sum %s", task.ID, task.TotalCostForExec, total)
	}

	return nil
}
