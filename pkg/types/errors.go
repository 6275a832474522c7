package types

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnauthorized       = fmt.Errorf("caller is not authorized")
	ErrTaskNotFound       = fmt.Errorf("task not found")
	ErrDuplicateTask      = fmt.Errorf("task already exists")
	ErrTaskCancelled      = fmt.Errorf("task cancelled")
	ErrInsufficientFunds  = fmt.Errorf("insufficient funds")
	ErrNothingToWithdraw  = fmt.Errorf("nothing to withdraw")
	ErrInvalidAmount      = fmt.Errorf("invalid amount")
	ErrInvalidGasLimit    = fmt.Errorf("invalid gas limit")
	ErrIntervalNotElapsed = fmt.Errorf("interval not elapsed")
	ErrTransferFailed     = fmt.Errorf("transfer failed")
)

// ErrorKind maps an error to a short label for metrics and logs.
func ErrorKind(err error) string {
	for _, known := range []struct {
		err  error
		kind string
	}{
		{ErrUnauthorized, "unauthorized"},
		{ErrTaskNotFound, "task_not_found"},
		{ErrDuplicateTask, "duplicate_task"},
		{ErrTaskCancelled, "task_cancelled"},
		{ErrInsufficientFunds, "insufficient_funds"},
		{ErrNothingToWithdraw, "nothing_to_withdraw"},
		{ErrInvalidAmount, "invalid_amount"},
		{ErrInvalidGasLimit, "invalid_gas_limit"},
		{ErrIntervalNotElapsed, "interval_not_elapsed"},
		{ErrTransferFailed, "transfer_failed"},
	} {
		if errors.Is(err, known.err) {
			return known.kind
		}
	}

	return "unknown"
}
