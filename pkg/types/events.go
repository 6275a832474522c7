package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType names a registry notification.
type EventType string

const (
	NewAutoTask             EventType = "NewAutoTask"
	AutoTaskCancelled       EventType = "AutoTaskCancelled"
	TaskFundingSuccess      EventType = "TaskFundingSuccess"
	TaskFundWithdrawSuccess EventType = "TaskFundWithdrawSuccess"
	TaskDetailsUpdated      EventType = "TaskDetailsUpdated"
	GasLimitUpdated         EventType = "GasLimitUpdated"
	AutoMationCostDeducted  EventType = "AutoMationCostDeducted"
)

// Event is a notification emitted by a successful registry operation. Seq is
// assigned by the event log and reflects the global mutation order.
type Event struct {
	ID          string         `json:"id"`
	Seq         uint64         `json:"seq"`
	Type        EventType      `json:"type"`
	TaskID      uint64         `json:"taskID"`
	Owner       common.Address `json:"owner"`
	TaskAddress common.Address `json:"taskAddress"`
	Amount      *big.Int       `json:"amount,omitempty"`
	GasLimit    uint64         `json:"gasLimit,omitempty"`
	Recipient   common.Address `json:"recipient,omitempty"`
	Time        time.Time      `json:"time"`
}

// NewEvent creates an event scoped to the provided task.
func NewEvent(eventType EventType, task *Task, at time.Time) Event {
	return Event{
		Type:        eventType,
		TaskID:      task.ID,
		Owner:       task.Owner,
		TaskAddress: task.TaskAddress,
		Time:        at,
	}
}

// WithAmount returns a copy of the event carrying the provided amount.
func (e Event) WithAmount(amount *big.Int) Event {
	e.Amount = new(big.Int).Set(amount)
	return e
}
