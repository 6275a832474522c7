package config

import (
	"github.com/ethereum/go-ethereum/common"

	regconfig "github.com/smartcontractkit/automation-registry/pkg/config"
)

type EventType string

const (
	CreateTaskEventType     EventType = "createTask"
	GenerateTasksEventType  EventType = "generateTasks"
	AddFundsEventType       EventType = "addFunds"
	CancelTaskEventType     EventType = "cancelTask"
	WithdrawFundsEventType  EventType = "withdrawFunds"
	UpdateGasLimitEventType EventType = "updateGasLimit"
)

// Event is the common header of every plan event. Account is the index of the
// generated account that submits the call.
type Event struct {
	Type    EventType `json:"type"`
	AtStep  int       `json:"atStep"`
	Account int       `json:"account"`
	Comment string    `json:"comment,omitempty"`
}

// CreateTaskEvent registers a single task.
type CreateTaskEvent struct {
	Event
	TaskAddress common.Address     `json:"taskAddress"`
	GasLimit    uint64             `json:"gasLimit"`
	Interval    regconfig.Duration `json:"interval"`
	// Funds is the attached amount in ether, as a decimal string.
	Funds string `json:"funds"`
}

// GenerateTasksEvent is a configuration for creating tasks in bulk. Target
// addresses are derived from the submitting account and the task index.
type GenerateTasksEvent struct {
	Event
	// Count is the total number of tasks to create for this event.
	Count    int    `json:"count"`
	GasLimit uint64 `json:"gasLimit"`
	// IntervalFunc is a basic linear function of x, the one based task index,
	// giving the task interval in seconds. A plain number applies the same
	// interval to every task.
	IntervalFunc string `json:"intervalFunc"`
	// FundsFunc is a basic linear function of x giving the attached funds in
	// ether.
	FundsFunc string `json:"fundsFunc"`
}

type AddFundsEvent struct {
	Event
	TaskAddress common.Address `json:"taskAddress"`
	// Amount is in ether, as a decimal string.
	Amount string `json:"amount"`
}

type CancelTaskEvent struct {
	Event
	TaskAddress common.Address `json:"taskAddress"`
}

type WithdrawFundsEvent struct {
	Event
	TaskAddress common.Address `json:"taskAddress"`
}

type UpdateGasLimitEvent struct {
	Event
	TaskAddress common.Address `json:"taskAddress"`
	GasLimit    uint64         `json:"gasLimit"`
}
