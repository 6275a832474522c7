package types

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TaskState is the lifecycle state of a task. The numeric values match the
// enum codes exposed by the registry queries.
type TaskState uint8

const (
	// Active tasks accept funds changes, detail updates and settlements.
	Active TaskState = iota
	// Cancelled is terminal. The task stays queryable and its remaining
	// balance can still be withdrawn.
	Cancelled
)

func (s TaskState) String() string {
	switch s {
	case Active:
		return "active"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// KeyMode determines how tasks are indexed for lookups.
type KeyMode uint8

const (
	// KeyedByAddress allows a single task per target address.
	KeyedByAddress KeyMode = iota
	// KeyedByOwner allows a single task per (owner, target address) pair.
	KeyedByOwner
)

func (m KeyMode) String() string {
	switch m {
	case KeyedByAddress:
		return "address"
	case KeyedByOwner:
		return "owner"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// FirstExecutionPolicy resolves the eligibility of a task that has never been
// settled.
type FirstExecutionPolicy uint8

const (
	// AfterInterval counts the first interval from task creation.
	AfterInterval FirstExecutionPolicy = iota
	// Immediate makes a fresh task eligible as soon as it is funded.
	Immediate
)

func (p FirstExecutionPolicy) String() string {
	switch p {
	case AfterInterval:
		return "afterInterval"
	case Immediate:
		return "immediate"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

// TaskKey identifies a task in the key index. Owner is ignored when the
// registry is keyed by address.
type TaskKey struct {
	Owner   common.Address
	Address common.Address
}

func (k TaskKey) String() string {
	return fmt.Sprintf("%s:%s", k.Owner.Hex(), k.Address.Hex())
}

// SettlementKind distinguishes owner-submitted cost records from keeper
// settlements.
type SettlementKind uint8

const (
	ManualSettlement SettlementKind = iota
	KeeperSettlement
)

func (k SettlementKind) String() string {
	switch k {
	case ManualSettlement:
		return "manual"
	case KeeperSettlement:
		return "keeper"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ExecRecord is a single settled execution cost.
type ExecRecord struct {
	Cost    *big.Int       `json:"cost"`
	Time    time.Time      `json:"time"`
	Settler common.Address `json:"settler"`
	Kind    SettlementKind `json:"kind"`
}

// Task is a registered automation unit with its own escrow, settings and
// lifecycle state. All amounts are in wei.
type Task struct {
	ID                uint64         `json:"id"`
	Owner             common.Address `json:"owner"`
	TaskAddress       common.Address `json:"taskAddress"`
	Funds             *big.Int       `json:"funds"`
	GasLimit          uint64         `json:"gasLimit"`
	Interval          time.Duration  `json:"interval"`
	TotalCostForExec  *big.Int       `json:"totalCostForExec"`
	ExecList          []ExecRecord   `json:"execList"`
	State             TaskState      `json:"state"`
	LastExecutionTime time.Time      `json:"lastExecutionTime"`
	CreatedAt         time.Time      `json:"createdAt"`

	// ledger audit totals
	Credited  *big.Int `json:"credited"`
	Debited   *big.Int `json:"debited"`
	Withdrawn *big.Int `json:"withdrawn"`
}

// NewTask returns an Active task with all amounts initialized to zero.
func NewTask(owner, taskAddress common.Address, gasLimit uint64, interval time.Duration, createdAt time.Time) *Task {
	return &Task{
		Owner:            owner,
		TaskAddress:      taskAddress,
		Funds:            new(big.Int),
		GasLimit:         gasLimit,
		Interval:         interval,
		TotalCostForExec: new(big.Int),
		ExecList:         []ExecRecord{},
		State:            Active,
		CreatedAt:        createdAt,
		Credited:         new(big.Int),
		Debited:          new(big.Int),
		Withdrawn:        new(big.Int),
	}
}

// Key returns the index key of the task for the provided key mode.
func (t Task) Key(mode KeyMode) TaskKey {
	if mode == KeyedByOwner {
		return TaskKey{Owner: t.Owner, Address: t.TaskAddress}
	}

	return TaskKey{Address: t.TaskAddress}
}

// Clone returns a deep copy of the task so that callers never share amount
// pointers or the exec list with the store.
func (t Task) Clone() Task {
	c := t

	c.Funds = cloneInt(t.Funds)
	c.TotalCostForExec = cloneInt(t.TotalCostForExec)
	c.Credited = cloneInt(t.Credited)
	c.Debited = cloneInt(t.Debited)
	c.Withdrawn = cloneInt(t.Withdrawn)

	c.ExecList = make([]ExecRecord, len(t.ExecList))
	for i, rec := range t.ExecList {
		c.ExecList[i] = rec
		c.ExecList[i].Cost = cloneInt(rec.Cost)
	}

	return c
}

func cloneInt(i *big.Int) *big.Int {
	if i == nil {
		return new(big.Int)
	}

	return new(big.Int).Set(i)
}

// IneligibilityReason explains a negative eligibility result.
type IneligibilityReason uint8

const (
	ReasonNone IneligibilityReason = iota
	ReasonNotActive
	ReasonIntervalNotElapsed
	ReasonInsufficientFunds
)

func (r IneligibilityReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotActive:
		return "task not active"
	case ReasonIntervalNotElapsed:
		return "interval not elapsed"
	case ReasonInsufficientFunds:
		return "insufficient funds"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// EligibilityResult is the outcome of an eligibility check along with the
// values used to compute it.
type EligibilityResult struct {
	TaskID         uint64
	Eligible       bool
	Reason         IneligibilityReason
	Funds          *big.Int
	EstimatedCost  *big.Int
	NextEligibleAt time.Time
	CheckedAt      time.Time
}
