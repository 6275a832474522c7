package types

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// GasPriceOracle provides the price per unit of gas used to estimate the cost
// of executing a task.
//
//go:generate mockery --name GasPriceOracle --output ./mocks/ --case=underscore --filename gas_price_oracle.generated.go
type GasPriceOracle interface {
	GasPrice(context.Context) (*big.Int, error)
}

// Transferer moves withdrawn escrow to the recipient. The registry calls it
// without holding any lock, so implementations may call back into the
// registry.
//
//go:generate mockery --name Transferer --output ./mocks/ --case=underscore --filename transferer.generated.go
type Transferer interface {
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}

// Clock provides the current time for interval checks and records.
type Clock interface {
	Now() time.Time
}

// AutomationChecker is the eligibility entry point used by keepers.
//
//go:generate mockery --name AutomationChecker --output ./mocks/ --case=underscore --filename automation_checker.generated.go
type AutomationChecker interface {
	CheckAutomationStatus(ctx context.Context, id uint64) (EligibilityResult, error)
}

// ExecutionSettler is the cost settlement entry point used by keepers.
//
//go:generate mockery --name ExecutionSettler --output ./mocks/ --case=underscore --filename execution_settler.generated.go
type ExecutionSettler interface {
	SettleExecution(ctx context.Context, caller common.Address, id uint64, cost *big.Int) error
}

// TaskLister enumerates registered tasks in creation order.
type TaskLister interface {
	GetAllTasks() []Task
}

// EventSink receives registry notifications in mutation order.
type EventSink interface {
	Emit(...Event)
}

// SystemClock is a Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a Clock that only moves when advanced. It is safe for
// concurrent use.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)

	return c.now
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

// StaticGasPrice is a GasPriceOracle that always returns the same price.
type StaticGasPrice struct {
	Price *big.Int
}

func (p StaticGasPrice) GasPrice(_ context.Context) (*big.Int, error) {
	if p.Price == nil {
		return new(big.Int), nil
	}

	return new(big.Int).Set(p.Price), nil
}
