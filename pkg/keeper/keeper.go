package keeper

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/automation-registry/pkg/prommetrics"
	"github.com/smartcontractkit/automation-registry/pkg/telemetry"
	"github.com/smartcontractkit/automation-registry/pkg/types"
)

// CostFunc returns the cost to settle for an eligible task. The result of the
// eligibility check carries the estimate derived from the gas limit.
type CostFunc func(types.Task, types.EligibilityResult) *big.Int

// EstimatedCost settles exactly the estimated cost.
func EstimatedCost(_ types.Task, result types.EligibilityResult) *big.Int {
	return result.EstimatedCost
}

// Round summarizes a single pass over all tasks.
type Round struct {
	Checked  int
	Eligible int
	Settled  []uint64
	Failed   int
}

type Keeper struct {
	address  common.Address
	interval time.Duration
	lister   types.TaskLister
	checker  types.AutomationChecker
	settler  types.ExecutionSettler
	costFn   CostFunc
	logger   *log.Logger
	chClose  chan struct{}
	running  atomic.Bool
}

func New(
	address common.Address,
	interval time.Duration,
	lister types.TaskLister,
	checker types.AutomationChecker,
	settler types.ExecutionSettler,
	costFn CostFunc,
	logger *log.Logger,
) *Keeper {
	if costFn == nil {
		costFn = EstimatedCost
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Keeper{
		address:  address,
		interval: interval,
		lister:   lister,
		checker:  checker,
		settler:  settler,
		costFn:   costFn,
		logger:   telemetry.WrapLogger(logger, "keeper"),
		chClose:  make(chan struct{}, 1),
	}
}

// RunOnce checks every active task and settles the eligible ones. A rejected
// settlement is counted and logged but does not stop the round.
func (k *Keeper) RunOnce(ctx context.Context) (Round, error) {
	var round Round

	for _, task := range k.lister.GetAllTasks() {
		if task.State != types.Active {
			continue
		}

		if err := ctx.Err(); err != nil {
			return round, err
		}

		result, err := k.checker.CheckAutomationStatus(ctx, task.ID)
		round.Checked++
		prommetrics.KeeperChecks.Inc()

		if err != nil {
			k.logger.Printf("failed to check task %d: %s", task.ID, err)
			round.Failed++

			continue
		}

		if !result.Eligible {
			continue
		}

		round.Eligible++

		cost := k.costFn(task, result)
		if err := k.settler.SettleExecution(ctx, k.address, task.ID, cost); err != nil {
			k.logger.Printf("settlement of task %d rejected: %s", task.ID, err)
			prommetrics.KeeperSettlementFailures.Inc()
			round.Failed++

			continue
		}

		round.Settled = append(round.Settled, task.ID)
	}

	prommetrics.KeeperEligibleTasks.Set(float64(round.Eligible))

	return round, nil
}

// Start runs a round on every tick of the configured interval. This function
// blocks until Close is called or the parent context is cancelled.
func (k *Keeper) Start(ctx context.Context) error {
	if !k.running.CompareAndSwap(false, true) {
		return fmt.Errorf("already running")
	}

	defer k.running.Store(false)

	// drop a close signal left over from a previous run
	select {
	case <-k.chClose:
	default:
	}

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

Loop:
	for {
		select {
		case <-ticker.C:
			round, err := k.RunOnce(ctx)
			if err != nil {
				k.logger.Printf("round interrupted: %s", err)
				continue
			}

			if len(round.Settled) > 0 || round.Failed > 0 {
				k.logger.Printf("round complete: %d checked, %d settled, %d failed", round.Checked, len(round.Settled), round.Failed)
			}
		case <-ctx.Done():
			break Loop
		case <-k.chClose:
			break Loop
		}
	}

	return nil
}

func (k *Keeper) Close() error {
	if !k.running.Load() {
		return fmt.Errorf("not running")
	}

	k.chClose <- struct{}{}

	return nil
}
