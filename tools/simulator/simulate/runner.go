package simulate

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/smartcontractkit/automation-registry/pkg/keeper"
	"github.com/smartcontractkit/automation-registry/pkg/registry"
	"github.com/smartcontractkit/automation-registry/pkg/telemetry"
	"github.com/smartcontractkit/automation-registry/pkg/types"
	"github.com/smartcontractkit/automation-registry/pkg/units"
	"github.com/smartcontractkit/automation-registry/tools/simulator/config"
)

// StepObserver receives the registry state at the end of every step.
type StepObserver interface {
	ObserveStep(step int, at time.Time, tasks []types.Task)
}

// Result summarizes a completed simulation.
type Result struct {
	Steps              int
	Actions            int
	RejectedActions    int
	Checks             int
	Settlements        int
	SettlementFailures int
}

type action struct {
	name    string
	account int
	apply   func(context.Context, common.Address) error
}

// Runner drives a registry and a keeper through the steps of a simulation
// plan on a simulated clock.
type Runner struct {
	// provided dependencies
	plan     config.SimulationPlan
	accounts []*config.Account
	logger   *log.Logger

	// internal state values
	clock    *types.ManualClock
	gasPrice *big.Int
	wallet   *Wallet
	registry *registry.Registry
	keeper   *keeper.Keeper
	gasUsed  distuv.Binomial
	schedule map[int][]action
}

// NewRunner builds the registry, keeper and event schedule for a plan. A
// keeper account is generated and authorized when the registry config lists
// none.
func NewRunner(plan config.SimulationPlan, accounts []*config.Account, logger *log.Logger) (*Runner, error) {
	if len(accounts) < plan.Accounts {
		return nil, fmt.Errorf("plan requires %d accounts, %d provided", plan.Accounts, len(accounts))
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	gasPrice, err := units.ParseGwei(plan.GasPrice)
	if err != nil {
		return nil, err
	}

	conf := plan.Registry
	conf.Keepers = append([]common.Address{}, conf.Keepers...)

	if len(conf.Keepers) == 0 {
		keeperAccount, err := config.NewAccount(rand.Reader)
		if err != nil {
			return nil, err
		}

		conf.Keepers = append(conf.Keepers, keeperAccount.Address())
	}

	r := &Runner{
		plan:     plan,
		accounts: accounts,
		logger:   telemetry.WrapLogger(logger, "simulator"),
		clock:    types.NewManualClock(plan.Clock.Start),
		gasPrice: gasPrice,
		wallet:   NewWallet(),
		schedule: make(map[int][]action),
		gasUsed: distuv.Binomial{
			N:   1,
			P:   plan.Keeper.GasUsedRatio,
			Src: NewCryptoRandSource(),
		},
	}

	r.registry, err = registry.New(conf,
		registry.WithClock(r.clock),
		registry.WithGasPriceOracle(types.StaticGasPrice{Price: gasPrice}),
		registry.WithTransferer(r.wallet),
		registry.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	r.keeper = keeper.New(conf.Keepers[0], plan.Clock.Step.Value(), r.registry, r.registry, r.registry, r.executionCost, logger)

	if err := r.buildSchedule(); err != nil {
		return nil, err
	}

	return r, nil
}

// WithSource replaces the random source of the gas used distribution.
func (r *Runner) WithSource(src Source) *Runner {
	r.gasUsed.Src = src

	return r
}

func (r *Runner) Registry() *registry.Registry {
	return r.registry
}

func (r *Runner) Wallet() *Wallet {
	return r.wallet
}

func (r *Runner) Clock() types.Clock {
	return r.clock
}

// Run applies the scheduled events step by step, running the keeper on the
// configured cadence. Rejected events are logged and counted; they do not
// stop the simulation.
func (r *Runner) Run(ctx context.Context, observer StepObserver) (Result, error) {
	var result Result

	for step := 0; step < r.plan.Clock.Duration; step++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if step > 0 {
			r.clock.Advance(r.plan.Clock.Step.Value())
		}

		for _, act := range r.schedule[step] {
			result.Actions++

			caller := r.accounts[act.account].Address()
			if err := act.apply(ctx, caller); err != nil {
				result.RejectedActions++
				r.logger.Printf("step %d: %s by account %d rejected: %s", step, act.name, act.account, err)
			}
		}

		if step%r.plan.Keeper.CheckEveryStep == 0 {
			round, err := r.keeper.RunOnce(ctx)
			if err != nil {
				return result, err
			}

			result.Checks += round.Checked
			result.Settlements += len(round.Settled)
			result.SettlementFailures += round.Failed
		}

		if observer != nil {
			observer.ObserveStep(step, r.clock.Now(), r.registry.GetAllTasks())
		}

		result.Steps++
	}

	r.logger.Printf("simulation complete: %d steps, %d actions (%d rejected), %d settlements", result.Steps, result.Actions, result.RejectedActions, result.Settlements)

	return result, nil
}

// executionCost draws the gas used by an execution from a binomial
// distribution bounded by the task gas limit.
func (r *Runner) executionCost(task types.Task, _ types.EligibilityResult) *big.Int {
	dist := r.gasUsed
	dist.N = float64(task.GasLimit)

	used := new(big.Int).SetUint64(uint64(dist.Rand()))

	return used.Mul(used, r.gasPrice)
}

func (r *Runner) buildSchedule() error {
	owners := make([]common.Address, len(r.accounts))
	for i, account := range r.accounts {
		owners[i] = account.Address()
	}

	creates, err := GenerateAllTasks(r.plan, owners)
	if err != nil {
		return err
	}

	for _, event := range creates {
		event := event

		funds, err := parseEther(event.Funds)
		if err != nil {
			return fmt.Errorf("createTask at step %d: %w", event.AtStep, err)
		}

		r.add(event.Event, string(config.CreateTaskEventType), func(ctx context.Context, caller common.Address) error {
			_, err := r.registry.CreateAutomation(ctx, registry.CreateRequest{
				Owner:       caller,
				TaskAddress: event.TaskAddress,
				GasLimit:    event.GasLimit,
				Interval:    event.Interval.Value(),
				Funds:       funds,
			})

			return err
		})
	}

	for _, event := range r.plan.AddFunds {
		event := event

		amount, err := parseEther(event.Amount)
		if err != nil {
			return fmt.Errorf("addFunds at step %d: %w", event.AtStep, err)
		}

		r.add(event.Event, string(config.AddFundsEventType), func(ctx context.Context, caller common.Address) error {
			return r.registry.AddFunds(ctx, caller, event.TaskAddress, caller, amount)
		})
	}

	for _, event := range r.plan.CancelTasks {
		event := event

		r.add(event.Event, string(config.CancelTaskEventType), func(ctx context.Context, caller common.Address) error {
			return r.registry.CancelAutomation(ctx, caller, event.TaskAddress)
		})
	}

	for _, event := range r.plan.WithdrawFunds {
		event := event

		r.add(event.Event, string(config.WithdrawFundsEventType), func(ctx context.Context, caller common.Address) error {
			return r.registry.WithdrawFunds(ctx, caller, event.TaskAddress)
		})
	}

	for _, event := range r.plan.UpdateGasLimits {
		event := event

		r.add(event.Event, string(config.UpdateGasLimitEventType), func(ctx context.Context, caller common.Address) error {
			return r.registry.UpdateTaskGasLimit(ctx, caller, event.TaskAddress, event.GasLimit)
		})
	}

	return nil
}

func (r *Runner) add(event config.Event, name string, apply func(context.Context, common.Address) error) {
	r.schedule[event.AtStep] = append(r.schedule[event.AtStep], action{
		name:    name,
		account: event.Account,
		apply:   apply,
	})
}

func parseEther(value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}

	return units.ParseEther(value)
}
