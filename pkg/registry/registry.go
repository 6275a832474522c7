// Package registry is the public API of the automation task registry. Every
// mutating operation holds a single write lock for its whole duration, which
// gives all mutations one global order; queries take the read lock and only
// ever return copies.
package registry

import (
	"context"
	"io"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/smartcontractkit/automation-registry/pkg/access"
	"github.com/smartcontractkit/automation-registry/pkg/config"
	"github.com/smartcontractkit/automation-registry/pkg/eligibility"
	"github.com/smartcontractkit/automation-registry/pkg/events"
	"github.com/smartcontractkit/automation-registry/pkg/ledger"
	"github.com/smartcontractkit/automation-registry/pkg/lifecycle"
	"github.com/smartcontractkit/automation-registry/pkg/prommetrics"
	"github.com/smartcontractkit/automation-registry/pkg/store"
	"github.com/smartcontractkit/automation-registry/pkg/telemetry"
	"github.com/smartcontractkit/automation-registry/pkg/types"
)

const (
	opCreate            = "createAutomation"
	opCancel            = "cancelAutomation"
	opAddFunds          = "addFunds"
	opWithdraw          = "withdrawFunds"
	opUpdateExecDetails = "updateTaskExecDetails"
	opUpdateGasLimit    = "updateTaskGasLimit"
	opUpdateFunds       = "updateTaskFunds"
	opCheck             = "checkAutomationStatus"
	opSettle            = "settleExecution"
)

// CreateRequest describes a new task. Funds is the amount attached at
// creation and may be nil for an unfunded task.
type CreateRequest struct {
	Owner       common.Address
	TaskAddress common.Address
	GasLimit    uint64
	Interval    time.Duration
	Funds       *big.Int
}

type Option func(*Registry)

func WithClock(clock types.Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

func WithGasPriceOracle(oracle types.GasPriceOracle) Option {
	return func(r *Registry) {
		r.oracle = oracle
	}
}

func WithTransferer(transferer types.Transferer) Option {
	return func(r *Registry) {
		r.transferer = transferer
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		r.logger = telemetry.WrapLogger(logger, "registry")
	}
}

type Registry struct {
	// provided dependencies
	conf       config.Config
	clock      types.Clock
	oracle     types.GasPriceOracle
	transferer types.Transferer
	logger     *log.Logger

	// internal state values
	mu     sync.RWMutex
	store  *store.TaskStore
	engine *eligibility.Engine
	events *events.Log
}

// New creates an empty registry after validating the configuration.
func New(conf config.Config, opts ...Option) (*Registry, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	mode, _ := conf.Mode()

	return newRegistry(conf, store.New(mode), opts...)
}

// NewFromSnapshot restores a registry from persisted state. The snapshot must
// have been taken with the same key mode as the configuration.
func NewFromSnapshot(conf config.Config, snap store.Snapshot, opts ...Option) (*Registry, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	mode, _ := conf.Mode()
	if snap.KeyMode != mode {
		return nil, errors.Wrapf(store.ErrCorrupt, "snapshot keyed by %s, registry keyed by %s", snap.KeyMode, mode)
	}

	restored, err := store.Restore(snap)
	if err != nil {
		return nil, err
	}

	return newRegistry(conf, restored, opts...)
}

func newRegistry(conf config.Config, taskStore *store.TaskStore, opts ...Option) (*Registry, error) {
	policy, _ := conf.FirstExecutionPolicy()

	r := &Registry{
		conf:       conf,
		clock:      types.SystemClock{},
		oracle:     types.StaticGasPrice{},
		transferer: noopTransferer{},
		logger:     log.New(io.Discard, "", 0),
		store:      taskStore,
		engine:     eligibility.NewEngine(conf.IntervalEnabled, policy, conf.KeeperSet()),
		events:     events.NewLog(),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.updateStateGauge()

	return r, nil
}

// Owner returns the address that deployed the registry.
func (r *Registry) Owner() common.Address {
	return r.conf.Owner
}

func (r *Registry) Config() config.Config {
	return r.conf
}

// CreateAutomation registers a new Active task funded with the attached
// amount and returns its id.
func (r *Registry) CreateAutomation(_ context.Context, req CreateRequest) (uint64, error) {
	funds := req.Funds
	if funds == nil {
		funds = new(big.Int)
	}

	if err := ledger.ValidateAmount(funds); err != nil {
		return 0, r.fail(opCreate, err)
	}

	if req.GasLimit == 0 {
		return 0, r.fail(opCreate, errors.Wrapf(types.ErrInvalidGasLimit, "task at %s", req.TaskAddress.Hex()))
	}

	if req.Interval < 0 {
		return 0, r.fail(opCreate, errors.Errorf("negative interval %s", req.Interval))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	task := types.NewTask(req.Owner, req.TaskAddress, req.GasLimit, req.Interval.Truncate(time.Second), now)

	// the task is only inserted once funded so a failure leaves the store untouched
	if err := ledger.Credit(task, funds); err != nil {
		return 0, r.fail(opCreate, err)
	}

	id, err := r.store.Insert(task)
	if err != nil {
		return 0, r.fail(opCreate, err)
	}

	r.events.Emit(types.NewEvent(types.NewAutoTask, task, now).WithAmount(funds))

	prommetrics.RegistryTasksCreated.Inc()
	r.updateStateGauge()

	r.logger.Printf("task %d created for %s by %s with %s wei", id, task.TaskAddress.Hex(), task.Owner.Hex(), funds)

	return id, nil
}

// CancelAutomation moves the caller's task at taskAddress to Cancelled.
func (r *Registry) CancelAutomation(_ context.Context, caller, taskAddress common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, err := r.lookup(caller, taskAddress)
	if err != nil {
		return r.fail(opCancel, err)
	}

	evt, err := lifecycle.Cancel(task, caller, r.clock.Now())
	if err != nil {
		return r.fail(opCancel, err)
	}

	r.events.Emit(evt)
	r.updateStateGauge()

	r.logger.Printf("task %d cancelled with %s wei remaining", task.ID, task.Funds)

	return nil
}

// AddFunds credits the task of owner at taskAddress. Only the owner may fund
// its own task.
func (r *Registry) AddFunds(_ context.Context, caller, taskAddress, owner common.Address, amount *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, err := r.lookup(owner, taskAddress)
	if err != nil {
		return r.fail(opAddFunds, err)
	}

	evt, err := lifecycle.AddFunds(task, caller, amount, r.clock.Now())
	if err != nil {
		return r.fail(opAddFunds, err)
	}

	r.events.Emit(evt)

	return nil
}

// WithdrawFunds transfers the entire balance of the caller's task to the
// caller. The balance is zeroed under the lock before the transfer runs, so a
// reentrant withdrawal from the transferer fails with ErrNothingToWithdraw. A
// failed transfer puts the amount back. TaskFundWithdrawSuccess is appended
// when the transfer completes, after any event emitted while it ran.
func (r *Registry) WithdrawFunds(ctx context.Context, caller, taskAddress common.Address) error {
	r.mu.Lock()

	task, err := r.lookup(caller, taskAddress)
	if err == nil {
		err = access.RequireOwner(task, caller)
	}

	var amount *big.Int
	if err == nil {
		amount, err = ledger.BeginWithdraw(task)
	}

	if err != nil {
		r.mu.Unlock()
		return r.fail(opWithdraw, err)
	}

	id, recipient := task.ID, task.Owner

	r.mu.Unlock()

	if err := r.transferer.Transfer(ctx, recipient, amount); err != nil {
		r.mu.Lock()
		defer r.mu.Unlock()

		if task, getErr := r.store.Get(id); getErr == nil {
			ledger.RollbackWithdraw(task, amount)
		}

		prommetrics.RegistryWithdrawRollbacks.Inc()
		r.logger.Printf("withdrawal of %s wei from task %d rolled back: %s", amount, id, err)

		return r.fail(opWithdraw, errors.Wrapf(types.ErrTransferFailed, "task %d: %s", id, err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	task, err = r.store.Get(id)
	if err != nil {
		return r.fail(opWithdraw, err)
	}

	evt := types.NewEvent(types.TaskFundWithdrawSuccess, task, r.clock.Now()).WithAmount(amount)
	evt.Recipient = recipient

	r.events.Emit(evt)

	r.logger.Printf("withdrew %s wei from task %d to %s", amount, id, recipient.Hex())

	return nil
}

// UpdateTaskExecDetails records a manually settled execution cost.
func (r *Registry) UpdateTaskExecDetails(_ context.Context, caller, taskAddress common.Address, cost *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, err := r.lookup(caller, taskAddress)
	if err != nil {
		return r.fail(opUpdateExecDetails, err)
	}

	evt, err := lifecycle.UpdateExecDetails(task, caller, cost, r.clock.Now())
	if err != nil {
		return r.fail(opUpdateExecDetails, err)
	}

	r.events.Emit(evt)
	r.recordSettlement(types.ManualSettlement, cost)

	return nil
}

func (r *Registry) UpdateTaskGasLimit(_ context.Context, caller, taskAddress common.Address, limit uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, err := r.lookup(caller, taskAddress)
	if err != nil {
		return r.fail(opUpdateGasLimit, err)
	}

	evt, err := lifecycle.UpdateGasLimit(task, caller, limit, r.clock.Now())
	if err != nil {
		return r.fail(opUpdateGasLimit, err)
	}

	r.events.Emit(evt)

	return nil
}

// UpdateTaskFunds debits amount from the escrow without recording an
// execution.
func (r *Registry) UpdateTaskFunds(_ context.Context, caller, taskAddress common.Address, amount *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, err := r.lookup(caller, taskAddress)
	if err != nil {
		return r.fail(opUpdateFunds, err)
	}

	evt, err := lifecycle.UpdateFunds(task, caller, amount, r.clock.Now())
	if err != nil {
		return r.fail(opUpdateFunds, err)
	}

	r.events.Emit(evt)

	return nil
}

// CheckAutomationStatus reports whether the task is eligible for execution.
// The gas price is fetched before the lock is taken.
func (r *Registry) CheckAutomationStatus(ctx context.Context, id uint64) (types.EligibilityResult, error) {
	gasPrice, err := r.oracle.GasPrice(ctx)
	if err != nil {
		return types.EligibilityResult{}, r.fail(opCheck, errors.Wrap(err, "failed to fetch gas price"))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	task, err := r.store.Get(id)
	if err != nil {
		return types.EligibilityResult{}, r.fail(opCheck, err)
	}

	return r.engine.Check(task, gasPrice, r.clock.Now()), nil
}

// SettleExecution charges cost against the task after re-validating its
// eligibility. The caller must be the task owner or a configured keeper.
func (r *Registry) SettleExecution(_ context.Context, caller common.Address, id uint64, cost *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, err := r.store.Get(id)
	if err != nil {
		return r.fail(opSettle, err)
	}

	evt, err := r.engine.Settle(task, caller, cost, r.clock.Now())
	if err != nil {
		return r.fail(opSettle, err)
	}

	r.events.Emit(evt)
	r.recordSettlement(types.KeeperSettlement, cost)

	return nil
}

// GetAllTasks returns every task in creation order, cancelled tasks included.
func (r *Registry) GetAllTasks() []types.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.store.All()
}

func (r *Registry) GetTasksOf(owner common.Address) []types.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.store.OwnedBy(owner)
}

// GetExecListOf returns a copy of the settlement records of the task at key.
// Owner is ignored in address-keyed mode.
func (r *Registry) GetExecListOf(key types.TaskKey) ([]types.ExecRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, err := r.store.Lookup(key)
	if err != nil {
		return nil, err
	}

	return task.Clone().ExecList, nil
}

// GetTask returns a copy of the task with the provided id.
func (r *Registry) GetTask(id uint64) (types.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, err := r.store.Get(id)
	if err != nil {
		return types.Task{}, err
	}

	return task.Clone(), nil
}

// Events returns every event emitted so far in mutation order.
func (r *Registry) Events() []types.Event {
	return r.events.Events()
}

func (r *Registry) Subscribe() (uuid.UUID, <-chan types.Event) {
	return r.events.Subscribe()
}

func (r *Registry) Unsubscribe(id uuid.UUID) error {
	return r.events.Unsubscribe(id)
}

// Snapshot returns a consistent copy of the persisted state.
func (r *Registry) Snapshot() store.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.store.Snapshot()
}

func (r *Registry) EncodeSnapshot() ([]byte, error) {
	return r.Snapshot().Encode()
}

// Close ends all event subscriptions.
func (r *Registry) Close() error {
	r.events.Close()

	return nil
}

func (r *Registry) lookup(owner, taskAddress common.Address) (*types.Task, error) {
	return r.store.Lookup(types.TaskKey{Owner: owner, Address: taskAddress})
}

func (r *Registry) fail(op string, err error) error {
	prommetrics.RegistryOperationErrors.WithLabelValues(op, types.ErrorKind(err)).Inc()
	r.logger.Printf("%s failed: %s", op, err)

	return err
}

func (r *Registry) recordSettlement(kind types.SettlementKind, cost *big.Int) {
	prommetrics.RegistrySettlements.WithLabelValues(kind.String()).Inc()

	wei, _ := new(big.Float).SetInt(cost).Float64()
	prommetrics.RegistryWeiCharged.Add(wei)
}

func (r *Registry) updateStateGauge() {
	for state, count := range r.store.CountByState() {
		prommetrics.RegistryTasks.WithLabelValues(state.String()).Set(float64(count))
	}
}

type noopTransferer struct{}

func (noopTransferer) Transfer(_ context.Context, _ common.Address, _ *big.Int) error {
	return nil
}
