package prommetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegistryNamespace is the namespace for all automation registry metrics
const RegistryNamespace = "automation_registry"

const (
	OpLabel    = "op"
	KindLabel  = "kind"
	StateLabel = "state"
)

// Registry metrics
var (
	RegistryTasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: RegistryNamespace,
		Name:      "tasks_created_total",
		Help:      "Count of tasks created in the registry",
	})
	RegistryTasks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: RegistryNamespace,
		Name:      "tasks",
		Help:      "Number of tasks in the registry by state",
	}, []string{StateLabel})
	RegistrySettlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: RegistryNamespace,
		Name:      "settlements_total",
		Help:      "Count of settled executions by settlement kind",
	}, []string{KindLabel})
	RegistryWeiCharged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: RegistryNamespace,
		Name:      "wei_charged_total",
		Help:      "Total execution cost charged against task escrow, in wei",
	})
	RegistryWithdrawRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: RegistryNamespace,
		Name:      "withdraw_rollbacks_total",
		Help:      "Count of withdrawals rolled back after a failed transfer",
	})
	RegistryOperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: RegistryNamespace,
		Name:      "operation_errors_total",
		Help:      "Count of failed registry operations by operation and error kind",
	}, []string{OpLabel, KindLabel})
)

// Keeper metrics
var (
	KeeperChecks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: RegistryNamespace,
		Name:      "keeper_checks_total",
		Help:      "Count of eligibility checks made by the keeper",
	})
	KeeperEligibleTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: RegistryNamespace,
		Name:      "keeper_eligible_tasks",
		Help:      "How many tasks were eligible in the last keeper round",
	})
	KeeperSettlementFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: RegistryNamespace,
		Name:      "keeper_settlement_failures_total",
		Help:      "Count of settlements rejected by the registry",
	})
)
