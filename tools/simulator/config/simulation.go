package config

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	regconfig "github.com/smartcontractkit/automation-registry/pkg/config"
	"github.com/smartcontractkit/automation-registry/pkg/units"
)

var (
	ErrEncoding = fmt.Errorf("encoding/decoding failure")
	ErrInvalid  = fmt.Errorf("invalid simulation plan")
)

const (
	DefaultGasPrice     = "20"
	DefaultGasUsedRatio = 0.75
)

// SimulationPlan is a collection of configurations with which to run a
// simulation.
type SimulationPlan struct {
	Registry        regconfig.Config      `json:"registry"`
	Clock           Clock                 `json:"clock"`
	GasPrice        string                `json:"gasPrice"`
	Keeper          Keeper                `json:"keeper"`
	Accounts        int                   `json:"accounts"`
	CreateTasks     []CreateTaskEvent     `json:"-"`
	GenerateTasks   []GenerateTasksEvent  `json:"-"`
	AddFunds        []AddFundsEvent       `json:"-"`
	CancelTasks     []CancelTaskEvent     `json:"-"`
	WithdrawFunds   []WithdrawFundsEvent  `json:"-"`
	UpdateGasLimits []UpdateGasLimitEvent `json:"-"`
}

// Clock is a configuration for the simulated clock. The simulation advances
// the clock by Step once per simulated step.
type Clock struct {
	Start time.Time          `json:"start"`
	Step  regconfig.Duration `json:"step"`
	// Duration is the number of steps to simulate.
	Duration int `json:"durationInSteps"`
}

// Keeper is a configuration for the simulated keeper.
type Keeper struct {
	// GasUsedRatio is the average share of a task's gas limit consumed by an
	// execution. Actual usage is drawn from a binomial distribution.
	GasUsedRatio float64 `json:"gasUsedRatio"`
	// CheckEveryStep runs the keeper once every n steps.
	CheckEveryStep int `json:"checkEveryStep"`
}

// Encode applies JSON encoding of a simulation plan to bytes.
func (p SimulationPlan) Encode() ([]byte, error) {
	type encodedOutput struct {
		SimulationPlan
		Events []interface{} `json:"events"`
	}

	encodable := encodedOutput{
		SimulationPlan: p,
		Events:         make([]interface{}, 0, p.eventCount()),
	}

	// ensure the type is set properly on every event
	for _, event := range p.CreateTasks {
		event.Type = CreateTaskEventType
		encodable.Events = append(encodable.Events, event)
	}

	for _, event := range p.GenerateTasks {
		event.Type = GenerateTasksEventType
		encodable.Events = append(encodable.Events, event)
	}

	for _, event := range p.AddFunds {
		event.Type = AddFundsEventType
		encodable.Events = append(encodable.Events, event)
	}

	for _, event := range p.CancelTasks {
		event.Type = CancelTaskEventType
		encodable.Events = append(encodable.Events, event)
	}

	for _, event := range p.WithdrawFunds {
		event.Type = WithdrawFundsEventType
		encodable.Events = append(encodable.Events, event)
	}

	for _, event := range p.UpdateGasLimits {
		event.Type = UpdateGasLimitEventType
		encodable.Events = append(encodable.Events, event)
	}

	b, err := json.Marshal(encodable)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode simulation plan: %s", ErrEncoding, err.Error())
	}

	return b, nil
}

func (p SimulationPlan) eventCount() int {
	return len(p.CreateTasks) + len(p.GenerateTasks) + len(p.AddFunds) +
		len(p.CancelTasks) + len(p.WithdrawFunds) + len(p.UpdateGasLimits)
}

// DecodeSimulationPlan uses JSON encoding to decode bytes to a simulation plan.
// Defaults are applied and the result is validated.
func DecodeSimulationPlan(encoded []byte) (SimulationPlan, error) {
	var plan SimulationPlan

	if err := json.Unmarshal(encoded, &plan); err != nil {
		return plan, fmt.Errorf("%w: failed to decode simulation plan: %s", ErrEncoding, err.Error())
	}

	plan.CreateTasks = make([]CreateTaskEvent, 0)
	plan.GenerateTasks = make([]GenerateTasksEvent, 0)
	plan.AddFunds = make([]AddFundsEvent, 0)
	plan.CancelTasks = make([]CancelTaskEvent, 0)
	plan.WithdrawFunds = make([]WithdrawFundsEvent, 0)
	plan.UpdateGasLimits = make([]UpdateGasLimitEvent, 0)

	type eventCollection struct {
		Events []json.RawMessage `json:"events"`
	}

	var events eventCollection

	if err := json.Unmarshal(encoded, &events); err != nil {
		return plan, fmt.Errorf("%w: failed to decode events in simulation plan: %s", ErrEncoding, err.Error())
	}

	for idx, rawEvent := range events.Events {
		var event Event
		if err := json.Unmarshal(rawEvent, &event); err != nil {
			return plan, fmt.Errorf("%w: failed to decode event in simulation plan: %s", ErrEncoding, err.Error())
		}

		var err error

		switch event.Type {
		case CreateTaskEventType:
			var createEvent CreateTaskEvent
			if err = json.Unmarshal(rawEvent, &createEvent); err == nil {
				plan.CreateTasks = append(plan.CreateTasks, createEvent)
			}
		case GenerateTasksEventType:
			var generateEvent GenerateTasksEvent
			if err = json.Unmarshal(rawEvent, &generateEvent); err == nil {
				plan.GenerateTasks = append(plan.GenerateTasks, generateEvent)
			}
		case AddFundsEventType:
			var fundsEvent AddFundsEvent
			if err = json.Unmarshal(rawEvent, &fundsEvent); err == nil {
				plan.AddFunds = append(plan.AddFunds, fundsEvent)
			}
		case CancelTaskEventType:
			var cancelEvent CancelTaskEvent
			if err = json.Unmarshal(rawEvent, &cancelEvent); err == nil {
				plan.CancelTasks = append(plan.CancelTasks, cancelEvent)
			}
		case WithdrawFundsEventType:
			var withdrawEvent WithdrawFundsEvent
			if err = json.Unmarshal(rawEvent, &withdrawEvent); err == nil {
				plan.WithdrawFunds = append(plan.WithdrawFunds, withdrawEvent)
			}
		case UpdateGasLimitEventType:
			var gasEvent UpdateGasLimitEvent
			if err = json.Unmarshal(rawEvent, &gasEvent); err == nil {
				plan.UpdateGasLimits = append(plan.UpdateGasLimits, gasEvent)
			}
		default:
			return plan, fmt.Errorf("%w: unrecognized event at index %d", ErrEncoding, idx)
		}

		if err != nil {
			return plan, fmt.Errorf("%w: failed to decode %s event in simulation plan at index %d: %s", ErrEncoding, event.Type, idx, err.Error())
		}
	}

	plan.applyDefaults()

	return plan, plan.Validate()
}

func (p *SimulationPlan) applyDefaults() {
	if p.GasPrice == "" {
		p.GasPrice = DefaultGasPrice
	}

	if p.Keeper.GasUsedRatio == 0 {
		p.Keeper.GasUsedRatio = DefaultGasUsedRatio
	}

	if p.Keeper.CheckEveryStep == 0 {
		p.Keeper.CheckEveryStep = 1
	}

	if p.Accounts == 0 {
		p.Accounts = 1
	}

	if p.Registry.KeyMode == "" {
		p.Registry.KeyMode = regconfig.KeyModeAddress
	}

	if p.Registry.FirstExecution == "" {
		p.Registry.FirstExecution = regconfig.FirstExecutionAfterInterval
	}
}

func (p SimulationPlan) Validate() error {
	if err := p.Registry.Validate(); err != nil {
		return err
	}

	if p.Clock.Step.Value() <= 0 {
		return fmt.Errorf("%w: clock step must be positive", ErrInvalid)
	}

	if p.Clock.Duration <= 0 {
		return fmt.Errorf("%w: durationInSteps must be positive", ErrInvalid)
	}

	if _, err := units.ParseGwei(p.GasPrice); err != nil {
		return fmt.Errorf("%w: gas price: %s", ErrInvalid, err.Error())
	}

	if p.Keeper.GasUsedRatio < 0 || p.Keeper.GasUsedRatio > 1 {
		return fmt.Errorf("%w: gasUsedRatio must be between 0 and 1", ErrInvalid)
	}

	if p.Keeper.CheckEveryStep < 1 {
		return fmt.Errorf("%w: checkEveryStep must be at least 1", ErrInvalid)
	}

	if p.Accounts < 1 {
		return fmt.Errorf("%w: at least one account is required", ErrInvalid)
	}

	for _, event := range p.headers() {
		if event.AtStep < 0 || event.AtStep >= p.Clock.Duration {
			return fmt.Errorf("%w: %s event at step %d is outside the simulation", ErrInvalid, event.Type, event.AtStep)
		}

		if event.Account < 0 || event.Account >= p.Accounts {
			return fmt.Errorf("%w: %s event references unknown account %d", ErrInvalid, event.Type, event.Account)
		}
	}

	return nil
}

func (p SimulationPlan) headers() []Event {
	headers := make([]Event, 0, p.eventCount())

	for _, event := range p.CreateTasks {
		headers = append(headers, event.Event)
	}

	for _, event := range p.GenerateTasks {
		headers = append(headers, event.Event)
	}

	for _, event := range p.AddFunds {
		headers = append(headers, event.Event)
	}

	for _, event := range p.CancelTasks {
		headers = append(headers, event.Event)
	}

	for _, event := range p.WithdrawFunds {
		headers = append(headers, event.Event)
	}

	for _, event := range p.UpdateGasLimits {
		headers = append(headers, event.Event)
	}

	return headers
}
