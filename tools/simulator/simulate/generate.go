package simulate

import (
	"fmt"
	"math/big"
	"time"

	"github.com/Maldris/mathparse"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	regconfig "github.com/smartcontractkit/automation-registry/pkg/config"
	"github.com/smartcontractkit/automation-registry/tools/simulator/config"
)

var (
	ErrTaskGeneration = fmt.Errorf("failed to generate task")
)

// GenerateAllTasks expands every generateTasks event of the plan into single
// createTask events and returns them after the explicit createTask events.
func GenerateAllTasks(plan config.SimulationPlan, owners []common.Address) ([]config.CreateTaskEvent, error) {
	generated := make([]config.CreateTaskEvent, 0, len(plan.CreateTasks))
	generated = append(generated, plan.CreateTasks...)

	for idx, event := range plan.GenerateTasks {
		if event.Account < 0 || event.Account >= len(owners) {
			return nil, fmt.Errorf("%w: unknown account %d at index %d", ErrTaskGeneration, event.Account, idx)
		}

		tasks, err := generateTasks(event, owners[event.Account], idx)
		if err != nil {
			return nil, fmt.Errorf("%w at index %d", err, idx)
		}

		generated = append(generated, tasks...)
	}

	return generated, nil
}

func generateTasks(event config.GenerateTasksEvent, owner common.Address, eventIdx int) ([]config.CreateTaskEvent, error) {
	if event.GasLimit == 0 {
		return nil, fmt.Errorf("%w: gas limit must be positive", ErrTaskGeneration)
	}

	interval := mathparse.NewParser(event.IntervalFunc)
	interval.Resolve()

	funds := mathparse.NewParser(event.FundsFunc)
	funds.Resolve()

	generated := make([]config.CreateTaskEvent, 0, event.Count)

	for y := 1; y <= event.Count; y++ {
		seconds, err := evaluate(&interval, big.NewInt(int64(y)))
		if err != nil {
			return nil, err
		}

		if seconds.IsNegative() {
			return nil, fmt.Errorf("%w: negative interval for task %d", ErrTaskGeneration, y)
		}

		ether, err := evaluate(&funds, big.NewInt(int64(y)))
		if err != nil {
			return nil, err
		}

		if ether.IsNegative() {
			return nil, fmt.Errorf("%w: negative funds for task %d", ErrTaskGeneration, y)
		}

		generated = append(generated, config.CreateTaskEvent{
			Event: config.Event{
				Type:    config.CreateTaskEventType,
				AtStep:  event.AtStep,
				Account: event.Account,
				Comment: fmt.Sprintf("generated %d of %d", y, event.Count),
			},
			TaskAddress: newTaskAddress(owner, eventIdx, y),
			GasLimit:    event.GasLimit,
			Interval:    regconfig.Duration(time.Duration(seconds.Round(0).IntPart()) * time.Second),
			// truncate to wei precision
			Funds: ether.Truncate(18).String(),
		})
	}

	return generated, nil
}

func evaluate(p *mathparse.Parser, x *big.Int) (decimal.Decimal, error) {
	if p.FoundResult() {
		return decimal.NewFromFloat(p.GetValueResult()), nil
	}

	return calcFromTokens(p.GetTokens(), x)
}

// newTaskAddress derives a stable target address from the owner, the generate
// event and the task index.
func newTaskAddress(owner common.Address, eventIdx, taskIdx int) common.Address {
	entropy := crypto.Keccak256(
		owner.Bytes(),
		big.NewInt(int64(eventIdx)).Bytes(),
		big.NewInt(int64(taskIdx)).Bytes(),
	)

	return common.BytesToAddress(entropy[12:])
}

func operate(a, b decimal.Decimal, op string) decimal.Decimal {
	switch op {
	case "+":
		return a.Add(b)
	case "*":
		return a.Mul(b)
	case "-":
		return a.Sub(b)
	default:
	}

	return decimal.Zero
}

// calcFromTokens applies tokens strictly left to right.
func calcFromTokens(tokens []mathparse.Token, x *big.Int) (decimal.Decimal, error) {
	value := decimal.NewFromInt(0)
	action := "+"

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		switch token.Type {
		case 2, 3:
			var tVal decimal.Decimal

			if token.Value == "x" {
				tVal = decimal.NewFromBigInt(x, int32(0))
			} else {
				tVal = decimal.NewFromFloat(token.ParseValue)
			}

			value = operate(value, tVal, action)
		case 4:
			if token.Value != "+" && token.Value != "-" && token.Value != "*" {
				return decimal.Zero, fmt.Errorf("%w: unsupported operator '%s'", ErrTaskGeneration, token.Value)
			}

			action = token.Value
		default:
		}
	}

	return value, nil
}
