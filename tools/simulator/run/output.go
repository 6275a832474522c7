package run

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/smartcontractkit/automation-registry/tools/simulator/config"
	"github.com/smartcontractkit/automation-registry/tools/simulator/simulate"
	"github.com/smartcontractkit/automation-registry/tools/simulator/telemetry"
)

const (
	simulationLogFile  = "simulation.log"
	simulationPlanFile = "simulation_plan.json"
	eventsFile         = "events.jsonl"
	summaryFile        = "summary.txt"
	fundsChartFile     = "funds.html"
)

type Outputs struct {
	SimulationLog           *log.Logger
	EventCollector          *telemetry.RegistryEventCollector
	FundsCollector          *telemetry.TaskFundsCollector
	path                    string
	verbose                 bool
	simulationLogFileHandle *os.File
}

func (out *Outputs) Close() error {
	var err error

	if out.EventCollector != nil {
		err = errors.Join(err, out.EventCollector.Close())
	}

	if out.simulationLogFileHandle != nil {
		err = errors.Join(err, out.simulationLogFileHandle.Close())
	}

	return err
}

// SetupOutput prepares the output directory. Without verbose output nothing
// is written to disk and the simulation log is discarded.
func SetupOutput(path string, verbose bool, plan config.SimulationPlan) (*Outputs, error) {
	if !verbose {
		logger := log.New(io.Discard, "", 0)

		return &Outputs{
			SimulationLog:  logger,
			EventCollector: telemetry.NewRegistryEventCollector(nil, logger),
			FundsCollector: telemetry.NewTaskFundsCollector(),
			path:           path,
		}, nil
	}

	err := os.MkdirAll(path, 0750)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, err
	}

	logger, lggF, err := openSimulationLog(path)
	if err != nil {
		return nil, err
	}

	if err := saveSimulationPlanToOutput(path, plan); err != nil {
		_ = lggF.Close()
		return nil, err
	}

	eventsF, err := openOutputFile(path, eventsFile)
	if err != nil {
		_ = lggF.Close()
		return nil, err
	}

	return &Outputs{
		SimulationLog:           logger,
		EventCollector:          telemetry.NewRegistryEventCollector(eventsF, logger),
		FundsCollector:          telemetry.NewTaskFundsCollector(),
		path:                    path,
		verbose:                 true,
		simulationLogFileHandle: lggF,
	}, nil
}

// WriteResults renders the run summary and returns it. With verbose output
// the summary and the funds chart are also written to the output directory.
func (out *Outputs) WriteResults(result simulate.Result) (string, error) {
	summary := fmt.Sprintf("%s\n%s\n", formatResult(result, out.EventCollector), out.FundsCollector.PrintTabularResults())

	if !out.verbose {
		return summary, nil
	}

	if err := os.WriteFile(filepath.Join(out.path, summaryFile), []byte(summary), 0600); err != nil {
		return summary, fmt.Errorf("failed to write summary: %w", err)
	}

	f, err := openOutputFile(out.path, fundsChartFile)
	if err != nil {
		return summary, err
	}

	defer f.Close()

	if err := out.FundsCollector.FundsChart(f); err != nil {
		return summary, fmt.Errorf("failed to render funds chart: %w", err)
	}

	return summary, nil
}

func formatResult(result simulate.Result, events *telemetry.RegistryEventCollector) string {
	return fmt.Sprintf(
		"steps: %d\nactions: %d (rejected %d)\nchecks: %d\nsettlements: %d (failed %d)\nevents: %d",
		result.Steps,
		result.Actions,
		result.RejectedActions,
		result.Checks,
		result.Settlements,
		result.SettlementFailures,
		events.Total(),
	)
}

func saveSimulationPlanToOutput(path string, plan config.SimulationPlan) error {
	b, err := plan.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode simulation_plan: %w", err)
	}

	filename := filepath.Join(path, simulationPlanFile)
	if err := os.WriteFile(filename, b, 0600); err != nil {
		return fmt.Errorf("failed to write encoded simulation plan to file (%s): %w", filename, err)
	}

	return nil
}

func openSimulationLog(path string) (*log.Logger, *os.File, error) {
	f, err := openOutputFile(path, simulationLogFile)
	if err != nil {
		return nil, nil, err
	}

	return log.New(f, "", log.LstdFlags), f, nil
}

func openOutputFile(path, name string) (*os.File, error) {
	filename := filepath.Join(path, name)
	flags := os.O_RDWR | os.O_CREATE | os.O_TRUNC

	f, err := os.OpenFile(filename, flags, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file (%s): %v", filename, err)
	}

	return f, nil
}
