package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/smartcontractkit/automation-registry/tools/simulator/config"
	"github.com/smartcontractkit/automation-registry/tools/simulator/run"
	"github.com/smartcontractkit/automation-registry/tools/simulator/simulate"
)

var (
	simulationFile  = flag.StringP("simulation-file", "f", "./simulation_plan.json", "file path to read simulation plan from")
	outputDirectory = flag.StringP("output-directory", "o", "./simulation_plan_logs", "directory path to output log files")
	verbose         = flag.BoolP("verbose", "v", false, "write logs, events, summary and charts to the output directory")
	diagnostics     = flag.Bool("diagnostics", false, "serve pprof and prometheus metrics on startup")
	diagnosticsPort = flag.Int("diagnostics-port", 6060, "port to serve diagnostics on")
)

func main() {
	// ----- collect run parameters
	flag.Parse()

	procLog := log.New(log.Writer(), "[simulator-startup] ", log.LstdFlags)

	if err := runSimulation(procLog); err != nil {
		procLog.Printf("simulation failed: %s", err)
		os.Exit(1)
	}
}

func runSimulation(procLog *log.Logger) error {
	// ----- start diagnostics if configured
	server := run.Diagnostics(run.DiagnosticsConfig{
		Enabled: *diagnostics,
		Port:    *diagnosticsPort,
		Wait:    5 * time.Second,
	}, procLog)

	// ----- read simulation file
	procLog.Println("loading simulation plan ...")

	plan, err := run.LoadSimulationPlan(*simulationFile)
	if err != nil {
		return fmt.Errorf("failed to load simulation plan: %w", err)
	}

	// ----- setup simulation output directory and file handles
	outputs, err := run.SetupOutput(*outputDirectory, *verbose, plan)
	if err != nil {
		return fmt.Errorf("failed to setup output directory: %w", err)
	}

	defer outputs.Close()

	procLog.Printf("generating %d simulated accounts ...", plan.Accounts)

	accounts, err := config.NewAccounts(plan.Accounts, rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate accounts: %w", err)
	}

	runner, err := simulate.NewRunner(plan, accounts, outputs.SimulationLog)
	if err != nil {
		return fmt.Errorf("failed to build simulation: %w", err)
	}

	_, chEvents := runner.Registry().Subscribe()
	go outputs.EventCollector.Run(chEvents)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	procLog.Printf("running %d steps ...", plan.Clock.Duration)

	result, runErr := runner.Run(ctx, outputs.FundsCollector)

	_ = runner.Registry().Close()
	outputs.EventCollector.Wait()

	if server != nil {
		_ = server.Shutdown(context.Background())
	}

	if runErr != nil {
		return fmt.Errorf("simulation stopped: %w", runErr)
	}

	summary, err := outputs.WriteResults(result)
	if err != nil {
		return err
	}

	fmt.Println(summary)

	return nil
}
