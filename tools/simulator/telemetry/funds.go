package telemetry

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/jedib0t/go-pretty/v6/table"

	regtypes "github.com/smartcontractkit/automation-registry/pkg/types"
	"github.com/smartcontractkit/automation-registry/pkg/units"
)

// TaskFundsCollector samples the escrow of every task once per simulated step
// and renders the result as a chart and a summary table.
type TaskFundsCollector struct {
	baseCollector

	mu     sync.RWMutex
	labels []string
	series map[uint64][]opts.LineData
	last   []regtypes.Task
}

func NewTaskFundsCollector() *TaskFundsCollector {
	return &TaskFundsCollector{
		baseCollector: baseCollector{
			t:  TaskFundsType,
			io: []io.WriteCloser{},
		},
		labels: []string{},
		series: make(map[uint64][]opts.LineData),
	}
}

func (c *TaskFundsCollector) ObserveStep(step int, at time.Time, tasks []regtypes.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.labels = append(c.labels, at.UTC().Format("15:04:05"))

	for _, task := range tasks {
		points, ok := c.series[task.ID]
		if !ok {
			// pad steps before the task existed
			points = make([]opts.LineData, step)
			for i := range points {
				points[i] = opts.LineData{Value: nil}
			}
		}

		ether, _ := units.ToEther(task.Funds).Float64()
		c.series[task.ID] = append(points, opts.LineData{Value: ether})
	}

	c.last = tasks
}

// Steps returns the number of observed steps.
func (c *TaskFundsCollector) Steps() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.labels)
}

// FundsChart renders a line per task of its escrow in ether over time.
func (c *TaskFundsCollector) FundsChart(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Task Escrow",
			Subtitle: fmt.Sprintf("%d tasks over %d steps", len(c.series), len(c.labels)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ether", Type: "value"}),
		charts.WithToolboxOpts(opts.Toolbox{Show: true}),
		charts.WithLegendOpts(opts.Legend{Left: "center", Top: "top"}))

	line.SetXAxis(c.labels)

	for _, id := range c.taskIDs() {
		line.AddSeries(fmt.Sprintf("task %d", id), c.series[id])
	}

	page.AddCharts(line)

	return page.Render(w)
}

// PrintTabularResults renders the final state of every observed task.
func (c *TaskFundsCollector) PrintTabularResults() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tw := table.NewWriter()
	tw.SetTitle("Task Summary")
	tw.AppendHeader(table.Row{
		"ID",
		"Owner",
		"Target",
		"State",
		"Gas Limit",
		"Interval",
		"Executions",
		"Total Cost (ETH)",
		"Funds (ETH)",
		"Withdrawn (ETH)",
	})

	for _, task := range c.last {
		tw.AppendRow(table.Row{
			task.ID,
			shorten(task.Owner.Hex(), 10),
			shorten(task.TaskAddress.Hex(), 10),
			task.State.String(),
			task.GasLimit,
			task.Interval.String(),
			len(task.ExecList),
			units.FormatEther(task.TotalCostForExec),
			units.FormatEther(task.Funds),
			units.FormatEther(task.Withdrawn),
		})
	}

	return tw.Render()
}

func (c *TaskFundsCollector) taskIDs() []uint64 {
	ids := make([]uint64, 0, len(c.series))
	for id := range c.series {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

func shorten(full string, outLen int) string {
	if len(full) <= outLen {
		return full
	}

	return full[:outLen] + "..."
}
