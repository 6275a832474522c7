package telemetry

import (
	"io"
	"log"
	"sync"

	"github.com/goccy/go-json"

	"github.com/smartcontractkit/automation-registry/pkg/types"
)

// RegistryEventCollector writes every registry event it receives as a JSON
// line and keeps a count per event type.
type RegistryEventCollector struct {
	baseCollector

	// dependencies
	logger *log.Logger

	// internal state properties
	mu     sync.RWMutex
	writer io.Writer
	counts map[types.EventType]int
	total  int
	chDone chan struct{}
}

// NewRegistryEventCollector writes to out and takes ownership of it. A nil
// out only counts events.
func NewRegistryEventCollector(out io.WriteCloser, logger *log.Logger) *RegistryEventCollector {
	if out == nil {
		out = writeCloseDiscard{}
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &RegistryEventCollector{
		baseCollector: baseCollector{
			t:  RegistryEventType,
			io: []io.WriteCloser{out},
		},
		logger: log.New(logger.Writer(), "[registry-event-collector]", log.Ldate|log.Ltime|log.Lshortfile),
		writer: out,
		counts: make(map[types.EventType]int),
		chDone: make(chan struct{}),
	}
}

// Run consumes events until the channel is closed.
func (c *RegistryEventCollector) Run(chEvents <-chan types.Event) {
	defer close(c.chDone)

	for evt := range chEvents {
		if err := c.Collect(evt); err != nil {
			c.logger.Printf("failed to write event %d: %s", evt.Seq, err)
		}
	}
}

// Wait blocks until Run returns.
func (c *RegistryEventCollector) Wait() {
	<-c.chDone
}

func (c *RegistryEventCollector) Collect(evt types.Event) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[evt.Type]++
	c.total++

	_, err = c.writer.Write(append(b, '\n'))

	return err
}

func (c *RegistryEventCollector) Counts() map[types.EventType]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[types.EventType]int, len(c.counts))
	for key, value := range c.counts {
		out[key] = value
	}

	return out
}

func (c *RegistryEventCollector) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.total
}
