package telemetry

import (
	"io"
)

type Collector interface {
	Type() CollectorType
	Close() error
}

type CollectorType int

const (
	RegistryEventType CollectorType = iota
	TaskFundsType
)

type baseCollector struct {
	t  CollectorType
	io []io.WriteCloser
}

func (c *baseCollector) Type() CollectorType {
	return c.t
}

func (c *baseCollector) Close() error {
	for _, w := range c.io {
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}

type writeCloseDiscard struct{}

func (writeCloseDiscard) Write(p []byte) (int, error) {
	return len(p), nil
}

func (writeCloseDiscard) Close() error {
	return nil
}
