package telemetry

import (
	"fmt"
	"io"
	"log"
)

const (
	ServiceName    = "automation-registry"
	LogPkgStdFlags = log.Lshortfile
)

func WrapLogger(logger *log.Logger, ns string) *log.Logger {
	if logger == nil {
		return log.New(io.Discard, "", 0)
	}

	return log.New(logger.Writer(), fmt.Sprintf("[%s | %s]", ServiceName, ns), LogPkgStdFlags)
}
