package telemetry

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := WrapLogger(log.New(&buf, "", 0), "registry")
	logger.Print("task created")

	assert.Contains(t, buf.String(), "[automation-registry | registry]")
	assert.Contains(t, buf.String(), "log_test.go")
	assert.Contains(t, buf.String(), "task created")

	assert.NotPanics(t, func() {
		WrapLogger(nil, "registry").Print("discarded")
	})
}
