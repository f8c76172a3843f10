package cmd

import (
	"bytes"
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportInterrupt(t *testing.T) {
	var buf bytes.Buffer
	report := reportInterrupt(&buf)

	report(syscall.SIGINT, nil)
	assert.Empty(t, buf.String())

	report(syscall.SIGTERM, errors.New("logger: disk full"))
	assert.Contains(t, buf.String(), "cleanup after terminated failed: logger: disk full")
}
