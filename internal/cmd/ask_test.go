package cmd

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskPrintsAnswer(t *testing.T) {
	newTestDir(t)

	stdout, stderr, err := execute(t, strings.NewReader("Bob\n"), "ask", "Name?")
	require.NoError(t, err)

	assert.Equal(t, "Bob\n", stdout)
	assert.Contains(t, stderr, "Name? ")
}

func TestAskWithoutInputExitsWithStatus2(t *testing.T) {
	dir := newTestDir(t)

	stdout, stderr, err := execute(t, strings.NewReader(""), "ask", "Name?")
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))

	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "no answer received")
	assert.Contains(t, readFile(t, filepath.Join(dir, "output.txt")), "[WARN | ask]")
}

func TestAskTimeout(t *testing.T) {
	newTestDir(t)
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	_, _, err := execute(t, r, "ask", "--timeout", "20ms", "Still there?")
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
}
