package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryWithoutDatabase(t *testing.T) {
	newTestDir(t)

	stdout, _, err := execute(t, nil, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No history recorded")
}

func TestHistoryShowsRecordedSession(t *testing.T) {
	newTestDir(t)

	_, _, err := execute(t, nil, "--history", "demo", "--step", "0")
	require.NoError(t, err)
	_, _, err = execute(t, nil, "--history", "--exit-message", "second run", "demo", "--step", "0")
	require.NoError(t, err)

	stdout, _, err := execute(t, nil, "history", "--sessions")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(stdout), 2)

	stdout, _, err = execute(t, nil, "history", "--limit", "0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "outlog demo")
	assert.Contains(t, stdout, "second run")
	assert.Equal(t, 1, strings.Count(stdout, "outlog demo"), "expected only the latest session")

	stdout, _, err = execute(t, nil, "history", "--all", "--limit", "0")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(stdout, "outlog demo"))

	stdout, _, err = execute(t, nil, "history", "--limit", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "second run")
}
