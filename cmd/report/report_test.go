package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/wintracker/internal/datastore"
	"github.com/courtside/wintracker/internal/tracker"
)

func TestRenderEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, tracker.Summarize(nil)))
	assert.Equal(t, tracker.EmptyMessage+"\n", buf.String())
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	report := tracker.Summarize([]datastore.Game{
		{ID: 2, Date: "2024-01-12", Opponent: "Celtics", Score: "90-99", Result: datastore.ResultLoss, Notes: "Rough night"},
		{ID: 1, Date: "2024-01-10", Opponent: "Lakers", Score: "85-82", Result: datastore.ResultWin},
	})

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, report))
	out := buf.String()

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Celtics")
	assert.Contains(t, lines[1], "Rough night")
	assert.Contains(t, lines[2], "Lakers")

	assert.Contains(t, out, "Total Games: 2")
	assert.Contains(t, out, "Wins: 1")
	assert.Contains(t, out, "Win Percentage: 50.0%")
}
