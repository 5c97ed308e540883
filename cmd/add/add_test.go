package add

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/wintracker/internal/conf"
	"github.com/courtside/wintracker/internal/datastore"
	"github.com/courtside/wintracker/internal/testutil"
	"github.com/courtside/wintracker/internal/tracker"
)

func run(t *testing.T, settings *conf.Settings, args ...string) (string, error) {
	t.Helper()
	cmd := Command(settings)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestAddStoresGame(t *testing.T) {
	t.Parallel()

	settings := testutil.SQLiteSettings(t)
	out, err := run(t, settings, "--date", "2024-01-10", "--opponent", "Lakers", "--score", "85-82")
	require.NoError(t, err)
	assert.Contains(t, out, tracker.SuccessMessage)

	store, err := datastore.Connect(settings, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	games, err := store.GetAllGames(t.Context())
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Lakers", games[0].Opponent)
	assert.Equal(t, datastore.ResultWin, games[0].Result, "result defaults to Win")
}

func TestAddRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing opponent", []string{"--score", "85-82"}, tracker.MissingFieldsMessage},
		{"missing score", []string{"--opponent", "Lakers"}, tracker.MissingFieldsMessage},
		{"bad result", []string{"--opponent", "Lakers", "--score", "1-0", "--result", "Tie"}, "Result must be Win or Loss."},
		{"bad date", []string{"--opponent", "Lakers", "--score", "1-0", "--date", "yesterday"}, "YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := run(t, testutil.SQLiteSettings(t), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
