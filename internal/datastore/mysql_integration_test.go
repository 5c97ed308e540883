//go:build integration

package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/courtside/wintracker/internal/conf"
)

func TestMySQLStoreRoundTrip(t *testing.T) {
	ctx := t.Context()

	container, err := tcmysql.Run(ctx, "mysql:8.4",
		tcmysql.WithDatabase("wintracker"),
		tcmysql.WithUsername("coach"),
		tcmysql.WithPassword("whistle"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	settings := &conf.Settings{}
	settings.Output.MySQL = conf.MySQLSettings{
		Enabled:  true,
		Username: "coach",
		Password: "whistle",
		Database: "wintracker",
		Host:     host,
		Port:     port.Port(),
	}

	ds := New(settings, testLogger(), nil)
	require.IsType(t, &MySQLStore{}, ds)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { assert.NoError(t, ds.Close()) })

	// A second migration against the same schema is a no-op.
	require.NoError(t, ds.(*MySQLStore).performAutoMigration(ds.(*MySQLStore).DB, "MySQL"))

	require.NoError(t, ds.SaveGame(ctx, &Game{Date: "2024-01-10", Opponent: "Lakers", Score: "85-82", Result: ResultWin}))
	require.NoError(t, ds.SaveGame(ctx, &Game{Date: "2024-01-12", Opponent: "Bulls", Score: "70-75", Result: ResultLoss}))

	games, err := ds.GetAllGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Bulls", games[0].Opponent)
	assert.NoError(t, ds.Ping(ctx))
}
