package gtfsdb

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cif2gtfs.openrail.dev/internal/appconf"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(NewConfig(":memory:", appconf.Test), discardLogger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() }) // nolint:errcheck
	return client
}

func TestInitDBCreatesTables(t *testing.T) {
	client := testClient(t)

	for _, table := range []string{"agencies", "calendar", "calendar_dates", "routes", "trips", "stop_times"} {
		var name string
		err := client.DB.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestInitDBTestEnvRequiresMemory(t *testing.T) {
	_, err := InitDB(NewConfig("/tmp/not-in-memory.db", appconf.Test))
	assert.Error(t, err)
}
