package pgstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"parking-ledger/internal/parking"
	"parking-ledger/internal/storage"
)

func TestStore_SaveLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container test skipped in -short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "parking_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/parking_test?sslmode=disable"
	st, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.Load(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)

	l, err := parking.NewLedger(parking.Config{Capacities: map[parking.VehicleClass]int{parking.Truck: 2}})
	require.NoError(t, err)
	_, err = l.Park("TN09ZZ0001", parking.Truck)
	require.NoError(t, err)

	require.NoError(t, st.Save(ctx, l.Snapshot()))
	require.NoError(t, st.Save(ctx, l.Snapshot()))

	snap, err := st.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, l.Snapshot(), snap)

	var rows int
	require.NoError(t, st.db.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_snapshot`).Scan(&rows))
	require.Equal(t, 1, rows)
}
