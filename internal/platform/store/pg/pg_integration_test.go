//go:build integration_pg
// +build integration_pg

package pg

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres boots a throwaway postgres; first image pull can be slow
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func TestOpen_UpsertRoundTrip_Integration(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	p := openTestDB(t, dsn, func(pc *pgxpool.Config) { pc.MinConns = 1 })

	if _, err := p.Pool.Exec(ctx, `create table items (id bigint primary key, name text)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	const upsert = `insert into items (id, name) values ($1, $2)
		on conflict (id) do update set name = excluded.name
		where items.name is distinct from excluded.name`

	for i, want := range []int64{1, 0, 1} {
		name := "alpha"
		if i == 2 {
			name = "beta"
		}
		tag, err := p.Pool.Exec(ctx, upsert, 1, name)
		if err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
		if tag.RowsAffected() != want {
			t.Fatalf("upsert %d affected %d, want %d", i, tag.RowsAffected(), want)
		}
	}

	var appName string
	if err := p.Pool.QueryRow(ctx, `select current_setting('application_name')`).Scan(&appName); err != nil {
		t.Fatalf("application_name: %v", err)
	}
	if appName != "apiloader-pg-integration" {
		t.Fatalf("application_name = %q", appName)
	}
}

// openTestDB opens a client named for this suite and closes it on cleanup
func openTestDB(t *testing.T, dsn string, poolMut func(*pgxpool.Config)) *PG {
	t.Helper()
	p, err := Open(context.Background(), Config{URL: dsn, AppName: "apiloader-pg-integration"}, poolMut)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Close)
	return p
}
