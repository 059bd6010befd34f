package pricecache_test

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/solescan/solescan/internal/pricecache"
	"github.com/solescan/solescan/internal/schema"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	testPool    *pgxpool.Pool
	pgContainer testcontainers.Container
	setupErr    error
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_USER": "postgres", "POSTGRES_DB": "solescan"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}
	pgContainer = container

	setupErr = initialiseDatabase(ctx)
	exitCode := 0
	if setupErr != nil {
		fmt.Fprintf(os.Stderr, "postgres cache tests skipped: %v\n", setupErr)
	} else {
		exitCode = m.Run()
	}

	if testPool != nil {
		testPool.Close()
	}
	if pgContainer != nil {
		_ = pgContainer.Terminate(ctx)
	}
	os.Exit(exitCode)
}

func initialiseDatabase(ctx context.Context) error {
	host, err := pgContainer.Host(ctx)
	if err != nil {
		return fmt.Errorf("container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return fmt.Errorf("container port: %w", err)
	}
	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/solescan?sslmode=disable", host, port.Port())

	if err := applyMigrations(dsn); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("pgx pool: %w", err)
	}
	testPool = pool
	return nil
}

func applyMigrations(dsn string) error {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return fmt.Errorf("runtime caller lookup failed")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
	migrationsDir := filepath.Join(root, "db", "migrations")
	sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(migrationsDir))

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open sql connection: %w", err)
	}
	defer sqlDB.Close()

	driver, err := pgxmigrate.WithInstance(sqlDB, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	migrator, err := migrate.NewWithDatabaseInstance(sourceURL, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer migrator.Close()
	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func skipWithoutDatabase(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("short mode: skipping postgres cache test")
	}
	if setupErr != nil || testPool == nil {
		t.Skipf("postgres unavailable: %v", setupErr)
	}
}

func pgIdentity(sku string) schema.SneakerIdentity {
	return schema.SneakerIdentity{
		Brand:       "Jordan",
		Model:       "Air Jordan 1 Retro High OG",
		Colorway:    "University Blue",
		SKU:         sku,
		DisplayName: "Air Jordan 1 Retro High OG University Blue",
	}
}

func pgRecord(sku string) schema.PriceRecord {
	return schema.PriceRecord{
		Identity: pgIdentity(sku),
		Quotes: []schema.PriceQuote{
			{
				Source:       "sneakerdb",
				Kind:         schema.KindRetail,
				Price:        schema.Money{Currency: "USD", Amount: decimal.NewFromInt(170)},
				Availability: schema.AvailabilityInStock,
				FetchedAt:    time.Now().UTC().Truncate(time.Second),
			},
		},
		ResolvedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	skipWithoutDatabase(t)
	ctx := context.Background()
	store := pricecache.NewPostgresStore(testPool)
	record := pgRecord("PGTEST-001")

	require.NoError(t, store.Put(ctx, record, time.Hour))

	got, err := store.Get(ctx, record.Identity)
	require.NoError(t, err)
	require.Len(t, got.Quotes, 1)
	require.Equal(t, "sneakerdb", got.Quotes[0].Source)
	require.True(t, got.Quotes[0].Price.Amount.Equal(decimal.NewFromInt(170)),
		"price did not survive the round trip: %s", got.Quotes[0].Price.Amount)
}

func TestPostgresStoreUpsertReplaces(t *testing.T) {
	skipWithoutDatabase(t)
	ctx := context.Background()
	store := pricecache.NewPostgresStore(testPool)
	record := pgRecord("PGTEST-002")

	require.NoError(t, store.Put(ctx, record, time.Hour))

	replacement := record
	replacement.Quotes = []schema.PriceQuote{
		{
			Source:       "resale-market",
			Kind:         schema.KindResale,
			Price:        schema.Money{Currency: "USD", Amount: decimal.NewFromInt(245)},
			Availability: schema.AvailabilityInStock,
		},
	}
	require.NoError(t, store.Put(ctx, replacement, time.Hour))

	got, err := store.Get(ctx, record.Identity)
	require.NoError(t, err)
	require.Len(t, got.Quotes, 1)
	require.Equal(t, "resale-market", got.Quotes[0].Source, "upsert should replace wholesale")
}

func TestPostgresStoreExpiredRowIsAMiss(t *testing.T) {
	skipWithoutDatabase(t)
	ctx := context.Background()
	store := pricecache.NewPostgresStore(testPool)
	record := pgRecord("PGTEST-003")

	require.NoError(t, store.Put(ctx, record, -time.Minute))

	_, err := store.Get(ctx, record.Identity)
	require.True(t, pricecache.IsMiss(err), "expired row should read as a miss, got %v", err)
}

func TestPostgresStoreInvalidate(t *testing.T) {
	skipWithoutDatabase(t)
	ctx := context.Background()
	store := pricecache.NewPostgresStore(testPool)
	record := pgRecord("PGTEST-004")

	require.NoError(t, store.Put(ctx, record, time.Hour))
	require.NoError(t, store.Invalidate(ctx, record.Identity))

	_, err := store.Get(ctx, record.Identity)
	require.True(t, pricecache.IsMiss(err), "invalidated row should read as a miss, got %v", err)
}

func TestPostgresStorePrune(t *testing.T) {
	skipWithoutDatabase(t)
	ctx := context.Background()
	store := pricecache.NewPostgresStore(testPool)

	expired := pgRecord("PGTEST-005")
	require.NoError(t, store.Put(ctx, expired, -time.Minute))
	live := pgRecord("PGTEST-006")
	require.NoError(t, store.Put(ctx, live, time.Hour))

	pruned, err := store.Prune(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, pruned, int64(1))

	_, err = store.Get(ctx, live.Identity)
	require.NoError(t, err, "live row should survive pruning")
}
