package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/postgres"
	pgmigrations "classroom-quiz-service/internal/infra/postgres/migrations"
	infraredis "classroom-quiz-service/internal/infra/redis"
	"classroom-quiz-service/internal/seed"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"golang.org/x/sync/errgroup"
)

func TestAttemptLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateDB(t, ctx, db)

	seeder := postgres.NewSeeder(db)
	ds, err := seeder.Seed(ctx, seed.Demo("namfzt"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ds.Assignment.JoinCode != "NAMFZT" {
		t.Fatalf("expected normalized join code, got %q", ds.Assignment.JoinCode)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()
	feed := infraredis.NewFeed(redisClient, 64)

	identity := app.NewIdentityResolver(store, store)
	registrar := app.NewAttemptRegistrar(store, store, store, feed)
	snapshots := app.NewSnapshotAssembler(store, store, store)
	ledger := app.NewLedger(store)

	student, err := identity.Resolve(ctx, " namfzt ", "123")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if student.FirstName != "Ayşe" || student.LastName != "Yılmaz" {
		t.Fatalf("unexpected student %+v", student)
	}
	if _, err := identity.Resolve(ctx, "NAMFZT", "999"); !errors.Is(err, domain.ErrStudentNotFound) {
		t.Fatalf("expected student not found, got %v", err)
	}
	if _, err := identity.Resolve(ctx, "ZZZZZZ", "123"); !errors.Is(err, domain.ErrAssignmentNotFound) {
		t.Fatalf("expected assignment not found, got %v", err)
	}

	events, cancel, err := feed.Subscribe(ctx, ds.Assignment.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	const n = 20
	var (
		mu      sync.Mutex
		ids     = map[string]struct{}{}
		created int
	)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			res, err := registrar.Start(ctx, "NAMFZT", student.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			ids[res.AttemptID] = struct{}{}
			if !res.Resumed {
				created++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent start: %v", err)
	}
	if len(ids) != 1 || created != 1 {
		t.Fatalf("expected one attempt created once, got ids=%v created=%d", ids, created)
	}
	var rows int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM attempts WHERE assignment_id=$1 AND student_id=$2`, ds.Assignment.ID, student.ID).Scan(&rows); err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 attempt row, got %d", rows)
	}

	select {
	case ev := <-events:
		if ev.AssignmentID != ds.Assignment.ID || ev.StudentID != student.ID {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no attempt event received")
	}

	var attemptID string
	for id := range ids {
		attemptID = id
	}
	snap, err := snapshots.Snapshot(ctx, attemptID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Assignment.Quiz.Questions) != 3 || snap.Assignment.Quiz.Questions[0].Question.Text != "Kuvvetin birimi nedir?" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if _, err := ledger.Advance(ctx, attemptID, domain.AttemptInProgress, 0); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := store.UpdateAttemptLedger(ctx, attemptID, domain.AttemptCreated, domain.AttemptCompleted, 1); !errors.Is(err, domain.ErrStaleLedger) {
		t.Fatalf("expected stale ledger, got %v", err)
	}
	resumed, err := registrar.Start(ctx, "NAMFZT", student.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !resumed.Resumed || resumed.Status != domain.AttemptInProgress {
		t.Fatalf("expected resumed in_progress attempt, got %+v", resumed)
	}
}

func TestSnapshotOrderFromPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateDB(t, ctx, db)

	ds := seed.Demo("")
	ds.Quiz.Questions = []domain.QuizQuestion{
		{Order: 40, Question: question("last")},
		{Order: 3, Question: question("first")},
		{Order: 17, Question: question("middle")},
	}
	ds, err := postgres.NewSeeder(db).Seed(ctx, ds)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !domain.IsCanonicalJoinCode(ds.Assignment.JoinCode) {
		t.Fatalf("expected generated join code, got %q", ds.Assignment.JoinCode)
	}

	if _, err := postgres.NewSeeder(db).Seed(ctx, seed.Demo(strings.ToLower(ds.Assignment.JoinCode))); !errors.Is(err, postgres.ErrJoinCodeTaken) {
		t.Fatalf("expected taken join code to be rejected, got %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	res, err := app.NewAttemptRegistrar(store, store, store, nil).Start(ctx, strings.ToLower(ds.Assignment.JoinCode), ds.Students[1].ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	snap, err := app.NewSnapshotAssembler(store, store, store).Snapshot(ctx, res.AttemptID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	var texts []string
	for _, qq := range snap.Assignment.Quiz.Questions {
		texts = append(texts, qq.Question.Text)
	}
	if strings.Join(texts, ",") != "first,middle,last" {
		t.Fatalf("unexpected order %v", texts)
	}
}

func question(text string) domain.Question {
	return domain.Question{ID: uuid.NewString(), Text: text, A: "a", B: "b", C: "c", D: "d", Correct: domain.ChoiceA, TimeLimitSec: 10}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func migrateDB(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
