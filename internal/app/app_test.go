package app_test

import (
	"testing"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/infra/memory"
	"classroom-quiz-service/internal/seed"
)

type fixture struct {
	store     *memory.Store
	feed      *memory.Feed
	data      seed.Dataset
	identity  *app.IdentityResolver
	registrar *app.AttemptRegistrar
	snapshots *app.SnapshotAssembler
	ledger    *app.Ledger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	data := seed.Demo(seed.DemoJoinCode)
	if err := store.Load(data); err != nil {
		t.Fatalf("load demo data: %v", err)
	}
	feed := memory.NewFeed(16)
	return fixture{
		store:     store,
		feed:      feed,
		data:      data,
		identity:  app.NewIdentityResolver(store, store),
		registrar: app.NewAttemptRegistrar(store, store, store, feed),
		snapshots: app.NewSnapshotAssembler(store, store, store),
		ledger:    app.NewLedger(store),
	}
}
