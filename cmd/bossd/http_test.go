package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/bossengine/internal/arena"
	"github.com/udisondev/bossengine/internal/boss"
	"github.com/udisondev/bossengine/internal/config"
	"github.com/udisondev/bossengine/internal/encounter"
	"github.com/udisondev/bossengine/internal/replication"
)

func newTestMux(t *testing.T) (*http.ServeMux, *encounter.Encounter) {
	t.Helper()
	world := arena.New(config.ArenaConfig{Players: 1, Radius: 100}, boss.Vec2{})
	actor, err := boss.NewActor(boss.Config{
		Name:      "Warden",
		Tunables:  boss.DefaultTunables(),
		World:     world,
		Effects:   world,
		MaxHealth: 1000,
	})
	require.NoError(t, err)

	hub := replication.NewHub(0, 0)
	t.Cleanup(hub.Close)
	pub := replication.NewPublisher(hub, 0, 1, nil)
	enc := encounter.New(actor, world, pub)
	return newMux(hub, enc, pub, world), enc
}

func do(mux http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestStatus(t *testing.T) {
	mux, enc := newTestMux(t)
	enc.Tick()

	rec := do(mux, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var got statusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Warden", got.Name)
	assert.Equal(t, "SpawnAnimation", got.State)
	assert.Equal(t, uint64(1), got.Tick)
	assert.Equal(t, 1000, got.MaxHealth)
	assert.Equal(t, int64(1), got.Arena.Players)
}

func TestDamage(t *testing.T) {
	mux, enc := newTestMux(t)

	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/damage?amount=x").Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/damage?amount=-3").Code)

	require.Equal(t, http.StatusAccepted, do(mux, http.MethodPost, "/damage?amount=250").Code)
	enc.Tick()
	assert.Equal(t, 750, enc.Status().Health)
}

func TestForcePopAndTeleport(t *testing.T) {
	mux, enc := newTestMux(t)

	require.Equal(t, http.StatusAccepted, do(mux, http.MethodPost, "/forcepop").Code)
	enc.Tick()
	assert.Equal(t, "ResetCycle", enc.Status().State)

	assert.Equal(t, http.StatusAccepted, do(mux, http.MethodPost, "/teleport").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(mux, http.MethodGet, "/teleport").Code)
}

func TestCommandAfterStop(t *testing.T) {
	mux, enc := newTestMux(t)
	enc.Stop()
	assert.Equal(t, http.StatusServiceUnavailable, do(mux, http.MethodPost, "/forcepop").Code)
}
