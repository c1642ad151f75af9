package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/udisondev/bossengine/internal/arena"
	"github.com/udisondev/bossengine/internal/boss"
	"github.com/udisondev/bossengine/internal/encounter"
	"github.com/udisondev/bossengine/internal/replication"
)

type statusResponse struct {
	encounter.Status
	Arena    arena.Stats `json:"arena"`
	Resyncs  int64       `json:"resyncs"`
	Deferred int64       `json:"deferred"`
	Replicas int         `json:"replicas"`
}

func newMux(hub *replication.Hub, enc *encounter.Encounter, pub *replication.Publisher, world *arena.Arena) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /sync", hub)

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		sent, deferred := pub.Stats()
		writeJSON(w, http.StatusOK, statusResponse{
			Status:   enc.Status(),
			Arena:    world.Stats(),
			Resyncs:  sent,
			Deferred: deferred,
			Replicas: hub.Count(),
		})
	})

	mux.HandleFunc("POST /teleport", func(w http.ResponseWriter, r *http.Request) {
		command(w, enc, func(a *boss.Actor) { a.RequestTeleport() })
	})

	mux.HandleFunc("POST /forcepop", func(w http.ResponseWriter, r *http.Request) {
		command(w, enc, func(a *boss.Actor) { a.ForcePop() })
	})

	mux.HandleFunc("POST /damage", func(w http.ResponseWriter, r *http.Request) {
		amount, err := strconv.Atoi(r.URL.Query().Get("amount"))
		if err != nil || amount <= 0 {
			http.Error(w, "amount must be a positive integer", http.StatusBadRequest)
			return
		}
		command(w, enc, func(a *boss.Actor) {
			a.SetHealth(a.Context().Health - amount)
		})
	})

	return mux
}

func command(w http.ResponseWriter, enc *encounter.Encounter, fn func(*boss.Actor)) {
	err := enc.Do(fn)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, encounter.ErrBusy):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	default:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "err", err)
	}
}
