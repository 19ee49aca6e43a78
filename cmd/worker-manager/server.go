// cmd/worker-manager/server.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"engagement-letters/pkg/registry"
)

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type workerLister interface {
	Running() []string
}

func newServer(addr string, broker healthChecker, workers workerLister) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           newMux(broker, workers),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newMux(broker healthChecker, workers workerLister) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		running := workers.Running()
		sort.Strings(running)
		body := map[string]interface{}{
			"status":  "ready",
			"workers": running,
			"time":    time.Now().Format(time.RFC3339),
		}
		if err := broker.HealthCheck(r.Context()); err != nil {
			body["status"] = "not ready"
			body["error"] = err.Error()
			writeStatus(w, http.StatusServiceUnavailable, body)
			return
		}
		writeStatus(w, http.StatusOK, body)
	})
	mux.HandleFunc("/activities", func(w http.ResponseWriter, r *http.Request) {
		catalog := registry.Default()
		running := make(map[string]bool)
		for _, t := range workers.Running() {
			running[t] = true
		}
		activities := make([]registry.Activity, 0, len(running))
		for _, a := range catalog.Activities {
			if running[a.TaskType] {
				activities = append(activities, a)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(registry.ActivityRegistry{
			Version:     catalog.Version,
			LastUpdated: catalog.LastUpdated,
			Activities:  activities,
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
