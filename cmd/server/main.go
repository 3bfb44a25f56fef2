// Command server exposes a completed (or in-progress) run directory over
// HTTP: health, Prometheus metrics, and the read-only leaderboard built
// from matrix.json / per_caller.ndjson.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"callbench/internal/domain"
	"callbench/internal/observability"
)

type server struct {
	runsDir string
	logger  *log.Logger
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	runsDir := flag.String("runs-dir", "runs", "Base directory holding completed run subdirectories")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	s := &server{runsDir: *runsDir, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/runs/", s.handleRunIndex)
	mux.HandleFunc("/runs/{run}/matrix", s.handleMatrix)
	mux.HandleFunc("/runs/{run}/per-caller", s.handlePerCaller)
	mux.HandleFunc("/runs/{run}/manifest", s.handleManifest)

	httpServer := &http.Server{Addr: *addr, Handler: mux}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Printf("shutdown error: %v", err)
		}
	}()

	logger.Printf("serving runs from %s on %s", *runsDir, *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("http server error: %v", err)
	}
	logger.Println("shutdown complete")
}

// handleRunIndex lists run IDs discovered under runsDir.
func (s *server) handleRunIndex(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.runsDir)
	if err != nil {
		http.Error(w, fmt.Sprintf("list runs: %v", err), http.StatusInternalServerError)
		return
	}
	runs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			runs = append(runs, e.Name())
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

func (s *server) handleManifest(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run")
	data, err := os.ReadFile(filepath.Join(s.runsDir, runID, "manifest.json"))
	if err != nil {
		http.Error(w, fmt.Sprintf("read manifest: %v", err), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run")
	data, err := os.ReadFile(filepath.Join(s.runsDir, runID, "matrix.json"))
	if err != nil {
		http.Error(w, fmt.Sprintf("read matrix: %v", err), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *server) handlePerCaller(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run")
	f, err := os.Open(filepath.Join(s.runsDir, runID, "per_caller.ndjson"))
	if err != nil {
		http.Error(w, fmt.Sprintf("read per-caller aggregates: %v", err), http.StatusNotFound)
		return
	}
	defer f.Close()

	var rows []domain.PerCallerAggregate
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var row domain.PerCallerAggregate
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			continue
		}
		rows = append(rows, row)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}
