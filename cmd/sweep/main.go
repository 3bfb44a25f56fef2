// Command sweep drives the full scenario matrix (C6-C10): it loads a
// call dataset and a sweep configuration, runs the planner/slice/run-loop
// pipeline once per (interval, lag, overlay-set) scenario against a run
// directory, and writes the aggregated leaderboard.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"callbench/internal/artifact"
	"callbench/internal/candlestore"
	chstore "callbench/internal/candlestore/clickhouse"
	"callbench/internal/candlestore/memory"
	pgstore "callbench/internal/candlestore/postgres"
	"callbench/internal/domain"
	"callbench/internal/idhash"
	"callbench/internal/sweep"
)

func main() {
	callsPath := flag.String("calls", "", "Path to calls JSON file (required)")
	configPath := flag.String("config", "", "Path to sweep config JSON file (required)")
	runDir := flag.String("run-dir", "runs", "Base directory for run output")
	workers := flag.Int("workers", 0, "Override config.workers; 0 keeps the config value")

	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory candle store")

	flag.Parse()

	logger := log.New(os.Stderr, "[sweep] ", log.LstdFlags)

	if *callsPath == "" {
		logger.Fatal("--calls is required")
	}
	if *configPath == "" {
		logger.Fatal("--config is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	calls, err := loadCalls(*callsPath)
	if err != nil {
		logger.Fatalf("load calls: %v", err)
	}
	if len(calls) == 0 {
		logger.Fatal("calls file contains no calls")
	}

	cfg, rawConfig, err := loadSweepConfig(*configPath)
	if err != nil {
		logger.Fatalf("load sweep config: %v", err)
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	store, closeStore, err := openStore(ctx, *useMemory, *postgresDSN, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("open candle store: %v", err)
	}
	defer closeStore()

	dataset := datasetBounds(cfg, calls)
	runID := idhash.RunID(configFingerprint(rawConfig, *callsPath), dataset.Interval, isoToMs(dataset.FromISO), isoToMs(dataset.ToISO))

	writer, err := artifact.Open(*runDir, runID, dataset)
	if err != nil {
		logger.Fatalf("open run directory: %v", err)
	}

	logger.Printf("starting sweep run %s: %d calls, %d intervals, %d lags, %d overlay sets",
		runID, len(calls), len(cfg.Intervals), len(cfg.LagsMs), len(cfg.OverlaySets))

	start := time.Now()
	runErr := sweep.Run(ctx, runID, store, calls, cfg, writer)

	status := domain.RunStatusOK
	failMsg := ""
	if runErr != nil {
		status = domain.RunStatusFailed
		failMsg = runErr.Error()
	}
	timing := domain.Timing{TotalMs: time.Since(start).Milliseconds()}
	if err := writer.Finish(status, timing, failMsg); err != nil {
		logger.Fatalf("finish run directory: %v", err)
	}

	if runErr != nil {
		logger.Fatalf("sweep failed: %v", runErr)
	}
	logger.Printf("sweep run %s completed in %v: see %s", runID, time.Since(start), writer.Dir())
}

func openStore(ctx context.Context, useMemory bool, postgresDSN, clickhouseDSN string) (candlestore.Store, func(), error) {
	if useMemory {
		return memory.New(), func() {}, nil
	}
	if postgresDSN == "" {
		return nil, nil, fmt.Errorf("--postgres-dsn is required when not using --use-memory")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		return chstore.New(conn), func() { conn.Close(); pool.Close() }, nil
	}
	return pgstore.New(pool), func() { pool.Close() }, nil
}

// datasetBounds summarises the manifest's dataset section from the call
// set and strategy spec, without reading a single candle.
func datasetBounds(cfg sweep.Config, calls []domain.Call) domain.DatasetBounds {
	minMs, maxMs := calls[0].AlertTimeMs, calls[0].AlertTimeMs
	for _, c := range calls {
		if c.AlertTimeMs < minMs {
			minMs = c.AlertTimeMs
		}
		if c.AlertTimeMs > maxMs {
			maxMs = c.AlertTimeMs
		}
	}
	maxMs += cfg.StrategySpec.MaxHoldMs

	intervals := make([]string, len(cfg.Intervals))
	copy(intervals, cfg.Intervals)
	sort.Strings(intervals)

	label := ""
	for i, iv := range intervals {
		if i > 0 {
			label += ","
		}
		label += iv
	}

	return domain.DatasetBounds{
		FromISO:    time.UnixMilli(minMs).UTC().Format(time.RFC3339),
		ToISO:      time.UnixMilli(maxMs).UTC().Format(time.RFC3339),
		Interval:   label,
		CallsCount: len(calls),
	}
}

func isoToMs(iso string) int64 {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

// configFingerprint hashes the sweep config bytes together with the
// calls file path, so an unchanged config/dataset pair resolves to the
// same run ID and resumes rather than starting a fresh run directory.
func configFingerprint(rawConfig []byte, callsPath string) string {
	sum := sha256.Sum256(append(rawConfig, []byte(callsPath)...))
	return hex.EncodeToString(sum[:])
}
