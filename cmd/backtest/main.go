// Command backtest runs a single call through a single scenario (one
// interval, zero lag, one policy) and prints its path metrics and
// execution result. It is the quick single-call complement to cmd/sweep's
// full matrix driver.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callbench/internal/candlestore"
	chstore "callbench/internal/candlestore/clickhouse"
	"callbench/internal/candlestore/memory"
	pgstore "callbench/internal/candlestore/postgres"
	"callbench/internal/domain"
	"callbench/internal/executor"
	"callbench/internal/pathmetrics"
	"callbench/internal/planner"
	"callbench/internal/slice"
)

func main() {
	callID := flag.String("call-id", "", "Call ID (required)")
	mint := flag.String("mint", "", "Token mint address (required)")
	chain := flag.String("chain", "solana", "Chain name")
	caller := flag.String("caller", "unknown", "Caller display name")
	alertTsMs := flag.Int64("alert-ts-ms", 0, "Alert timestamp in epoch ms (required)")

	interval := flag.String("interval", "1m", "Candle interval label")
	intervalMs := flag.Int64("interval-ms", 60_000, "Candle interval width in ms")
	warmupBars := flag.Int("warmup-bars", 0, "Indicator warmup bars required before the alert")
	entryDelayBars := flag.Int("entry-delay-bars", 0, "Entry delay bars after the alert")
	maxHoldMs := flag.Int64("max-hold-ms", 3_600_000, "Maximum hold duration (ms)")

	policyKind := flag.String("policy", "", "Policy: fixed_stop, time_stop, trailing_stop (required)")
	stopPct := flag.Float64("stop-pct", 0.10, "Stop-loss fraction for fixed_stop/trailing_stop hard stop")
	takeProfitPct := flag.Float64("take-profit-pct", 0, "Take-profit fraction for fixed_stop/time_stop; 0 disables it")
	activationPct := flag.Float64("activation-pct", 0.20, "Activation fraction for trailing_stop")
	trailPct := flag.Float64("trail-pct", 0.10, "Trail fraction for trailing_stop")

	takerFeeBps := flag.Int("taker-fee-bps", domain.DefaultVenueTakerFeeBps, "Taker fee in bps, one side")
	slippageBps := flag.Int("slippage-bps", domain.DefaultVenueEntrySlippageBps, "Slippage in bps, one side")

	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory candle store (empty unless seeded by a test harness)")

	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *callID == "" {
		logger.Fatal("--call-id is required")
	}
	if *mint == "" {
		logger.Fatal("--mint is required")
	}
	if *alertTsMs <= 0 {
		logger.Fatal("--alert-ts-ms is required and must be positive")
	}
	if *policyKind == "" {
		logger.Fatal("--policy is required")
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

	store, closeStore, err := openStore(ctx, *useMemory, *postgresDSN, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("open candle store: %v", err)
	}
	defer closeStore()

	policy, err := buildPolicy(*policyKind, *stopPct, *takeProfitPct, *activationPct, *trailPct, *maxHoldMs)
	if err != nil {
		logger.Fatalf("build policy: %v", err)
	}

	feeConfig := domain.FeeConfig{Simple: &domain.SimpleFeeConfig{TakerFeeBps: *takerFeeBps, SlippageBps: *slippageBps}}

	call := domain.Call{
		ID: *callID, Caller: *caller, Mint: *mint, Chain: *chain,
		AlertTimeMs: *alertTsMs, CreatedAt: time.Now().UnixMilli(),
	}

	spec := domain.StrategySpec{
		IndicatorWarmupBars: *warmupBars,
		EntryDelayBars:      *entryDelayBars,
		Interval:            *interval,
		IntervalMs:          *intervalMs,
		MaxHoldMs:           *maxHoldMs,
	}

	windows := planner.Windows(spec, []domain.Call{call})
	eligible, excluded := planner.Gate(ctx, store, *interval, windows)
	if len(excluded) > 0 {
		logger.Fatalf("call excluded: %s", excluded[0].Reason)
	}

	sl, err := slice.Materialise(ctx, store, *interval, eligible)
	if err != nil {
		logger.Fatalf("materialise slice: %v", err)
	}
	candles, ok := sl.Load(call.ID)
	if !ok || len(candles) == 0 {
		logger.Fatal("no candles loaded for call")
	}

	pm := pathmetrics.Compute(candles, call.AlertTimeMs, domain.DefaultPathMetricsOptions())
	result, err := executor.Execute(candles, call.AlertTimeMs, policy, feeConfig)
	if err != nil {
		logger.Fatalf("execute: %v", err)
	}

	if *outputJSON {
		out, _ := json.MarshalIndent(struct {
			PathMetrics domain.PathMetrics     `json:"pathMetrics"`
			Result      domain.ExecutionResult `json:"result"`
		}{pm, result}, "", "  ")
		fmt.Println(string(out))
		return
	}
	printResult(call, pm, result)
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

// buildPolicy covers the three policy kinds exposed as flags; ladder,
// combo, and wash_rebound are sweep-config-only (cmd/sweep), since their
// shapes don't reduce to a handful of scalar flags.
func buildPolicy(kind string, stopPct, takeProfitPct, activationPct, trailPct float64, maxHoldMs int64) (domain.Policy, error) {
	var tp *float64
	if takeProfitPct > 0 {
		tp = &takeProfitPct
	}

	switch domain.PolicyKind(kind) {
	case domain.PolicyFixedStop:
		return domain.Policy{Kind: domain.PolicyFixedStop, FixedStop: &domain.FixedStopParams{
			StopPct: stopPct, TakeProfitPct: tp,
		}}, nil
	case domain.PolicyTimeStop:
		return domain.Policy{Kind: domain.PolicyTimeStop, TimeStop: &domain.TimeStopParams{
			MaxHoldMs: maxHoldMs, TakeProfitPct: tp,
		}}, nil
	case domain.PolicyTrailingStop:
		var hard *float64
		if stopPct > 0 {
			hard = &stopPct
		}
		return domain.Policy{Kind: domain.PolicyTrailingStop, TrailingStop: &domain.TrailingStopParams{
			ActivationPct: activationPct, TrailPct: trailPct, HardStopPct: hard,
		}}, nil
	default:
		return domain.Policy{}, fmt.Errorf("unsupported policy %q: must be fixed_stop, time_stop, or trailing_stop", kind)
	}
}

func printResult(call domain.Call, pm domain.PathMetrics, result domain.ExecutionResult) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Call ID:            %s\n", call.ID)
	fmt.Printf("Mint:               %s\n", call.Mint)
	fmt.Printf("Caller:             %s\n", call.Caller)
	fmt.Println()

	fmt.Println("Path metrics:")
	fmt.Printf("  Alert time:       %s\n", time.UnixMilli(pm.T0Ms).Format(time.RFC3339))
	fmt.Printf("  P0:               %.8f\n", pm.P0)
	if pm.PeakMultiple != nil {
		fmt.Printf("  Peak multiple:    %.2fx\n", *pm.PeakMultiple)
	}
	fmt.Printf("  Drawdown (bps):   %.2f\n", pm.DDBps)
	fmt.Printf("  Hit 2x/3x/4x:     %v / %v / %v\n", pm.Hit2x, pm.Hit3x, pm.Hit4x)
	fmt.Println()

	fmt.Println("Execution:")
	fmt.Printf("  Entry:            %s @ %.8f\n", time.UnixMilli(result.EntryTsMs).Format(time.RFC3339), result.EntryPx)
	fmt.Printf("  Exit:             %s @ %.8f (%s)\n", time.UnixMilli(result.ExitTsMs).Format(time.RFC3339), result.ExitPx, result.ExitReason)
	fmt.Printf("  Time exposed:     %v\n", time.Duration(result.TimeExposedMs)*time.Millisecond)
	fmt.Printf("  Gross return:     %.2f bps\n", result.GrossReturnBps)
	fmt.Printf("  Net return:       %.2f bps\n", result.RealizedReturnBps)
	fmt.Printf("  Stop out:         %v\n", result.StopOut)
	if result.TailCapture != nil {
		fmt.Printf("  Tail capture:     %.2f%%\n", *result.TailCapture*100)
	}
}
