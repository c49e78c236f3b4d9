package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joripage/lob-engine/config"
	"github.com/joripage/lob-engine/pkg/audit"
	redis_wrapper "github.com/joripage/lob-engine/pkg/infra/redis"
	"github.com/joripage/lob-engine/pkg/ingest"
	"github.com/joripage/lob-engine/pkg/logging"
	"github.com/joripage/lob-engine/pkg/orderbook"
	"github.com/joripage/lob-engine/pkg/report"
	"github.com/joripage/lob-engine/pkg/riskrule"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type options struct {
	configFile  string
	input       string
	audit       bool
	workers     int
	mode        string
	printDepth  bool
	printTrades bool
	printMatch  bool
	top         int
	trades      int
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&opts.input, "input", "", "CSV file with order flow (default market_data.csv)")
	flag.BoolVar(&opts.audit, "log", false, "Write the audit trail")
	flag.IntVar(&opts.workers, "workers", 0, "Number of matching workers, 0 means one per CPU")
	flag.StringVar(&opts.mode, "mode", "", "Matching mode: batch or incremental")
	flag.BoolVar(&opts.printDepth, "print-depth", false, "Print order book depth after the run")
	flag.BoolVar(&opts.printTrades, "print-trades", false, "Print trade executions after the run")
	flag.BoolVar(&opts.printMatch, "print-matched", false, "Print matched orders after the run")
	flag.IntVar(&opts.top, "top", 5, "Depth levels per side")
	flag.IntVar(&opts.trades, "trades", 50, "Maximum trades to print, 0 for all")
	flag.Parse()

	if err := run(opts); err != nil {
		zap.S().Errorf("engine run failed: %v", err)
		_ = zap.L().Sync()
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	applyFlags(cfg, opts)

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(level)
	defer logger.Sync()
	undo := zap.ReplaceGlobals(logger.Zap())
	defer undo()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logging.WithRunID(ctx, logging.NewRunID())

	mode, err := orderbook.ParseMode(cfg.Engine.Mode)
	if err != nil {
		return err
	}
	tick := decimal.Zero
	if cfg.Engine.TickSize != "" {
		if tick, err = decimal.NewFromString(cfg.Engine.TickSize); err != nil {
			return fmt.Errorf("%w: %v", orderbook.ErrInvalidTickSize, err)
		}
	}

	rules, err := riskrule.FromConfig(cfg.Engine.Risk)
	if err != nil {
		return err
	}

	sink, err := buildSink(ctx, cfg.Audit)
	if err != nil {
		return err
	}
	auditLog := audit.New(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		BatchSize:  cfg.Audit.BatchSize,
	}, sink, logger)
	auditLog.Start(ctx)
	defer func() {
		if err := auditLog.Close(); err != nil {
			logger.Warn(ctx, "close audit sink", zap.Error(err))
		}
		if dropped := auditLog.Dropped(); dropped > 0 && cfg.Audit.Enabled {
			logger.Warn(ctx, "audit lines dropped", zap.Int64("dropped", dropped))
		}
	}()

	engine, err := orderbook.NewMatchingEngine(ctx, orderbook.EngineConfig{
		Workers:  cfg.Engine.Workers,
		Mode:     mode,
		TickSize: tick,
		MaxBatch: cfg.Engine.MaxBatch,
		Rules:    rules,
	}, logger, auditLog)
	if err != nil {
		return err
	}

	orders, err := ingest.ReadOrdersFromFile(cfg.Input.Path, ingest.Options{DefaultQty: cfg.Input.DefaultQty})
	if err != nil {
		return err
	}
	logger.Info(ctx, "orders loaded", zap.String("path", cfg.Input.Path), zap.Int("orders", len(orders)))

	engine.Start()
	rejected := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			break
		}
		if err := engine.AddOrder(order); err != nil {
			rejected++
		}
	}
	engine.Stop()
	// anything still crossing after the workers exited is settled here
	if residual := engine.MatchAll(); residual > 0 {
		logger.Debug(ctx, "residual matches", zap.Int("trades", residual))
	}
	if rejected > 0 {
		logger.Info(ctx, "orders rejected", zap.Int("rejected", rejected))
	}

	out := os.Stdout
	report.PrintSummary(out, engine.Stats())
	if opts.printDepth {
		report.PrintDepth(out, engine.Depth(opts.top))
	}
	if opts.printTrades {
		report.PrintTrades(out, engine.Trades(), opts.trades)
	}
	if opts.printMatch {
		report.PrintMatched(out, engine.MatchedOrders())
	}
	return nil
}

func applyFlags(cfg *config.AppConfig, opts options) {
	if opts.input != "" {
		cfg.Input.Path = opts.input
	}
	if opts.audit {
		cfg.Audit.Enabled = true
	}
	if opts.workers > 0 {
		cfg.Engine.Workers = opts.workers
	}
	if opts.mode != "" {
		cfg.Engine.Mode = opts.mode
	}
}

// buildSink wires every configured audit destination. Returns nil when the
// audit trail is disabled.
func buildSink(ctx context.Context, cfg config.AuditConfig) (audit.Sink, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	var sinks audit.MultiSink
	if cfg.FilePath != "" {
		fileSink, err := audit.NewFileSink(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("open audit file: %w", err)
		}
		sinks = append(sinks, fileSink)
	}
	if cfg.Kafka != nil && len(cfg.Kafka.Brokers) > 0 {
		sinks = append(sinks, audit.NewKafkaSink(*cfg.Kafka, "engine"))
	}
	if cfg.Redis != nil && cfg.Redis.ConnectionURL != "" {
		client, err := redis_wrapper.InitRedisWithBackoff(ctx, cfg.Redis)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, audit.NewRedisSink(client, cfg.RedisStream, cfg.RedisMaxLen))
	}
	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}
