package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"mvagent/src/agent"
	"mvagent/src/assetstats"
	"mvagent/src/belief"
	"mvagent/src/config"
	"mvagent/src/database"
	"mvagent/src/datamodels"
	"mvagent/src/history"
	"mvagent/src/ledger"
	"mvagent/src/server"
	"mvagent/src/sim"
	"mvagent/src/version"
)

func main() {
	initializeLogging()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mvagentConfig, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	buildInfo := version.GetBuildInfo()
	slog.Info("Ramping up mvagent",
		"agent", mvagentConfig.AgentConfig.AgentID, "version", buildInfo["version"], "commit", buildInfo["commit"])

	// Database is optional: without one, history stays in memory and files.
	var db database.MvagentDatabase
	if mvagentConfig.HistoryConfig.DbWriter {
		db, err = database.NewDBConnection(mvagentConfig.DatabaseConfig)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	historyWriter, wsStream, err := history.BuildHistoryWriter(&mvagentConfig.HistoryConfig, db)
	if err != nil {
		slog.Error("Failed to build history writer", "error", err)
		os.Exit(1)
	}

	recorder := history.NewRecorder().
		WithWriter(historyWriter).
		WithDatabase(db)

	statsProvider, err := assetstats.NewFileProvider(mvagentConfig.StatsConfig.FilePath)
	if err != nil {
		slog.Error("Failed to load asset statistics", "error", err)
		os.Exit(1)
	}

	beliefState, err := belief.NewStateFromConfig(&mvagentConfig.AgentConfig)
	if err != nil {
		slog.Error("Failed to build belief state", "error", err)
		os.Exit(1)
	}
	orders := ledger.NewLedger()

	simulation, err := buildSimulation(mvagentConfig, beliefState)
	if err != nil {
		slog.Error("Failed to build simulation", "error", err)
		os.Exit(1)
	}

	engine, err := agent.NewRebalancingEngine().
		WithBeliefState(beliefState).
		WithLedger(orders).
		WithStatsProvider(statsProvider).
		WithVenue(simulation.Venue()).
		WithStepRate(mvagentConfig.AgentConfig.StepRate).
		Build()
	if err != nil {
		slog.Error("Failed to build rebalancing engine", "error", err)
		os.Exit(1)
	}

	dispatcher, err := agent.NewEventDispatcher().
		WithBeliefState(beliefState).
		WithLedger(orders).
		WithEngine(engine).
		WithVenue(simulation.Venue()).
		WithStatsProvider(statsProvider).
		WithRecorder(recorder).
		WithRefreshInterval(mvagentConfig.AgentConfig.RefreshInterval).
		Build()
	if err != nil {
		slog.Error("Failed to build event dispatcher", "error", err)
		os.Exit(1)
	}
	simulation.WithDispatcher(dispatcher)

	if wsStream != nil {
		srv := server.NewServer(":" + mvagentConfig.ServerConfig.Port).
			WithHistoryStream(wsStream).
			WithRecorder(recorder)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("Server failed", "error", err)
			}
		}()
	}

	if err := simulation.Run(ctx); err != nil {
		slog.Error("Simulation failed", "error", err)
		os.Exit(1)
	}

	reportRun(recorder)

	if err := recorder.Close(); err != nil {
		slog.Error("Failed to close history writers", "error", err)
	}
	slog.Info("Shutting down...")
}

func buildSimulation(cfg *datamodels.MvagentConfig, beliefState *belief.State) (*sim.Simulation, error) {
	builder := sim.NewSimulation().
		WithDuration(cfg.SimConfig.Duration).
		WithSeed(cfg.SimConfig.Seed)
	prices := beliefState.Prices()
	for i, asset := range beliefState.Watching() {
		builder = builder.WithMarket(asset, prices[i])
	}
	return builder.Build()
}

func reportRun(recorder *history.Recorder) {
	samples := recorder.Samples()
	summary, err := history.Summarize(samples, len(recorder.Trades()))
	if err != nil {
		slog.Warn("No run summary available", "error", err)
		return
	}
	slog.Info("Run summary",
		"samples", summary.SampleCount,
		"trades", summary.TradeCount,
		"finalHoldingsValue", summary.FinalHoldingsValue,
		"maxDrawdown", summary.MaxDrawdown)

	plotFile := os.Getenv("PLOT_FILE")
	if plotFile == "" {
		return
	}
	plotter, err := history.NewHistoryPlotter().
		WithSamples(samples).
		WithFileOutput(plotFile).
		Build()
	if err != nil {
		slog.Warn("Skipping history plot", "error", err)
		return
	}
	if err := plotter.Plot(); err != nil {
		slog.Error("Failed to render history plot", "error", err)
	}
}

func initializeLogging() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}
	switch strings.ToLower(logLevel) {
	case "debug":
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout,
			&slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true})))
	case "info":
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout,
			&slog.HandlerOptions{Level: slog.LevelInfo})))
	default:
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout,
			&slog.HandlerOptions{Level: slog.LevelInfo})))
	}
}
