package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sanchar-ai/hangout-planner/internal/cli"
	"github.com/sanchar-ai/hangout-planner/internal/config"
	"github.com/sanchar-ai/hangout-planner/internal/geocode"
	"github.com/sanchar-ai/hangout-planner/internal/planner"
	"github.com/sanchar-ai/hangout-planner/internal/session"
	"github.com/sanchar-ai/hangout-planner/internal/weather"
)

var CLI struct {
	Version kong.VersionFlag

	Plan   cli.PlanCmd   `cmd:"" help:"Plan a hangout interactively." default:"1"`
	Decode cli.DecodeCmd `cmd:"" help:"Decode a share link offline."`
}

func main() {
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name("hangout"),
		kong.Description("Hangout planning wizard"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The wizard is a foreground UI; keep logs out of the way.
	logger := zap.NewNop()

	geocodeClient := geocode.NewNominatimClientWithRetry(
		cfg.GeocodeURL,
		cfg.GeocodeRegionQualifier,
		cfg.GeocodeUserAgent,
		cfg.GeocodeTimeout,
		cfg.RetryAttempts,
		cfg.RetryBaseDelay,
		cfg.RetryMaxDelay,
	)
	resolver := geocode.NewCachedResolver(geocodeClient, geocode.NewInMemoryCache(), logger)
	weatherClient := weather.NewOpenMeteoClient(cfg.WeatherURL, cfg.WeatherTimeout)
	plannerClient := planner.NewHTTPClient(cfg.PlannerBaseURL, cfg.PlannerTimeout)

	appCtx := &cli.Context{
		Engine:       session.NewEngine(resolver, weatherClient, plannerClient, logger),
		ShareBaseURL: cfg.ShareBaseURL,
		Logger:       logger,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
