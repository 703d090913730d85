package main

import (
	"os"

	"github.com/labstack/gommon/log"

	"github.com/jeffypooo/hostwatch/internal/config"
	"github.com/jeffypooo/hostwatch/internal/metrics"
	"github.com/jeffypooo/hostwatch/internal/recorder"
	"github.com/jeffypooo/hostwatch/internal/server"
)

func main() {
	cfgPath := os.Getenv("HOSTWATCH_CONFIG")
	if cfgPath == "" {
		cfgPath = "hostwatch.yml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	gpu := metrics.DetectGpuProber()
	provider := metrics.NewSystemProvider(gpu)
	sampler := metrics.NewSampler(provider)
	procs := metrics.NewProcessTracker()

	rec := recorder.New(sampler, log.New("recorder"), cfg.SampleInterval, cfg.RecordingLimit)

	srv := server.New(sampler, rec, procs, cfg.ProcLimit)
	srv.Logger().Fatal(srv.Start(cfg.Addr))
}
