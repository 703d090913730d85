package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/jeffypooo/hostwatch/internal/metrics"
)

func main() {
	sampler := metrics.NewSampler(metrics.NewSystemProvider(metrics.DetectGpuProber()))

	// Two samples one second apart so the throughput fields carry real
	// rates instead of first-sample zeros.
	if _, err := sampler.Sample(); err != nil {
		log.Warnf("Partial first sample: %v", err)
	}
	time.Sleep(1 * time.Second)

	snap, err := sampler.Sample()
	if err != nil {
		log.Warnf("Partial snapshot: %v", err)
	}

	out, err := json.MarshalIndent(snap, "", " ")
	if err != nil {
		log.Fatalf("Error marshalling snapshot: %v", err)
	}
	fmt.Println(string(out))
}
