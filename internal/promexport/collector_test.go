package promexport

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jeffypooo/hostwatch/internal/metrics"
)

type stubSampler struct {
	snap metrics.ResourceSnapshot
}

func (s stubSampler) Sample() (metrics.ResourceSnapshot, error) {
	return s.snap, nil
}

func TestCollector_ExportsLiveGauges(t *testing.T) {
	c := NewCollector(stubSampler{snap: metrics.ResourceSnapshot{
		Cpu:    metrics.CpuInfo{Percent: 12.5},
		Memory: metrics.MemoryInfo{Percent: 40},
		Disk:   metrics.DiskInfo{IO: metrics.DiskIO{ReadSpeed: 1024, WriteSpeed: 2048}},
		Network: metrics.NetworkInfo{
			SentSpeed: 100,
			RecvSpeed: 200,
		},
	}})

	expected := `
# HELP hostwatch_cpu_percent System-wide CPU utilization percent.
# TYPE hostwatch_cpu_percent gauge
hostwatch_cpu_percent 12.5
# HELP hostwatch_memory_percent Virtual memory utilization percent.
# TYPE hostwatch_memory_percent gauge
hostwatch_memory_percent 40
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"hostwatch_cpu_percent", "hostwatch_memory_percent")
	if err != nil {
		t.Fatalf("unexpected exposition: %v", err)
	}

	if got := testutil.CollectAndCount(c); got != 6 {
		t.Fatalf("expected 6 metrics without a GPU, got %d", got)
	}
}

func TestCollector_GpuGaugesPerDevice(t *testing.T) {
	c := NewCollector(stubSampler{snap: metrics.ResourceSnapshot{
		Gpu: metrics.GpuInfo{
			Available: true,
			Gpus: []metrics.GpuDevice{
				{ID: 0, Load: 55, MemPercent: 30},
				{ID: 1, Load: 10, MemPercent: 5},
			},
		},
	}})

	// 6 host gauges + 2 gauges per GPU.
	if got := testutil.CollectAndCount(c); got != 10 {
		t.Fatalf("expected 10 metrics with two GPUs, got %d", got)
	}
}
