// Package promexport exposes the live reading as Prometheus gauges.
// Each scrape takes one sample through the shared Sampler, so scraped
// rates stay consistent with the API and recording paths.
package promexport

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jeffypooo/hostwatch/internal/metrics"
)

type Sampler interface {
	Sample() (metrics.ResourceSnapshot, error)
}

type Collector struct {
	sampler Sampler

	cpuPercent *prometheus.Desc
	memPercent *prometheus.Desc
	diskRead   *prometheus.Desc
	diskWrite  *prometheus.Desc
	netSent    *prometheus.Desc
	netRecv    *prometheus.Desc
	gpuLoad    *prometheus.Desc
	gpuMemPct  *prometheus.Desc
}

func NewCollector(sampler Sampler) *Collector {
	return &Collector{
		sampler: sampler,
		cpuPercent: prometheus.NewDesc("hostwatch_cpu_percent",
			"System-wide CPU utilization percent.", nil, nil),
		memPercent: prometheus.NewDesc("hostwatch_memory_percent",
			"Virtual memory utilization percent.", nil, nil),
		diskRead: prometheus.NewDesc("hostwatch_disk_read_bytes_per_second",
			"Aggregate disk read throughput.", nil, nil),
		diskWrite: prometheus.NewDesc("hostwatch_disk_write_bytes_per_second",
			"Aggregate disk write throughput.", nil, nil),
		netSent: prometheus.NewDesc("hostwatch_net_sent_bytes_per_second",
			"Aggregate network send throughput.", nil, nil),
		netRecv: prometheus.NewDesc("hostwatch_net_recv_bytes_per_second",
			"Aggregate network receive throughput.", nil, nil),
		gpuLoad: prometheus.NewDesc("hostwatch_gpu_load_percent",
			"GPU utilization percent.", []string{"gpu"}, nil),
		gpuMemPct: prometheus.NewDesc("hostwatch_gpu_memory_percent",
			"GPU memory utilization percent.", []string{"gpu"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpuPercent
	ch <- c.memPercent
	ch <- c.diskRead
	ch <- c.diskWrite
	ch <- c.netSent
	ch <- c.netRecv
	ch <- c.gpuLoad
	ch <- c.gpuMemPct
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	// Partial provider failures still yield a best-effort snapshot.
	snap, _ := c.sampler.Sample()

	ch <- prometheus.MustNewConstMetric(c.cpuPercent, prometheus.GaugeValue, snap.Cpu.Percent)
	ch <- prometheus.MustNewConstMetric(c.memPercent, prometheus.GaugeValue, snap.Memory.Percent)
	ch <- prometheus.MustNewConstMetric(c.diskRead, prometheus.GaugeValue, snap.Disk.IO.ReadSpeed)
	ch <- prometheus.MustNewConstMetric(c.diskWrite, prometheus.GaugeValue, snap.Disk.IO.WriteSpeed)
	ch <- prometheus.MustNewConstMetric(c.netSent, prometheus.GaugeValue, snap.Network.SentSpeed)
	ch <- prometheus.MustNewConstMetric(c.netRecv, prometheus.GaugeValue, snap.Network.RecvSpeed)

	if snap.Gpu.Available {
		for _, g := range snap.Gpu.Gpus {
			id := strconv.Itoa(g.ID)
			ch <- prometheus.MustNewConstMetric(c.gpuLoad, prometheus.GaugeValue, g.Load, id)
			ch <- prometheus.MustNewConstMetric(c.gpuMemPct, prometheus.GaugeValue, g.MemPercent, id)
		}
	}
}
