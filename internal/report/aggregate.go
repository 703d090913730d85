// Package report turns a closed recorded series into summary
// statistics plus the raw series needed for charting, and renders the
// result into a downloadable artifact.
package report

import (
	"fmt"

	"github.com/jeffypooo/hostwatch/internal/metrics"
)

// InsufficientDataError rejects report generation when the recorded
// series is too short to show a trend.
type InsufficientDataError struct {
	Samples int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("not enough recorded data for a report: %d samples, need at least 2", e.Samples)
}

// Stats holds full-precision summary values; rounding for display is
// the renderer's job.
type Stats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type MetricSeries struct {
	Stats  Stats     `json:"stats"`
	Points []float64 `json:"points"`
}

type PartitionUsage struct {
	Mount string `json:"mountpoint"`
	Usage Stats  `json:"usage"`
}

// GpuAggregate is present only when at least one sample reported an
// available GPU. Only the first GPU per sample contributes.
type GpuAggregate struct {
	Load        MetricSeries  `json:"load"`
	MemPercent  MetricSeries  `json:"memory_percent"`
	Temperature *MetricSeries `json:"temperature,omitempty"`
}

// Aggregate is the report payload handed to the renderer.
type Aggregate struct {
	StartLabel  string             `json:"start_time"`
	EndLabel    string             `json:"end_time"`
	SampleCount int                `json:"samples"`
	System      metrics.SystemInfo `json:"system"`

	Cpu     MetricSeries  `json:"cpu_percent"`
	CpuTemp *MetricSeries `json:"cpu_temperature,omitempty"`
	Memory  MetricSeries  `json:"memory_percent"`

	DiskRead  MetricSeries `json:"disk_read_speed"`
	DiskWrite MetricSeries `json:"disk_write_speed"`
	NetSent   MetricSeries `json:"net_sent_speed"`
	NetRecv   MetricSeries `json:"net_recv_speed"`

	PartitionStats []PartitionUsage `json:"partition_stats"`
	// Partitions is the final sample's partition table, for the
	// capacity section of the report.
	Partitions []metrics.PartitionInfo `json:"partitions"`

	Gpu *GpuAggregate `json:"gpu,omitempty"`
}

// Build aggregates a closed, chronologically ordered series. Samples
// must not be appended to while building; callers hand in a copy.
func Build(samples []metrics.ResourceSnapshot, startLabel, endLabel string) (*Aggregate, error) {
	if len(samples) < 2 {
		return nil, &InsufficientDataError{Samples: len(samples)}
	}

	agg := &Aggregate{
		StartLabel:  startLabel,
		EndLabel:    endLabel,
		SampleCount: len(samples),
		System:      samples[0].System,
		Partitions:  samples[len(samples)-1].Disk.Partitions,
	}

	cpu := make([]float64, 0, len(samples))
	mem := make([]float64, 0, len(samples))
	diskRead := make([]float64, 0, len(samples))
	diskWrite := make([]float64, 0, len(samples))
	netSent := make([]float64, 0, len(samples))
	netRecv := make([]float64, 0, len(samples))
	var cpuTemp []float64

	partitionOrder := []string{}
	partitionSeries := map[string][]float64{}

	for _, s := range samples {
		cpu = append(cpu, s.Cpu.Percent)
		mem = append(mem, s.Memory.Percent)
		diskRead = append(diskRead, s.Disk.IO.ReadSpeed)
		diskWrite = append(diskWrite, s.Disk.IO.WriteSpeed)
		netSent = append(netSent, s.Network.SentSpeed)
		netRecv = append(netRecv, s.Network.RecvSpeed)

		// Absent readings are excluded from their own statistic, never
		// counted as zero.
		if s.Cpu.Temperature != nil {
			cpuTemp = append(cpuTemp, *s.Cpu.Temperature)
		}

		for _, p := range s.Disk.Partitions {
			if _, seen := partitionSeries[p.Mount]; !seen {
				partitionOrder = append(partitionOrder, p.Mount)
			}
			partitionSeries[p.Mount] = append(partitionSeries[p.Mount], p.Percent)
		}
	}

	agg.Cpu = newSeries(cpu)
	agg.Memory = newSeries(mem)
	agg.DiskRead = newSeries(diskRead)
	agg.DiskWrite = newSeries(diskWrite)
	agg.NetSent = newSeries(netSent)
	agg.NetRecv = newSeries(netRecv)
	if len(cpuTemp) > 0 {
		s := newSeries(cpuTemp)
		agg.CpuTemp = &s
	}

	for _, mount := range partitionOrder {
		agg.PartitionStats = append(agg.PartitionStats, PartitionUsage{
			Mount: mount,
			Usage: computeStats(partitionSeries[mount]),
		})
	}

	agg.Gpu = buildGpuAggregate(samples)

	return agg, nil
}

func buildGpuAggregate(samples []metrics.ResourceSnapshot) *GpuAggregate {
	var load, memPct, temp []float64
	for _, s := range samples {
		if !s.Gpu.Available || len(s.Gpu.Gpus) == 0 {
			continue
		}
		// primary GPU only
		g := s.Gpu.Gpus[0]
		load = append(load, g.Load)
		memPct = append(memPct, g.MemPercent)
		if g.Temperature != nil {
			temp = append(temp, *g.Temperature)
		}
	}
	if len(load) == 0 {
		return nil
	}

	agg := &GpuAggregate{
		Load:       newSeries(load),
		MemPercent: newSeries(memPct),
	}
	if len(temp) > 0 {
		s := newSeries(temp)
		agg.Temperature = &s
	}
	return agg
}

func newSeries(points []float64) MetricSeries {
	return MetricSeries{Stats: computeStats(points), Points: points}
}

func computeStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	s := Stats{Min: values[0], Max: values[0]}
	var sum float64
	for _, v := range values {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Avg = sum / float64(len(values))
	return s
}
