package metrics

import "time"

type CpuInfo struct {
	Percent       float64   `json:"percent"`
	PerCore       []float64 `json:"percent_per_core"`
	FreqCurrent   float64   `json:"frequency_current"`
	FreqMax       float64   `json:"frequency_max"`
	CoresPhysical int       `json:"cores_physical"`
	CoresLogical  int       `json:"cores_logical"`
	// Temperature is nil when no sensor reading is available on the host.
	Temperature *float64 `json:"temperature,omitempty"`
}

type MemoryInfo struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Available   uint64  `json:"available"`
	Percent     float64 `json:"percent"`
	SwapTotal   uint64  `json:"swap_total"`
	SwapUsed    uint64  `json:"swap_used"`
	SwapPercent float64 `json:"swap_percent"`
}

type PartitionInfo struct {
	Device  string  `json:"device"`
	Mount   string  `json:"mountpoint"`
	Fstype  string  `json:"fstype"`
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

type DiskIO struct {
	ReadBytes  uint64 `json:"read_bytes"`
	WriteBytes uint64 `json:"write_bytes"`
	// Derived rates in bytes/sec, zero on the first sample.
	ReadSpeed  float64 `json:"read_speed"`
	WriteSpeed float64 `json:"write_speed"`
}

type DiskInfo struct {
	Partitions []PartitionInfo `json:"partitions"`
	IO         DiskIO          `json:"io"`
}

type NetInterface struct {
	Name  string `json:"name"`
	IP    string `json:"ip,omitempty"`
	Speed int    `json:"speed"` // Mbps, 0 if unknown
	Up    bool   `json:"is_up"`
}

type NetworkInfo struct {
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
	// Derived rates in bytes/sec, zero on the first sample.
	SentSpeed  float64        `json:"sent_speed"`
	RecvSpeed  float64        `json:"recv_speed"`
	Interfaces []NetInterface `json:"interfaces"`
}

type GpuDevice struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Load       float64 `json:"load"` // utilization percent
	MemTotal   uint64  `json:"memory_total"`
	MemUsed    uint64  `json:"memory_used"`
	MemFree    uint64  `json:"memory_free"`
	MemPercent float64 `json:"memory_percent"`
	// Temperature is nil when the driver reports none.
	Temperature *float64 `json:"temperature,omitempty"`
}

type GpuInfo struct {
	Available bool        `json:"available"`
	Gpus      []GpuDevice `json:"gpus"`
}

type SystemInfo struct {
	Platform      string `json:"platform"`
	Release       string `json:"platform_release"`
	Arch          string `json:"architecture"`
	Hostname      string `json:"hostname"`
	Processor     string `json:"processor"`
	BootTime      string `json:"boot_time"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}

// ResourceSnapshot is one point-in-time reading of every monitored
// resource. It is never mutated after the Sampler returns it.
type ResourceSnapshot struct {
	Timestamp time.Time   `json:"timestamp"`
	System    SystemInfo  `json:"system"`
	Cpu       CpuInfo     `json:"cpu"`
	Memory    MemoryInfo  `json:"memory"`
	Disk      DiskInfo    `json:"disk"`
	Network   NetworkInfo `json:"network"`
	Gpu       GpuInfo     `json:"gpu"`
}
