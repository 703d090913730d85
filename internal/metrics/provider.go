package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/sensors"
)

// ProviderError wraps a failed OS metric call. It identifies which
// subsystem failed so the caller can log it and keep sampling.
type ProviderError struct {
	Subsystem string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("metrics provider: %s: %v", e.Subsystem, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func providerErr(subsystem string, err error) error {
	return &ProviderError{Subsystem: subsystem, Err: err}
}

// DiskReading carries partition gauges plus the cumulative I/O counters
// the rate calculator differences between samples.
type DiskReading struct {
	Partitions []PartitionInfo
	ReadBytes  uint64
	WriteBytes uint64
}

// NetReading carries interface gauges plus cumulative traffic counters.
type NetReading struct {
	BytesSent   uint64
	BytesRecv   uint64
	PacketsSent uint64
	PacketsRecv uint64
	Interfaces  []NetInterface
}

// Provider is the OS-facing capability the Sampler composes snapshots
// from. Each call blocks on the OS and returns current values only;
// rate derivation happens in the Sampler.
type Provider interface {
	ReadCpu() (CpuInfo, error)
	ReadMemory() (MemoryInfo, error)
	ReadDisk() (DiskReading, error)
	ReadNetwork() (NetReading, error)
	ReadGpu() GpuInfo
	ReadSystemInfo() (SystemInfo, error)
}

// SystemProvider reads host metrics through gopsutil. GPU support is an
// optional capability resolved at construction time.
type SystemProvider struct {
	gpu GpuProber
}

func NewSystemProvider(gpu GpuProber) *SystemProvider {
	if gpu == nil {
		gpu = nullGpuProber{}
	}
	return &SystemProvider{gpu: gpu}
}

func (p *SystemProvider) ReadCpu() (CpuInfo, error) {
	// interval=0 computes usage since the previous call.
	total, err := cpu.Percent(0, false)
	if err != nil || len(total) == 0 {
		return CpuInfo{}, providerErr("cpu", err)
	}

	info := CpuInfo{Percent: total[0]}

	if perCore, err := cpu.Percent(0, true); err == nil {
		info.PerCore = perCore
	}
	if physical, err := cpu.Counts(false); err == nil {
		info.CoresPhysical = physical
	}
	if logical, err := cpu.Counts(true); err == nil {
		info.CoresLogical = logical
	}
	if stats, err := cpu.Info(); err == nil && len(stats) > 0 {
		info.FreqCurrent = stats[0].Mhz
		info.FreqMax = stats[0].Mhz
	}
	info.Temperature = readCpuTemperature()

	return info, nil
}

// readCpuTemperature returns the first sensor reading, or nil when the
// host exposes no thermal sensors. Zero readings are treated as absent.
func readCpuTemperature() *float64 {
	temps, err := sensors.SensorsTemperatures()
	if err != nil {
		return nil
	}
	for _, t := range temps {
		if t.Temperature > 0 {
			v := t.Temperature
			return &v
		}
	}
	return nil
}

func (p *SystemProvider) ReadMemory() (MemoryInfo, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryInfo{}, providerErr("memory", err)
	}

	info := MemoryInfo{
		Total:     vm.Total,
		Used:      vm.Used,
		Available: vm.Available,
		Percent:   vm.UsedPercent,
	}
	if swap, err := mem.SwapMemory(); err == nil {
		info.SwapTotal = swap.Total
		info.SwapUsed = swap.Used
		info.SwapPercent = swap.UsedPercent
	}
	return info, nil
}

func (p *SystemProvider) ReadDisk() (DiskReading, error) {
	parts, err := disk.Partitions(false)
	if err != nil {
		return DiskReading{}, providerErr("disk", err)
	}

	var reading DiskReading
	for _, part := range parts {
		usage, err := disk.Usage(part.Mountpoint)
		if err != nil {
			// Unreadable mounts (permissions, pseudo-filesystems) are skipped.
			continue
		}
		reading.Partitions = append(reading.Partitions, PartitionInfo{
			Device:  part.Device,
			Mount:   part.Mountpoint,
			Fstype:  part.Fstype,
			Total:   usage.Total,
			Used:    usage.Used,
			Free:    usage.Free,
			Percent: usage.UsedPercent,
		})
	}

	if counters, err := disk.IOCounters(); err == nil {
		for _, c := range counters {
			reading.ReadBytes += c.ReadBytes
			reading.WriteBytes += c.WriteBytes
		}
	}
	return reading, nil
}

func (p *SystemProvider) ReadNetwork() (NetReading, error) {
	counters, err := net.IOCounters(false) // aggregated across NICs
	if err != nil || len(counters) == 0 {
		return NetReading{}, providerErr("network", err)
	}

	reading := NetReading{
		BytesSent:   counters[0].BytesSent,
		BytesRecv:   counters[0].BytesRecv,
		PacketsSent: counters[0].PacketsSent,
		PacketsRecv: counters[0].PacketsRecv,
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return reading, nil
	}
	for _, iface := range ifaces {
		up := false
		for _, flag := range iface.Flags {
			if flag == "up" {
				up = true
				break
			}
		}
		if !up {
			continue
		}
		ni := NetInterface{Name: iface.Name, Up: true}
		for _, addr := range iface.Addrs {
			ip := addr.Addr
			if i := strings.IndexByte(ip, '/'); i >= 0 {
				ip = ip[:i]
			}
			if strings.Count(ip, ".") == 3 {
				ni.IP = ip
				break
			}
		}
		reading.Interfaces = append(reading.Interfaces, ni)
	}
	return reading, nil
}

func (p *SystemProvider) ReadGpu() GpuInfo {
	return p.gpu.Read()
}

func (p *SystemProvider) ReadSystemInfo() (SystemInfo, error) {
	hi, err := host.Info()
	if err != nil {
		return SystemInfo{}, providerErr("system", err)
	}

	info := SystemInfo{
		Platform:      hi.Platform,
		Release:       hi.PlatformVersion,
		Arch:          hi.KernelArch,
		Hostname:      hi.Hostname,
		BootTime:      time.Unix(int64(hi.BootTime), 0).Format("2006-01-02 15:04:05"),
		UptimeSeconds: hi.Uptime,
	}
	if stats, err := cpu.Info(); err == nil && len(stats) > 0 {
		info.Processor = stats[0].ModelName
	}
	return info, nil
}
