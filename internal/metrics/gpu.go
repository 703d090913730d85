package metrics

import (
	"context"
	"encoding/csv"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// GpuProber is an optional capability. Hosts without a supported GPU
// get the null prober, which reports Available=false.
type GpuProber interface {
	Read() GpuInfo
}

type nullGpuProber struct{}

func (nullGpuProber) Read() GpuInfo {
	return GpuInfo{Available: false, Gpus: []GpuDevice{}}
}

// NullGpuProber returns the no-op prober used when no GPU tooling is
// present.
func NullGpuProber() GpuProber { return nullGpuProber{} }

// DetectGpuProber resolves GPU support at startup. Currently NVIDIA via
// nvidia-smi; anything else falls back to the null prober.
func DetectGpuProber() GpuProber {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return nullGpuProber{}
	}
	return &nvidiaSmiProber{path: path, timeout: 2 * time.Second}
}

type nvidiaSmiProber struct {
	path    string
	timeout time.Duration
}

var nvidiaQueryFields = []string{
	"index",
	"name",
	"utilization.gpu",
	"memory.total",
	"memory.used",
	"memory.free",
	"temperature.gpu",
}

func (p *nvidiaSmiProber) Read() GpuInfo {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.path,
		"--query-gpu="+strings.Join(nvidiaQueryFields, ","),
		"--format=csv,noheader,nounits")
	out, err := cmd.Output()
	if err != nil {
		return GpuInfo{Available: false, Gpus: []GpuDevice{}}
	}
	return parseNvidiaSmiCSV(string(out))
}

// parseNvidiaSmiCSV converts nvidia-smi query output into GpuInfo.
// Memory figures are reported in MiB and converted to bytes here.
func parseNvidiaSmiCSV(raw string) GpuInfo {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return GpuInfo{Available: false, Gpus: []GpuDevice{}}
	}

	info := GpuInfo{Gpus: []GpuDevice{}}
	for _, row := range rows {
		if len(row) < len(nvidiaQueryFields) {
			continue
		}
		dev := GpuDevice{
			ID:       int(parseGpuUint(row[0])),
			Name:     strings.TrimSpace(row[1]),
			Load:     parseGpuFloat(row[2]),
			MemTotal: parseGpuUint(row[3]) * 1024 * 1024,
			MemUsed:  parseGpuUint(row[4]) * 1024 * 1024,
			MemFree:  parseGpuUint(row[5]) * 1024 * 1024,
		}
		if dev.MemTotal > 0 {
			dev.MemPercent = float64(dev.MemUsed) / float64(dev.MemTotal) * 100
		}
		if temp := parseGpuFloat(row[6]); temp > 0 {
			dev.Temperature = &temp
		}
		info.Gpus = append(info.Gpus, dev)
	}
	info.Available = len(info.Gpus) > 0
	return info
}

// parseGpuUint tolerates the "[N/A]" and empty markers nvidia-smi emits
// for unsupported fields.
func parseGpuUint(raw string) uint64 {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f < 0 {
			return 0
		}
		return uint64(f)
	}
	return v
}

func parseGpuFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
