package metrics

import (
	"sort"
	"sync"

	"github.com/shirou/gopsutil/v4/process"
)

type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

type ProcSort string

const (
	ProcSortCpu  ProcSort = "cpu"
	ProcSortMem  ProcSort = "mem"
	ProcSortPid  ProcSort = "pid"
	ProcSortName ProcSort = "name"
)

type ProcessInfo struct {
	Pid      int32   `json:"pid"`
	Name     string  `json:"name"`
	CpuPct   float64 `json:"cpu_pct"`
	MemBytes uint64  `json:"mem_bytes"`
}

// ProcessTracker reports per-process CPU and memory usage. It caches
// process handles between calls because gopsutil computes CPU percent
// from the previous call on the same handle.
type ProcessTracker struct {
	mu    sync.Mutex
	cache map[int32]*process.Process
}

func NewProcessTracker() *ProcessTracker {
	return &ProcessTracker{cache: make(map[int32]*process.Process)}
}

// Top returns up to limit processes ordered by the given key. It is
// thread-safe.
func (t *ProcessTracker) Top(limit int, sortBy ProcSort, dir SortDirection) ([]ProcessInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	procs, err := process.Processes()
	if err != nil {
		return nil, providerErr("process", err)
	}

	alive := make(map[int32]bool, len(procs))
	for _, p := range procs {
		alive[p.Pid] = true
		if _, ok := t.cache[p.Pid]; !ok {
			t.cache[p.Pid] = p
		}
	}
	for pid := range t.cache {
		if !alive[pid] {
			delete(t.cache, pid)
		}
	}

	out := make([]ProcessInfo, 0, len(t.cache))
	for _, p := range t.cache {
		// Percent(0) computes against the previous call on this handle.
		cpuPct, err := p.Percent(0)
		if err != nil {
			// Process died since listing.
			continue
		}
		name, err := p.Name()
		if err != nil {
			name = "unknown"
		}
		var rss uint64
		if memInfo, err := p.MemoryInfo(); err == nil {
			rss = memInfo.RSS
		}
		out = append(out, ProcessInfo{
			Pid:      p.Pid,
			Name:     name,
			CpuPct:   cpuPct,
			MemBytes: rss,
		})
	}

	sortProcesses(out, sortBy, dir)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortProcesses(procs []ProcessInfo, sortBy ProcSort, dir SortDirection) {
	asc := dir == SortDirectionAsc
	sort.Slice(procs, func(i, j int) bool {
		switch sortBy {
		case ProcSortMem:
			if asc {
				return procs[i].MemBytes < procs[j].MemBytes
			}
			return procs[i].MemBytes > procs[j].MemBytes
		case ProcSortPid:
			if asc {
				return procs[i].Pid < procs[j].Pid
			}
			return procs[i].Pid > procs[j].Pid
		case ProcSortName:
			if asc {
				return procs[i].Name < procs[j].Name
			}
			return procs[i].Name > procs[j].Name
		default: // cpu
			if asc {
				return procs[i].CpuPct < procs[j].CpuPct
			}
			return procs[i].CpuPct > procs[j].CpuPct
		}
	})
}
