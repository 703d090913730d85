package metrics

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Sampler combines provider readings with derived throughput into one
// ResourceSnapshot per call. It owns the rate state: both the recording
// loop and ad-hoc live queries go through the same Sampler so rate math
// always compares counters from consecutive calls.
type Sampler struct {
	mu       sync.Mutex
	provider Provider
	state    rateState
	now      func() time.Time
}

func NewSampler(provider Provider) *Sampler {
	return &Sampler{provider: provider, now: time.Now}
}

// Sample produces a snapshot of all monitored resources. It is
// thread-safe. On provider failure it returns the first error together
// with a best-effort partial snapshot; callers log and carry on.
func (s *Sampler) Sample() (ResourceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	snap := ResourceSnapshot{Timestamp: now}

	var (
		diskReading DiskReading
		netReading  NetReading
		diskErr     error
		netErr      error
	)

	var g errgroup.Group
	g.Go(func() error {
		info, err := s.provider.ReadCpu()
		if err == nil {
			snap.Cpu = info
		}
		return err
	})
	g.Go(func() error {
		info, err := s.provider.ReadMemory()
		if err == nil {
			snap.Memory = info
		}
		return err
	})
	g.Go(func() error {
		diskReading, diskErr = s.provider.ReadDisk()
		return diskErr
	})
	g.Go(func() error {
		netReading, netErr = s.provider.ReadNetwork()
		return netErr
	})
	g.Go(func() error {
		info, err := s.provider.ReadSystemInfo()
		if err == nil {
			snap.System = info
		}
		return err
	})
	g.Go(func() error {
		snap.Gpu = s.provider.ReadGpu()
		return nil
	})
	err := g.Wait()

	// Rates are only advanced on complete counter readings; a failed
	// counter read keeps the previous state so the next successful
	// sample differences across the whole gap instead of against zero.
	var r rates
	if diskErr == nil && netErr == nil {
		r = s.state.advance(now, diskReading, netReading)
	}

	snap.Disk = DiskInfo{
		Partitions: diskReading.Partitions,
		IO: DiskIO{
			ReadBytes:  diskReading.ReadBytes,
			WriteBytes: diskReading.WriteBytes,
			ReadSpeed:  r.diskRead,
			WriteSpeed: r.diskWrite,
		},
	}
	snap.Network = NetworkInfo{
		BytesSent:   netReading.BytesSent,
		BytesRecv:   netReading.BytesRecv,
		PacketsSent: netReading.PacketsSent,
		PacketsRecv: netReading.PacketsRecv,
		SentSpeed:   r.netSent,
		RecvSpeed:   r.netRecv,
		Interfaces:  netReading.Interfaces,
	}

	return snap, err
}
