package metrics

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeProvider returns canned readings and lets tests grow the
// cumulative counters between samples.
type fakeProvider struct {
	mu      sync.Mutex
	disk    DiskReading
	net     NetReading
	cpuErr  error
	diskErr error
	netErr  error
}

func (f *fakeProvider) ReadCpu() (CpuInfo, error) {
	if f.cpuErr != nil {
		return CpuInfo{}, f.cpuErr
	}
	return CpuInfo{Percent: 42.5, CoresLogical: 8}, nil
}

func (f *fakeProvider) ReadMemory() (MemoryInfo, error) {
	return MemoryInfo{Total: 16 << 30, Used: 8 << 30, Percent: 50}, nil
}

func (f *fakeProvider) ReadDisk() (DiskReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.diskErr != nil {
		return DiskReading{}, f.diskErr
	}
	return f.disk, nil
}

func (f *fakeProvider) ReadNetwork() (NetReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.netErr != nil {
		return NetReading{}, f.netErr
	}
	return f.net, nil
}

func (f *fakeProvider) ReadGpu() GpuInfo {
	return GpuInfo{Available: false, Gpus: []GpuDevice{}}
}

func (f *fakeProvider) ReadSystemInfo() (SystemInfo, error) {
	return SystemInfo{Platform: "linux", Hostname: "testhost"}, nil
}

func (f *fakeProvider) setCounters(diskRead, diskWrite, netSent, netRecv uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disk.ReadBytes = diskRead
	f.disk.WriteBytes = diskWrite
	f.net.BytesSent = netSent
	f.net.BytesRecv = netRecv
}

func TestSampler_FirstSampleHasZeroRates(t *testing.T) {
	provider := &fakeProvider{}
	provider.setCounters(1000, 1000, 1000, 1000)
	s := NewSampler(provider)

	snap, err := s.Sample()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Disk.IO.ReadSpeed != 0 || snap.Network.SentSpeed != 0 {
		t.Fatalf("first sample must report zero rates, got disk=%v net=%v",
			snap.Disk.IO.ReadSpeed, snap.Network.SentSpeed)
	}
	if snap.Cpu.Percent != 42.5 {
		t.Fatalf("cpu gauge lost: %v", snap.Cpu.Percent)
	}
}

func TestSampler_RatesFromConsecutiveSamples(t *testing.T) {
	provider := &fakeProvider{}
	provider.setCounters(0, 0, 0, 0)
	s := NewSampler(provider)

	base := time.Now()
	clock := base
	s.now = func() time.Time { return clock }

	if _, err := s.Sample(); err != nil {
		t.Fatalf("first sample: %v", err)
	}

	provider.setCounters(2048, 4096, 1024, 8192)
	clock = base.Add(2 * time.Second)

	snap, err := s.Sample()
	if err != nil {
		t.Fatalf("second sample: %v", err)
	}
	if snap.Disk.IO.ReadSpeed != 1024 {
		t.Errorf("disk read speed: want 1024, got %v", snap.Disk.IO.ReadSpeed)
	}
	if snap.Disk.IO.WriteSpeed != 2048 {
		t.Errorf("disk write speed: want 2048, got %v", snap.Disk.IO.WriteSpeed)
	}
	if snap.Network.SentSpeed != 512 {
		t.Errorf("net sent speed: want 512, got %v", snap.Network.SentSpeed)
	}
	if snap.Network.RecvSpeed != 4096 {
		t.Errorf("net recv speed: want 4096, got %v", snap.Network.RecvSpeed)
	}
}

func TestSampler_ProviderErrorYieldsPartialSnapshot(t *testing.T) {
	provider := &fakeProvider{cpuErr: providerErr("cpu", errors.New("boom"))}
	s := NewSampler(provider)

	snap, err := s.Sample()
	if err == nil {
		t.Fatal("expected a provider error")
	}
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	// Other subsystems still populated.
	if snap.Memory.Percent != 50 {
		t.Fatalf("memory should survive a cpu failure, got %v", snap.Memory.Percent)
	}
}

func TestSampler_FailedCounterReadDoesNotCorruptRates(t *testing.T) {
	provider := &fakeProvider{}
	provider.setCounters(10_000, 10_000, 10_000, 10_000)
	s := NewSampler(provider)

	base := time.Now()
	clock := base
	s.now = func() time.Time { return clock }

	if _, err := s.Sample(); err != nil {
		t.Fatalf("first sample: %v", err)
	}

	// A failed tick must not record zero counters as the new baseline.
	provider.mu.Lock()
	provider.diskErr = providerErr("disk", errors.New("io error"))
	provider.mu.Unlock()
	clock = base.Add(1 * time.Second)
	if _, err := s.Sample(); err == nil {
		t.Fatal("expected error from failed disk read")
	}

	provider.mu.Lock()
	provider.diskErr = nil
	provider.mu.Unlock()
	provider.setCounters(30_000, 10_000, 10_000, 10_000)
	clock = base.Add(2 * time.Second)

	snap, err := s.Sample()
	if err != nil {
		t.Fatalf("third sample: %v", err)
	}
	// 20000 bytes over the 2s gap since the last good sample.
	if snap.Disk.IO.ReadSpeed != 10_000 {
		t.Fatalf("disk read speed: want 10000, got %v", snap.Disk.IO.ReadSpeed)
	}
}

// TestSampler_ConcurrentSamplesKeepRatesSane exercises the live-query
// and recording paths racing on one Sampler: every reported rate must
// stay non-negative and finite.
func TestSampler_ConcurrentSamplesKeepRatesSane(t *testing.T) {
	provider := &fakeProvider{}
	s := NewSampler(provider)

	var counter atomic.Uint64
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c := counter.Add(4096)
				provider.setCounters(c, c, c, c)
			}
		}
	}()
	defer close(stop)

	const goroutines = 8
	const samplesEach = 50

	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < samplesEach; j++ {
				snap, err := s.Sample()
				if err != nil {
					errCh <- err
					return
				}
				for _, rate := range []float64{
					snap.Disk.IO.ReadSpeed, snap.Disk.IO.WriteSpeed,
					snap.Network.SentSpeed, snap.Network.RecvSpeed,
				} {
					if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
						errCh <- errors.New("rate out of range")
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-errCh:
		t.Fatalf("concurrent sampling failed: %v", err)
	default:
	}
}
