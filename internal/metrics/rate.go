package metrics

import "time"

// rateState holds the previous sample's cumulative counters and its
// capture time. It has a single writer, the owning Sampler, which
// reads and overwrites it under the Sampler's lock.
type rateState struct {
	diskRead  uint64
	diskWrite uint64
	netSent   uint64
	netRecv   uint64
	at        time.Time
	valid     bool
}

type rates struct {
	diskRead  float64
	diskWrite float64
	netSent   float64
	netRecv   float64
}

// counterRate derives bytes/sec from two cumulative counter readings.
// Elapsed must come from monotonic time; non-positive elapsed (first
// sample, clock anomaly) and counter wraparound both yield 0.
func counterRate(curr, prev uint64, elapsed float64) float64 {
	if elapsed <= 0 {
		return 0
	}
	if curr < prev {
		// counter reset or wraparound
		return 0
	}
	return float64(curr-prev) / elapsed
}

// advance computes throughput against the previous counters and then
// replaces them with the current reading. The first call returns zero
// rates since there is nothing to difference against.
func (s *rateState) advance(now time.Time, disk DiskReading, net NetReading) rates {
	var r rates
	if s.valid {
		// now carries Go's monotonic reading, so Sub is immune to
		// wall clock adjustments.
		elapsed := now.Sub(s.at).Seconds()
		r = rates{
			diskRead:  counterRate(disk.ReadBytes, s.diskRead, elapsed),
			diskWrite: counterRate(disk.WriteBytes, s.diskWrite, elapsed),
			netSent:   counterRate(net.BytesSent, s.netSent, elapsed),
			netRecv:   counterRate(net.BytesRecv, s.netRecv, elapsed),
		}
	}
	s.diskRead = disk.ReadBytes
	s.diskWrite = disk.WriteBytes
	s.netSent = net.BytesSent
	s.netRecv = net.BytesRecv
	s.at = now
	s.valid = true
	return r
}
