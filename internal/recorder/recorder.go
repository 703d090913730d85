// Package recorder owns the timed recording session: a single bounded
// capture window that samples at a fixed cadence into an in-memory
// buffer, mutually exclusive with any other session.
package recorder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jeffypooo/hostwatch/internal/metrics"
)

const (
	DefaultInterval      = time.Second
	DefaultDurationLimit = 300 * time.Second
)

var (
	// ErrAlreadyRecording is returned by Start while a session is active.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNotRecording is returned by Stop when no session is active.
	ErrNotRecording = errors.New("no recording in progress")
)

// Sampler is satisfied by *metrics.Sampler.
type Sampler interface {
	Sample() (metrics.ResourceSnapshot, error)
}

type Status struct {
	Active           bool   `json:"recording"`
	SampleCount      int    `json:"samples"`
	StartedAt        string `json:"start_time,omitempty"`
	ElapsedSeconds   int    `json:"elapsed_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
	DurationSeconds  int    `json:"duration_seconds"`
}

// Recorder is the session state machine: Idle -> Recording -> Idle,
// via explicit Stop or natural expiry of the duration limit. At most
// one session is active at a time.
type Recorder struct {
	sampler  Sampler
	logger   echo.Logger
	interval time.Duration
	limit    time.Duration

	mu        sync.Mutex
	active    bool
	startedAt time.Time
	samples   []metrics.ResourceSnapshot
	done      chan struct{}
	cancel    context.CancelFunc
}

func New(sampler Sampler, logger echo.Logger, interval, limit time.Duration) *Recorder {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if limit <= 0 {
		limit = DefaultDurationLimit
	}
	return &Recorder{
		sampler:  sampler,
		logger:   logger,
		interval: interval,
		limit:    limit,
	}
}

// Start begins a new session. The previous session's buffer is cleared
// here, not on Stop, so a finished recording stays available for report
// generation. Returns ErrAlreadyRecording (buffer untouched) when a
// session is active.
func (r *Recorder) Start() (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return r.statusLocked(), ErrAlreadyRecording
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.limit)
	r.active = true
	r.startedAt = time.Now()
	r.samples = nil
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(ctx, cancel, r.done)

	return r.statusLocked(), nil
}

// Stop halts the active session and returns its final status. The loop
// is cancelled cooperatively and waited for, so no append happens after
// Stop returns. Returns ErrNotRecording when idle.
func (r *Recorder) Stop() (Status, error) {
	r.mu.Lock()
	if !r.active {
		st := r.statusLocked()
		r.mu.Unlock()
		return st, ErrNotRecording
	}
	r.active = false
	cancel := r.cancel
	done := r.done
	st := r.statusLocked()
	r.mu.Unlock()

	cancel()
	<-done
	return st, nil
}

// Status is safe to call anytime, including while the loop is running.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked()
}

// Snapshots returns a copy of the recorded series, ordered oldest
// first. The copy keeps the aggregation input closed even if a new
// session starts afterwards.
func (r *Recorder) Snapshots() []metrics.ResourceSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]metrics.ResourceSnapshot, len(r.samples))
	copy(out, r.samples)
	return out
}

func (r *Recorder) statusLocked() Status {
	st := Status{
		Active:          r.active,
		SampleCount:     len(r.samples),
		DurationSeconds: int(r.limit.Seconds()),
	}
	if !r.startedAt.IsZero() {
		st.StartedAt = r.startedAt.Format("2006-01-02 15:04:05")
	}
	if r.active {
		elapsed := time.Since(r.startedAt)
		st.ElapsedSeconds = int(elapsed.Seconds())
		remaining := r.limit - elapsed
		if remaining < 0 {
			remaining = 0
		}
		st.RemainingSeconds = int(remaining.Seconds())
	}
	return st
}

// loop samples once per interval until the context expires (duration
// limit) or is cancelled (explicit Stop). A failed sample is logged and
// skipped; the session keeps going with a sparser series.
func (r *Recorder) loop(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.active {
				// natural expiry of the duration limit
				r.active = false
				if r.logger != nil {
					r.logger.Infof("recording expired after %s with %d samples", r.limit, len(r.samples))
				}
			}
			r.mu.Unlock()
			return
		case <-ticker.C:
			snap, err := r.sampler.Sample()
			if err != nil {
				if r.logger != nil {
					r.logger.Warnf("recording tick skipped: %v", err)
				}
				continue
			}
			r.mu.Lock()
			if r.active && ctx.Err() == nil {
				r.samples = append(r.samples, snap)
			}
			r.mu.Unlock()
		}
	}
}
