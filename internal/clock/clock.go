// Package clock implements the seqlock-protected audio clock shared between
// the callback thread and control-plane callers: a monotonically advancing
// DSP frame counter with wall-clock interpolation for sub-callback
// precision, and a reader protocol that never returns a torn pair.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock reports DSP time to callers outside the audio callback. The
// callback thread is the sole writer; any number of goroutines may read
// concurrently.
type Clock struct {
	seq         atomic.Uint64 // odd: write in progress; even: quiescent
	dspFrames   atomic.Int64  // protected by seq, not independently atomic w.r.t. readers
	timestampNs atomic.Int64  // protected by seq

	sampleRate int32
	bufferSize int32
}

// New returns a Clock for the given output sample rate and callback buffer
// size, both fixed for the Clock's lifetime.
func New(sampleRate, bufferSize int32) *Clock {
	return &Clock{sampleRate: sampleRate, bufferSize: bufferSize}
}

// Advance records that framesProcessed frames were just written to the
// output and stamps the current time. Call once at the end of each
// callback, from the callback thread only.
func (c *Clock) Advance(framesProcessed int) {
	c.seq.Add(1) // now odd: write in progress
	c.dspFrames.Add(int64(framesProcessed))
	c.timestampNs.Store(time.Now().UnixNano())
	c.seq.Add(1) // now even: quiescent
}

// read returns a consistent (frames, timestampNs) pair, retrying until it
// catches the clock outside a write.
func (c *Clock) read() (frames, ts int64) {
	for {
		s0 := c.seq.Load()
		if s0&1 != 0 {
			continue // write in progress
		}
		frames = c.dspFrames.Load()
		ts = c.timestampNs.Load()
		if c.seq.Load() == s0 {
			return frames, ts
		}
	}
}

// TimeSeconds returns the current DSP time, interpolated from wall-clock
// elapsed time since the last Advance and clamped to at most two buffer
// periods (or 50ms if bufferSize is unknown) to avoid runaway extrapolation
// if the callback thread stalls.
func (c *Clock) TimeSeconds() float64 {
	if c.sampleRate <= 0 {
		return 0
	}

	frames, ts := c.read()
	baseTime := float64(frames) / float64(c.sampleRate)

	if ts == 0 {
		return baseTime
	}

	elapsed := float64(time.Now().UnixNano()-ts) * 1e-9

	maxElapsed := 0.05
	if c.bufferSize > 0 {
		maxElapsed = 2.0 * float64(c.bufferSize) / float64(c.sampleRate)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > maxElapsed {
		elapsed = maxElapsed
	}

	return baseTime + elapsed
}

// Frames returns the raw DSP frame count with no interpolation.
func (c *Clock) Frames() int64 {
	frames, _ := c.read()
	return frames
}

// Reset zeroes the clock, for use when the engine stops and restarts.
func (c *Clock) Reset() {
	c.seq.Add(1)
	c.dspFrames.Store(0)
	c.timestampNs.Store(0)
	c.seq.Add(1)
}
