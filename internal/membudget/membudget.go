// Package membudget tracks how much compressed and decoded audio data the
// engine is holding, against configurable ceilings, so a host can refuse to
// load another clip rather than let the process grow unbounded.
package membudget

import "sync/atomic"

// Config sets the ceilings and warning threshold for a Budget. The zero
// value is not useful; use DefaultConfig.
type Config struct {
	MaxCompressedBytes uint64
	MaxDecodedBytes    uint64
	WarningThreshold   float32 // fraction of a ceiling, e.g. 0.85 for 85%
}

// DefaultConfig mirrors the original engine's defaults: 64MB of compressed
// source data, 8MB of decoded scratch, warn at 85% of either.
func DefaultConfig() Config {
	return Config{
		MaxCompressedBytes: 64 * 1024 * 1024,
		MaxDecodedBytes:    8 * 1024 * 1024,
		WarningThreshold:   0.85,
	}
}

// Usage is a point-in-time snapshot returned by Budget.Usage.
type Usage struct {
	CompressedBytes   uint64
	DecodedBytes      uint64
	TotalBytes        uint64
	CompressedPercent float32
	DecodedPercent    float32
}

// Budget is a thread-safe pair of CAS-guarded byte counters, queryable from
// any goroutine.
type Budget struct {
	config     Config
	compressed atomic.Uint64
	decoded    atomic.Uint64
}

// New returns a Budget configured with cfg.
func New(cfg Config) *Budget {
	return &Budget{config: cfg}
}

// TryAllocCompressed reserves bytes against the compressed ceiling,
// returning false without side effects if doing so would exceed it.
func (b *Budget) TryAllocCompressed(bytes uint64) bool {
	return tryAlloc(&b.compressed, bytes, b.config.MaxCompressedBytes)
}

// FreeCompressed releases bytes previously reserved with
// TryAllocCompressed.
func (b *Budget) FreeCompressed(bytes uint64) {
	b.compressed.Add(^(bytes - 1)) // unsigned subtract
}

// TryAllocDecoded reserves bytes against the decoded ceiling, returning
// false without side effects if doing so would exceed it.
func (b *Budget) TryAllocDecoded(bytes uint64) bool {
	return tryAlloc(&b.decoded, bytes, b.config.MaxDecodedBytes)
}

// FreeDecoded releases bytes previously reserved with TryAllocDecoded.
func (b *Budget) FreeDecoded(bytes uint64) {
	b.decoded.Add(^(bytes - 1))
}

func tryAlloc(counter *atomic.Uint64, bytes, ceiling uint64) bool {
	for {
		current := counter.Load()
		desired := current + bytes
		if desired > ceiling {
			return false
		}
		if counter.CompareAndSwap(current, desired) {
			return true
		}
	}
}

// Usage returns a snapshot of current consumption.
func (b *Budget) Usage() Usage {
	compressed := b.compressed.Load()
	decoded := b.decoded.Load()
	u := Usage{
		CompressedBytes: compressed,
		DecodedBytes:    decoded,
		TotalBytes:      compressed + decoded,
	}
	if b.config.MaxCompressedBytes > 0 {
		u.CompressedPercent = float32(compressed) / float32(b.config.MaxCompressedBytes)
	}
	if b.config.MaxDecodedBytes > 0 {
		u.DecodedPercent = float32(decoded) / float32(b.config.MaxDecodedBytes)
	}
	return u
}

// IsWarning reports whether either counter is at or above the configured
// warning threshold.
func (b *Budget) IsWarning() bool {
	u := b.Usage()
	return u.CompressedPercent >= b.config.WarningThreshold || u.DecodedPercent >= b.config.WarningThreshold
}

// Config returns the Budget's configuration.
func (b *Budget) Config() Config {
	return b.config
}
